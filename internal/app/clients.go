package app

import (
	"context"
	"fmt"
	"time"

	"github.com/yungbote/skillsdna-backend/internal/platform/logger"
	"github.com/yungbote/skillsdna-backend/internal/platform/neo4jdb"
	"github.com/yungbote/skillsdna-backend/internal/platform/redisbus"
)

// Clients holds optional external connections; each is nil when not configured.
type Clients struct {
	Bus   *redisbus.Bus
	Neo4j *neo4jdb.Client
}

func wireClients(cfg Config, log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	bus, err := redisbus.New(cfg.Redis, log)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis bus: %w", err)
	}

	graph, err := neo4jdb.New(cfg.Neo4j, log)
	if err != nil {
		if bus != nil {
			_ = bus.Close()
		}
		return Clients{}, fmt.Errorf("init neo4j: %w", err)
	}

	return Clients{Bus: bus, Neo4j: graph}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Bus != nil {
		_ = c.Bus.Close()
	}
	if c.Neo4j != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = c.Neo4j.Close(ctx)
	}
}

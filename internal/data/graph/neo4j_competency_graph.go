package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	types "github.com/yungbote/skillsdna-backend/internal/domain"
	"github.com/yungbote/skillsdna-backend/internal/platform/logger"
	"github.com/yungbote/skillsdna-backend/internal/platform/neo4jdb"
)

// CompetencyGraph mirrors the competency taxonomy into Neo4j as
// (:Competency)-[:CHILD_OF]->(:Competency) and (:Module)-[:DEVELOPS]->(:Competency).
type CompetencyGraph struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

func NewCompetencyGraph(client *neo4jdb.Client, baseLog *logger.Logger) *CompetencyGraph {
	return &CompetencyGraph{client: client, log: baseLog.With("graph", "CompetencyGraph")}
}

// Enabled reports whether a Neo4j client is configured.
func (g *CompetencyGraph) Enabled() bool {
	return g != nil && g.client != nil && g.client.Driver != nil
}

func competencyNodes(comps []*types.Competency, syncedAt string) (nodes, parents []map[string]any) {
	nodes = make([]map[string]any, 0, len(comps))
	parents = make([]map[string]any, 0, len(comps))
	for _, c := range comps {
		if c == nil || c.ID == 0 {
			continue
		}
		nodes = append(nodes, map[string]any{
			"id":          int64(c.ID),
			"name":        c.Name,
			"category":    c.Category,
			"level":       c.Level,
			"description": c.Description,
			"synced_at":   syncedAt,
		})
		if c.ParentID != nil && *c.ParentID != 0 {
			parents = append(parents, map[string]any{
				"id":        int64(c.ID),
				"parent_id": int64(*c.ParentID),
			})
		}
	}
	return nodes, parents
}

// UpsertCompetencies merges the given competencies and replaces their CHILD_OF edges.
func (g *CompetencyGraph) UpsertCompetencies(ctx context.Context, comps []*types.Competency) error {
	if !g.Enabled() || len(comps) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	nodes, parents := competencyNodes(comps, time.Now().UTC().Format(time.RFC3339Nano))
	ids := make([]int64, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n["id"].(int64))
	}

	session := g.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: g.client.Database,
	})
	defer session.Close(ctx)

	g.ensureSchema(ctx, session)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		steps := []struct {
			cypher string
			params map[string]any
		}{
			{`
UNWIND $nodes AS n
MERGE (c:Competency {id: n.id})
SET c += n
`, map[string]any{"nodes": nodes}},
			{`
MATCH (c:Competency)-[r:CHILD_OF]->(:Competency)
WHERE c.id IN $ids
DELETE r
`, map[string]any{"ids": ids}},
			{`
UNWIND $parents AS p
MATCH (c:Competency {id: p.id})
MERGE (parent:Competency {id: p.parent_id})
MERGE (c)-[:CHILD_OF]->(parent)
`, map[string]any{"parents": parents}},
		}
		for _, s := range steps {
			res, err := tx.Run(ctx, s.cypher, s.params)
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("neo4j competency sync: %w", err)
	}
	return nil
}

// UpsertModuleLinks merges (:Module)-[:DEVELOPS]->(:Competency) edges.
func (g *CompetencyGraph) UpsertModuleLinks(ctx context.Context, links []*types.ModuleCompetencyLink) error {
	if !g.Enabled() || len(links) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	rels := make([]map[string]any, 0, len(links))
	for _, l := range links {
		if l == nil || l.ModuleID == 0 || l.DNAID == 0 {
			continue
		}
		rels = append(rels, map[string]any{
			"module_id":   int64(l.ModuleID),
			"dna_id":      int64(l.DNAID),
			"importance":  int64(l.Importance),
			"bloom_level": string(l.BloomLevel),
		})
	}

	session := g.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: g.client.Database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
UNWIND $rels AS r
MERGE (m:Module {id: r.module_id})
MERGE (c:Competency {id: r.dna_id})
MERGE (m)-[e:DEVELOPS]->(c)
SET e.importance = r.importance,
    e.bloom_level = r.bloom_level
`, map[string]any{"rels": rels})
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("neo4j module link sync: %w", err)
	}
	return nil
}

// ensureSchema is best effort; restricted users may not create constraints.
func (g *CompetencyGraph) ensureSchema(ctx context.Context, session neo4j.SessionWithContext) {
	for _, stmt := range []string{
		`CREATE CONSTRAINT competency_id_unique IF NOT EXISTS FOR (c:Competency) REQUIRE c.id IS UNIQUE`,
		`CREATE INDEX competency_category_idx IF NOT EXISTS FOR (c:Competency) ON (c.category)`,
	} {
		res, err := session.Run(ctx, stmt, nil)
		if err != nil {
			g.log.Warn("neo4j schema init failed (continuing)", "error", err)
			continue
		}
		_, _ = res.Consume(ctx)
	}
}

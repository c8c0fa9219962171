package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/skillsdna-backend/internal/data/aggregates"
	"github.com/yungbote/skillsdna-backend/internal/data/graph"
	"github.com/yungbote/skillsdna-backend/internal/data/repos"
	"github.com/yungbote/skillsdna-backend/internal/observability"
	"github.com/yungbote/skillsdna-backend/internal/platform/logger"
	"github.com/yungbote/skillsdna-backend/internal/services"
	"github.com/yungbote/skillsdna-backend/internal/skillmap"
)

type Services struct {
	ProgressAggregate *aggregates.ProgressAggregate

	Competency    services.CompetencyService
	CompetencyMap services.CompetencyMapService
	Progress      services.ProgressService
	Summary       services.SummaryService
}

func wireServices(db *gorm.DB, log *logger.Logger, rs repos.Set, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	table, err := skillmap.Load()
	if err != nil {
		return Services{}, fmt.Errorf("load skill mappings: %w", err)
	}
	log.Info("skill mappings loaded", "entries", table.Len())

	agg := aggregates.NewProgressAggregate(aggregates.ProgressAggregateDeps{
		Base: aggregates.BaseDeps{
			DB:    db,
			Log:   log,
			Hooks: aggregates.NewMetricsHooks(metrics),
		},
		Users:        rs.Users,
		Competencies: rs.Competency,
		Progress:     rs.Progress,
		Resolver:     skillmap.NewResolver(table, log),
	})

	var pub services.EventPublisher
	if clients.Bus != nil {
		pub = clients.Bus
	}
	var projector services.TaxonomyProjector
	if clients.Neo4j != nil {
		projector = graph.NewCompetencyGraph(clients.Neo4j, log)
	}

	return Services{
		ProgressAggregate: agg,
		Competency:        services.NewCompetencyService(log, rs, projector),
		CompetencyMap:     services.NewCompetencyMapService(log, rs),
		Progress:          services.NewProgressService(log, rs, agg, services.NewProgressNotifier(pub, log, metrics), metrics),
		Summary:           services.NewSummaryService(log, rs.Users, rs.Progress),
	}, nil
}

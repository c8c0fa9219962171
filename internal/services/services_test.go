package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/skillsdna-backend/internal/data/aggregates"
	"github.com/yungbote/skillsdna-backend/internal/data/repos"
	"github.com/yungbote/skillsdna-backend/internal/data/repos/testutil"
	types "github.com/yungbote/skillsdna-backend/internal/domain"
	"github.com/yungbote/skillsdna-backend/internal/platform/dbctx"
	"github.com/yungbote/skillsdna-backend/internal/platform/logger"
	"github.com/yungbote/skillsdna-backend/internal/skillmap"
)

type publishedEvent struct {
	eventType string
	userID    uint
	data      any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, userID uint, data any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{eventType: eventType, userID: userID, data: data})
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type recordingProjector struct {
	mu    sync.Mutex
	comps []uint
	links int
	err   error
}

func (p *recordingProjector) UpsertCompetencies(_ context.Context, comps []*types.Competency) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range comps {
		p.comps = append(p.comps, c.ID)
	}
	return p.err
}

func (p *recordingProjector) UpsertModuleLinks(_ context.Context, links []*types.ModuleCompetencyLink) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.links += len(links)
	return p.err
}

type env struct {
	ctx   context.Context
	db    *gorm.DB
	dbc   dbctx.Context
	log   *logger.Logger
	repos repos.Set
	pub   *recordingPublisher
	proj  *recordingProjector

	competency CompetencyService
	progress   ProgressService
	summary    SummaryService
	maps       CompetencyMapService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	rs := repos.NewSet(db, log)

	table, err := skillmap.NewTable([]skillmap.Entry{
		{Skill: "Машинное обучение", Competency: "Машинное обучение", Weight: 1},
		{Skill: "Python", Competency: "Python", Weight: 1},
		{Skill: "Python", Competency: "Программирование", Weight: 0.6},
		{Skill: "Математическая статистика", Competency: "Статистика", Weight: 1.2},
	})
	require.NoError(t, err)

	agg := aggregates.NewProgressAggregate(aggregates.ProgressAggregateDeps{
		Base:         aggregates.BaseDeps{DB: db, Log: log},
		Users:        rs.Users,
		Competencies: rs.Competency,
		Progress:     rs.Progress,
		Resolver:     skillmap.NewResolver(table, log),
	})

	e := &env{
		ctx:   context.Background(),
		db:    db,
		dbc:   dbctx.Context{Ctx: context.Background()},
		log:   log,
		repos: rs,
		pub:   &recordingPublisher{},
		proj:  &recordingProjector{},
	}
	e.competency = NewCompetencyService(log, rs, e.proj)
	e.progress = NewProgressService(log, rs, agg, NewProgressNotifier(e.pub, log, nil), nil)
	e.summary = NewSummaryService(log, rs.Users, rs.Progress)
	e.maps = NewCompetencyMapService(log, rs)
	return e
}

func uintPtr(v uint) *uint { return &v }

func strPtr(v string) *string { return &v }

func floatPtr(v float64) *float64 { return &v }

package services

import (
	"context"
	"fmt"
	"math"

	"github.com/yungbote/skillsdna-backend/internal/data/repos"
	types "github.com/yungbote/skillsdna-backend/internal/domain"
	"github.com/yungbote/skillsdna-backend/internal/domain/skills"
	"github.com/yungbote/skillsdna-backend/internal/platform/dbctx"
	"github.com/yungbote/skillsdna-backend/internal/platform/logger"
)

type CategorySummary struct {
	AvgProgress int                 `json:"avgProgress"`
	Count       int                 `json:"count"`
	MaxLevel    skills.MasteryLevel `json:"maxLevel"`
}

type SummaryService interface {
	Summary(ctx context.Context, userID uint) (map[string]CategorySummary, error)
}

type summaryService struct {
	log   *logger.Logger
	users repos.UserRepo
	rows  repos.ProgressRepo
}

func NewSummaryService(baseLog *logger.Logger, users repos.UserRepo, progress repos.ProgressRepo) SummaryService {
	return &summaryService{
		log:   baseLog.With("service", "SummaryService"),
		users: users,
		rows:  progress,
	}
}

func (s *summaryService) Summary(ctx context.Context, userID uint) (map[string]CategorySummary, error) {
	dbc := dbctx.Context{Ctx: ctx}
	if err := requireUser(dbc, s.users, userID); err != nil {
		return nil, err
	}
	rows, err := s.rows.ListWithCompetencyByUser(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load progress for summary: %w", err)
	}
	return Summarize(rows), nil
}

// Summarize groups rows by competency category. avgProgress is the rounded unweighted
// mean; maxLevel compares ladder positions, not names.
func Summarize(rows []*types.ProgressWithCompetency) map[string]CategorySummary {
	type acc struct {
		sum   float64
		count int
		max   skills.MasteryLevel
	}
	groups := map[string]*acc{}
	for _, r := range rows {
		if r == nil {
			continue
		}
		g := groups[r.CompetencyCategory]
		if g == nil {
			g = &acc{max: r.CurrentLevel}
			groups[r.CompetencyCategory] = g
		}
		g.sum += r.Progress
		g.count++
		g.max = skills.HigherLevel(g.max, r.CurrentLevel)
	}

	out := make(map[string]CategorySummary, len(groups))
	for category, g := range groups {
		out[category] = CategorySummary{
			AvgProgress: int(math.Round(g.sum / float64(g.count))),
			Count:       g.count,
			MaxLevel:    g.max,
		}
	}
	return out
}

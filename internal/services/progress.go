package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/yungbote/skillsdna-backend/internal/data/aggregates"
	"github.com/yungbote/skillsdna-backend/internal/data/repos"
	types "github.com/yungbote/skillsdna-backend/internal/domain"
	"github.com/yungbote/skillsdna-backend/internal/domain/skills"
	"github.com/yungbote/skillsdna-backend/internal/observability"
	"github.com/yungbote/skillsdna-backend/internal/platform/apierr"
	"github.com/yungbote/skillsdna-backend/internal/platform/dbctx"
	"github.com/yungbote/skillsdna-backend/internal/platform/logger"
)

const (
	DiagnosticQuick = "quick"
	DiagnosticDeep  = "deep"
)

type DiagnosticSubmission struct {
	UserID         uint
	Skills         map[string]float64
	DiagnosticType string
	Metadata       map[string]interface{}
}

type SaveResultsResult struct {
	Success       bool                             `json:"success"`
	SavedProgress []*types.UserCompetencyProgress `json:"savedProgress"`
}

// ManualProgressUpdate uses raw strings for levels so validation errors carry the offending value.
type ManualProgressUpdate struct {
	DNAID        uint
	CurrentLevel *string
	TargetLevel  *string
	Progress     *float64
}

type ProgressService interface {
	SaveResults(ctx context.Context, in DiagnosticSubmission) (*SaveResultsResult, error)
	ListProgress(ctx context.Context, userID uint) ([]*types.ProgressWithCompetency, error)
	UpsertProgress(ctx context.Context, userID uint, in ManualProgressUpdate) (*types.UserCompetencyProgress, error)
}

type progressService struct {
	log      *logger.Logger
	repos    repos.Set
	agg      *aggregates.ProgressAggregate
	notifier ProgressNotifier
	metrics  *observability.Metrics
}

func NewProgressService(baseLog *logger.Logger, rs repos.Set, agg *aggregates.ProgressAggregate, notifier ProgressNotifier, metrics *observability.Metrics) ProgressService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &progressService{
		log:      baseLog.With("service", "ProgressService"),
		repos:    rs,
		agg:      agg,
		notifier: notifier,
		metrics:  metrics,
	}
}

func (s *progressService) SaveResults(ctx context.Context, in DiagnosticSubmission) (*SaveResultsResult, error) {
	diagType := strings.ToLower(strings.TrimSpace(in.DiagnosticType))
	if diagType != DiagnosticQuick && diagType != DiagnosticDeep {
		s.metrics.ObserveDiagnostic("invalid", "rejected", 0)
		return nil, apierr.BadRequest("validation_error", "diagnosticType must be %q or %q", DiagnosticQuick, DiagnosticDeep)
	}
	if in.UserID == 0 {
		s.metrics.ObserveDiagnostic(diagType, "rejected", 0)
		return nil, apierr.BadRequest("validation_error", "userId is required")
	}
	for name, score := range in.Skills {
		if math.IsNaN(score) || math.IsInf(score, 0) {
			s.metrics.ObserveDiagnostic(diagType, "rejected", 0)
			return nil, apierr.BadRequest("validation_error", "score for %q is not a number", name)
		}
	}

	res, err := s.agg.ApplyDiagnostic(ctx, aggregates.DiagnosticInput{
		UserID:         in.UserID,
		Skills:         in.Skills,
		DiagnosticType: diagType,
		Metadata:       in.Metadata,
	})
	if err != nil {
		status := "error"
		if apierr.StatusOf(err) < 500 {
			status = "rejected"
		}
		s.metrics.ObserveDiagnostic(diagType, status, 0)
		return nil, err
	}
	s.metrics.ObserveDiagnostic(diagType, "success", res.Resolved)
	s.log.Info("diagnostic saved",
		"user_id", in.UserID,
		"diagnostic_type", diagType,
		"resolved", res.Resolved,
		"saved", len(res.Saved),
	)

	s.notifier.ProgressUpdated(ctx, in.UserID, skills.DiagnosticSource(diagType), res.Saved)

	saved := res.Saved
	if saved == nil {
		saved = []*types.UserCompetencyProgress{}
	}
	return &SaveResultsResult{Success: true, SavedProgress: saved}, nil
}

func (s *progressService) ListProgress(ctx context.Context, userID uint) ([]*types.ProgressWithCompetency, error) {
	dbc := dbctx.Context{Ctx: ctx}
	if err := requireUser(dbc, s.repos.Users, userID); err != nil {
		return nil, err
	}
	rows, err := s.repos.Progress.ListWithCompetencyByUser(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("list progress for user %d: %w", userID, err)
	}
	return rows, nil
}

func (s *progressService) UpsertProgress(ctx context.Context, userID uint, in ManualProgressUpdate) (*types.UserCompetencyProgress, error) {
	if in.DNAID == 0 {
		return nil, apierr.BadRequest("validation_error", "dnaId is required")
	}
	input := aggregates.ManualProgressInput{UserID: userID, DNAID: in.DNAID}
	if in.CurrentLevel != nil {
		lvl, ok := skills.ParseMasteryLevel(*in.CurrentLevel)
		if !ok {
			return nil, apierr.BadRequest("validation_error", "unknown currentLevel %q", *in.CurrentLevel)
		}
		input.CurrentLevel = &lvl
	}
	if in.TargetLevel != nil {
		lvl, ok := skills.ParseMasteryLevel(*in.TargetLevel)
		if !ok {
			return nil, apierr.BadRequest("validation_error", "unknown targetLevel %q", *in.TargetLevel)
		}
		input.TargetLevel = &lvl
	}
	if in.Progress != nil {
		p := *in.Progress
		if math.IsNaN(p) || p < 0 || p > 100 {
			return nil, apierr.BadRequest("validation_error", "progress must be between 0 and 100")
		}
		input.Progress = &p
	}

	row, err := s.agg.UpsertManual(ctx, input)
	if err != nil {
		return nil, err
	}
	s.notifier.ProgressUpdated(ctx, userID, skills.SourceManual, []*types.UserCompetencyProgress{row})
	return row, nil
}

func requireUser(dbc dbctx.Context, users repos.UserRepo, userID uint) error {
	ok, err := users.Exists(dbc, userID)
	if err != nil {
		return fmt.Errorf("load user %d: %w", userID, err)
	}
	if !ok {
		return apierr.NotFound("user_not_found", "user %d not found", userID)
	}
	return nil
}

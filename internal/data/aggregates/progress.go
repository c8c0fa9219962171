package aggregates

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/datatypes"

	"github.com/yungbote/skillsdna-backend/internal/data/repos"
	types "github.com/yungbote/skillsdna-backend/internal/domain"
	"github.com/yungbote/skillsdna-backend/internal/domain/skills"
	"github.com/yungbote/skillsdna-backend/internal/platform/apierr"
	"github.com/yungbote/skillsdna-backend/internal/platform/dbctx"
)

const (
	opApplyDiagnostic = "progress.apply_diagnostic"
	opUpsertManual    = "progress.upsert_manual"

	// maxCASAttempts bounds re-reads of one progress row after losing a version race.
	maxCASAttempts = 3

	lastDiagnosticKey = "lastDiagnostic"
)

// ScoreResolver turns a diagnostic's skill scores into one best score per competency.
type ScoreResolver interface {
	ResolveAll(skills map[string]float64, taxonomy []*types.Competency) map[uint]float64
}

type ProgressAggregateDeps struct {
	Base BaseDeps

	Users        repos.UserRepo
	Competencies repos.CompetencyRepo
	Progress     repos.ProgressRepo
	Resolver     ScoreResolver
}

type DiagnosticInput struct {
	UserID         uint
	Skills         map[string]float64
	DiagnosticType string
	Metadata       map[string]interface{}
}

type DiagnosticResult struct {
	// Saved holds only rows this call inserted or raised, in competency id order.
	Saved    []*types.UserCompetencyProgress
	Resolved int
	At       time.Time
}

type ManualProgressInput struct {
	UserID       uint
	DNAID        uint
	CurrentLevel *skills.MasteryLevel
	TargetLevel  *skills.MasteryLevel
	Progress     *float64
}

type ProgressAggregate struct {
	deps ProgressAggregateDeps
}

func NewProgressAggregate(deps ProgressAggregateDeps) *ProgressAggregate {
	deps.Base = deps.Base.withDefaults()
	return &ProgressAggregate{deps: deps}
}

// ApplyDiagnostic folds one diagnostic submission into the user's progress rows and
// stamps onboarding, all in one transaction. Stored progress is never lowered.
func (a *ProgressAggregate) ApplyDiagnostic(ctx context.Context, in DiagnosticInput) (DiagnosticResult, error) {
	var out DiagnosticResult
	err := executeWrite(ctx, a.deps.Base, opApplyDiagnostic, func(dbc dbctx.Context) error {
		out = DiagnosticResult{At: a.deps.Base.Now()}

		user, err := a.deps.Users.GetByID(dbc, in.UserID)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if user == nil {
			return apierr.NotFound("user_not_found", "user %d not found", in.UserID)
		}

		taxonomy, err := a.deps.Competencies.List(dbc)
		if err != nil {
			return fmt.Errorf("load taxonomy: %w", err)
		}
		scores := a.deps.Resolver.ResolveAll(in.Skills, taxonomy)
		out.Resolved = len(scores)

		source := skills.DiagnosticSource(in.DiagnosticType)
		for _, dnaID := range sortedIDs(scores) {
			row, err := a.raiseProgress(dbc, in.UserID, dnaID, scores[dnaID], source, out.At)
			if err != nil {
				return err
			}
			if row != nil {
				out.Saved = append(out.Saved, row)
			}
		}

		meta := mergeLastDiagnostic(user.Metadata, in.DiagnosticType, in.Metadata, out.At)
		if err := a.deps.Users.MarkOnboarded(dbc, user.ID, out.At, meta); err != nil {
			return fmt.Errorf("mark onboarded: %w", err)
		}
		return nil
	})
	if err != nil {
		return DiagnosticResult{}, err
	}
	return out, nil
}

// raiseProgress inserts or raises one progress row. It returns nil when the stored
// progress is already at least score.
func (a *ProgressAggregate) raiseProgress(dbc dbctx.Context, userID, dnaID uint, score float64, source string, now time.Time) (*types.UserCompetencyProgress, error) {
	level := skills.LevelFor(score)
	snap := types.AssessmentSnapshot{Date: now, Level: level, Progress: score, Source: source}

	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		existing, err := a.deps.Progress.Get(dbc, userID, dnaID)
		if err != nil {
			return nil, fmt.Errorf("load progress %d: %w", dnaID, err)
		}

		if existing == nil {
			row := &types.UserCompetencyProgress{
				UserID:             userID,
				DNAID:              dnaID,
				CurrentLevel:       level,
				Progress:           score,
				LastAssessmentDate: &now,
				AssessmentHistory:  datatypes.JSONSlice[types.AssessmentSnapshot]{snap},
				Version:            1,
			}
			ok, err := a.deps.Progress.InsertIfAbsent(dbc, row)
			if err != nil {
				return nil, fmt.Errorf("insert progress %d: %w", dnaID, err)
			}
			if ok {
				a.deps.Base.Hooks.IncWrite(source, "insert")
				return row, nil
			}
			a.deps.Base.Hooks.IncRetry(opApplyDiagnostic)
			continue
		}

		if existing.Progress >= score {
			return nil, nil
		}

		history := appendSnapshot(existing.AssessmentHistory, snap)
		ok, err := a.deps.Progress.UpdateIfVersion(dbc, existing.ID, existing.Version, map[string]interface{}{
			"current_level":        level,
			"progress":             score,
			"last_assessment_date": now,
			"assessment_history":   history,
			"updated_at":           now,
		})
		if err != nil {
			return nil, fmt.Errorf("update progress %d: %w", dnaID, err)
		}
		if ok {
			existing.CurrentLevel = level
			existing.Progress = score
			existing.LastAssessmentDate = &now
			existing.AssessmentHistory = history
			existing.UpdatedAt = now
			existing.Version++
			a.deps.Base.Hooks.IncWrite(source, "update")
			return existing, nil
		}
		a.deps.Base.Hooks.IncRetry(opApplyDiagnostic)
	}
	return nil, apierr.Conflict("progress_conflict", "progress for competency %d changed concurrently", dnaID)
}

// UpsertManual applies an explicit progress edit. Unlike diagnostics it may lower progress.
// A history entry is appended when progress or level changes.
func (a *ProgressAggregate) UpsertManual(ctx context.Context, in ManualProgressInput) (*types.UserCompetencyProgress, error) {
	var out *types.UserCompetencyProgress
	err := executeWrite(ctx, a.deps.Base, opUpsertManual, func(dbc dbctx.Context) error {
		now := a.deps.Base.Now()

		ok, err := a.deps.Users.Exists(dbc, in.UserID)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if !ok {
			return apierr.NotFound("user_not_found", "user %d not found", in.UserID)
		}
		comp, err := a.deps.Competencies.GetByID(dbc, in.DNAID)
		if err != nil {
			return fmt.Errorf("load competency: %w", err)
		}
		if comp == nil {
			return apierr.NotFound("competency_not_found", "competency %d not found", in.DNAID)
		}

		for attempt := 0; attempt < maxCASAttempts; attempt++ {
			existing, err := a.deps.Progress.Get(dbc, in.UserID, in.DNAID)
			if err != nil {
				return fmt.Errorf("load progress: %w", err)
			}
			if existing == nil {
				row := newManualRow(in, now)
				inserted, err := a.deps.Progress.InsertIfAbsent(dbc, row)
				if err != nil {
					return fmt.Errorf("insert progress: %w", err)
				}
				if inserted {
					a.deps.Base.Hooks.IncWrite(skills.SourceManual, "insert")
					out = row
					return nil
				}
				a.deps.Base.Hooks.IncRetry(opUpsertManual)
				continue
			}

			next := *existing
			applyManual(&next, in, now)
			fields := map[string]interface{}{
				"current_level":        next.CurrentLevel,
				"target_level":         next.TargetLevel,
				"progress":             next.Progress,
				"last_assessment_date": now,
				"assessment_history":   next.AssessmentHistory,
				"updated_at":           now,
			}
			updated, err := a.deps.Progress.UpdateIfVersion(dbc, existing.ID, existing.Version, fields)
			if err != nil {
				return fmt.Errorf("update progress: %w", err)
			}
			if updated {
				next.Version++
				a.deps.Base.Hooks.IncWrite(skills.SourceManual, "update")
				out = &next
				return nil
			}
			a.deps.Base.Hooks.IncRetry(opUpsertManual)
		}
		return apierr.Conflict("progress_conflict", "progress for competency %d changed concurrently", in.DNAID)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func newManualRow(in ManualProgressInput, now time.Time) *types.UserCompetencyProgress {
	row := &types.UserCompetencyProgress{
		UserID:             in.UserID,
		DNAID:              in.DNAID,
		CurrentLevel:       skills.LevelAwareness,
		LastAssessmentDate: &now,
		AssessmentHistory:  datatypes.JSONSlice[types.AssessmentSnapshot]{},
		Version:            1,
	}
	if in.CurrentLevel != nil {
		row.CurrentLevel = *in.CurrentLevel
	}
	if in.TargetLevel != nil {
		lvl := *in.TargetLevel
		row.TargetLevel = &lvl
	}
	if in.Progress != nil {
		row.Progress = *in.Progress
	}
	row.AssessmentHistory = append(row.AssessmentHistory, types.AssessmentSnapshot{
		Date: now, Level: row.CurrentLevel, Progress: row.Progress, Source: skills.SourceManual,
	})
	return row
}

func applyManual(row *types.UserCompetencyProgress, in ManualProgressInput, now time.Time) {
	changed := false
	if in.CurrentLevel != nil && *in.CurrentLevel != row.CurrentLevel {
		row.CurrentLevel = *in.CurrentLevel
		changed = true
	}
	if in.Progress != nil && *in.Progress != row.Progress {
		row.Progress = *in.Progress
		changed = true
	}
	if in.TargetLevel != nil {
		lvl := *in.TargetLevel
		row.TargetLevel = &lvl
	}
	row.LastAssessmentDate = &now
	row.UpdatedAt = now
	if changed {
		row.AssessmentHistory = appendSnapshot(row.AssessmentHistory, types.AssessmentSnapshot{
			Date: now, Level: row.CurrentLevel, Progress: row.Progress, Source: skills.SourceManual,
		})
	}
}

// appendSnapshot copies history before appending so the caller's slice is never aliased.
func appendSnapshot(history datatypes.JSONSlice[types.AssessmentSnapshot], snap types.AssessmentSnapshot) datatypes.JSONSlice[types.AssessmentSnapshot] {
	out := make(datatypes.JSONSlice[types.AssessmentSnapshot], 0, len(history)+1)
	out = append(out, history...)
	return append(out, snap)
}

// mergeLastDiagnostic returns a copy of meta with only the lastDiagnostic key replaced.
func mergeLastDiagnostic(meta datatypes.JSONMap, diagnosticType string, extra map[string]interface{}, at time.Time) datatypes.JSONMap {
	out := make(datatypes.JSONMap, len(meta)+1)
	for k, v := range meta {
		out[k] = v
	}
	last := map[string]interface{}{
		"type":        diagnosticType,
		"completedAt": at.Format(time.RFC3339),
	}
	if len(extra) > 0 {
		last["metadata"] = extra
	}
	out[lastDiagnosticKey] = last
	return out
}

func sortedIDs(scores map[uint]float64) []uint {
	ids := make([]uint, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

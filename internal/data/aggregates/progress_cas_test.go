package aggregates_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/yungbote/skillsdna-backend/internal/data/aggregates"
	"github.com/yungbote/skillsdna-backend/internal/data/repos"
	types "github.com/yungbote/skillsdna-backend/internal/domain"
	"github.com/yungbote/skillsdna-backend/internal/domain/skills"
	"github.com/yungbote/skillsdna-backend/internal/platform/apierr"
	"github.com/yungbote/skillsdna-backend/internal/platform/dbctx"
)

// racingProgressRepo loses the first N compare-and-set writes. When a rival is set it
// commits that competing write first, so the wrapped call fails on the real version
// check; otherwise the call is reported as lost without touching the row.
type racingProgressRepo struct {
	repos.ProgressRepo

	mu           sync.Mutex
	updateLosses int
	insertLosses int
	rivalUpdate  func(dbc dbctx.Context, inner repos.ProgressRepo, id uint, version int) error
	rivalInsert  func(dbc dbctx.Context, inner repos.ProgressRepo, row *types.UserCompetencyProgress) error
	updateCalls  int
	insertCalls  int
}

func (r *racingProgressRepo) UpdateIfVersion(dbc dbctx.Context, id uint, expectedVersion int, fields map[string]interface{}) (bool, error) {
	r.mu.Lock()
	r.updateCalls++
	lose := r.updateLosses > 0
	if lose {
		r.updateLosses--
	}
	r.mu.Unlock()

	if lose {
		if r.rivalUpdate == nil {
			return false, nil
		}
		if err := r.rivalUpdate(dbc, r.ProgressRepo, id, expectedVersion); err != nil {
			return false, err
		}
	}
	return r.ProgressRepo.UpdateIfVersion(dbc, id, expectedVersion, fields)
}

func (r *racingProgressRepo) InsertIfAbsent(dbc dbctx.Context, row *types.UserCompetencyProgress) (bool, error) {
	r.mu.Lock()
	r.insertCalls++
	lose := r.insertLosses > 0
	if lose {
		r.insertLosses--
	}
	r.mu.Unlock()

	if lose {
		if r.rivalInsert == nil {
			return false, nil
		}
		if err := r.rivalInsert(dbc, r.ProgressRepo, row); err != nil {
			return false, err
		}
	}
	return r.ProgressRepo.InsertIfAbsent(dbc, row)
}

// rivalRaise commits a competing diagnostic that sets progress at the caller's version.
func rivalRaise(score float64) func(dbctx.Context, repos.ProgressRepo, uint, int) error {
	return func(dbc dbctx.Context, inner repos.ProgressRepo, id uint, version int) error {
		ok, err := inner.UpdateIfVersion(dbc, id, version, map[string]interface{}{
			"progress":      score,
			"current_level": skills.LevelFor(score),
		})
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("rival write did not apply")
		}
		return nil
	}
}

func (f *fixture) applyML(t *testing.T, agg *aggregates.ProgressAggregate, score float64) (aggregates.DiagnosticResult, error) {
	t.Helper()
	return agg.ApplyDiagnostic(context.Background(), aggregates.DiagnosticInput{
		UserID:         f.user.ID,
		Skills:         map[string]float64{"Машинное обучение": score},
		DiagnosticType: "quick",
	})
}

func TestApplyDiagnosticLostRaceToHigherScoreSkipsWrite(t *testing.T) {
	f := newFixture(t)
	_, err := f.applyML(t, f.agg, 50)
	require.NoError(t, err)

	racer := &racingProgressRepo{ProgressRepo: f.repos.Progress, updateLosses: 1, rivalUpdate: rivalRaise(90)}
	res, err := f.applyML(t, f.aggregateWith(racer), 70)
	require.NoError(t, err)
	assert.Empty(t, res.Saved)
	assert.Equal(t, 1, racer.updateCalls)

	row := f.progress(t, f.ml.ID)
	assert.Equal(t, 90.0, row.Progress)
	assert.Equal(t, 2, row.Version)
	assert.Equal(t, []string{"progress.apply_diagnostic"}, f.hooks.Retries)
	assert.Equal(t, 0, f.hooks.CountWrites("update"))
}

func TestApplyDiagnosticLostRaceRetriesAtNewVersion(t *testing.T) {
	f := newFixture(t)
	_, err := f.applyML(t, f.agg, 50)
	require.NoError(t, err)

	racer := &racingProgressRepo{ProgressRepo: f.repos.Progress, updateLosses: 1, rivalUpdate: rivalRaise(60)}
	res, err := f.applyML(t, f.aggregateWith(racer), 70)
	require.NoError(t, err)
	require.Len(t, res.Saved, 1)
	assert.Equal(t, 70.0, res.Saved[0].Progress)
	assert.Equal(t, 3, res.Saved[0].Version)
	assert.Equal(t, 2, racer.updateCalls)

	row := f.progress(t, f.ml.ID)
	assert.Equal(t, 70.0, row.Progress)
	assert.Equal(t, skills.LevelApplication, row.CurrentLevel)
	assert.Equal(t, 3, row.Version)
	require.Len(t, row.AssessmentHistory, 2)
	assert.Equal(t, 70.0, row.AssessmentHistory[1].Progress)
	assert.Equal(t, []string{"progress.apply_diagnostic"}, f.hooks.Retries)
	assert.Equal(t, 1, f.hooks.CountWrites("update"))
}

func TestApplyDiagnosticLostInsertRaceUpdatesRivalRow(t *testing.T) {
	f := newFixture(t)

	racer := &racingProgressRepo{
		ProgressRepo: f.repos.Progress,
		insertLosses: 1,
		rivalInsert: func(dbc dbctx.Context, inner repos.ProgressRepo, row *types.UserCompetencyProgress) error {
			_, err := inner.InsertIfAbsent(dbc, &types.UserCompetencyProgress{
				UserID:            row.UserID,
				DNAID:             row.DNAID,
				CurrentLevel:      skills.LevelFor(40),
				Progress:          40,
				AssessmentHistory: datatypes.JSONSlice[types.AssessmentSnapshot]{},
				Version:           1,
			})
			return err
		},
	}
	res, err := f.applyML(t, f.aggregateWith(racer), 70)
	require.NoError(t, err)
	require.Len(t, res.Saved, 1)
	assert.Equal(t, 1, racer.insertCalls)
	assert.Equal(t, 1, racer.updateCalls)

	row := f.progress(t, f.ml.ID)
	assert.Equal(t, 70.0, row.Progress)
	assert.Equal(t, 2, row.Version)
	assert.Equal(t, []string{"progress.apply_diagnostic"}, f.hooks.Retries)
	assert.Equal(t, 0, f.hooks.CountWrites("insert"))
	assert.Equal(t, 1, f.hooks.CountWrites("update"))
}

func TestApplyDiagnosticConflictAfterExhaustedRetries(t *testing.T) {
	f := newFixture(t)
	_, err := f.applyML(t, f.agg, 50)
	require.NoError(t, err)
	callsBefore := f.runner.Calls

	racer := &racingProgressRepo{ProgressRepo: f.repos.Progress, updateLosses: 100}
	_, err = f.applyML(t, f.aggregateWith(racer), 70)
	require.Error(t, err)
	e, ok := apierr.As(err)
	require.True(t, ok, "want apierr, got %v", err)
	assert.Equal(t, http.StatusConflict, e.Status)
	assert.Equal(t, "progress_conflict", e.Code)

	assert.Equal(t, 3, racer.updateCalls)
	assert.Len(t, f.hooks.Retries, 3)
	assert.Equal(t, []string{"progress.apply_diagnostic"}, f.hooks.Conflicts)
	assert.Equal(t, "conflict", f.hooks.LastStatus())
	// a conflict is not a retryable infrastructure error
	assert.Equal(t, callsBefore+1, f.runner.Calls)

	row := f.progress(t, f.ml.ID)
	assert.Equal(t, 50.0, row.Progress)
	assert.Equal(t, 1, row.Version)
}

func TestUpsertManualConflictAfterExhaustedRetries(t *testing.T) {
	f := newFixture(t)
	progress := 30.0
	_, err := f.agg.UpsertManual(context.Background(), aggregates.ManualProgressInput{UserID: f.user.ID, DNAID: f.ml.ID, Progress: &progress})
	require.NoError(t, err)

	racer := &racingProgressRepo{ProgressRepo: f.repos.Progress, updateLosses: 100}
	next := 45.0
	_, err = f.aggregateWith(racer).UpsertManual(context.Background(), aggregates.ManualProgressInput{UserID: f.user.ID, DNAID: f.ml.ID, Progress: &next})
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, apierr.StatusOf(err))
	assert.Equal(t, 3, racer.updateCalls)
	assert.Equal(t, []string{"progress.upsert_manual", "progress.upsert_manual", "progress.upsert_manual"}, f.hooks.Retries)
	assert.Equal(t, []string{"progress.upsert_manual"}, f.hooks.Conflicts)
	assert.Equal(t, 30.0, f.progress(t, f.ml.ID).Progress)
}

func TestUpsertManualLostRaceAppliesAtNewVersion(t *testing.T) {
	f := newFixture(t)
	progress := 30.0
	_, err := f.agg.UpsertManual(context.Background(), aggregates.ManualProgressInput{UserID: f.user.ID, DNAID: f.ml.ID, Progress: &progress})
	require.NoError(t, err)

	racer := &racingProgressRepo{ProgressRepo: f.repos.Progress, updateLosses: 1, rivalUpdate: rivalRaise(80)}
	lower := 20.0
	row, err := f.aggregateWith(racer).UpsertManual(context.Background(), aggregates.ManualProgressInput{UserID: f.user.ID, DNAID: f.ml.ID, Progress: &lower})
	require.NoError(t, err)
	assert.Equal(t, 20.0, row.Progress)
	assert.Equal(t, 3, row.Version)

	stored := f.progress(t, f.ml.ID)
	assert.Equal(t, 20.0, stored.Progress)
	assert.Equal(t, 3, stored.Version)
	assert.Equal(t, []string{"progress.upsert_manual"}, f.hooks.Retries)
}

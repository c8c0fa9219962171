package services

import (
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/skillsdna-backend/internal/data/repos/testutil"
	types "github.com/yungbote/skillsdna-backend/internal/domain"
	"github.com/yungbote/skillsdna-backend/internal/domain/skills"
)

func progressRow(category string, progress float64, level skills.MasteryLevel) *types.ProgressWithCompetency {
	r := &types.ProgressWithCompetency{CompetencyCategory: category}
	r.Progress = progress
	r.CurrentLevel = level
	return r
}

func TestSummarize(t *testing.T) {
	cases := []struct {
		name string
		rows []*types.ProgressWithCompetency
		want map[string]CategorySummary
	}{
		{
			name: "empty",
			rows: nil,
			want: map[string]CategorySummary{},
		},
		{
			name: "rounded_mean_and_ladder_max",
			rows: []*types.ProgressWithCompetency{
				progressRow("technical", 55, skills.LevelApplication),
				progressRow("technical", 90, skills.LevelExpertise),
				progressRow("technical", 20, skills.LevelAwareness),
				progressRow("soft", 40.5, skills.LevelKnowledge),
			},
			want: map[string]CategorySummary{
				"technical": {AvgProgress: 55, Count: 3, MaxLevel: skills.LevelExpertise},
				"soft":      {AvgProgress: 41, Count: 1, MaxLevel: skills.LevelKnowledge},
			},
		},
		{
			// "mastery" sorts before "knowledge" alphabetically; the ladder must win
			name: "max_by_rank_not_name",
			rows: []*types.ProgressWithCompetency{
				progressRow("analytical", 70, skills.LevelMastery),
				progressRow("analytical", 30, skills.LevelKnowledge),
			},
			want: map[string]CategorySummary{
				"analytical": {AvgProgress: 50, Count: 2, MaxLevel: skills.LevelMastery},
			},
		},
		{
			name: "half_rounds_up",
			rows: []*types.ProgressWithCompetency{
				progressRow("x", 10, skills.LevelAwareness),
				progressRow("x", 11, skills.LevelAwareness),
			},
			want: map[string]CategorySummary{
				"x": {AvgProgress: 11, Count: 2, MaxLevel: skills.LevelAwareness},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Summarize(tc.rows)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("Summarize mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSummaryIsIdempotent(t *testing.T) {
	e := newEnv(t)
	user := testutil.SeedUser(t, e.ctx, e.db, "summary")
	a := testutil.SeedCompetency(t, e.ctx, e.db, "Python", "technical", nil)
	b := testutil.SeedCompetency(t, e.ctx, e.db, "SQL и базы данных", "technical", nil)
	c := testutil.SeedCompetency(t, e.ctx, e.db, "Коммуникация", "soft", nil)
	testutil.SeedProgress(t, e.ctx, e.db, user.ID, a.ID, 75)
	testutil.SeedProgress(t, e.ctx, e.db, user.ID, b.ID, 30)
	testutil.SeedProgress(t, e.ctx, e.db, user.ID, c.ID, 15)

	first, err := e.summary.Summary(e.ctx, user.ID)
	require.NoError(t, err)
	second, err := e.summary.Summary(e.ctx, user.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("summary changed between calls (-first +second):\n%s", diff)
	}

	want := map[string]CategorySummary{
		"technical": {AvgProgress: 53, Count: 2, MaxLevel: skills.LevelMastery},
		"soft":      {AvgProgress: 15, Count: 1, MaxLevel: skills.LevelAwareness},
	}
	if diff := cmp.Diff(want, first); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}

	_, err = e.summary.Summary(e.ctx, 999)
	requireAPIErr(t, err, http.StatusNotFound, "user_not_found")
}

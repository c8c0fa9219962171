package services

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/skillsdna-backend/internal/data/repos/testutil"
	"github.com/yungbote/skillsdna-backend/internal/domain/skills"
	"github.com/yungbote/skillsdna-backend/internal/platform/apierr"
)

func requireAPIErr(t *testing.T, err error, status int, code string) {
	t.Helper()
	require.Error(t, err)
	ae, ok := apierr.As(err)
	require.True(t, ok, "want apierr, got %T: %v", err, err)
	assert.Equal(t, status, ae.Status)
	assert.Equal(t, code, ae.Code)
}

func TestCompetencyCreateAndGet(t *testing.T) {
	e := newEnv(t)

	parent, err := e.competency.Create(e.ctx, CompetencyInput{
		Name:                 "  Программирование ",
		Category:             "technical",
		BehavioralIndicators: []string{"пишет код", " ", "читает код"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Программирование", parent.Name)
	assert.Equal(t, "basic", parent.Level)
	assert.Equal(t, []string{"пишет код", "читает код"}, []string(parent.BehavioralIndicators))

	child, err := e.competency.Create(e.ctx, CompetencyInput{
		Name:     "Python",
		Category: "technical",
		Level:    "advanced",
		ParentID: uintPtr(parent.ID),
	})
	require.NoError(t, err)

	got, err := e.competency.Get(e.ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, parent.ID, got.ID)
	require.Len(t, got.Children, 1)
	assert.Equal(t, child.ID, got.Children[0].ID)

	list, err := e.competency.List(e.ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	assert.ElementsMatch(t, []uint{parent.ID, child.ID}, e.proj.comps)
}

func TestCompetencyCreateValidation(t *testing.T) {
	e := newEnv(t)

	cases := []struct {
		name   string
		in     CompetencyInput
		status int
		code   string
	}{
		{name: "missing_name", in: CompetencyInput{Category: "x"}, status: http.StatusBadRequest, code: "validation_error"},
		{name: "missing_category", in: CompetencyInput{Name: "x"}, status: http.StatusBadRequest, code: "validation_error"},
		{name: "unknown_parent", in: CompetencyInput{Name: "x", Category: "y", ParentID: uintPtr(999)}, status: http.StatusNotFound, code: "parent_not_found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.competency.Create(e.ctx, tc.in)
			requireAPIErr(t, err, tc.status, tc.code)
		})
	}
}

func TestCompetencyGetNotFound(t *testing.T) {
	e := newEnv(t)
	_, err := e.competency.Get(e.ctx, 404)
	requireAPIErr(t, err, http.StatusNotFound, "competency_not_found")
}

func TestCompetencyUpdatePatch(t *testing.T) {
	e := newEnv(t)
	root := testutil.SeedCompetency(t, e.ctx, e.db, "Анализ данных", "analytical", nil)
	comp := testutil.SeedCompetency(t, e.ctx, e.db, "Статистика", "analytical", nil)

	updated, err := e.competency.Update(e.ctx, comp.ID, CompetencyPatch{
		Description: strPtr("описательная и выводная"),
		ParentSet:   true,
		ParentID:    uintPtr(root.ID),
	})
	require.NoError(t, err)
	assert.Equal(t, "Статистика", updated.Name)
	assert.Equal(t, "описательная и выводная", updated.Description)
	require.NotNil(t, updated.ParentID)
	assert.Equal(t, root.ID, *updated.ParentID)
	assert.False(t, updated.UpdatedAt.Before(comp.UpdatedAt))

	cleared, err := e.competency.Update(e.ctx, comp.ID, CompetencyPatch{ParentSet: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.ParentID)
	assert.Equal(t, "описательная и выводная", cleared.Description)
}

func TestCompetencyUpdateRejectsCycle(t *testing.T) {
	e := newEnv(t)
	a := testutil.SeedCompetency(t, e.ctx, e.db, "A", "x", nil)
	b := testutil.SeedCompetency(t, e.ctx, e.db, "B", "x", uintPtr(a.ID))
	c := testutil.SeedCompetency(t, e.ctx, e.db, "C", "x", uintPtr(b.ID))

	_, err := e.competency.Update(e.ctx, a.ID, CompetencyPatch{ParentSet: true, ParentID: uintPtr(c.ID)})
	requireAPIErr(t, err, http.StatusBadRequest, "competency_cycle")

	_, err = e.competency.Update(e.ctx, a.ID, CompetencyPatch{ParentSet: true, ParentID: uintPtr(a.ID)})
	requireAPIErr(t, err, http.StatusBadRequest, "competency_cycle")

	_, err = e.competency.Update(e.ctx, 999, CompetencyPatch{Name: strPtr("x")})
	requireAPIErr(t, err, http.StatusNotFound, "competency_not_found")

	_, err = e.competency.Update(e.ctx, a.ID, CompetencyPatch{Name: strPtr("  ")})
	requireAPIErr(t, err, http.StatusBadRequest, "validation_error")
}

func TestLinkToModuleRejectsDuplicate(t *testing.T) {
	e := newEnv(t)
	course := testutil.SeedCourse(t, e.ctx, e.db, "Data Science")
	module := testutil.SeedModule(t, e.ctx, e.db, course.ID, "Intro", 0)
	comp := testutil.SeedCompetency(t, e.ctx, e.db, "Статистика", "analytical", nil)

	link, err := e.competency.LinkToModule(e.ctx, module.ID, LinkInput{DNAID: comp.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, link.Importance)
	assert.Equal(t, skills.BloomKnowledge, link.BloomLevel)

	_, err = e.competency.LinkToModule(e.ctx, module.ID, LinkInput{DNAID: comp.ID, Importance: 3})
	requireAPIErr(t, err, http.StatusConflict, "link_exists")

	n, err := e.repos.ModuleLinks.CountByPair(e.dbc, module.ID, comp.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, 1, e.proj.links)
}

func TestLinkToModuleValidation(t *testing.T) {
	e := newEnv(t)
	course := testutil.SeedCourse(t, e.ctx, e.db, "Data Science")
	module := testutil.SeedModule(t, e.ctx, e.db, course.ID, "Intro", 0)
	comp := testutil.SeedCompetency(t, e.ctx, e.db, "SQL", "technical", nil)

	cases := []struct {
		name     string
		moduleID uint
		in       LinkInput
		status   int
		code     string
	}{
		{name: "bad_bloom", moduleID: module.ID, in: LinkInput{DNAID: comp.ID, BloomLevel: "memorize"}, status: http.StatusBadRequest, code: "validation_error"},
		{name: "negative_importance", moduleID: module.ID, in: LinkInput{DNAID: comp.ID, Importance: -1}, status: http.StatusBadRequest, code: "validation_error"},
		{name: "unknown_module", moduleID: 999, in: LinkInput{DNAID: comp.ID}, status: http.StatusNotFound, code: "module_not_found"},
		{name: "unknown_competency", moduleID: module.ID, in: LinkInput{DNAID: 999}, status: http.StatusNotFound, code: "competency_not_found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.competency.LinkToModule(e.ctx, tc.moduleID, tc.in)
			requireAPIErr(t, err, tc.status, tc.code)
		})
	}

	link, err := e.competency.LinkToModule(e.ctx, module.ID, LinkInput{DNAID: comp.ID, BloomLevel: " Analysis ", Importance: 4})
	require.NoError(t, err)
	assert.Equal(t, skills.BloomAnalysis, link.BloomLevel)
	assert.Equal(t, 4, link.Importance)
}

func TestCourseBreakdownAndModuleCompetencies(t *testing.T) {
	e := newEnv(t)
	course := testutil.SeedCourse(t, e.ctx, e.db, "Data Science")
	m2 := testutil.SeedModule(t, e.ctx, e.db, course.ID, "Models", 2)
	m1 := testutil.SeedModule(t, e.ctx, e.db, course.ID, "Basics", 1)
	empty := testutil.SeedModule(t, e.ctx, e.db, course.ID, "Wrap-up", 3)
	stats := testutil.SeedCompetency(t, e.ctx, e.db, "Статистика", "analytical", nil)
	ml := testutil.SeedCompetency(t, e.ctx, e.db, "Машинное обучение", "technical", nil)
	testutil.SeedLink(t, e.ctx, e.db, m1.ID, stats.ID)
	testutil.SeedLink(t, e.ctx, e.db, m2.ID, ml.ID)
	testutil.SeedLink(t, e.ctx, e.db, m2.ID, stats.ID)

	out, err := e.competency.CourseBreakdown(e.ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, out.Modules, 3)
	assert.Equal(t, m1.ID, out.Modules[0].ID)
	assert.Equal(t, m2.ID, out.Modules[1].ID)
	assert.Equal(t, empty.ID, out.Modules[2].ID)
	assert.Len(t, out.Modules[0].Competencies, 1)
	assert.Len(t, out.Modules[1].Competencies, 2)
	assert.NotNil(t, out.Modules[2].Competencies)
	assert.Empty(t, out.Modules[2].Competencies)

	linked, err := e.competency.ModuleCompetencies(e.ctx, m1.ID)
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.Equal(t, "Статистика", linked[0].Name)
	assert.Equal(t, skills.BloomKnowledge, linked[0].BloomLevel)

	_, err = e.competency.ModuleCompetencies(e.ctx, 999)
	requireAPIErr(t, err, http.StatusNotFound, "module_not_found")

	_, err = e.competency.CourseBreakdown(e.ctx, 999)
	requireAPIErr(t, err, http.StatusNotFound, "course_not_found")
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/skillsdna-backend/internal/data/aggregates"
	"github.com/yungbote/skillsdna-backend/internal/data/repos"
	"github.com/yungbote/skillsdna-backend/internal/data/repos/testutil"
	httpH "github.com/yungbote/skillsdna-backend/internal/http/handlers"
	httpMW "github.com/yungbote/skillsdna-backend/internal/http/middleware"
	"github.com/yungbote/skillsdna-backend/internal/services"
	"github.com/yungbote/skillsdna-backend/internal/skillmap"
)

type testServer struct {
	t      *testing.T
	db     *gorm.DB
	engine *gin.Engine
}

func newTestServer(t *testing.T, auth *httpMW.AuthMiddleware) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, httpMW.RegisterValidators())

	db := testutil.DB(t)
	log := testutil.Logger(t)
	rs := repos.NewSet(db, log)
	table, err := skillmap.Load()
	require.NoError(t, err)

	agg := aggregates.NewProgressAggregate(aggregates.ProgressAggregateDeps{
		Base:         aggregates.BaseDeps{DB: db, Log: log},
		Users:        rs.Users,
		Competencies: rs.Competency,
		Progress:     rs.Progress,
		Resolver:     skillmap.NewResolver(table, log),
	})
	compSvc := services.NewCompetencyService(log, rs, nil)
	progSvc := services.NewProgressService(log, rs, agg, nil, nil)

	engine := NewRouter(RouterConfig{
		Log:               log,
		AuthMiddleware:    auth,
		CompetencyHandler: httpH.NewCompetencyHandler(log, compSvc, services.NewCompetencyMapService(log, rs)),
		ProgressHandler:   httpH.NewProgressHandler(log, progSvc, services.NewSummaryService(log, rs.Users, rs.Progress)),
		DiagnosticHandler: httpH.NewDiagnosticHandler(log, progSvc),
		HealthHandler:     httpH.NewHealthHandler(nil),
	})
	return &testServer{t: t, db: db, engine: engine}
}

func (s *testServer) do(method, path string, body any, header ...string) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func TestHealthcheck(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(http.MethodGet, "/healthcheck", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestCompetencyRoutes(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodPost, "/api/competencies", map[string]any{
		"name": "Программирование", "category": "technical",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	parent := decode[map[string]any](t, rec)
	parentID := uint(parent["id"].(float64))

	rec = s.do(http.MethodPost, "/api/competencies", map[string]any{
		"name": "Python", "category": "technical", "parentId": parentID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	child := decode[map[string]any](t, rec)
	childPath := "/api/competencies/" + jsonNumber(child["id"])

	rec = s.do(http.MethodGet, "/api/competencies/"+jsonNumber(parent["id"]), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[map[string]any](t, rec)
	assert.Equal(t, "Программирование", detail["name"])
	assert.Len(t, detail["children"], 1)

	rec = s.do(http.MethodPut, childPath, map[string]any{"description": "язык", "parentId": nil})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[map[string]any](t, rec)
	assert.Equal(t, "язык", updated["description"])
	assert.Nil(t, updated["parentId"])

	rec = s.do(http.MethodGet, "/api/competencies", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 2)

	rec = s.do(http.MethodGet, "/api/competencies/abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_id", decode[errorBody](t, rec).Code)

	rec = s.do(http.MethodGet, "/api/competencies/999", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decode[errorBody](t, rec)
	assert.Equal(t, "competency_not_found", body.Code)
	assert.NotEmpty(t, body.Message)

	rec = s.do(http.MethodPost, "/api/competencies", map[string]any{"name": "x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decode[errorBody](t, rec).Code)
}

func TestModuleLinkRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()
	course := testutil.SeedCourse(t, ctx, s.db, "Data Science")
	module := testutil.SeedModule(t, ctx, s.db, course.ID, "Intro", 0)
	parent := testutil.SeedCompetency(t, ctx, s.db, "Анализ данных", "analytical", nil)
	comp := testutil.SeedCompetency(t, ctx, s.db, "Статистика", "analytical", &parent.ID)

	path := "/api/competencies/module/" + jsonNumber(float64(module.ID)) + "/competency"
	rec := s.do(http.MethodPost, path, map[string]any{"dnaId": comp.ID, "bloomLevel": "analysis", "importance": 2})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, path, map[string]any{"dnaId": comp.ID})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "link_exists", decode[errorBody](t, rec).Code)

	rec = s.do(http.MethodPost, path, map[string]any{"dnaId": parent.ID, "bloomLevel": "memorize"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/competencies/module/"+jsonNumber(float64(module.ID)), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	linked := decode[[]map[string]any](t, rec)
	require.Len(t, linked, 1)
	assert.Equal(t, "analysis", linked[0]["bloomLevel"])
	assert.EqualValues(t, 2, linked[0]["importance"])

	rec = s.do(http.MethodGet, "/api/competencies/course/"+jsonNumber(float64(course.ID)), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	breakdown := decode[map[string]any](t, rec)
	assert.Len(t, breakdown["modules"], 1)

	rec = s.do(http.MethodGet, "/api/competencies/course/"+jsonNumber(float64(course.ID))+"/map", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	m := decode[map[string]any](t, rec)
	comps := m["competencies"].([]any)
	require.Len(t, comps, 1)
	assert.Equal(t, "Статистика", comps[0].(map[string]any)["name"])
}

func TestDiagnosticAndProgressRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()
	user := testutil.SeedUser(t, ctx, s.db, "student42")
	testutil.SeedCompetency(t, ctx, s.db, "Машинное обучение", "technical", nil)
	comm := testutil.SeedCompetency(t, ctx, s.db, "Коммуникация", "soft", nil)

	rec := s.do(http.MethodPost, "/api/diagnostics/results", map[string]any{
		"userId":         user.ID,
		"skills":         map[string]float64{"Машинное обучение": 55},
		"diagnosticType": "quick",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[map[string]any](t, rec)
	assert.Equal(t, true, res["success"])
	saved := res["savedProgress"].([]any)
	require.Len(t, saved, 1)
	assert.Equal(t, "application", saved[0].(map[string]any)["currentLevel"])

	rec = s.do(http.MethodPost, "/api/diagnostics/results", map[string]any{
		"userId": user.ID, "skills": map[string]float64{"x": 1}, "diagnosticType": "long",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	userPath := "/api/competencies/user/" + jsonNumber(float64(user.ID))
	rec = s.do(http.MethodPost, userPath+"/progress", map[string]any{
		"dnaId": comm.ID, "currentLevel": "knowledge", "progress": 35,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, userPath+"/progress", map[string]any{"dnaId": comm.ID, "progress": 120})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, userPath+"/progress", map[string]any{"dnaId": comm.ID, "targetLevel": "guru"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, userPath+"/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rows := decode[[]map[string]any](t, rec)
	require.Len(t, rows, 2)
	assert.Equal(t, "Коммуникация", rows[0]["competencyName"])

	rec = s.do(http.MethodGet, userPath+"/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[map[string]services.CategorySummary](t, rec)
	assert.Equal(t, services.CategorySummary{AvgProgress: 55, Count: 1, MaxLevel: "application"}, summary["technical"])
	assert.Equal(t, services.CategorySummary{AvgProgress: 35, Count: 1, MaxLevel: "knowledge"}, summary["soft"])

	rec = s.do(http.MethodGet, "/api/competencies/user/999/summary", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "user_not_found", decode[errorBody](t, rec).Code)
}

func TestDiagnosticEmptySkills(t *testing.T) {
	s := newTestServer(t, nil)
	user := testutil.SeedUser(t, context.Background(), s.db, "empty-skills")

	rec := s.do(http.MethodPost, "/api/diagnostics/results", map[string]any{
		"userId": user.ID, "skills": map[string]float64{}, "diagnosticType": "deep",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[map[string]any](t, rec)
	assert.Equal(t, true, res["success"])
	assert.Equal(t, []any{}, res["savedProgress"])

	rec = s.do(http.MethodPost, "/api/diagnostics/results", map[string]any{
		"userId": user.ID, "diagnosticType": "deep",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthoringRoutesRequireToken(t *testing.T) {
	log := testutil.Logger(t)
	s := newTestServer(t, httpMW.NewAuthMiddleware(log, "secret"))

	rec := s.do(http.MethodPost, "/api/competencies", map[string]any{"name": "x", "category": "y"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decode[errorBody](t, rec).Code)

	// reads stay public
	rec = s.do(http.MethodGet, "/api/competencies", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func jsonNumber(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

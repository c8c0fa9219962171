package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillsdna-backend/internal/platform/ctxutil"
)

func TestAttachTraceContext(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(AttachTraceContext())
	var td *ctxutil.TraceData
	r.GET("/x", func(c *gin.Context) {
		td = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(headerRequestID, "req-1")
	req.Header.Set(headerTraceID, "trace-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if td == nil || td.RequestID != "req-1" || td.TraceID != "trace-1" {
		t.Fatalf("trace data: %+v", td)
	}
	if got := rec.Header().Get(headerRequestID); got != "req-1" {
		t.Fatalf("request id header: want=%q got=%q", "req-1", got)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Header().Get(headerRequestID) == "" || rec.Header().Get(headerTraceID) == "" {
		t.Fatalf("generated ids missing: %v", rec.Header())
	}
}

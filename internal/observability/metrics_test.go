package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestWritePrometheus(t *testing.T) {
	m := newMetrics()
	m.ObserveAPI("GET", "/api/competencies", "200", 30*time.Millisecond)
	m.ObserveAPI("POST", "/api/diagnostics/results", "500", 2*time.Second)
	m.ObserveDiagnostic("quick", "success", 3)
	m.IncProgressWrite("diagnostic-quick", "insert")
	m.IncAggregateConflict("progress.apply_diagnostic")

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()

	cases := []string{
		`sdna_api_requests_total{method="GET",route="/api/competencies",status="200"} 1`,
		`sdna_api_requests_error_total 1`,
		`sdna_api_request_duration_seconds_bucket{method="GET",route="/api/competencies",status="200",le="0.05"} 1`,
		`sdna_api_request_duration_seconds_bucket{method="POST",route="/api/diagnostics/results",status="500",le="+Inf"} 1`,
		`sdna_diagnostics_total{type="quick",status="success"} 1`,
		`sdna_diagnostic_resolved_competencies_count{type="quick"} 1`,
		`sdna_progress_writes_total{source="diagnostic-quick",kind="insert"} 1`,
		`sdna_aggregate_conflicts_total{operation="progress.apply_diagnostic"} 1`,
		`# TYPE sdna_api_inflight_requests gauge`,
	}
	for _, want := range cases {
		if !strings.Contains(out, want) {
			t.Fatalf("missing line %q in:\n%s", want, out)
		}
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/", "200", time.Millisecond)
	m.ApiInflightInc()
	m.ApiInflightDec()
	m.ObserveDiagnostic("deep", "error", 0)
	m.IncProgressWrite("manual", "update")
	m.IncEventPublished("ok")
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("nil WritePrometheus: %v", err)
	}
}

func TestLabelEscaping(t *testing.T) {
	got := labelString([]string{"route"}, []string{"a\"b\\c\nd"})
	want := `{route="a\"b\\c\nd"}`
	if got != want {
		t.Fatalf("labelString: want=%q got=%q", want, got)
	}
}

func TestParseHeaders(t *testing.T) {
	cases := []struct {
		raw  string
		want map[string]string
	}{
		{raw: "", want: nil},
		{raw: "a=1", want: map[string]string{"a": "1"}},
		{raw: " a = 1 , b=2,broken,=x", want: map[string]string{"a": "1", "b": "2"}},
	}
	for _, tc := range cases {
		got := ParseHeaders(tc.raw)
		if len(got) != len(tc.want) {
			t.Fatalf("ParseHeaders(%q): want=%v got=%v", tc.raw, tc.want, got)
		}
		for k, v := range tc.want {
			if got[k] != v {
				t.Fatalf("ParseHeaders(%q)[%q]: want=%q got=%q", tc.raw, k, v, got[k])
			}
		}
	}
}

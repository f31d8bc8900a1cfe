package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goAdmin "github.com/MrEthical07/goAdmin"
)

type fakeSource struct {
	snapshot goAdmin.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() goAdmin.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                     { return f.dropped }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goAdmin.MetricsSnapshot{
			Counters:   map[goAdmin.MetricID]uint64{},
			Histograms: map[goAdmin.MetricID][]uint64{},
		},
	})
	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderCountersAndHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goAdmin.MetricsSnapshot{
			Counters: map[goAdmin.MetricID]uint64{
				goAdmin.MetricLoginLocked: 4,
			},
			Histograms: map[goAdmin.MetricID][]uint64{
				goAdmin.MetricBackendLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	for _, want := range []string{
		"goadmin_login_locked_total 4",
		"goadmin_otp_success_total 0",
		`goadmin_backend_latency_seconds_bucket{le="0.05"} 1`,
		`goadmin_backend_latency_seconds_bucket{le="+Inf"} 36`,
		"goadmin_backend_latency_seconds_count 36",
		"goadmin_audit_dropped_total 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestRenderSkipsHistogramWhenLatencyDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goAdmin.MetricsSnapshot{
			Counters:   map[goAdmin.MetricID]uint64{goAdmin.MetricLogout: 1},
			Histograms: map[goAdmin.MetricID][]uint64{},
		},
	})
	if out := exp.Render(); strings.Contains(out, "latency_seconds") {
		t.Fatalf("histogram must be omitted, got:\n%s", out)
	}
}

func TestHandlerFromClient(t *testing.T) {
	client, err := goAdmin.New().Build()
	if err != nil {
		t.Fatalf("build client: %v", err)
	}
	defer client.Close()
	client.Metrics().Inc(goAdmin.MetricLogout)

	rec := httptest.NewRecorder()
	NewPrometheusExporter(client).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if !strings.Contains(rec.Body.String(), "goadmin_logout_total 1") {
		t.Fatalf("expected logout counter, got:\n%s", rec.Body.String())
	}
}

func BenchmarkRender(b *testing.B) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goAdmin.MetricsSnapshot{
			Counters: map[goAdmin.MetricID]uint64{
				goAdmin.MetricLoginOTPRequired: 100,
				goAdmin.MetricOTPSuccess:       90,
				goAdmin.MetricLogout:           40,
			},
			Histograms: map[goAdmin.MetricID][]uint64{
				goAdmin.MetricBackendLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
	})
	b.ReportAllocs()
	for b.Loop() {
		_ = exp.Render()
	}
}

package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestServer_Health(t *testing.T) {
	tests := []struct {
		name   string
		status string
		code   int
	}{
		{"up", "up", http.StatusOK},
		{"degraded", "degraded", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer("", func(context.Context) HealthStatus {
				return HealthStatus{Status: tt.status, Timestamp: time.Now(), Components: map[string]string{"resolver": "ok"}}
			})
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rec.Code != tt.code {
				t.Fatalf("status code = %d, want %d", rec.Code, tt.code)
			}
			var got HealthStatus
			if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
				t.Fatal(err)
			}
			if got.Status != tt.status || got.Components["resolver"] != "ok" {
				t.Errorf("unexpected body: %+v", got)
			}
		})
	}
}

func TestServer_Metrics(t *testing.T) {
	FindingsTotal.WithLabelValues("error").Inc()

	rec := httptest.NewRecorder()
	NewServer("", nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "hydralsp_findings_total") {
		t.Error("expected hydralsp_findings_total in metrics output")
	}
}

func TestServer_StartStop(t *testing.T) {
	s := NewServer("127.0.0.1:0", nil)
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	resp, err := http.Get("http://" + s.Addr() + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status code = %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatal(err)
	}
}

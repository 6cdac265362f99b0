package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fd1az/web3-connect/internal/logger"
)

func check(healthy bool, msg string) CheckFunc {
	return func(ctx context.Context) Check { return Check{Healthy: healthy, Message: msg} }
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServer_Health(t *testing.T) {
	tests := []struct {
		name      string
		primary   bool
		network   bool
		readiness ReadyFunc
		code      int
		status    string
	}{
		{"all healthy", true, true, nil, http.StatusOK, StatusOK},
		{"one down, all required", false, true, nil, http.StatusServiceUnavailable, StatusDown},
		{"one down, any required", false, true, AnyHealthy, http.StatusOK, StatusDegraded},
		{"all down, any required", false, false, AnyHealthy, http.StatusServiceUnavailable, StatusDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(8081, "v1.2.3", logger.NewNop())
			s.RegisterCheck("primary", check(tt.primary, "wallet"))
			s.RegisterCheck("network", check(tt.network, "node"))
			if tt.readiness != nil {
				s.SetReadiness(tt.readiness)
			}

			rec := get(t, s, "/health")
			if rec.Code != tt.code {
				t.Errorf("code = %d, want %d", rec.Code, tt.code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}

			var body Status
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Status != tt.status || body.Version != "v1.2.3" || len(body.Checks) != 2 {
				t.Errorf("body = %+v", body)
			}
			if body.Checks["primary"].Healthy != tt.primary {
				t.Errorf("primary check = %+v", body.Checks["primary"])
			}

			ready := get(t, s, "/ready")
			if ready.Code != tt.code {
				t.Errorf("/ready code = %d, want %d", ready.Code, tt.code)
			}
		})
	}
}

func TestServer_Live(t *testing.T) {
	s := NewServer(8081, "", logger.NewNop())
	s.RegisterCheck("broken", check(false, ""))

	rec := get(t, s, "/live")
	if rec.Code != http.StatusOK || rec.Body.String() != "alive" {
		t.Errorf("/live = %d %q", rec.Code, rec.Body.String())
	}
}

func TestServer_StartRejectsBadPort(t *testing.T) {
	s := NewServer(0, "", logger.NewNop())
	if err := s.Start(); err == nil {
		t.Error("Start() with port 0 should fail")
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Stop() before Start = %v", err)
	}
}

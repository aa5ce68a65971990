package httpserver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/cruisectl/truthmarket/pkg/healthprobe"
	"github.com/cruisectl/truthmarket/pkg/types"
)

func newBareServer(hc *healthprobe.HealthChecker) *Server {
	return New(&Config{
		Port:          "0",
		Logger:        zap.NewNop(),
		HealthChecker: hc,
	})
}

func serveRequest(s *Server, method, target string) *http.Response {
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(w, req)
	return w.Result()
}

func TestNew(t *testing.T) {
	logger := zap.NewNop()
	healthChecker := healthprobe.New()

	server := New(&Config{
		Port:          "8080",
		Logger:        logger,
		HealthChecker: healthChecker,
	})
	if server == nil {
		t.Fatal("New() returned nil server")
	}
	if server.server == nil {
		t.Error("New() server.server is nil")
	}
	if server.logger != logger {
		t.Error("New() logger not set correctly")
	}
	if server.healthChecker != healthChecker {
		t.Error("New() healthChecker not set correctly")
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := newBareServer(healthprobe.New())

	resp := serveRequest(server, http.MethodGet, "/health")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Health endpoint status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestReadyEndpoint(t *testing.T) {
	tests := []struct {
		name           string
		setReady       bool
		expectedStatus int
	}{
		{
			name:           "ready_when_set",
			setReady:       true,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "not_ready_initially",
			setReady:       false,
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := healthprobe.New()
			if tt.setReady {
				hc.SetReady(true)
			}

			resp := serveRequest(newBareServer(hc), http.MethodGet, "/ready")
			defer resp.Body.Close()

			if resp.StatusCode != tt.expectedStatus {
				t.Errorf("Ready endpoint status = %d, want %d", resp.StatusCode, tt.expectedStatus)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	resp := serveRequest(newBareServer(healthprobe.New()), http.MethodGet, "/metrics")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Metrics endpoint status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	if resp.Header.Get("Content-Type") == "" {
		t.Error("Metrics endpoint missing Content-Type header")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read metrics response body: %v", err)
	}
	if len(body) == 0 {
		t.Error("Metrics endpoint returned empty body")
	}
}

func TestMarketRoutesOnlyWithService(t *testing.T) {
	// Without a service the market API is not mounted at all.
	resp := serveRequest(newBareServer(healthprobe.New()), http.MethodGet, "/api/markets")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Unmounted API status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestStatusForClass(t *testing.T) {
	tests := []struct {
		class types.ErrorClass
		want  int
	}{
		{types.ErrClassValidation, http.StatusBadRequest},
		{types.ErrClassAuthorization, http.StatusForbidden},
		{types.ErrClassStateConflict, http.StatusConflict},
		{types.ErrClassNotFound, http.StatusNotFound},
		{types.ErrClassUpstream, http.StatusBadGateway},
		{types.ErrorClass("something-else"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.class), func(t *testing.T) {
			if got := statusForClass(tt.class); got != tt.want {
				t.Errorf("statusForClass(%q) = %d, want %d", tt.class, got, tt.want)
			}
		})
	}
}

func TestRouteNotFound(t *testing.T) {
	resp := serveRequest(newBareServer(healthprobe.New()), http.MethodGet, "/nonexistent")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Non-existent route status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestServer_StartAndShutdown(t *testing.T) {
	server := newBareServer(healthprobe.New())

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.Start()
	}()

	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}

	select {
	case err := <-serverDone:
		if err != nil {
			t.Errorf("Start() returned error after shutdown: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after shutdown")
	}
}

func TestServer_Timeouts(t *testing.T) {
	server := newBareServer(healthprobe.New())

	if server.server.ReadTimeout != 15*time.Second {
		t.Errorf("ReadTimeout = %v, want %v", server.server.ReadTimeout, 15*time.Second)
	}
	if server.server.ReadHeaderTimeout != 10*time.Second {
		t.Errorf("ReadHeaderTimeout = %v, want %v", server.server.ReadHeaderTimeout, 10*time.Second)
	}
	if server.server.WriteTimeout != 15*time.Second {
		t.Errorf("WriteTimeout = %v, want %v", server.server.WriteTimeout, 15*time.Second)
	}
	if server.server.IdleTimeout != 60*time.Second {
		t.Errorf("IdleTimeout = %v, want %v", server.server.IdleTimeout, 60*time.Second)
	}
}

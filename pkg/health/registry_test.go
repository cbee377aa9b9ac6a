package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type stubCheckable struct{ err error }

func (p stubCheckable) HealthCheck(context.Context) error { return p.err }

type slowProbe struct{}

func (slowProbe) HealthCheck(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestRegistry_AggregatesStatus(t *testing.T) {
	registry := NewRegistry()
	registry.Register(NewAdapterChecker("mongodb", stubCheckable{}, time.Second))
	if result := registry.Check(context.Background()); !result.IsHealthy() {
		t.Fatalf("expected healthy, got %+v", result)
	}

	registry.Register(NewAdapterChecker("cache", stubCheckable{err: errors.New("refused")}, time.Second))
	result := registry.Check(context.Background())
	if result.IsHealthy() {
		t.Fatal("expected unhealthy aggregate")
	}
	if len(result.Checks) != 2 || result.Checks[0].Name != "cache" || result.Checks[0].Error != "refused" {
		t.Fatalf("unexpected checks %+v", result.Checks)
	}
}

func TestAdapterChecker_Timeout(t *testing.T) {
	checker := NewAdapterChecker("slow", slowProbe{}, 10*time.Millisecond)
	if result := checker.Check(context.Background()); result.Status != StatusUnhealthy {
		t.Fatalf("expected timeout to be unhealthy, got %+v", result)
	}
}

func TestHandler_StatusCodes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for _, tc := range []struct {
		err    error
		status int
	}{
		{err: nil, status: http.StatusOK},
		{err: errors.New("down"), status: http.StatusServiceUnavailable},
	} {
		registry := NewRegistry()
		registry.Register(NewAdapterChecker("mongodb", stubCheckable{err: tc.err}, time.Second))
		r := gin.New()
		r.GET("/health", Handler(registry))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code != tc.status {
			t.Fatalf("status = %d, want %d", rec.Code, tc.status)
		}
		var body AggregatedResult
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
	}
}

package requestid

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nimburion/storefront/pkg/observability/logger"
)

func newRouter(captured *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/test", func(c *gin.Context) {
		*captured = logger.RequestIDFromContext(c.Request.Context())
		c.String(http.StatusOK, "ok")
	})
	return r
}

func TestRequestID_GeneratesUUID(t *testing.T) {
	var captured string
	rec := httptest.NewRecorder()
	newRouter(&captured).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	if _, err := uuid.Parse(captured); err != nil {
		t.Fatalf("expected a UUID, got %q", captured)
	}
	if got := rec.Header().Get(RequestIDHeader); got != captured {
		t.Fatalf("response header %q, context %q", got, captured)
	}
}

func TestRequestID_PreservesExistingHeader(t *testing.T) {
	var captured string
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(RequestIDHeader, "existing-request-id-123")
	rec := httptest.NewRecorder()
	newRouter(&captured).ServeHTTP(rec, req)

	if captured != "existing-request-id-123" {
		t.Fatalf("expected existing id, got %q", captured)
	}
	if rec.Header().Get(RequestIDHeader) != "existing-request-id-123" {
		t.Fatalf("response header not preserved")
	}
}

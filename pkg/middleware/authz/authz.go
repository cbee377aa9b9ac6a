// Package authz authenticates bearer tokens and enforces the access policy on routes.
package authz

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nimburion/storefront/pkg/access"
	"github.com/nimburion/storefront/pkg/auth"
	"github.com/nimburion/storefront/pkg/controller"
	"github.com/nimburion/storefront/pkg/observability/logger"
	"github.com/nimburion/storefront/pkg/observability/metrics"
)

// SubjectKey is the gin context key holding the authenticated access.Subject.
const SubjectKey = "subject"

// Authenticate validates "Authorization: Bearer <token>" and stores the
// subject. Missing or invalid tokens are rejected with 401.
func Authenticate(validator auth.JWTValidator, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			reject(c, "missing authorization header")
			return
		}
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			reject(c, "invalid authorization header format")
			return
		}

		claims, err := validator.Validate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			log.WithContext(c.Request.Context()).Debug("token rejected", "error", err)
			reject(c, "invalid or expired token")
			return
		}

		c.Set(SubjectKey, claims.AsSubject())
		c.Next()
	}
}

// Require allows the request only when the subject's role holds verb on
// resource. Ownership for "own" verbs is checked by the handler once the
// owner is known.
func Require(gate *access.Gate, verb access.Verb, resource access.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject, ok := SubjectFrom(c)
		if !ok {
			reject(c, "authentication required")
			return
		}
		if err := gate.Authorize(subject, verb, resource); err != nil {
			metrics.IncAuthFailure("forbidden")
			controller.Error(c, err)
			return
		}
		c.Next()
	}
}

// SubjectFrom returns the subject stored by Authenticate.
func SubjectFrom(c *gin.Context) (access.Subject, bool) {
	v, ok := c.Get(SubjectKey)
	if !ok {
		return access.Subject{}, false
	}
	subject, ok := v.(access.Subject)
	return subject, ok
}

func reject(c *gin.Context, message string) {
	metrics.IncAuthFailure("unauthenticated")
	controller.Unauthorized(c, message)
}

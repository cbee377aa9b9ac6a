// Package api wires the HTTP routes of the storefront onto a gin engine.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nimburion/storefront/pkg/access"
	"github.com/nimburion/storefront/pkg/apperror"
	"github.com/nimburion/storefront/pkg/auth"
	"github.com/nimburion/storefront/pkg/controller"
	"github.com/nimburion/storefront/pkg/health"
	"github.com/nimburion/storefront/pkg/middleware/authz"
	"github.com/nimburion/storefront/pkg/middleware/logging"
	"github.com/nimburion/storefront/pkg/middleware/metrics"
	"github.com/nimburion/storefront/pkg/middleware/recovery"
	"github.com/nimburion/storefront/pkg/middleware/requestid"
	"github.com/nimburion/storefront/pkg/middleware/tracing"
	"github.com/nimburion/storefront/pkg/model"
	"github.com/nimburion/storefront/pkg/observability/logger"
	obsmetrics "github.com/nimburion/storefront/pkg/observability/metrics"
	"github.com/nimburion/storefront/pkg/repository/document"
	"github.com/nimburion/storefront/pkg/service"
	"github.com/nimburion/storefront/pkg/version"
)

// TokenIssuer signs bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(user *model.User) (*auth.Token, error)
}

// Config selects the optional surfaces of the router.
type Config struct {
	ServiceName    string
	MetricsEnabled bool
	MetricsPath    string
	TracingEnabled bool
}

// Dependencies are the services and collaborators the routes call into.
type Dependencies struct {
	Products   *service.ProductService
	Categories *service.Resource[model.Category]
	Orders     *service.OrderService
	Users      *service.UserService
	Tokens     TokenIssuer
	Validator  auth.JWTValidator
	Gate       *access.Gate
	Health     *health.Registry
	Metrics    *obsmetrics.Registry
	Logger     logger.Logger
}

// NewRouter builds the engine with the middleware chain and every route.
func NewRouter(cfg Config, deps Dependencies) *gin.Engine {
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}

	r := gin.New()
	r.Use(
		requestid.RequestID(),
		recovery.Recovery(deps.Logger),
	)
	if cfg.TracingEnabled {
		r.Use(tracing.Tracing(tracing.Config{
			TracerName:           cfg.ServiceName,
			ExcludedPathPrefixes: []string{"/health", cfg.MetricsPath},
		}))
	}
	if cfg.MetricsEnabled {
		r.Use(metrics.Metrics())
	}
	logCfg := logging.DefaultConfig()
	logCfg.ExcludedPathPrefixes = []string{"/health", cfg.MetricsPath}
	r.Use(logging.WithConfig(deps.Logger, logCfg))

	r.NoRoute(func(c *gin.Context) {
		controller.Error(c, apperror.NotFound("No route matches "+c.Request.Method+" "+c.Request.URL.Path, nil))
	})

	r.GET("/health", health.Handler(deps.Health))
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, version.Current(cfg.ServiceName))
	})
	if cfg.MetricsEnabled && deps.Metrics != nil {
		r.GET(cfg.MetricsPath, gin.WrapH(deps.Metrics.Handler()))
	}

	gate := deps.Gate
	authenticated := authz.Authenticate(deps.Validator, deps.Logger)

	users := &userHandlers{svc: deps.Users, tokens: deps.Tokens, gate: gate}
	r.POST("/users", users.register)
	r.POST("/users/login", users.login)
	userRoutes := r.Group("/users", authenticated)
	userRoutes.GET("", authz.Require(gate, access.ReadAny, access.ResourceUsers), users.list)
	userRoutes.GET("/me", authz.Require(gate, access.ReadOwn, access.ResourceUsers), users.me)
	userRoutes.GET("/:id", authz.Require(gate, access.ReadOwn, access.ResourceUsers), users.get)
	userRoutes.PATCH("/:id", authz.Require(gate, access.UpdateOwn, access.ResourceUsers), users.update)
	userRoutes.DELETE("/:id", authz.Require(gate, access.DeleteOwn, access.ResourceUsers), users.delete)

	products := &productHandlers{svc: deps.Products, orders: deps.Orders}
	productRoutes := r.Group("/products", authenticated)
	productRoutes.GET("", authz.Require(gate, access.ReadAny, access.ResourceProducts), products.list)
	productRoutes.GET("/bestseller", authz.Require(gate, access.ReadAny, access.ResourceProducts), products.bestseller)
	productRoutes.GET("/:id", authz.Require(gate, access.ReadAny, access.ResourceProducts), products.get)
	productRoutes.POST("", authz.Require(gate, access.CreateAny, access.ResourceProducts), products.create)
	productRoutes.PATCH("/:id", authz.Require(gate, access.UpdateAny, access.ResourceProducts), products.update)
	productRoutes.DELETE("/:id", authz.Require(gate, access.DeleteAny, access.ResourceProducts), products.delete)

	categories := &categoryHandlers{svc: deps.Categories}
	categoryRoutes := r.Group("/categories", authenticated)
	categoryRoutes.GET("", authz.Require(gate, access.ReadAny, access.ResourceCategories), categories.list)
	categoryRoutes.GET("/:id", authz.Require(gate, access.ReadAny, access.ResourceCategories), categories.get)
	categoryRoutes.POST("", authz.Require(gate, access.CreateAny, access.ResourceCategories), categories.create)
	categoryRoutes.PATCH("/:id", authz.Require(gate, access.UpdateAny, access.ResourceCategories), categories.update)
	categoryRoutes.DELETE("/:id", authz.Require(gate, access.DeleteAny, access.ResourceCategories), categories.delete)

	orders := &orderHandlers{svc: deps.Orders, gate: gate}
	orderRoutes := r.Group("/orders", authenticated)
	orderRoutes.GET("", authz.Require(gate, access.ReadOwn, access.ResourceOrders), orders.list)
	orderRoutes.GET("/:id", authz.Require(gate, access.ReadOwn, access.ResourceOrders), orders.get)
	orderRoutes.POST("", authz.Require(gate, access.CreateOwn, access.ResourceOrders), orders.create)
	orderRoutes.DELETE("/:id", authz.Require(gate, access.DeleteOwn, access.ResourceOrders), orders.delete)

	return r
}

// bindQuery parses list parameters or rejects the request with 400.
func bindQuery(c *gin.Context) (document.QueryOptions, bool) {
	opts, err := ParseQuery(c.Request.URL.Query())
	if err != nil {
		controller.BadRequest(c, err)
		return document.QueryOptions{}, false
	}
	return opts, true
}

// bindJSON decodes and validates the body into dst or rejects the request with 400.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		controller.BadRequest(c, err)
		return false
	}
	return true
}

// subject returns the subject stored by authz.Authenticate or rejects the
// request with 401.
func subject(c *gin.Context) (access.Subject, bool) {
	s, ok := authz.SubjectFrom(c)
	if !ok {
		controller.Unauthorized(c, "authentication required")
	}
	return s, ok
}

// Package app assembles the storefront from its configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/nimburion/storefront/pkg/access"
	"github.com/nimburion/storefront/pkg/api"
	"github.com/nimburion/storefront/pkg/auth"
	"github.com/nimburion/storefront/pkg/config"
	"github.com/nimburion/storefront/pkg/health"
	"github.com/nimburion/storefront/pkg/model"
	"github.com/nimburion/storefront/pkg/observability/logger"
	"github.com/nimburion/storefront/pkg/observability/metrics"
	"github.com/nimburion/storefront/pkg/observability/tracing"
	"github.com/nimburion/storefront/pkg/repository/document"
	"github.com/nimburion/storefront/pkg/repository/orders"
	"github.com/nimburion/storefront/pkg/server"
	"github.com/nimburion/storefront/pkg/service"
	"github.com/nimburion/storefront/pkg/store/mongodb"
	"github.com/nimburion/storefront/pkg/version"
)

// Indexes are the unique indexes backing duplicate detection.
func Indexes() []mongodb.Index {
	return []mongodb.Index{
		{Collection: model.CollectionUsers, Fields: []string{"email"}, Unique: true},
		{Collection: model.CollectionUsers, Fields: []string{"username"}, Unique: true},
		{Collection: model.CollectionCategories, Fields: []string{"name"}, Unique: true},
	}
}

// App is a fully wired storefront.
type App struct {
	Router *gin.Engine
	Server *server.Server

	log     logger.Logger
	closers []func(context.Context) error
}

// store holds the collections for one backend.
type store struct {
	users      document.Collection[model.User]
	products   document.Collection[model.Product]
	orders     document.Collection[model.Order]
	categories document.Collection[model.Category]
	ranker     orders.Ranker
}

// New connects the configured store and builds services, routes and server.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	if cfg.Service.Environment == "development" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	a := &App{log: log}
	healthRegistry := health.NewRegistry()

	tp, err := tracing.NewTracerProvider(ctx, tracing.TracerConfig{
		ServiceName:    cfg.Service.Name,
		ServiceVersion: version.Current(cfg.Service.Name).Version,
		Environment:    cfg.Service.Environment,
		Endpoint:       cfg.Observability.TracingEndpoint,
		SampleRate:     cfg.Observability.TracingSampleRate,
		Enabled:        cfg.Observability.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("create tracer provider: %w", err)
	}
	a.closers = append(a.closers, tp.Shutdown)

	st, err := a.openStore(cfg, healthRegistry)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	tokens, err := auth.NewHMACTokens(auth.HMACConfig{
		Secret: cfg.Auth.JWTSecret,
		Issuer: cfg.Auth.Issuer,
		TTL:    cfg.Auth.TokenTTL,
	}, log)
	if err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("create token issuer: %w", err)
	}

	gate := access.NewGate(access.DefaultPolicy())
	products := service.NewProductService(st.products, st.categories, log)
	deps := api.Dependencies{
		Products:   products,
		Categories: service.NewResource[model.Category](st.categories, log),
		Orders:     service.NewOrderService(st.orders, products, st.ranker, gate, log),
		Users:      service.NewUserService(st.users, auth.NewBcryptHasher(cfg.Auth.BcryptCost), log),
		Tokens:     tokens,
		Validator:  tokens,
		Gate:       gate,
		Health:     healthRegistry,
		Logger:     log,
	}
	if cfg.Observability.MetricsEnabled {
		deps.Metrics = metrics.NewRegistry()
	}

	a.Router = api.NewRouter(api.Config{
		ServiceName:    cfg.Service.Name,
		MetricsEnabled: cfg.Observability.MetricsEnabled,
		MetricsPath:    cfg.Observability.MetricsPath,
		TracingEnabled: cfg.Observability.TracingEnabled,
	}, deps)

	serverCfg := server.Config{
		Host:            cfg.HTTP.Host,
		Port:            cfg.HTTP.Port,
		ReadTimeout:     cfg.HTTP.ReadTimeout,
		WriteTimeout:    cfg.HTTP.WriteTimeout,
		IdleTimeout:     cfg.HTTP.IdleTimeout,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
	}
	if cfg.HTTP.TLSEnabled() {
		tlsConfig, err := server.LoadTLSConfig(cfg.HTTP.TLSCertFile, cfg.HTTP.TLSKeyFile, cfg.HTTP.TLSCAFile)
		if err != nil {
			_ = a.Close(ctx)
			return nil, fmt.Errorf("load TLS config: %w", err)
		}
		serverCfg.TLSConfig = tlsConfig
	}
	a.Server = server.NewServer(serverCfg, a.Router, log)

	return a, nil
}

func (a *App) openStore(cfg *config.Config, healthRegistry *health.Registry) (*store, error) {
	switch cfg.Database.Type {
	case config.DatabaseTypeMemory:
		a.log.Warn("using in-memory document store, data is lost on restart")
		orderColl := document.NewMemoryCollection[model.Order](model.CollectionOrders)
		return &store{
			users:      document.NewMemoryCollection[model.User](model.CollectionUsers, []string{"email"}, []string{"username"}),
			products:   document.NewMemoryCollection[model.Product](model.CollectionProducts),
			orders:     orderColl,
			categories: document.NewMemoryCollection[model.Category](model.CollectionCategories, []string{"name"}),
			ranker:     orders.NewCollectionRanker(orderColl),
		}, nil

	case config.DatabaseTypeMongoDB:
		adapter, err := mongodb.NewAdapter(mongodb.Config{
			URL:              cfg.Database.URL,
			Database:         cfg.Database.Name,
			ConnectTimeout:   cfg.Database.ConnectTimeout,
			OperationTimeout: cfg.Database.OperationTimeout,
		}, a.log)
		if err != nil {
			return nil, fmt.Errorf("connect document store: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return adapter.Close() })
		healthRegistry.Register(health.NewAdapterChecker("mongodb", adapter, cfg.Database.OperationTimeout))

		return &store{
			users:      document.NewMongoCollection[model.User](adapter, model.CollectionUsers),
			products:   document.NewMongoCollection[model.Product](adapter, model.CollectionProducts,
				document.WithObjectIDFields("category"),
				document.WithNumericFields("price"),
			),
			orders:     document.NewMongoCollection[model.Order](adapter, model.CollectionOrders,
				document.WithObjectIDFields("products._id", "products.category"),
				document.WithNumericFields("products.price"),
			),
			categories: document.NewMongoCollection[model.Category](adapter, model.CollectionCategories),
			ranker:     orders.NewMongoRanker(adapter),
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.Database.Type)
	}
}

// Run serves until ctx is cancelled, then releases every resource.
func (a *App) Run(ctx context.Context) error {
	a.log.Info("storefront starting", "version", version.Current("storefront").String())
	serveErr := a.Server.Start(ctx)
	closeErr := a.Close(context.Background())
	return errors.Join(serveErr, closeErr)
}

// Close releases resources in reverse acquisition order.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Migrate creates the unique indexes. The in-memory store enforces them itself.
func Migrate(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	if cfg.Database.Type != config.DatabaseTypeMongoDB {
		log.Info("nothing to migrate", "database_type", cfg.Database.Type)
		return nil
	}
	adapter, err := mongodb.NewAdapter(mongodb.Config{
		URL:              cfg.Database.URL,
		Database:         cfg.Database.Name,
		ConnectTimeout:   cfg.Database.ConnectTimeout,
		OperationTimeout: cfg.Database.OperationTimeout,
	}, log)
	if err != nil {
		return fmt.Errorf("connect document store: %w", err)
	}
	defer func() {
		if closeErr := adapter.Close(); closeErr != nil {
			log.Error("failed to close document store", "error", closeErr)
		}
	}()

	indexes := Indexes()
	if err := adapter.EnsureIndexes(ctx, indexes); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	log.Info("indexes ensured", "count", len(indexes))
	return nil
}

package di

import (
	"go.uber.org/zap"

	"kintree/application/ports"
	"kintree/application/queries"
	"kintree/application/services"
	domaincfg "kintree/domain/config"
	"kintree/infrastructure/config"
	"kintree/infrastructure/persistence"
	"kintree/infrastructure/persistence/supabase"
	"kintree/interfaces/http/rest"
	"kintree/interfaces/http/rest/handlers"
	"kintree/pkg/auth"
	"kintree/pkg/observability"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}

	if err != nil {
		return nil, err
	}

	return logger, nil
}

// ProvideMetrics creates the metrics registry
func ProvideMetrics() *observability.Metrics {
	return observability.NewMetrics()
}

// ProvideWatcher creates the dynamic configuration watcher. Returns nil when
// no file is configured; consumers fall back to compiled defaults.
func ProvideWatcher(cfg *config.Config, logger *zap.Logger) (*config.Watcher, error) {
	if cfg.DynamicConfigPath == "" {
		return nil, nil
	}
	return config.NewWatcher(cfg.DynamicConfigPath, logger)
}

// ProvideBackend creates the people backend. A configured Supabase project is
// wrapped in a circuit breaker; without one the engine runs local-only.
func ProvideBackend(cfg *config.Config, logger *zap.Logger) (ports.PeopleBackend, error) {
	if !cfg.HasBackend() {
		logger.Warn("no backend project configured, running local-only")
		return persistence.NewOfflineBackend(), nil
	}

	backend, err := supabase.NewPeopleBackend(cfg.SupabaseURL, cfg.SupabaseKey, logger)
	if err != nil {
		return nil, err
	}
	return persistence.NewBreakerBackend(backend, logger), nil
}

// ProvideJWTValidator creates the token validator. Returns nil when no secret
// is configured, which the auth middleware treats as development trust mode.
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	if cfg.JWTSecret == "" {
		return nil, nil
	}
	return auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: cfg.JWTSecret,
		Issuer:    cfg.JWTIssuer,
	})
}

// ProvideWriteLimiter creates the per-actor write limiter, with the rate
// following the dynamic configuration when a watcher is running.
func ProvideWriteLimiter(watcher *config.Watcher) *auth.WriteLimiter {
	return auth.NewWriteLimiter(func() int {
		if watcher == nil {
			return config.DefaultDynamicConfig().Limits.WritesPerMinute
		}
		return watcher.Current().Limits.WritesPerMinute
	})
}

func domainConfigFn(watcher *config.Watcher) func() *domaincfg.DomainConfig {
	return func() *domaincfg.DomainConfig {
		if watcher == nil {
			return domaincfg.DefaultDomainConfig()
		}
		return watcher.Current().ToDomain()
	}
}

// ProvideEntityStore creates the entity store
func ProvideEntityStore(backend ports.PeopleBackend, logger *zap.Logger, metrics *observability.Metrics, watcher *config.Watcher) *services.EntityStore {
	return services.NewEntityStore(backend, logger, metrics, domainConfigFn(watcher))
}

// ProvideRelationshipService creates the relationship service
func ProvideRelationshipService(store *services.EntityStore, backend ports.PeopleBackend, logger *zap.Logger, metrics *observability.Metrics, watcher *config.Watcher) *services.RelationshipService {
	return services.NewRelationshipService(store, backend, logger, metrics, domainConfigFn(watcher))
}

// ProvideSyncService creates the sync service
func ProvideSyncService(store *services.EntityStore, backend ports.PeopleBackend, logger *zap.Logger, metrics *observability.Metrics) *services.SyncService {
	return services.NewSyncService(store, backend, logger, metrics)
}

// ProvideTreeProjector creates the tree projector
func ProvideTreeProjector(store *services.EntityStore, rels *services.RelationshipService, logger *zap.Logger) *queries.TreeProjector {
	return queries.NewTreeProjector(store, rels, logger)
}

// ProvidePersonHandler creates the person handler
func ProvidePersonHandler(store *services.EntityStore, rels *services.RelationshipService, logger *zap.Logger) *handlers.PersonHandler {
	return handlers.NewPersonHandler(store, rels, logger)
}

// ProvideRelationshipHandler creates the relationship handler
func ProvideRelationshipHandler(rels *services.RelationshipService, logger *zap.Logger) *handlers.RelationshipHandler {
	return handlers.NewRelationshipHandler(rels, logger)
}

// ProvideTreeHandler creates the tree handler
func ProvideTreeHandler(projector *queries.TreeProjector, sync *services.SyncService, logger *zap.Logger) *handlers.TreeHandler {
	return handlers.NewTreeHandler(projector, sync, logger)
}

// ProvideSyncHandler creates the sync handler
func ProvideSyncHandler(sync *services.SyncService, logger *zap.Logger) *handlers.SyncHandler {
	return handlers.NewSyncHandler(sync, logger)
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	cfg *config.Config,
	logger *zap.Logger,
	metrics *observability.Metrics,
	jwtValidator *auth.JWTValidator,
	writeLimiter *auth.WriteLimiter,
	persons *handlers.PersonHandler,
	relationships *handlers.RelationshipHandler,
	tree *handlers.TreeHandler,
	sync *handlers.SyncHandler,
) *rest.Router {
	return rest.NewRouter(cfg, logger, metrics, jwtValidator, writeLimiter, persons, relationships, tree, sync)
}

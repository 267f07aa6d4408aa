package di

import (
	"github.com/google/wire"
	"go.uber.org/zap"

	"kintree/application/ports"
	"kintree/application/queries"
	"kintree/application/services"
	"kintree/infrastructure/config"
	"kintree/interfaces/http/rest"
	"kintree/pkg/auth"
	"kintree/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config        *config.Config
	Logger        *zap.Logger
	Metrics       *observability.Metrics
	Watcher       *config.Watcher
	Backend       ports.PeopleBackend
	Store         *services.EntityStore
	Relationships *services.RelationshipService
	Sync          *services.SyncService
	Projector     *queries.TreeProjector
	WriteLimiter  *auth.WriteLimiter
	Router        *rest.Router
}

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideWatcher,
	ProvideBackend,
	ProvideJWTValidator,
	ProvideWriteLimiter,
	ProvideEntityStore,
	ProvideRelationshipService,
	ProvideSyncService,
	ProvideTreeProjector,
	ProvidePersonHandler,
	ProvideRelationshipHandler,
	ProvideTreeHandler,
	ProvideSyncHandler,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

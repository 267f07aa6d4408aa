package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"kintree/infrastructure/config"
	"kintree/interfaces/http/rest/handlers"
	"kintree/interfaces/http/rest/middleware"
	"kintree/pkg/auth"
	"kintree/pkg/observability"
)

// Router holds everything needed to assemble the HTTP surface.
type Router struct {
	cfg          *config.Config
	logger       *zap.Logger
	metrics      *observability.Metrics
	jwtValidator *auth.JWTValidator
	writeLimiter *auth.WriteLimiter

	persons       *handlers.PersonHandler
	relationships *handlers.RelationshipHandler
	tree          *handlers.TreeHandler
	sync          *handlers.SyncHandler
}

// NewRouter creates a router from its handler and middleware dependencies.
func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	metrics *observability.Metrics,
	jwtValidator *auth.JWTValidator,
	writeLimiter *auth.WriteLimiter,
	persons *handlers.PersonHandler,
	relationships *handlers.RelationshipHandler,
	tree *handlers.TreeHandler,
	sync *handlers.SyncHandler,
) *Router {
	return &Router{
		cfg:           cfg,
		logger:        logger,
		metrics:       metrics,
		jwtValidator:  jwtValidator,
		writeLimiter:  writeLimiter,
		persons:       persons,
		relationships: relationships,
		tree:          tree,
		sync:          sync,
	}
}

// Setup builds the chi mux with all routes and middleware attached.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Logger(rt.logger))

	if rt.cfg.EnableCORS {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Actor-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})
	r.Get("/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	})

	if rt.cfg.EnableMetrics {
		r.Handle("/metrics", rt.metrics.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Authenticate(rt.jwtValidator, rt.logger))

		api.Get("/tree", rt.tree.GetTree)
		api.Get("/ego", rt.sync.GetEgo)
		api.Get("/sync/status", rt.sync.Status)

		api.Get("/people", rt.persons.ListPeople)
		api.Get("/people/{personID}", rt.persons.GetPerson)
		api.Get("/people/{personID}/siblings", rt.persons.GetSiblings)
		api.Get("/people/{personID}/counts", rt.persons.GetCounts)
		api.Get("/people/{personID}/updates", rt.persons.GetUpdates)

		api.Group(func(write chi.Router) {
			write.Use(middleware.WriteRateLimit(rt.writeLimiter))

			write.Post("/sync", rt.sync.Sync)
			write.Post("/ego", rt.sync.InitializeEgo)

			write.Post("/people", rt.persons.CreatePerson)
			write.Put("/people/{personID}", rt.persons.UpdateProfile)
			write.Delete("/people/{personID}", rt.persons.DeletePerson)
			write.Post("/people/{personID}/block", rt.persons.BlockPerson)
			write.Delete("/people/{personID}/block", rt.persons.UnblockPerson)

			write.Post("/relationships", rt.relationships.CreateRelationship)
		})
	})

	return r
}

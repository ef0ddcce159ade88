// Package api provides the ops HTTP surface for the platewatch pipeline:
// health, watchlist inspection and reload, and dry-run classification. It
// builds a chi router usable both behind http.ListenAndServe (local) and a
// Lambda proxy adapter, and enforces cross-cutting concerns (request IDs,
// logging, panic recovery, API-key auth) before requests reach handlers.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"platewatch/internal/types"
)

// WatchlistStore is the subset of the watchlist store the API consumes.
type WatchlistStore interface {
	Lookup(ctx context.Context, identity string) (types.WatchlistEntry, bool, error)
	Load(ctx context.Context) error
	IsLoaded() bool
	Size() int
	LoadedAt() time.Time
}

// PlateResolver resolves plate candidates for dry-run classification.
type PlateResolver interface {
	Resolve(ctx context.Context, primary string, alternates []string) (*types.PlateMatch, error)
}

// Classifier produces risk decisions for dry-run classification.
type Classifier interface {
	Classify(obs *types.VehicleObservation, match *types.PlateMatch, knownSuspicious bool) types.RiskDecision
}

// HealthProbe is a named dependency check run by the health endpoint.
type HealthProbe interface {
	Name() string
	Check(ctx context.Context) error
}

// ServerConfig wires the API server's dependencies.
type ServerConfig struct {
	Store      WatchlistStore
	Resolver   PlateResolver
	Classifier Classifier
	Logger     *slog.Logger

	// APIKeyHash is the bcrypt hash protecting the /v1 routes. Empty
	// disables auth (local development only).
	APIKeyHash types.SecretString

	Probes []HealthProbe
}

// Server holds the router and handler dependencies.
type Server struct {
	store      WatchlistStore
	resolver   PlateResolver
	classifier Classifier
	logger     *slog.Logger
	apiKeyHash types.SecretString
	probes     []HealthProbe

	router *chi.Mux
}

// NewServer constructs the server and mounts its routes. Fails fast on
// missing dependencies.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("watchlist store must not be nil")
	}
	if cfg.Resolver == nil {
		return nil, fmt.Errorf("plate resolver must not be nil")
	}
	if cfg.Classifier == nil {
		return nil, fmt.Errorf("classifier must not be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	s := &Server{
		store:      cfg.Store,
		resolver:   cfg.Resolver,
		classifier: cfg.Classifier,
		logger:     cfg.Logger,
		apiKeyHash: cfg.APIKeyHash,
		probes:     cfg.Probes,
		router:     chi.NewRouter(),
	}

	if s.apiKeyHash.Unmask() == "" {
		s.logger.Warn("ops API key auth is disabled (no key hash configured)")
	}

	s.mountRoutes()
	return s, nil
}

// Handler returns the router for http.ListenAndServe or a Lambda adapter.
func (s *Server) Handler() http.Handler {
	return s.router
}

// mountRoutes registers middleware (outermost first) and all endpoints.
// Health stays outside the authenticated group so load balancers can probe
// without credentials.
func (s *Server) mountRoutes() {
	s.router.Use(s.Recoverer)
	s.router.Use(RequestIDMiddleware)
	s.router.Use(RequestLogger(s.logger))

	s.router.Get("/health", s.HandleHealth)

	s.router.Route("/v1", func(r chi.Router) {
		r.Use(s.APIKeyMiddleware)

		r.Get("/watchlist/{plate}", s.HandleWatchlistLookup)
		r.Post("/watchlist/reload", s.HandleWatchlistReload)
		r.Post("/classify", s.HandleClassify)
	})
}

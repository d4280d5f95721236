package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/yegors/adsb-proxy/internal/config"
	"github.com/yegors/adsb-proxy/pkg/logger"
)

// Router is the API router
type Router struct {
	handler    *Handler
	middleware *Middleware
	config     *config.Config
	logger     *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(resolver Resolver, config *config.Config, logger *logger.Logger) *Router {
	return &Router{
		handler:    NewHandler(resolver, logger),
		middleware: NewMiddleware(logger),
		config:     config,
		logger:     logger.Named("api-router"),
	}
}

// Routes returns the HTTP routes
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	router.Use(r.middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(r.middleware.Recoverer)

	router.Group(func(router chi.Router) {
		router.Use(r.middleware.CORS(r.config.Server.CORSAllowedOrigins))
		router.Get("/data/aircraft.json", r.handler.GetAircraft)
		router.Options("/data/aircraft.json", r.handler.Preflight)
	})

	router.Get("/health", r.handler.GetHealth)

	router.NotFound(r.handler.NotFound)

	r.logger.Debug("Routes registered",
		logger.String("cors_allowed_origins", strings.Join(r.config.Server.CORSAllowedOrigins, ",")),
	)

	return router
}

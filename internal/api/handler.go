package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/yegors/adsb-proxy/internal/adsb"
	"github.com/yegors/adsb-proxy/pkg/logger"
)

// SourceHeader names the source that produced the served snapshot
const SourceHeader = "X-Data-Source"

// Resolver resolves the snapshot for one request
type Resolver interface {
	Resolve(ctx context.Context) (*adsb.Resolution, error)
}

// Handler contains the HTTP handlers
type Handler struct {
	resolver Resolver
	now      func() time.Time
	logger   *logger.Logger
}

// NewHandler creates a new handler
func NewHandler(resolver Resolver, logger *logger.Logger) *Handler {
	return &Handler{
		resolver: resolver,
		now:      time.Now,
		logger:   logger.Named("api-handler"),
	}
}

// noSourcesMessage is the client-facing text of adsb.ErrNoDataSources
const noSourcesMessage = "No data sources available"

// unavailableResponse is the 503 body
type unavailableResponse struct {
	Error    string          `json:"error"`
	Aircraft []adsb.Aircraft `json:"aircraft"`
	Now      float64         `json:"now"`
}

// GetAircraft serves the resolved aircraft snapshot
func (h *Handler) GetAircraft(w http.ResponseWriter, r *http.Request) {
	log := h.logger.WithRequestID(middleware.GetReqID(r.Context()))

	res, err := h.resolver.Resolve(r.Context())
	if err != nil {
		log.Warn("No aircraft data available", logger.Error(err))
		msg := err.Error()
		if errors.Is(err, adsb.ErrNoDataSources) {
			msg = noSourcesMessage
		}
		writeJSON(w, http.StatusServiceUnavailable, unavailableResponse{
			Error:    msg,
			Aircraft: []adsb.Aircraft{},
			Now:      float64(h.now().UnixMilli()) / 1000,
		})
		return
	}

	body, err := json.Marshal(res.Data)
	if err != nil {
		log.Error("Failed to encode snapshot", logger.Error(err), logger.String("source", res.Source))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(SourceHeader, res.Source)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Debug("Failed to write response", logger.Error(err))
	}
}

// GetHealth reports liveness, independent of the data sources
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Preflight answers OPTIONS after the CORS middleware has set its headers
func (h *Handler) Preflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// NotFound answers every unknown path
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte("Not Found"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

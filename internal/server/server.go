// Package server is the thin HTTP face of the pipeline: path to pipeline
// call plus status translation, nothing more. All aggregation behavior
// lives behind the EventService boundary.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/KenyYoshimura/event-aggregator-api/internal/domain"
	"github.com/KenyYoshimura/event-aggregator-api/internal/facility"
)

// EventService is the pipeline boundary the routes call into.
type EventService interface {
	GetEvents(ctx context.Context, key string) ([]domain.Event, error)
	GetFilteredEvents(ctx context.Context, key string) ([]domain.Event, error)
}

type Server struct {
	events  EventService
	dataset string
	logger  *slog.Logger
}

// New creates the HTTP layer over the pipeline. dataset names the cached
// view the event routes serve.
func New(events EventService, dataset string, logger *slog.Logger) *Server {
	return &Server{events: events, dataset: dataset, logger: logger}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("GET /api/events/filtered", s.handleFilteredEvents)
	mux.HandleFunc("GET /api/facilities", s.handleFacilities)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.events.GetEvents(r.Context(), s.dataset)
	if err != nil {
		s.logger.Error("events request failed", "dataset", s.dataset, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, events)
}

func (s *Server) handleFilteredEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.events.GetFilteredEvents(r.Context(), s.dataset)
	if err != nil {
		s.logger.Error("filtered events request failed", "dataset", s.dataset, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, events)
}

func (s *Server) handleFacilities(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, facility.DefaultLinks())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// writeJSON serves v as a JSON array, with an empty dataset rendered as []
// rather than null.
func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if events, ok := v.([]domain.Event); ok && events == nil {
		v = []domain.Event{}
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response failed", "error", err)
	}
}

// Package api exposes the planner workflows and the itinerary chat over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"travel-planner/internal/common/logger"
	"travel-planner/internal/models"
)

// Planner runs the planner workflows.
type Planner interface {
	SearchFlights(ctx context.Context, req models.FlightRequest) (*models.AIResponse, error)
	SearchHotels(ctx context.Context, req models.HotelRequest) (*models.AIResponse, error)
	CompleteSearch(ctx context.Context, req models.CompleteSearchRequest) (*models.AIResponse, error)
	GenerateItinerary(ctx context.Context, req models.ItineraryRequest) (*models.AIResponse, error)
	PlanFromConversation(ctx context.Context, text string) (*models.AIResponse, error)
}

// ChatService keeps conversations about an itinerary.
type ChatService interface {
	Start(ctx context.Context, itinerary, message string) (*models.ChatResponse, error)
	Keep(ctx context.Context, chatID, message string) (*models.ChatResponse, error)
	Get(ctx context.Context, chatID string) (*models.ChatHistory, error)
}

type Options struct {
	AllowedOrigins []string
	// Ready reports whether backing stores are reachable. Nil means always ready.
	Ready func(ctx context.Context) error
	// Now is the clock used for request defaults.
	Now func() time.Time
}

type server struct {
	planner Planner
	chat    ChatService
	ready   func(ctx context.Context) error
	now     func() time.Time
	logger  logger.Logger
}

// NewRouter wires the handlers and middleware into one http.Handler.
func NewRouter(planner Planner, chat ChatService, opts Options, log logger.Logger) http.Handler {
	s := &server{
		planner: planner,
		chat:    chat,
		ready:   opts.Ready,
		now:     opts.Now,
		logger:  log,
	}
	if s.now == nil {
		s.now = time.Now
	}

	mux := http.NewServeMux()
	s.handle(mux, "POST /search_flights/{$}", s.searchFlights)
	s.handle(mux, "POST /search_hotels/{$}", s.searchHotels)
	s.handle(mux, "POST /complete_search/{$}", s.completeSearch)
	s.handle(mux, "POST /generate_itinerary/{$}", s.generateItinerary)
	s.handle(mux, "POST /generate_itinerary_from_conversation/{$}", s.planFromConversation)

	if chat != nil {
		s.handle(mux, "POST /chat/{$}", s.startChat)
		s.handle(mux, "POST /chat/keep/{$}", s.keepChat)
		s.handle(mux, "GET /chat/{chat_id}", s.getChat)
	}

	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("GET /ready", s.readiness)
	mux.Handle("GET /metrics", promhttp.Handler())

	var h http.Handler = mux
	h = recoverMiddleware(h, log)
	h = loggingMiddleware(h, log)
	h = requestIDMiddleware(h, log)
	h = corsMiddleware(h, opts.AllowedOrigins)
	return h
}

func (s *server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, instrument(pattern, h))
}

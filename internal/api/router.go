package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/rankparty/internal/api/handler"
	"github.com/mcoot/rankparty/internal/api/middleware"
	"github.com/mcoot/rankparty/internal/services/registry"
	"github.com/mcoot/rankparty/internal/services/room"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	RoomController *room.Controller
	Registry       *registry.Registry
	Connections    handler.ConnectionCounter
	Realtime       http.Handler // Serves /api/v1/ws
	PublicURL      string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	roomHandler := handler.NewRoomHandler(cfg.RoomController, cfg.PublicURL, cfg.Logger)
	healthHandler := handler.NewHealthHandler(cfg.Registry, cfg.Connections)

	// Create middleware
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Room routes
	rooms := api.PathPrefix("/rooms").Subrouter()
	rooms.HandleFunc("", roomHandler.Create).Methods(http.MethodPost)
	rooms.HandleFunc("/{code}", roomHandler.Get).Methods(http.MethodGet)
	rooms.HandleFunc("/{code}/join", roomHandler.Join).Methods(http.MethodPost)
	rooms.HandleFunc("/{code}/qr", roomHandler.QRCode).Methods(http.MethodGet)

	// Real-time channel
	if cfg.Realtime != nil {
		api.Handle("/ws", cfg.Realtime).Methods(http.MethodGet)
	}

	// Health check endpoint
	api.HandleFunc("/health", healthHandler.Get).Methods(http.MethodGet)

	return r
}

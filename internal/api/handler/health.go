package handler

import (
	"context"
	"net/http"

	"github.com/mcoot/rankparty/internal/api/apierr"
	"github.com/mcoot/rankparty/internal/api/response"
)

// RoomCounter reports how many rooms are live
type RoomCounter interface {
	Count(ctx context.Context) (int, error)
}

// ConnectionCounter reports how many real-time connections are open
type ConnectionCounter interface {
	ConnectionCount() int
}

// HealthHandler serves the health check
type HealthHandler struct {
	rooms       RoomCounter
	connections ConnectionCounter
}

// NewHealthHandler creates a new health handler. connections may be nil.
func NewHealthHandler(rooms RoomCounter, connections ConnectionCounter) *HealthHandler {
	return &HealthHandler{rooms: rooms, connections: connections}
}

// Get handles GET /api/v1/health
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	count, err := h.rooms.Count(r.Context())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	resp := response.HealthResponse{Status: "ok", ActiveRooms: count}
	if h.connections != nil {
		resp.Connections = h.connections.ConnectionCount()
	}
	response.JSON(w, http.StatusOK, resp)
}

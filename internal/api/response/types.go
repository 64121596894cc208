package response

import (
	"github.com/mcoot/rankparty/internal/model"
	"github.com/mcoot/rankparty/internal/protocol"
)

// Room is a room snapshot in API responses. It is the same view clients
// receive as room-state over the real-time channel.
type Room = protocol.RoomView

// RoomFromModel converts model.Room
func RoomFromModel(r *model.Room) Room {
	return protocol.NewRoomView(r)
}

// CreateRoomResponse is the response after creating a room
type CreateRoomResponse struct {
	RoomCode string `json:"room_code"`
	Room     Room   `json:"room"`
}

// JoinRoomResponse is the response after reserving a name
type JoinRoomResponse struct {
	Room Room `json:"room"`
}

// HealthResponse reports liveness and load
type HealthResponse struct {
	Status      string `json:"status"`
	ActiveRooms int    `json:"active_rooms"`
	Connections int    `json:"connections"`
}

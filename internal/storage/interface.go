package storage

import (
	"context"

	"github.com/mcoot/rankparty/internal/model"
)

// Storage defines the interface for room state retention
type Storage interface {
	SaveRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, code model.RoomCode) (*model.Room, error)
	DeleteRoom(ctx context.Context, code model.RoomCode) error
	RoomExists(ctx context.Context, code model.RoomCode) (bool, error)
	ListRoomCodes(ctx context.Context) ([]model.RoomCode, error)
	CountRooms(ctx context.Context) (int, error)
}

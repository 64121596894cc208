package memory

import (
	"context"
	"testing"
	"time"

	"github.com/mcoot/rankparty/internal/model"
	"github.com/stretchr/testify/suite"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

func (s *StorageSuite) newRoom(code model.RoomCode) *model.Room {
	host := model.Player{Name: "Ann", Role: model.RolePlayer}
	return model.NewRoom(code, host, model.DefaultRoomConfig(), time.Now())
}

func (s *StorageSuite) TestSaveAndGetRoom() {
	room := s.newRoom("ABC123")

	err := s.storage.SaveRoom(s.ctx, room)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetRoom(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal(room.Code, retrieved.Code)
	s.Equal("Ann", retrieved.HostName)
	s.Equal(model.PhaseLobby, retrieved.Phase)
}

func (s *StorageSuite) TestGetRoomNotFound() {
	_, err := s.storage.GetRoom(s.ctx, "NOPE00")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *StorageSuite) TestDeleteRoom() {
	_ = s.storage.SaveRoom(s.ctx, s.newRoom("ABC123"))

	err := s.storage.DeleteRoom(s.ctx, "ABC123")
	s.Require().NoError(err)

	_, err = s.storage.GetRoom(s.ctx, "ABC123")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *StorageSuite) TestRoomExists() {
	exists, err := s.storage.RoomExists(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.False(exists)

	_ = s.storage.SaveRoom(s.ctx, s.newRoom("ABC123"))

	exists, err = s.storage.RoomExists(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *StorageSuite) TestListAndCountRooms() {
	_ = s.storage.SaveRoom(s.ctx, s.newRoom("ZZZ999"))
	_ = s.storage.SaveRoom(s.ctx, s.newRoom("AAA111"))

	codes, err := s.storage.ListRoomCodes(s.ctx)
	s.Require().NoError(err)
	s.Equal([]model.RoomCode{"AAA111", "ZZZ999"}, codes)

	count, err := s.storage.CountRooms(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, count)
}

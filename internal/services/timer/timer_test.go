package timer

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rankparty/internal/dependencies/mocks"
	"github.com/mcoot/rankparty/internal/model"
	"github.com/mcoot/rankparty/internal/services/registry"
	"github.com/mcoot/rankparty/internal/services/room"
	"github.com/mcoot/rankparty/internal/services/scoring"
	"github.com/mcoot/rankparty/internal/services/topics"
	"github.com/mcoot/rankparty/internal/storage/memory"
	"github.com/mcoot/rankparty/internal/testutil"
)

type TimerSuite struct {
	suite.Suite
	registry   *registry.Registry
	controller *room.Controller
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	notifier   *mocks.RecordingNotifier
	ctx        context.Context
}

func TestTimerSuite(t *testing.T) {
	suite.Run(t, new(TimerSuite))
}

func (s *TimerSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.notifier = mocks.NewRecordingNotifier()
	s.ctx = context.Background()

	logger := testutil.NopLogger()
	s.registry = registry.New(memory.New(), s.random, logger)
	s.controller = room.NewController(s.registry, scoring.New(), topics.New(s.random, nil), s.notifier, s.clock, s.random, logger, room.DefaultConfig())
}

func (s *TimerSuite) newTimer(idleTTL time.Duration) *RoundTimer {
	return New(s.registry, s.controller, s.clock, DefaultInterval, idleTTL, testutil.NopLogger())
}

// rankingRoom creates a two-player room waiting on Ann's ranking
func (s *TimerSuite) rankingRoom(code string) model.RoomCode {
	s.random.QueueString(code)
	r, err := s.controller.CreateRoom(s.ctx, "Ann")
	s.Require().NoError(err)
	_, err = s.controller.JoinGameRoom(s.ctx, r.Code, "conn-ann", "Ann")
	s.Require().NoError(err)
	_, err = s.controller.JoinGameRoom(s.ctx, r.Code, "conn-bob", "Bob")
	s.Require().NoError(err)
	_, err = s.controller.StartGame(s.ctx, r.Code, "conn-ann", 1)
	s.Require().NoError(err)
	for _, text := range []string{"pizza", "tacos", "sushi", "ramen", "curry"} {
		_, err = s.controller.SubmitEntry(s.ctx, r.Code, "conn-bob", text)
		s.Require().NoError(err)
	}
	_, err = s.controller.StartRanking(s.ctx, r.Code, "conn-ann", "")
	s.Require().NoError(err)
	return r.Code
}

func (s *TimerSuite) phase(code model.RoomCode) model.Phase {
	r, err := s.registry.Get(s.ctx, code)
	s.Require().NoError(err)
	return r.Phase
}

func (s *TimerSuite) TestSweepLeavesFreshRoundsAlone() {
	code := s.rankingRoom("ROOM01")
	s.clock.Advance(30 * time.Second)

	result := s.newTimer(0).Sweep(s.ctx)

	s.Empty(result.Expired)
	s.Equal(model.PhaseRanking, s.phase(code))
}

func (s *TimerSuite) TestSweepExpiresStalledRanking() {
	stalled := s.rankingRoom("ROOM01")
	s.clock.Advance(45 * time.Second)
	fresh := s.rankingRoom("ROOM02")
	s.clock.Advance(20 * time.Second)

	result := s.newTimer(0).Sweep(s.ctx)

	s.Equal([]model.RoomCode{stalled}, result.Expired)
	s.Equal(model.PhaseReveal, s.phase(stalled))
	s.Equal(model.PhaseRanking, s.phase(fresh))
	s.Len(s.notifier.BroadcastsOfType(model.EventResultsReveal), 1)
}

func (s *TimerSuite) TestSweepIsIdempotent() {
	code := s.rankingRoom("ROOM01")
	s.clock.Advance(61 * time.Second)
	timer := s.newTimer(0)

	s.Len(timer.Sweep(s.ctx).Expired, 1)
	s.Empty(timer.Sweep(s.ctx).Expired)
	s.Equal(model.PhaseReveal, s.phase(code))
	s.Len(s.notifier.BroadcastsOfType(model.EventFinalScores), 1)
}

func (s *TimerSuite) TestSweepEvictsIdleRooms() {
	idle := s.rankingRoom("ROOM01")
	s.clock.Advance(61 * time.Second)
	timer := s.newTimer(10 * time.Minute)

	// The expiry itself counts as activity
	s.Len(timer.Sweep(s.ctx).Expired, 1)

	s.clock.Advance(5 * time.Minute)
	active := s.rankingRoom("ROOM02")
	s.clock.Advance(6 * time.Minute)

	result := timer.Sweep(s.ctx)
	s.Equal([]model.RoomCode{idle}, result.Evicted)

	_, err := s.registry.Get(s.ctx, idle)
	s.ErrorIs(err, model.ErrRoomNotFound)
	_, err = s.registry.Get(s.ctx, active)
	s.NoError(err)
}

func (s *TimerSuite) TestSweepWithoutEvictionKeepsIdleRooms() {
	code := s.rankingRoom("ROOM01")
	s.clock.Advance(24 * time.Hour)

	result := s.newTimer(0).Sweep(s.ctx)
	s.Empty(result.Evicted)

	_, err := s.registry.Get(s.ctx, code)
	s.NoError(err)
}

func (s *TimerSuite) TestRunStopsOnCancel() {
	ctx, cancel := context.WithCancel(s.ctx)
	timer := New(s.registry, s.controller, s.clock, time.Millisecond, 0, testutil.NopLogger())

	done := make(chan struct{})
	go func() {
		timer.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		s.Fail("timer did not stop")
	}
}

// flakyExpirer fails for one room and delegates the rest
type flakyExpirer struct {
	failing model.RoomCode
	err     error
	next    Expirer
}

func (f flakyExpirer) ExpireStalled(ctx context.Context, code model.RoomCode) (bool, error) {
	if code == f.failing {
		return false, f.err
	}
	return f.next.ExpireStalled(ctx, code)
}

func (s *TimerSuite) TestSweepContinuesPastFailingRoom() {
	broken := s.rankingRoom("ROOM01")
	healthy := s.rankingRoom("ROOM02")
	s.clock.Advance(61 * time.Second)

	logger, logs := testutil.RecordingLogger()
	expirer := flakyExpirer{failing: broken, err: errors.New("storage unavailable"), next: s.controller}
	timer := New(s.registry, expirer, s.clock, DefaultInterval, 0, logger)

	result := timer.Sweep(s.ctx)

	s.Equal([]model.RoomCode{healthy}, result.Expired)
	s.Contains(logs.Messages(slog.LevelError), "failed to expire room")
}

func (s *TimerSuite) TestSweepIgnoresRoomsDeletedMidSweep() {
	code := s.rankingRoom("ROOM01")
	s.clock.Advance(61 * time.Second)

	logger, logs := testutil.RecordingLogger()
	expirer := flakyExpirer{failing: code, err: model.ErrRoomNotFound, next: s.controller}
	timer := New(s.registry, expirer, s.clock, DefaultInterval, 0, logger)

	s.Empty(timer.Sweep(s.ctx).Expired)
	s.Empty(logs.Messages(slog.LevelError))
}

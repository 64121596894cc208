package factory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rankparty/internal/model"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

func (s *IntegrationSuite) TearDownTest() {
	s.NoError(s.app.Close())
}

// createRoom sets up ROOM01 with Ann hosting and everyone connected
func (s *IntegrationSuite) createRoom(names ...string) model.RoomCode {
	s.app.MockRandom.QueueString("ROOM01")
	room, err := s.app.RoomController.CreateRoom(s.ctx, names[0])
	s.Require().NoError(err)

	for _, name := range names[1:] {
		_, err := s.app.RoomController.JoinRoom(s.ctx, room.Code, name)
		s.Require().NoError(err)
	}
	for _, name := range names {
		_, err := s.app.RoomController.JoinGameRoom(s.ctx, room.Code, model.ConnID("conn-"+name), name)
		s.Require().NoError(err)
	}
	return room.Code
}

func (s *IntegrationSuite) submit(code model.RoomCode, name string, texts ...string) {
	for _, text := range texts {
		_, err := s.app.RoomController.SubmitEntry(s.ctx, code, model.ConnID("conn-"+name), text)
		s.Require().NoError(err)
	}
}

// Test: Two rounds with the judge rotating, ending in final scores
func (s *IntegrationSuite) TestCompleteGameFlow() {
	rc := s.app.RoomController
	code := s.createRoom("Ann", "Bob")

	// Round 1: Ann judges, Bob guesses
	room, err := rc.StartGame(s.ctx, code, "conn-Ann", 2)
	s.Require().NoError(err)
	s.Equal(model.PhaseEntry, room.Phase)
	s.Equal("Ann", room.JudgeName)

	s.submit(code, "Ann", "pizza", "tacos", "sushi")
	s.submit(code, "Bob", "ramen", "curry")

	room, err = rc.StartRanking(s.ctx, code, "conn-Ann", "Ann")
	s.Require().NoError(err)
	s.Equal(model.PhaseRanking, room.Phase)

	ranking := []string{"pizza", "tacos", "sushi", "ramen", "curry"}
	_, err = rc.SubmitRanking(s.ctx, code, "conn-Ann", ranking)
	s.Require().NoError(err)
	room, err = rc.SubmitGuess(s.ctx, code, "conn-Bob", ranking)
	s.Require().NoError(err)

	// Perfect guess: 5 matches plus the bonus, then straight into round 2
	s.Equal(8, room.TotalScores["Bob"])
	s.Equal(2, room.Round)
	s.Equal(model.PhaseEntry, room.Phase)
	s.Equal("Bob", room.JudgeName)

	// Round 2: Bob judges, Ann guesses one position right
	s.submit(code, "Ann", "apple", "melon", "grape")
	s.submit(code, "Bob", "lemon", "peach")
	_, err = rc.StartRanking(s.ctx, code, "conn-Bob", "Bob")
	s.Require().NoError(err)
	_, err = rc.SubmitRanking(s.ctx, code, "conn-Bob", []string{"apple", "melon", "grape", "lemon", "peach"})
	s.Require().NoError(err)
	room, err = rc.SubmitGuess(s.ctx, code, "conn-Ann", []string{"apple", "grape", "melon", "peach", "lemon"})
	s.Require().NoError(err)

	s.Equal(model.PhaseReveal, room.Phase)
	s.True(room.IsFinished())

	final := s.app.Events.BroadcastsOfType(model.EventFinalScores)
	s.Require().Len(final, 1)
	s.Equal(map[string]int{"Ann": 1, "Bob": 8}, final[0].Payload.(model.FinalScoresPayload).Scores)
}

// Test: The round timer forces a stalled ranking through the wired controller
func (s *IntegrationSuite) TestRoundTimerExpiresStalledRanking() {
	rc := s.app.RoomController
	code := s.createRoom("Ann", "Bob")

	_, err := rc.StartGame(s.ctx, code, "conn-Ann", 1)
	s.Require().NoError(err)
	s.submit(code, "Ann", "pizza", "tacos", "sushi")
	s.submit(code, "Bob", "ramen", "curry")
	_, err = rc.StartRanking(s.ctx, code, "conn-Ann", "Ann")
	s.Require().NoError(err)

	s.app.MockClock.Advance(30 * time.Second)
	result := s.app.RoundTimer.Sweep(s.ctx)
	s.Empty(result.Expired)

	s.app.MockClock.Advance(31 * time.Second)
	result = s.app.RoundTimer.Sweep(s.ctx)
	s.Equal([]model.RoomCode{code}, result.Expired)

	room, err := rc.GetRoom(s.ctx, code)
	s.Require().NoError(err)
	s.Equal(model.PhaseReveal, room.Phase)
	s.Len(room.JudgeRanking, 5)

	revealed := s.app.Events.BroadcastsOfType(model.EventResultsReveal)
	s.Require().Len(revealed, 1)
	s.True(revealed[0].Payload.(model.ResultsRevealedPayload).Fallback)
}

// Test: Closing the app destroys every room
func (s *IntegrationSuite) TestCloseDestroysRooms() {
	code := s.createRoom("Ann")

	s.Require().NoError(s.app.Close())

	_, err := s.app.RoomController.GetRoom(s.ctx, code)
	s.Error(err)
}

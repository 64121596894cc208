package realtime

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rankparty/internal/dependencies/mocks"
	"github.com/mcoot/rankparty/internal/model"
	"github.com/mcoot/rankparty/internal/protocol"
	"github.com/mcoot/rankparty/internal/services/registry"
	"github.com/mcoot/rankparty/internal/services/room"
	"github.com/mcoot/rankparty/internal/services/scoring"
	"github.com/mcoot/rankparty/internal/services/topics"
	"github.com/mcoot/rankparty/internal/storage/memory"
	"github.com/mcoot/rankparty/internal/testutil"
)

type RealtimeSuite struct {
	suite.Suite
	server     *httptest.Server
	controller *room.Controller
	manager    *HubManager
	random     *mocks.MockRandom
	ctx        context.Context
}

func TestRealtimeSuite(t *testing.T) {
	suite.Run(t, new(RealtimeSuite))
}

func (s *RealtimeSuite) SetupTest() {
	logger := testutil.NopLogger()
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.ctx = context.Background()

	s.manager = NewHubManager(logger)
	reg := registry.New(memory.New(), s.random, logger)
	s.controller = room.NewController(reg, scoring.New(), topics.New(s.random, []string{"Best Smells"}), s.manager, clk, s.random, logger, room.DefaultConfig())

	s.server = httptest.NewServer(NewHandler(s.controller, s.manager, clk, DefaultOptions(), logger))
}

func (s *RealtimeSuite) TearDownTest() {
	s.manager.CloseAll()
	s.server.Close()
}

// Helpers

func (s *RealtimeSuite) dial() *websocket.Conn {
	url := "ws" + strings.TrimPrefix(s.server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = conn.Close() })
	return conn
}

func (s *RealtimeSuite) send(conn *websocket.Conn, code model.RoomCode, action protocol.Action) {
	data, err := protocol.Encode(code, action)
	s.Require().NoError(err)
	s.Require().NoError(conn.WriteMessage(websocket.TextMessage, data))
}

func (s *RealtimeSuite) sendRaw(conn *websocket.Conn, raw string) {
	s.Require().NoError(conn.WriteMessage(websocket.TextMessage, []byte(raw)))
}

// await reads frames until one of the given type arrives
func (s *RealtimeSuite) await(conn *websocket.Conn, t model.EventType) protocol.RawMessage {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		s.Require().NoError(err, "waiting for %s", t)

		var msg protocol.RawMessage
		s.Require().NoError(json.Unmarshal(data, &msg))
		if msg.Type == t {
			return msg
		}
	}
}

func (s *RealtimeSuite) payload(msg protocol.RawMessage, v any) {
	s.Require().NoError(json.Unmarshal(msg.Payload, v))
}

// joinAs connects and binds a player, waiting for the snapshot
func (s *RealtimeSuite) joinAs(code model.RoomCode, name string) *websocket.Conn {
	conn := s.dial()
	s.send(conn, code, protocol.JoinGameRoom{PlayerName: name})
	s.await(conn, model.EventRoomState)
	return conn
}

func (s *RealtimeSuite) createRoom(host string) model.RoomCode {
	s.random.QueueString("ROOM01")
	r, err := s.controller.CreateRoom(s.ctx, host)
	s.Require().NoError(err)
	return r.Code
}

// Tests

func (s *RealtimeSuite) TestFullGameOverWebSocket() {
	code := s.createRoom("Ann")
	_, err := s.controller.JoinRoom(s.ctx, code, "Bob")
	s.Require().NoError(err)

	ann := s.joinAs(code, "Ann")
	bob := s.joinAs(code, "Bob")

	s.send(ann, code, protocol.StartGame{RoundLimit: 1})
	started := s.await(bob, model.EventGameStarted)
	var game protocol.GameStarted
	s.payload(started, &game)
	s.Equal("Best Smells", game.Category)
	s.Equal("Ann", game.JudgeName)

	for _, text := range []string{"pizza", "tacos", "sushi"} {
		s.send(ann, code, protocol.SubmitEntry{Text: text})
	}
	for _, text := range []string{"ramen", "curry"} {
		s.send(bob, code, protocol.SubmitEntry{Text: text})
	}

	// The judge sees the list grow; wait for the fifth entry
	for {
		var entries protocol.AllEntries
		s.payload(s.await(ann, model.EventAllEntries), &entries)
		if len(entries.Entries) == 5 {
			break
		}
	}

	s.send(ann, code, protocol.StartRankingPhase{JudgeName: "Ann"})
	var toJudge protocol.AllEntries
	s.payload(s.await(ann, model.EventAllEntries), &toJudge)
	s.ElementsMatch([]string{"pizza", "tacos", "sushi", "ramen", "curry"}, toJudge.Entries)

	ranking := []string{"curry", "pizza", "ramen", "sushi", "tacos"}
	s.send(ann, code, protocol.SubmitRanking{Ranking: ranking})

	var toGuesser protocol.AllEntries
	s.payload(s.await(bob, model.EventAllEntries), &toGuesser)
	s.ElementsMatch(ranking, toGuesser.Entries)

	s.send(bob, code, protocol.SubmitGuess{Guess: ranking})

	var revealed protocol.ResultsRevealed
	s.payload(s.await(ann, model.EventResultsReveal), &revealed)
	s.Equal(ranking, revealed.JudgeRanking)
	s.Equal(8, revealed.Results["Bob"].Score)

	var final protocol.FinalScores
	s.payload(s.await(bob, model.EventFinalScores), &final)
	s.Equal(map[string]int{"Ann": 0, "Bob": 8}, final.Scores)
	s.Equal("Bob", final.Standings[0].PlayerName)

	r, err := s.controller.GetRoom(s.ctx, code)
	s.Require().NoError(err)
	s.Equal(model.PhaseReveal, r.Phase)
}

func (s *RealtimeSuite) TestJoinErrorGoesOnlyToSender() {
	code := s.createRoom("Ann")
	ann := s.joinAs(code, "Ann")

	intruder := s.dial()
	s.send(intruder, code, protocol.JoinGameRoom{PlayerName: "Ann"})

	var notice protocol.Notice
	s.payload(s.await(intruder, model.EventJoinError), &notice)
	s.Equal(model.ErrNameTaken.Message, notice.Message)

	// Ann keeps playing and never sees the failure
	s.send(ann, code, protocol.RequestEntries{})
	msg := s.await(ann, model.EventToastWarning)
	s.payload(msg, &notice)
	s.Equal(model.ErrWrongPhase.Message, notice.Message)
}

func (s *RealtimeSuite) TestMalformedMessagesGetToast() {
	code := s.createRoom("Ann")
	ann := s.joinAs(code, "Ann")

	s.sendRaw(ann, `{"type":"flip-table","room_code":"ROOM01","payload":{}}`)
	var notice protocol.Notice
	s.payload(s.await(ann, model.EventToastWarning), &notice)
	s.Contains(notice.Message, "unknown message type")

	s.sendRaw(ann, `{"type":"submit-entry","room_code":"ROOM01","payload":{"text":7}}`)
	s.payload(s.await(ann, model.EventToastWarning), &notice)
	s.Contains(notice.Message, "malformed payload")
}

func (s *RealtimeSuite) TestActionsBeforeJoinAreRejected() {
	code := s.createRoom("Ann")
	stranger := s.dial()

	s.send(stranger, code, protocol.StartGame{})
	var notice protocol.Notice
	s.payload(s.await(stranger, model.EventToastWarning), &notice)
	s.Equal(model.ErrNotInRoom.Message, notice.Message)
}

func (s *RealtimeSuite) TestConnectionCannotJoinSecondRoom() {
	code := s.createRoom("Ann")
	ann := s.joinAs(code, "Ann")

	s.random.QueueString("ROOM02")
	other, err := s.controller.CreateRoom(s.ctx, "Cat")
	s.Require().NoError(err)

	s.send(ann, other.Code, protocol.JoinGameRoom{PlayerName: "Ann"})
	var notice protocol.Notice
	s.payload(s.await(ann, model.EventJoinError), &notice)
	s.Equal(model.ErrConnBoundOther.Message, notice.Message)
}

func (s *RealtimeSuite) TestRateLimitedConnectionGetsToast() {
	code := s.createRoom("Ann")
	ann := s.joinAs(code, "Ann")

	// Burst well past the limit; at least one request must be refused
	for i := 0; i < 30; i++ {
		s.send(ann, code, protocol.SetRole{Role: model.RolePlayer})
	}
	for {
		var notice protocol.Notice
		s.payload(s.await(ann, model.EventToastWarning), &notice)
		if notice.Message == model.ErrRateLimited.Message {
			return
		}
	}
}

func (s *RealtimeSuite) TestClosingConnectionLeavesRoom() {
	code := s.createRoom("Ann")
	_, err := s.controller.JoinRoom(s.ctx, code, "Bob")
	s.Require().NoError(err)
	ann := s.joinAs(code, "Ann")
	bob := s.joinAs(code, "Bob")

	s.Require().NoError(bob.Close())

	for {
		var list protocol.PlayerList
		s.payload(s.await(ann, model.EventPlayerList), &list)
		if len(list.Players) == 1 {
			s.Equal("Ann", list.Players[0].Name)
			return
		}
	}
}

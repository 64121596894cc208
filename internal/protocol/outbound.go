package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mcoot/rankparty/internal/model"
	"github.com/mcoot/rankparty/internal/services/scoring"
)

// Message is a server frame as it goes over the wire
type Message struct {
	Type      model.EventType `json:"type"`
	RoomCode  model.RoomCode  `json:"room_code,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   any             `json:"payload"`
}

// RawMessage is a server frame with its payload left undecoded, for clients
type RawMessage struct {
	Type      model.EventType `json:"type"`
	RoomCode  model.RoomCode  `json:"room_code,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Payload views

type PhaseChanged struct {
	Phase model.Phase `json:"phase"`
}

type PlayerList struct {
	Players []PlayerView `json:"players"`
}

type PlayerJoined struct {
	PlayerName string `json:"player_name"`
}

// NewEntry is sent to spectators. Entries are never attributed on the wire.
type NewEntry struct {
	Text string `json:"text"`
}

type AllEntries struct {
	Entries []string `json:"entries"`
}

type GameStarted struct {
	Category   string `json:"category"`
	Round      int    `json:"round"`
	RoundLimit int    `json:"round_limit"`
	JudgeName  string `json:"judge_name"`
}

type RankingPhaseStarted struct {
	JudgeName string `json:"judge_name"`
}

type ResultView struct {
	Guess []string `json:"guess"`
	Score int      `json:"score"`
}

type ResultsRevealed struct {
	JudgeRanking []string              `json:"judge_ranking"`
	Results      map[string]ResultView `json:"results"`
	Fallback     bool                  `json:"fallback"`
}

type StandingView struct {
	PlayerName string `json:"player_name"`
	Score      int    `json:"score"`
}

type FinalScores struct {
	Scores    map[string]int `json:"scores"`
	Standings []StandingView `json:"standings"`
}

type Notice struct {
	Message string `json:"message"`
}

// EncodeEvent renders an event as a wire frame
func EncodeEvent(event model.Event) ([]byte, error) {
	payload, err := payloadView(event.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event.Type, err)
	}
	return json.Marshal(Message{
		Type:      event.Type,
		RoomCode:  event.RoomCode,
		Timestamp: event.Timestamp,
		Payload:   payload,
	})
}

func payloadView(payload any) (any, error) {
	switch p := payload.(type) {
	case model.PhaseChangedPayload:
		return PhaseChanged{Phase: p.Phase}, nil
	case model.RoomStatePayload:
		return NewRoomView(p.Room), nil
	case model.PlayerListPayload:
		return PlayerList{Players: playerViews(p.Players)}, nil
	case model.PlayerJoinedPayload:
		return PlayerJoined{PlayerName: p.PlayerName}, nil
	case model.NewEntryPayload:
		return NewEntry{Text: p.Text}, nil
	case model.AllEntriesPayload:
		return AllEntries{Entries: nonNil(p.Entries)}, nil
	case model.GameStartedPayload:
		return GameStarted{Category: p.Category, Round: p.Round, RoundLimit: p.RoundLimit, JudgeName: p.JudgeName}, nil
	case model.RankingPhasePayload:
		return RankingPhaseStarted{JudgeName: p.JudgeName}, nil
	case model.ResultsRevealedPayload:
		return ResultsRevealed{
			JudgeRanking: nonNil(p.JudgeRanking),
			Results:      resultViews(p.Results),
			Fallback:     p.Fallback,
		}, nil
	case model.FinalScoresPayload:
		return FinalScores{Scores: p.Scores, Standings: standingViews(p.Scores)}, nil
	case model.MessagePayload:
		return Notice{Message: p.Message}, nil
	case nil:
		return struct{}{}, nil
	}
	return nil, fmt.Errorf("unsupported payload %T", payload)
}

func resultViews(results map[string]model.PlayerResult) map[string]ResultView {
	views := make(map[string]ResultView, len(results))
	for name, r := range results {
		views[name] = ResultView{Guess: nonNil(r.Guess), Score: r.Score}
	}
	return views
}

func standingViews(scores map[string]int) []StandingView {
	standings := scoring.New().Standings(scores)
	views := make([]StandingView, len(standings))
	for i, s := range standings {
		views[i] = StandingView{PlayerName: s.PlayerName, Score: s.Score}
	}
	return views
}

// ErrorEvent builds the event a failed action produces for the acting connection
func ErrorEvent(code model.RoomCode, now time.Time, action Action, err error) model.Event {
	t := model.EventToastWarning
	if action != nil && action.Type() == TypeJoinGameRoom {
		t = model.EventJoinError
	}
	return model.Event{
		Type:      t,
		Timestamp: now,
		RoomCode:  code,
		Payload:   model.MessagePayload{Message: ErrorMessage(err)},
	}
}

// ErrorMessage is the user-facing text for err. Unclassified errors are not exposed.
func ErrorMessage(err error) string {
	if errors.Is(err, model.ErrInvalidMessage) {
		return err.Error()
	}
	if e, ok := model.AsError(err); ok {
		return e.Message
	}
	return "Something went wrong"
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mcoot/rankparty/internal/model"
)

// MessageType identifies an inbound client message
type MessageType string

const (
	TypeJoinGameRoom      MessageType = "join-game-room"
	TypeSetRole           MessageType = "set-role"
	TypeStartGame         MessageType = "start-game"
	TypeSubmitEntry       MessageType = "submit-entry"
	TypeStartRankingPhase MessageType = "start-ranking-phase"
	TypeSubmitRanking     MessageType = "submit-ranking"
	TypeRequestEntries    MessageType = "request-entries"
	TypeSubmitGuess       MessageType = "submit-guess"
	TypeRestartGame       MessageType = "restart-game"
)

// Action is one of the inbound message variants
type Action interface {
	Type() MessageType
	validate() error
}

// JoinGameRoom binds the connection to a player name in the room
type JoinGameRoom struct {
	PlayerName string `json:"player_name"`
}

// SetRole switches the sender between player and spectator
type SetRole struct {
	Role model.Role `json:"role"`
}

// StartGame starts the first round. A zero round limit uses the room default.
type StartGame struct {
	RoundLimit int `json:"round_limit"`
}

// SubmitEntry adds an entry during the entry phase
type SubmitEntry struct {
	Text string `json:"text"`
}

// StartRankingPhase closes entry. An empty judge name keeps the rotation's judge.
type StartRankingPhase struct {
	JudgeName string `json:"judge_name"`
}

// SubmitRanking is the judge's ordering, best first
type SubmitRanking struct {
	Ranking []string `json:"ranking"`
}

// RequestEntries asks for the entry list again
type RequestEntries struct{}

// SubmitGuess is a guesser's attempt at the judge's ordering
type SubmitGuess struct {
	Guess []string `json:"guess"`
}

// RestartGame resets scores and starts again from round one
type RestartGame struct{}

func (JoinGameRoom) Type() MessageType      { return TypeJoinGameRoom }
func (SetRole) Type() MessageType           { return TypeSetRole }
func (StartGame) Type() MessageType         { return TypeStartGame }
func (SubmitEntry) Type() MessageType       { return TypeSubmitEntry }
func (StartRankingPhase) Type() MessageType { return TypeStartRankingPhase }
func (SubmitRanking) Type() MessageType     { return TypeSubmitRanking }
func (RequestEntries) Type() MessageType    { return TypeRequestEntries }
func (SubmitGuess) Type() MessageType       { return TypeSubmitGuess }
func (RestartGame) Type() MessageType       { return TypeRestartGame }

func (a JoinGameRoom) validate() error {
	if a.PlayerName == "" {
		return errors.New("player_name is required")
	}
	return nil
}

func (a SetRole) validate() error {
	if !a.Role.Valid() {
		return fmt.Errorf("unknown role %q", a.Role)
	}
	return nil
}

func (a StartGame) validate() error {
	if a.RoundLimit < 0 {
		return errors.New("round_limit must not be negative")
	}
	return nil
}

func (a SubmitEntry) validate() error {
	if strings.TrimSpace(a.Text) == "" {
		return errors.New("text is required")
	}
	return nil
}

func (StartRankingPhase) validate() error { return nil }

func (a SubmitRanking) validate() error {
	if len(a.Ranking) == 0 {
		return errors.New("ranking is required")
	}
	return nil
}

func (RequestEntries) validate() error { return nil }

func (a SubmitGuess) validate() error {
	if len(a.Guess) == 0 {
		return errors.New("guess is required")
	}
	return nil
}

func (RestartGame) validate() error { return nil }

// Inbound is a decoded client message addressed to a room
type Inbound struct {
	RoomCode model.RoomCode
	Action   Action
}

type inboundEnvelope struct {
	Type     MessageType     `json:"type"`
	RoomCode string          `json:"room_code"`
	Payload  json.RawMessage `json:"payload"`
}

var constructors = map[MessageType]func() Action{
	TypeJoinGameRoom:      func() Action { return &JoinGameRoom{} },
	TypeSetRole:           func() Action { return &SetRole{} },
	TypeStartGame:         func() Action { return &StartGame{} },
	TypeSubmitEntry:       func() Action { return &SubmitEntry{} },
	TypeStartRankingPhase: func() Action { return &StartRankingPhase{} },
	TypeSubmitRanking:     func() Action { return &SubmitRanking{} },
	TypeRequestEntries:    func() Action { return &RequestEntries{} },
	TypeSubmitGuess:       func() Action { return &SubmitGuess{} },
	TypeRestartGame:       func() Action { return &RestartGame{} },
}

// Decode parses a client frame into its typed variant. Unknown types, unknown
// fields and ill-typed payloads are all rejected with model.ErrInvalidMessage.
func Decode(data []byte) (Inbound, error) {
	var env inboundEnvelope
	if err := decodeStrict(data, &env); err != nil {
		return Inbound{}, invalid("malformed message: %v", err)
	}

	newAction, ok := constructors[env.Type]
	if !ok {
		return Inbound{}, invalid("unknown message type %q", env.Type)
	}

	code := model.RoomCode(strings.ToUpper(strings.TrimSpace(env.RoomCode)))
	if code == "" {
		return Inbound{}, invalid("%s: room_code is required", env.Type)
	}

	action := newAction()
	if len(env.Payload) > 0 && !bytes.Equal(env.Payload, []byte("null")) {
		if err := decodeStrict(env.Payload, action); err != nil {
			return Inbound{}, invalid("%s: malformed payload: %v", env.Type, err)
		}
	}

	// Variants are stored by value
	action = deref(action)
	if err := action.validate(); err != nil {
		return Inbound{}, invalid("%s: %v", env.Type, err)
	}

	return Inbound{RoomCode: code, Action: action}, nil
}

// Encode builds the wire frame for an action, as a client sends it
func Encode(code model.RoomCode, action Action) ([]byte, error) {
	payload, err := json.Marshal(action)
	if err != nil {
		return nil, err
	}
	return json.Marshal(inboundEnvelope{
		Type:     action.Type(),
		RoomCode: string(code),
		Payload:  payload,
	})
}

func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("unexpected trailing data")
	}
	return nil
}

func deref(a Action) Action {
	switch v := a.(type) {
	case *JoinGameRoom:
		return *v
	case *SetRole:
		return *v
	case *StartGame:
		return *v
	case *SubmitEntry:
		return *v
	case *StartRankingPhase:
		return *v
	case *SubmitRanking:
		return *v
	case *RequestEntries:
		return *v
	case *SubmitGuess:
		return *v
	case *RestartGame:
		return *v
	}
	return a
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", model.ErrInvalidMessage, fmt.Sprintf(format, args...))
}

package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	// Room events
	EventPhaseChanged  EventType = "phase-changed"
	EventRoomState     EventType = "room-state"
	EventPlayerList    EventType = "player-list"
	EventPlayerJoined  EventType = "player-joined"
	EventGameStarted   EventType = "game-started"
	EventFinalScores   EventType = "final-scores"
	EventToastWarning  EventType = "toast-warning"
	EventJoinError     EventType = "join-error"
	EventNewEntry      EventType = "new-entry"
	EventAllEntries    EventType = "all-entries"
	EventRankingPhase  EventType = "ranking-phase-started"
	EventResultsReveal EventType = "results-revealed"
)

// Event is the base structure for all events
type Event struct {
	Type      EventType
	Timestamp time.Time
	RoomCode  RoomCode
	Payload   any // Type-specific data
}

// PhaseChangedPayload contains data for phase changed events
type PhaseChangedPayload struct {
	Phase Phase
}

// RoomStatePayload carries a snapshot of the room, taken under the room lock
type RoomStatePayload struct {
	Room *Room
}

// PlayerListPayload contains the current roster
type PlayerListPayload struct {
	Players []Player
}

// PlayerJoinedPayload contains data for player joined events
type PlayerJoinedPayload struct {
	PlayerName string
}

// NewEntryPayload is sent to spectators as entries arrive
type NewEntryPayload struct {
	PlayerName string
	Text       string
}

// AllEntriesPayload carries an unattributed entry list
type AllEntriesPayload struct {
	Entries []string
}

// GameStartedPayload contains data for round start events
type GameStartedPayload struct {
	Category   string
	Round      int
	RoundLimit int
	JudgeName  string
}

// RankingPhasePayload names the judge for the ranking phase
type RankingPhasePayload struct {
	JudgeName string
}

// ResultsRevealedPayload contains the outcome of a round
type ResultsRevealedPayload struct {
	JudgeRanking []string
	Results      map[string]PlayerResult
	Fallback     bool // Ranking was generated because the judge never submitted
}

// FinalScoresPayload contains cumulative scores at game end
type FinalScoresPayload struct {
	Scores map[string]int
}

// MessagePayload carries a user-facing message
type MessagePayload struct {
	Message string
}

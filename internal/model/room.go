package model

import (
	"fmt"
	"time"
)

// RoomCode is a human-readable identifier for joining rooms
type RoomCode string

// Phase governs which player actions a room accepts
type Phase string

const (
	PhaseLobby   Phase = "lobby"   // Waiting for the game to start
	PhaseEntry   Phase = "entry"   // Players submit entries for the category
	PhaseRanking Phase = "ranking" // Judge ranks, guessers guess
	PhaseReveal  Phase = "reveal"  // Results shown; terminal after the last round
)

// Valid reports whether p is a known phase
func (p Phase) Valid() bool {
	switch p {
	case PhaseLobby, PhaseEntry, PhaseRanking, PhaseReveal:
		return true
	}
	return false
}

// phaseTransitions lists the phases each phase may move to. Restart re-enters entry from any
// phase once a game has begun.
var phaseTransitions = map[Phase][]Phase{
	PhaseLobby:   {PhaseEntry},
	PhaseEntry:   {PhaseRanking, PhaseEntry},
	PhaseRanking: {PhaseReveal, PhaseEntry},
	PhaseReveal:  {PhaseEntry},
}

// CanTransitionTo reports whether a room in phase p may move to target
func (p Phase) CanTransitionTo(target Phase) bool {
	for _, next := range phaseTransitions[p] {
		if next == target {
			return true
		}
	}
	return false
}

// Room limits
const (
	RoomCodeLength       = 6
	RoomCodeAlphabet     = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	DefaultMaxPlayers    = 8
	MaxPlayersCap        = 10
	DefaultRoundLimit    = 5
	MaxRoundLimit        = 20
	MinPlayersToStart    = 2
	MinUniqueEntries     = 5
	MaxEntriesPerPlayer  = 5
	MaxEntryLength       = 60
	MaxPlayerNameLength  = 20
	PerfectGuessBonus    = 3
	FallbackCategoryName = "Misc"
)

// Entry is a single submission made during the entry phase
type Entry struct {
	PlayerName string
	Text       string
}

// PlayerResult is one guesser's outcome for a round
type PlayerResult struct {
	Guess []string
	Score int
}

// RoomConfig holds per-room settings fixed at creation
type RoomConfig struct {
	MaxPlayers int
	RoundLimit int
}

// DefaultRoomConfig returns the default room configuration
func DefaultRoomConfig() RoomConfig {
	return RoomConfig{
		MaxPlayers: DefaultMaxPlayers,
		RoundLimit: DefaultRoundLimit,
	}
}

// Room is the authoritative state of one game session
type Room struct {
	Code     RoomCode
	HostName string // Creator's display name; no scoring significance
	Players  []Player
	Config   RoomConfig

	// Round state, cleared by every round start
	Entries            []Entry
	Guesses            map[string][]string
	JudgeRanking       []string
	SelectedEntries    []string
	DistributedEntries []string // Shuffled copy of SelectedEntries sent to guessers
	RankedAt           time.Time

	TotalScores map[string]int
	LastResults map[string]PlayerResult

	Round          int
	RoundLimit     int
	Phase          Phase
	PhaseStartedAt time.Time
	JudgeName      string
	Category       string

	CreatedAt      time.Time
	LastActivityAt time.Time
}

// NewRoom creates a room in the lobby phase with the host as its only player
func NewRoom(code RoomCode, host Player, config RoomConfig, now time.Time) *Room {
	return &Room{
		Code:           code,
		HostName:       host.Name,
		Players:        []Player{host},
		Config:         config,
		Guesses:        make(map[string][]string),
		TotalScores:    make(map[string]int),
		LastResults:    make(map[string]PlayerResult),
		Round:          1,
		RoundLimit:     config.RoundLimit,
		Phase:          PhaseLobby,
		PhaseStartedAt: now,
		CreatedAt:      now,
		LastActivityAt: now,
	}
}

// EnterPhase moves the room to next and stamps the phase start, rejecting moves the
// phase table does not allow
func (r *Room) EnterPhase(next Phase, now time.Time) error {
	if !r.Phase.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s to %s", ErrWrongPhase, r.Phase, next)
	}
	r.Phase = next
	r.PhaseStartedAt = now
	return nil
}

// GetPlayer returns the player with the given name, or nil if not found
func (r *Room) GetPlayer(name string) *Player {
	for i := range r.Players {
		if r.Players[i].Name == name {
			return &r.Players[i]
		}
	}
	return nil
}

// GetPlayerByConn returns the player bound to the given connection, or nil if none
func (r *Room) GetPlayerByConn(connID ConnID) *Player {
	if connID == "" {
		return nil
	}
	for i := range r.Players {
		if r.Players[i].ID == connID {
			return &r.Players[i]
		}
	}
	return nil
}

// RemovePlayer drops the named player and reports whether one was removed
func (r *Room) RemovePlayer(name string) bool {
	for i := range r.Players {
		if r.Players[i].Name == name {
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			return true
		}
	}
	return false
}

// GetRolePlayers returns all members with the player role, in join order
func (r *Room) GetRolePlayers() []Player {
	var players []Player
	for _, p := range r.Players {
		if p.Role == RolePlayer {
			players = append(players, p)
		}
	}
	return players
}

// GetSpectators returns all members with the spectator role
func (r *Room) GetSpectators() []Player {
	var spectators []Player
	for _, p := range r.Players {
		if p.Role == RoleSpectator {
			spectators = append(spectators, p)
		}
	}
	return spectators
}

// GetGuessers returns the players flagged as guessers this round
func (r *Room) GetGuessers() []Player {
	var guessers []Player
	for _, p := range r.Players {
		if p.IsGuesser {
			guessers = append(guessers, p)
		}
	}
	return guessers
}

// PlayerNames returns every member's name in join order
func (r *Room) PlayerNames() []string {
	names := make([]string, len(r.Players))
	for i, p := range r.Players {
		names[i] = p.Name
	}
	return names
}

// UniqueEntryTexts returns the distinct entry texts in submission order
func (r *Room) UniqueEntryTexts() []string {
	seen := make(map[string]bool, len(r.Entries))
	var texts []string
	for _, e := range r.Entries {
		if !seen[e.Text] {
			seen[e.Text] = true
			texts = append(texts, e.Text)
		}
	}
	return texts
}

// EntryCount returns how many entries the named player has submitted this round
func (r *Room) EntryCount(name string) int {
	n := 0
	for _, e := range r.Entries {
		if e.PlayerName == name {
			n++
		}
	}
	return n
}

// IsFull reports whether the room has reached its capacity
func (r *Room) IsFull() bool {
	return len(r.Players) >= r.Config.MaxPlayers
}

// IsFinished reports whether the final round has been revealed
func (r *Room) IsFinished() bool {
	return r.Phase == PhaseReveal && r.Round >= r.RoundLimit
}

// Clone returns a deep copy of the room
func (r *Room) Clone() *Room {
	c := *r
	c.Players = append([]Player(nil), r.Players...)
	c.Entries = append([]Entry(nil), r.Entries...)
	c.JudgeRanking = append([]string(nil), r.JudgeRanking...)
	c.SelectedEntries = append([]string(nil), r.SelectedEntries...)
	c.DistributedEntries = append([]string(nil), r.DistributedEntries...)

	c.Guesses = make(map[string][]string, len(r.Guesses))
	for k, v := range r.Guesses {
		c.Guesses[k] = append([]string(nil), v...)
	}
	c.TotalScores = make(map[string]int, len(r.TotalScores))
	for k, v := range r.TotalScores {
		c.TotalScores[k] = v
	}
	c.LastResults = make(map[string]PlayerResult, len(r.LastResults))
	for k, v := range r.LastResults {
		c.LastResults[k] = PlayerResult{Guess: append([]string(nil), v.Guess...), Score: v.Score}
	}
	return &c
}

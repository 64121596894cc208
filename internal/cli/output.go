package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Room:
		o.printRoom(v)
	case CreateRoomResult:
		_, _ = fmt.Fprintf(o.w, "Room code: %s\n", v.RoomCode)
		o.printRoom(v.Room)
	case JoinRoomResult:
		o.printRoom(v.Room)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Room response type (matches API)
type Room struct {
	Code         string            `json:"code"`
	HostName     string            `json:"host_name"`
	Phase        string            `json:"phase"`
	Round        int               `json:"round"`
	RoundLimit   int               `json:"round_limit"`
	MaxPlayers   int               `json:"max_players"`
	Category     string            `json:"category"`
	JudgeName    string            `json:"judge_name"`
	Players      []Player          `json:"players"`
	EntryCount   int               `json:"entry_count"`
	TotalScores  map[string]int    `json:"total_scores"`
	JudgeRanking []string          `json:"judge_ranking,omitempty"`
	LastResults  map[string]Result `json:"last_results,omitempty"`
	Finished     bool              `json:"finished"`
}

// Player response type
type Player struct {
	Name       string `json:"name"`
	Role       string `json:"role"`
	Connected  bool   `json:"connected"`
	IsGuesser  bool   `json:"is_guesser"`
	HasGuessed bool   `json:"has_guessed"`
	HasRanked  bool   `json:"has_ranked"`
}

// Result is one player's guess and score for a revealed round
type Result struct {
	Guess []string `json:"guess"`
	Score int      `json:"score"`
}

// CreateRoomResult response type
type CreateRoomResult struct {
	RoomCode string `json:"room_code"`
	Room     Room   `json:"room"`
}

// JoinRoomResult response type
type JoinRoomResult struct {
	Room Room `json:"room"`
}

// HealthResult response type
type HealthResult struct {
	Status      string `json:"status"`
	ActiveRooms int    `json:"active_rooms"`
	Connections int    `json:"connections"`
}

func (o *Output) printRoom(r Room) {
	_, _ = fmt.Fprintf(o.w, "Room: %s\n", r.Code)
	_, _ = fmt.Fprintf(o.w, "Phase: %s\n", r.Phase)
	if r.Phase != "lobby" {
		_, _ = fmt.Fprintf(o.w, "Round: %d/%d\n", r.Round, r.RoundLimit)
		_, _ = fmt.Fprintf(o.w, "Topic: %s\n", r.Category)
		_, _ = fmt.Fprintf(o.w, "Judge: %s\n", r.JudgeName)
		_, _ = fmt.Fprintf(o.w, "Entries: %d\n", r.EntryCount)
	}

	_, _ = fmt.Fprintf(o.w, "Players (%d/%d):\n", len(r.Players), r.MaxPlayers)
	for _, p := range r.Players {
		var tags []string
		if p.Name == r.HostName {
			tags = append(tags, "host")
		}
		if p.Role == "spectator" {
			tags = append(tags, "spectator")
		}
		if !p.Connected {
			tags = append(tags, "away")
		}
		tagStr := ""
		if len(tags) > 0 {
			tagStr = " [" + strings.Join(tags, ", ") + "]"
		}
		_, _ = fmt.Fprintf(o.w, "  - %s%s\n", p.Name, tagStr)
	}

	if len(r.JudgeRanking) > 0 {
		_, _ = fmt.Fprintf(o.w, "Ranking: %s\n", strings.Join(r.JudgeRanking, ", "))
	}
	if len(r.TotalScores) > 0 {
		_, _ = fmt.Fprintln(o.w, "Scores:")
		o.printScores(r.TotalScores)
	}
	if r.Finished {
		_, _ = fmt.Fprintln(o.w, "Game over")
	}
}

// printScores lists scores highest first, ties by name
func (o *Output) printScores(scores map[string]int) {
	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if scores[names[i]] != scores[names[j]] {
			return scores[names[i]] > scores[names[j]]
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		_, _ = fmt.Fprintf(o.w, "  %s: %d\n", name, scores[name])
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	_, _ = fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	_, _ = fmt.Fprintf(o.w, "Active rooms: %d\n", h.ActiveRooms)
	_, _ = fmt.Fprintf(o.w, "Connections: %d\n", h.Connections)
}

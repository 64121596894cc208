package protocol

import (
	"time"

	"github.com/mcoot/rankparty/internal/model"
)

// PlayerView is a player as clients see it
type PlayerView struct {
	Name       string     `json:"name"`
	Role       model.Role `json:"role"`
	Connected  bool       `json:"connected"`
	IsGuesser  bool       `json:"is_guesser"`
	HasGuessed bool       `json:"has_guessed"`
	HasRanked  bool       `json:"has_ranked"`
}

// RoomView is a room snapshot as clients see it. The judge's ranking and the
// round's results stay hidden until reveal.
type RoomView struct {
	Code           model.RoomCode        `json:"code"`
	HostName       string                `json:"host_name"`
	Phase          model.Phase           `json:"phase"`
	Round          int                   `json:"round"`
	RoundLimit     int                   `json:"round_limit"`
	MaxPlayers     int                   `json:"max_players"`
	Category       string                `json:"category"`
	JudgeName      string                `json:"judge_name"`
	Players        []PlayerView          `json:"players"`
	EntryCount     int                   `json:"entry_count"`
	TotalScores    map[string]int        `json:"total_scores"`
	JudgeRanking   []string              `json:"judge_ranking,omitempty"`
	LastResults    map[string]ResultView `json:"last_results,omitempty"`
	Finished       bool                  `json:"finished"`
	PhaseStartedAt time.Time             `json:"phase_started_at"`
}

// NewRoomView builds the client view of a room
func NewRoomView(room *model.Room) RoomView {
	if room == nil {
		return RoomView{}
	}
	view := RoomView{
		Code:           room.Code,
		HostName:       room.HostName,
		Phase:          room.Phase,
		Round:          room.Round,
		RoundLimit:     room.RoundLimit,
		MaxPlayers:     room.Config.MaxPlayers,
		Category:       room.Category,
		JudgeName:      room.JudgeName,
		Players:        playerViews(room.Players),
		EntryCount:     len(room.UniqueEntryTexts()),
		TotalScores:    make(map[string]int, len(room.TotalScores)),
		Finished:       room.IsFinished(),
		PhaseStartedAt: room.PhaseStartedAt,
	}
	for name, score := range room.TotalScores {
		view.TotalScores[name] = score
	}
	if room.Phase == model.PhaseReveal {
		view.JudgeRanking = nonNil(room.JudgeRanking)
		view.LastResults = resultViews(room.LastResults)
	}
	return view
}

func playerViews(players []model.Player) []PlayerView {
	views := make([]PlayerView, len(players))
	for i, p := range players {
		views[i] = PlayerView{
			Name:       p.Name,
			Role:       p.Role,
			Connected:  p.Connected(),
			IsGuesser:  p.IsGuesser,
			HasGuessed: p.HasGuessed,
			HasRanked:  p.HasRanked,
		}
	}
	return views
}

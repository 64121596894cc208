package room

import (
	"log/slog"
	"time"

	"github.com/mcoot/rankparty/internal/dependencies/random"
	"github.com/mcoot/rankparty/internal/model"
)

// JudgeIndex returns the rotation slot judging the given 1-based round
func JudgeIndex(round, playerCount int) int {
	if playerCount <= 0 || round <= 0 {
		return 0
	}
	return (round - 1) % playerCount
}

// judgeFor picks the judge for a round from the current role-players, in join order
func judgeFor(room *model.Room, round int) string {
	players := room.GetRolePlayers()
	if len(players) == 0 {
		return ""
	}
	return players[JudgeIndex(round, len(players))].Name
}

// assignGuessers flags every role-player other than the judge as a guesser
func assignGuessers(room *model.Room) {
	for i := range room.Players {
		p := &room.Players[i]
		p.IsGuesser = p.Role == model.RolePlayer && p.Name != room.JudgeName
	}
}

// resetScores zeroes the scoreboard for every current role-player
func resetScores(room *model.Room) {
	room.TotalScores = make(map[string]int)
	for _, p := range room.GetRolePlayers() {
		room.TotalScores[p.Name] = 0
	}
	room.LastResults = make(map[string]model.PlayerResult)
}

// beginRound is the single place per-round state is cleared
func (c *Controller) beginRound(room *model.Room, round int, out *outbox) error {
	if err := room.EnterPhase(model.PhaseEntry, out.now); err != nil {
		return err
	}
	room.Round = round
	room.Entries = nil
	room.Guesses = make(map[string][]string)
	room.JudgeRanking = nil
	room.SelectedEntries = nil
	room.DistributedEntries = nil
	room.RankedAt = time.Time{}
	for i := range room.Players {
		room.Players[i].HasGuessed = false
		room.Players[i].HasRanked = false
		room.Players[i].IsGuesser = false
	}

	room.Category = c.topics.Pick()
	room.JudgeName = judgeFor(room, round)
	assignGuessers(room)

	out.broadcast(model.EventPhaseChanged, model.PhaseChangedPayload{Phase: room.Phase})
	out.broadcast(model.EventGameStarted, model.GameStartedPayload{
		Category:   room.Category,
		Round:      room.Round,
		RoundLimit: room.RoundLimit,
		JudgeName:  room.JudgeName,
	})
	out.broadcastState(room)
	return nil
}

// completeIfReady reveals once a ranking exists and every current guesser has guessed
func (c *Controller) completeIfReady(room *model.Room, out *outbox) error {
	if room.Phase != model.PhaseRanking || len(room.JudgeRanking) == 0 {
		return nil
	}
	for _, g := range room.GetGuessers() {
		if !g.HasGuessed {
			return nil
		}
	}
	return c.reveal(room, room.JudgeRanking, false, out)
}

// fallbackReveal stands in a random ordering of the round's entries for the missing ranking
func (c *Controller) fallbackReveal(room *model.Room, out *outbox, reason string) error {
	ranking := random.Shuffled(c.random, room.UniqueEntryTexts())
	room.JudgeRanking = ranking
	room.SelectedEntries = append([]string(nil), ranking...)

	c.logger.Warn("judge ranking missing, using fallback",
		slog.String("room", string(room.Code)),
		slog.Int("round", room.Round),
		slog.String("judge", room.JudgeName),
		slog.String("reason", reason),
	)
	return c.reveal(room, ranking, true, out)
}

// reveal scores the round, then advances to the next round or ends the game
func (c *Controller) reveal(room *model.Room, ranking []string, fallback bool, out *outbox) error {
	if err := room.EnterPhase(model.PhaseReveal, out.now); err != nil {
		return err
	}
	results := c.scoring.ScoreRound(room.Guesses, ranking)
	c.scoring.Accumulate(room.TotalScores, results)
	room.LastResults = results

	out.broadcast(model.EventPhaseChanged, model.PhaseChangedPayload{Phase: room.Phase})
	out.broadcast(model.EventResultsReveal, model.ResultsRevealedPayload{
		JudgeRanking: append([]string(nil), ranking...),
		Results:      copyResults(results),
		Fallback:     fallback,
	})

	c.logger.Info("round revealed",
		slog.String("room", string(room.Code)),
		slog.Int("round", room.Round),
		slog.Int("guesses", len(results)),
		slog.Bool("fallback", fallback),
	)

	if room.Round < room.RoundLimit {
		return c.beginRound(room, room.Round+1, out)
	}

	scores := make(map[string]int, len(room.TotalScores))
	for name, score := range room.TotalScores {
		scores[name] = score
	}
	out.broadcast(model.EventFinalScores, model.FinalScoresPayload{Scores: scores})
	out.broadcastState(room)

	c.logger.Info("game finished",
		slog.String("room", string(room.Code)),
		slog.Int("rounds", room.Round),
	)
	return nil
}

func copyResults(results map[string]model.PlayerResult) map[string]model.PlayerResult {
	out := make(map[string]model.PlayerResult, len(results))
	for name, r := range results {
		out[name] = model.PlayerResult{Guess: append([]string(nil), r.Guess...), Score: r.Score}
	}
	return out
}

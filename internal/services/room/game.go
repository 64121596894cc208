package room

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/rankparty/internal/dependencies/random"
	"github.com/mcoot/rankparty/internal/model"
)

// StartGame moves a lobby into the first round
func (c *Controller) StartGame(ctx context.Context, code model.RoomCode, connID model.ConnID, roundLimit int) (*model.Room, error) {
	return c.apply(ctx, code, func(room *model.Room, out *outbox) error {
		p, err := actor(room, connID)
		if err != nil {
			return err
		}
		if p.Role != model.RolePlayer {
			return model.ErrSpectator
		}
		if room.Phase != model.PhaseLobby {
			return model.ErrGameInProgress
		}
		if len(room.GetRolePlayers()) < model.MinPlayersToStart {
			return model.ErrInsufficientPlayers
		}
		limit, err := validateRoundLimit(roundLimit, room.Config.RoundLimit)
		if err != nil {
			return err
		}

		room.RoundLimit = limit
		resetScores(room)
		if err := c.beginRound(room, 1, out); err != nil {
			return err
		}

		c.logger.Info("game started",
			slog.String("room", string(room.Code)),
			slog.Int("players", len(room.GetRolePlayers())),
			slog.Int("round_limit", limit),
		)
		return nil
	})
}

// RestartGame returns the room to round one from any phase
func (c *Controller) RestartGame(ctx context.Context, code model.RoomCode, connID model.ConnID) (*model.Room, error) {
	return c.apply(ctx, code, func(room *model.Room, out *outbox) error {
		p, err := actor(room, connID)
		if err != nil {
			return err
		}
		if p.Role != model.RolePlayer {
			return model.ErrSpectator
		}
		if len(room.GetRolePlayers()) < model.MinPlayersToStart {
			return model.ErrInsufficientPlayers
		}

		resetScores(room)
		if err := c.beginRound(room, 1, out); err != nil {
			return err
		}

		c.logger.Info("game restarted",
			slog.String("room", string(room.Code)),
			slog.String("by", p.Name),
		)
		return nil
	})
}

// SubmitEntry adds an entry for the acting player during the entry phase
func (c *Controller) SubmitEntry(ctx context.Context, code model.RoomCode, connID model.ConnID, text string) (*model.Room, error) {
	entry, err := NormalizeEntry(text)
	if err != nil {
		return nil, err
	}

	return c.apply(ctx, code, func(room *model.Room, out *outbox) error {
		p, err := actor(room, connID)
		if err != nil {
			return err
		}
		if p.Role != model.RolePlayer {
			return model.ErrSpectator
		}
		if room.Phase != model.PhaseEntry {
			return model.ErrWrongPhase
		}
		if room.EntryCount(p.Name) >= model.MaxEntriesPerPlayer {
			return model.ErrEntryLimit
		}

		room.Entries = append(room.Entries, model.Entry{PlayerName: p.Name, Text: entry})

		out.sendToSpectators(room, model.EventNewEntry, model.NewEntryPayload{PlayerName: p.Name, Text: entry})
		out.sendToPlayer(room, room.JudgeName, model.EventAllEntries, model.AllEntriesPayload{Entries: room.UniqueEntryTexts()})
		return nil
	})
}

// StartRanking closes the entry phase and hands the unattributed entries to the judge
func (c *Controller) StartRanking(ctx context.Context, code model.RoomCode, connID model.ConnID, judgeName string) (*model.Room, error) {
	return c.apply(ctx, code, func(room *model.Room, out *outbox) error {
		p, err := actor(room, connID)
		if err != nil {
			return err
		}
		if p.Role != model.RolePlayer {
			return model.ErrSpectator
		}
		if room.Phase != model.PhaseEntry {
			return model.ErrWrongPhase
		}
		texts := room.UniqueEntryTexts()
		if len(texts) < model.MinUniqueEntries {
			return model.ErrInsufficientEntries
		}

		judge := judgeName
		if judge == "" {
			judge = room.JudgeName
		}
		if jp := room.GetPlayer(judge); jp == nil || jp.Role != model.RolePlayer {
			return model.ErrJudgeNotInRoom
		}

		if err := room.EnterPhase(model.PhaseRanking, out.now); err != nil {
			return err
		}
		room.JudgeName = judge
		assignGuessers(room)

		out.broadcast(model.EventPhaseChanged, model.PhaseChangedPayload{Phase: room.Phase})
		out.broadcast(model.EventRankingPhase, model.RankingPhasePayload{JudgeName: judge})
		out.sendToPlayer(room, judge, model.EventAllEntries, model.AllEntriesPayload{Entries: texts})

		c.logger.Info("ranking started",
			slog.String("room", string(room.Code)),
			slog.Int("round", room.Round),
			slog.String("judge", judge),
			slog.Int("entries", len(texts)),
		)
		return nil
	})
}

// SubmitRanking stores the judge's order and sends guessers a shuffled copy
func (c *Controller) SubmitRanking(ctx context.Context, code model.RoomCode, connID model.ConnID, ranking []string) (*model.Room, error) {
	return c.apply(ctx, code, func(room *model.Room, out *outbox) error {
		p, err := actor(room, connID)
		if err != nil {
			return err
		}
		if room.Phase != model.PhaseRanking {
			return model.ErrWrongPhase
		}
		if p.Name != room.JudgeName {
			return model.ErrNotJudge
		}
		// Timer fallback and a late submission race on this check; the room lock serializes them
		if p.HasRanked || len(room.JudgeRanking) > 0 {
			return model.ErrAlreadyRanked
		}
		if err := validateRanking(ranking, room.UniqueEntryTexts()); err != nil {
			return err
		}

		room.JudgeRanking = append([]string(nil), ranking...)
		room.SelectedEntries = append([]string(nil), ranking...)
		room.DistributedEntries = random.Shuffled(c.random, ranking)
		room.RankedAt = out.now
		p.HasRanked = true

		for _, other := range room.Players {
			if other.Name == room.JudgeName {
				continue
			}
			out.send(other.ID, model.EventAllEntries, model.AllEntriesPayload{Entries: append([]string(nil), room.DistributedEntries...)})
		}

		return c.completeIfReady(room, out)
	})
}

// RequestEntries re-sends the entry list appropriate to the acting player
func (c *Controller) RequestEntries(ctx context.Context, code model.RoomCode, connID model.ConnID) error {
	_, err := c.apply(ctx, code, func(room *model.Room, out *outbox) error {
		p, err := actor(room, connID)
		if err != nil {
			return err
		}
		if room.Phase != model.PhaseRanking {
			return model.ErrWrongPhase
		}

		var entries []string
		switch {
		case p.Name == room.JudgeName && len(room.JudgeRanking) == 0:
			entries = room.UniqueEntryTexts()
		case p.Name == room.JudgeName:
			entries = append([]string(nil), room.SelectedEntries...)
		case len(room.DistributedEntries) == 0:
			return model.ErrRankingNotSubmitted
		default:
			entries = append([]string(nil), room.DistributedEntries...)
		}
		out.send(connID, model.EventAllEntries, model.AllEntriesPayload{Entries: entries})
		return nil
	})
	return err
}

// SubmitGuess records a guesser's ordering and reveals once every guesser is in
func (c *Controller) SubmitGuess(ctx context.Context, code model.RoomCode, connID model.ConnID, guess []string) (*model.Room, error) {
	return c.apply(ctx, code, func(room *model.Room, out *outbox) error {
		p, err := actor(room, connID)
		if err != nil {
			return err
		}
		if p.Role != model.RolePlayer {
			return model.ErrSpectator
		}
		if room.Phase != model.PhaseRanking {
			return model.ErrWrongPhase
		}
		if _, ok := room.Guesses[p.Name]; ok || p.HasGuessed {
			return model.ErrAlreadyGuessed
		}
		if p.Name == room.JudgeName || !p.IsGuesser {
			return model.ErrNotGuesser
		}
		if len(room.JudgeRanking) == 0 {
			return model.ErrRankingNotSubmitted
		}
		if err := validateGuess(guess, room.SelectedEntries); err != nil {
			return err
		}

		room.Guesses[p.Name] = append([]string(nil), guess...)
		p.HasGuessed = true

		return c.completeIfReady(room, out)
	})
}

// ExpireStalled forces a stalled ranking phase to reveal. It reports whether the room advanced.
func (c *Controller) ExpireStalled(ctx context.Context, code model.RoomCode) (bool, error) {
	_, err := c.apply(ctx, code, func(room *model.Room, out *outbox) error {
		if room.Phase != model.PhaseRanking {
			return errUnchanged
		}

		switch {
		case len(room.JudgeRanking) == 0 && out.now.Sub(room.PhaseStartedAt) >= c.config.RankingTimeout:
			return c.fallbackReveal(room, out, "ranking timeout")
		case len(room.JudgeRanking) > 0 && c.config.GuessTimeout > 0 && out.now.Sub(room.RankedAt) >= c.config.GuessTimeout:
			c.logger.Warn("guess timeout, revealing with guesses so far",
				slog.String("room", string(room.Code)),
				slog.Int("guesses", len(room.Guesses)),
			)
			return c.reveal(room, room.JudgeRanking, false, out)
		}
		return errUnchanged
	})
	if errors.Is(err, errUnchanged) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

package room

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mcoot/rankparty/internal/dependencies/clock"
	"github.com/mcoot/rankparty/internal/dependencies/notifier"
	"github.com/mcoot/rankparty/internal/dependencies/random"
	"github.com/mcoot/rankparty/internal/model"
	"github.com/mcoot/rankparty/internal/services/registry"
	"github.com/mcoot/rankparty/internal/services/scoring"
	"github.com/mcoot/rankparty/internal/services/topics"
)

// Config holds room rules that are set per deployment
type Config struct {
	MaxPlayers     int
	RoundLimit     int
	RankingTimeout time.Duration // Judge inactivity before a fallback ranking is generated
	GuessTimeout   time.Duration // Guesser inactivity after ranking before results are forced; 0 disables
}

// DefaultConfig returns the default room rules
func DefaultConfig() Config {
	return Config{
		MaxPlayers:     model.DefaultMaxPlayers,
		RoundLimit:     model.DefaultRoundLimit,
		RankingTimeout: 60 * time.Second,
		GuessTimeout:   90 * time.Second,
	}
}

// errUnchanged aborts a mutation without storing it
var errUnchanged = errors.New("room unchanged")

// Controller owns the room state machine: phase transitions, action validation,
// scoring and judge rotation
type Controller struct {
	registry *registry.Registry
	scoring  *scoring.Service
	topics   *topics.Service
	notifier notifier.Notifier
	clock    clock.Clock
	random   random.Random
	logger   *slog.Logger
	config   Config
}

// NewController creates a new room Controller
func NewController(
	registry *registry.Registry,
	scoring *scoring.Service,
	topics *topics.Service,
	notifier notifier.Notifier,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
	config Config,
) *Controller {
	return &Controller{
		registry: registry,
		scoring:  scoring,
		topics:   topics,
		notifier: notifier,
		clock:    clock,
		random:   random,
		logger:   logger.With(slog.String("component", "room")),
		config:   config,
	}
}

// Config returns the rules the controller enforces
func (c *Controller) Config() Config {
	return c.config
}

// apply runs fn under the room lock and delivers its notifications once stored
func (c *Controller) apply(ctx context.Context, code model.RoomCode, fn func(room *model.Room, out *outbox) error) (*model.Room, error) {
	out := newOutbox(code, c.clock.Now())
	return c.registry.Update(ctx, code, func(room *model.Room) error {
		if err := fn(room, out); err != nil {
			return err
		}
		room.LastActivityAt = out.now
		return nil
	}, func(*model.Room) {
		out.flush(c.notifier)
	})
}

// actor resolves the player bound to the connection
func actor(room *model.Room, connID model.ConnID) (*model.Player, error) {
	p := room.GetPlayerByConn(connID)
	if p == nil {
		return nil, model.ErrNotInRoom
	}
	return p, nil
}

// CreateRoom creates a room in the lobby phase with the host as its first player
func (c *Controller) CreateRoom(ctx context.Context, hostName string) (*model.Room, error) {
	name, err := ValidateName(hostName)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	host := model.Player{
		Name:     name,
		Role:     model.RolePlayer,
		JoinedAt: now,
	}
	config := model.RoomConfig{
		MaxPlayers: c.config.MaxPlayers,
		RoundLimit: c.config.RoundLimit,
	}

	room, err := c.registry.Create(ctx, func(code model.RoomCode) *model.Room {
		return model.NewRoom(code, host, config, now)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("room opened",
		slog.String("room", string(room.Code)),
		slog.String("host", name),
	)
	return room, nil
}

// GetRoom returns a snapshot of a room
func (c *Controller) GetRoom(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	return c.registry.Get(ctx, code)
}

// JoinRoom reserves a name in a room ahead of a live connection binding to it
func (c *Controller) JoinRoom(ctx context.Context, code model.RoomCode, playerName string) (*model.Room, error) {
	name, err := ValidateName(playerName)
	if err != nil {
		return nil, err
	}

	return c.apply(ctx, code, func(room *model.Room, out *outbox) error {
		if room.GetPlayer(name) != nil {
			return model.ErrNameTaken
		}
		if room.IsFull() {
			return model.ErrRoomFull
		}

		room.Players = append(room.Players, c.newPlayer(room, "", name, out.now))
		out.broadcastPlayers(room)
		return nil
	})
}

// JoinGameRoom binds a live connection to a player, adding the player if the name is new
func (c *Controller) JoinGameRoom(ctx context.Context, code model.RoomCode, connID model.ConnID, playerName string) (*model.Room, error) {
	name, err := ValidateName(playerName)
	if err != nil {
		return nil, err
	}

	return c.apply(ctx, code, func(room *model.Room, out *outbox) error {
		if bound := room.GetPlayerByConn(connID); bound != nil && bound.Name != name {
			return model.ErrConnBoundOther
		}

		existing := room.GetPlayer(name)
		switch {
		case existing != nil && existing.Connected() && existing.ID != connID:
			return model.ErrNameTaken
		case existing != nil:
			existing.ID = connID
		default:
			if room.IsFull() {
				return model.ErrRoomFull
			}
			room.Players = append(room.Players, c.newPlayer(room, connID, name, out.now))
		}

		out.broadcast(model.EventPlayerJoined, model.PlayerJoinedPayload{PlayerName: name})
		out.broadcastPlayers(room)
		out.sendState(connID, room)
		c.resyncEntries(room, room.GetPlayer(name), out)
		return nil
	})
}

// newPlayer builds a player joining mid-game. Joiners during ranking sit the round out.
func (c *Controller) newPlayer(room *model.Room, connID model.ConnID, name string, now time.Time) model.Player {
	return model.Player{
		ID:        connID,
		Name:      name,
		Role:      model.RolePlayer,
		IsGuesser: room.Phase == model.PhaseEntry,
		JoinedAt:  now,
	}
}

// resyncEntries re-sends the entry list a reconnecting player needs for the current phase
func (c *Controller) resyncEntries(room *model.Room, p *model.Player, out *outbox) {
	if p == nil {
		return
	}
	isJudge := p.Name == room.JudgeName
	switch {
	case room.Phase == model.PhaseEntry && isJudge:
		out.send(p.ID, model.EventAllEntries, model.AllEntriesPayload{Entries: room.UniqueEntryTexts()})
	case room.Phase == model.PhaseRanking && isJudge && len(room.JudgeRanking) == 0:
		out.send(p.ID, model.EventAllEntries, model.AllEntriesPayload{Entries: room.UniqueEntryTexts()})
	case room.Phase == model.PhaseRanking && !isJudge && len(room.DistributedEntries) > 0 && !p.HasGuessed:
		out.send(p.ID, model.EventAllEntries, model.AllEntriesPayload{Entries: append([]string(nil), room.DistributedEntries...)})
	}
}

// SetRole switches the acting player between player and spectator while no round is running
func (c *Controller) SetRole(ctx context.Context, code model.RoomCode, connID model.ConnID, role model.Role) (*model.Room, error) {
	if !role.Valid() {
		return nil, model.ErrInvalidRole
	}

	return c.apply(ctx, code, func(room *model.Room, out *outbox) error {
		p, err := actor(room, connID)
		if err != nil {
			return err
		}
		if room.Phase != model.PhaseLobby && !room.IsFinished() {
			return model.ErrGameInProgress
		}

		p.Role = role
		out.broadcastPlayers(room)
		out.sendState(connID, room)
		return nil
	})
}

// Disconnect removes the player bound to a closed connection and repairs the round
func (c *Controller) Disconnect(ctx context.Context, code model.RoomCode, connID model.ConnID) error {
	_, err := c.apply(ctx, code, func(room *model.Room, out *outbox) error {
		p := room.GetPlayerByConn(connID)
		if p == nil {
			return errUnchanged
		}
		name := p.Name
		wasJudge := name != "" && name == room.JudgeName
		room.RemovePlayer(name)
		out.broadcastPlayers(room)

		c.logger.Info("player left",
			slog.String("room", string(room.Code)),
			slog.String("player", name),
			slog.Bool("was_judge", wasJudge),
		)

		if wasJudge {
			return c.handleJudgeDeparture(room, out)
		}
		return c.completeIfReady(room, out)
	})
	if errors.Is(err, errUnchanged) {
		return nil
	}
	return err
}

// handleJudgeDeparture keeps judgeName pointing at a present player
func (c *Controller) handleJudgeDeparture(room *model.Room, out *outbox) error {
	switch {
	case room.Phase == model.PhaseEntry:
		room.JudgeName = judgeFor(room, room.Round)
		assignGuessers(room)
		out.broadcastState(room)
		c.resyncEntries(room, room.GetPlayer(room.JudgeName), out)
	case room.Phase == model.PhaseRanking && len(room.JudgeRanking) == 0:
		return c.fallbackReveal(room, out, "judge left")
	case room.Phase == model.PhaseRanking:
		// Ranking already stored; guessers can still finish
		room.JudgeName = ""
		return c.completeIfReady(room, out)
	default:
		room.JudgeName = ""
	}
	return nil
}

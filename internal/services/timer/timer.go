package timer

import (
	"context"
	"log/slog"
	"time"

	"github.com/mcoot/rankparty/internal/dependencies/clock"
	"github.com/mcoot/rankparty/internal/model"
)

// DefaultInterval is how often rooms are checked for stalled rounds
const DefaultInterval = 10 * time.Second

// Rooms is the part of the registry the timer walks
type Rooms interface {
	Codes(ctx context.Context) ([]model.RoomCode, error)
	EvictIdle(ctx context.Context, before time.Time) ([]model.RoomCode, error)
}

// Expirer advances a room whose round has stalled
type Expirer interface {
	ExpireStalled(ctx context.Context, code model.RoomCode) (bool, error)
}

// RoundTimer periodically forces stalled ranking phases to reveal and
// optionally evicts rooms with no recent activity
type RoundTimer struct {
	rooms    Rooms
	expirer  Expirer
	clock    clock.Clock
	interval time.Duration
	idleTTL  time.Duration
	logger   *slog.Logger
}

// New creates a RoundTimer. An idleTTL of zero disables eviction.
func New(rooms Rooms, expirer Expirer, clk clock.Clock, interval, idleTTL time.Duration, logger *slog.Logger) *RoundTimer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &RoundTimer{
		rooms:    rooms,
		expirer:  expirer,
		clock:    clk,
		interval: interval,
		idleTTL:  idleTTL,
		logger:   logger.With(slog.String("component", "round-timer")),
	}
}

// Run sweeps on every tick until ctx is cancelled
func (t *RoundTimer) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.logger.Info("round timer started", slog.Duration("interval", t.interval))
	for {
		select {
		case <-ctx.Done():
			t.logger.Info("round timer stopped")
			return
		case <-ticker.C:
			t.Sweep(ctx)
		}
	}
}

// Sweep runs one pass over every room. A failing room does not stop the pass.
func (t *RoundTimer) Sweep(ctx context.Context) SweepResult {
	var result SweepResult

	codes, err := t.rooms.Codes(ctx)
	if err != nil {
		t.logger.Error("failed to list rooms", slog.String("error", err.Error()))
		return result
	}

	for _, code := range codes {
		if ctx.Err() != nil {
			return result
		}
		advanced, err := t.expirer.ExpireStalled(ctx, code)
		if err != nil {
			// Rooms can be deleted between listing and expiry
			if model.KindOf(err) != model.KindNotFound {
				t.logger.Error("failed to expire room",
					slog.String("room", string(code)),
					slog.String("error", err.Error()),
				)
			}
			continue
		}
		if advanced {
			result.Expired = append(result.Expired, code)
		}
	}

	if t.idleTTL > 0 {
		evicted, err := t.rooms.EvictIdle(ctx, t.clock.Now().Add(-t.idleTTL))
		if err != nil {
			t.logger.Error("failed to evict idle rooms", slog.String("error", err.Error()))
		}
		result.Evicted = evicted
		if len(evicted) > 0 {
			t.logger.Info("evicted idle rooms", slog.Int("count", len(evicted)))
		}
	}

	return result
}

// SweepResult lists the rooms a sweep acted on
type SweepResult struct {
	Expired []model.RoomCode
	Evicted []model.RoomCode
}

package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/rankparty/internal/dependencies/random"
	"github.com/mcoot/rankparty/internal/model"
	"github.com/mcoot/rankparty/internal/storage"
)

// maxCodeAttempts bounds the retry-until-unique loop so an exhausted code space fails loudly
const maxCodeAttempts = 64

// Registry owns the set of live rooms. Mutations of a single room are serialized
// through a per-room lock; the registry lock guards code allocation and the lock table.
type Registry struct {
	storage storage.Storage
	random  random.Random
	logger  *slog.Logger

	mu     sync.RWMutex
	locks  map[model.RoomCode]*sync.Mutex
	closed bool
}

// New creates a new Registry
func New(storage storage.Storage, random random.Random, logger *slog.Logger) *Registry {
	return &Registry{
		storage: storage,
		random:  random,
		logger:  logger.With(slog.String("component", "registry")),
		locks:   make(map[model.RoomCode]*sync.Mutex),
	}
}

// Create allocates a unique room code and stores the room produced by build
func (r *Registry) Create(ctx context.Context, build func(code model.RoomCode) *model.Room) (*model.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, model.ErrRegistryClosed
	}

	code, err := r.generateCode(ctx)
	if err != nil {
		return nil, err
	}

	room := build(code)
	if err := r.storage.SaveRoom(ctx, room); err != nil {
		return nil, fmt.Errorf("save room: %w", err)
	}
	r.locks[code] = &sync.Mutex{}

	r.logger.Info("room created", slog.String("room", string(code)))
	return room.Clone(), nil
}

// generateCode must be called with r.mu held
func (r *Registry) generateCode(ctx context.Context) (model.RoomCode, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := model.RoomCode(r.random.String(model.RoomCodeLength, model.RoomCodeAlphabet))
		if len(code) != model.RoomCodeLength {
			continue
		}
		exists, err := r.storage.RoomExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check room code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("no unique room code after %d attempts", maxCodeAttempts)
}

// Get returns a snapshot of the room
func (r *Registry) Get(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	lock, err := r.lockFor(code)
	if err != nil {
		return nil, err
	}
	lock.Lock()
	defer lock.Unlock()

	room, err := r.storage.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	return room.Clone(), nil
}

// Update runs fn against a working copy of the room while holding the room's lock.
// The copy is stored only when fn succeeds, so a rejected action leaves the room untouched.
// Each commit hook runs after the store and before the lock is released.
func (r *Registry) Update(
	ctx context.Context,
	code model.RoomCode,
	fn func(room *model.Room) error,
	commit ...func(room *model.Room),
) (*model.Room, error) {
	lock, err := r.lockFor(code)
	if err != nil {
		return nil, err
	}
	lock.Lock()
	defer lock.Unlock()

	stored, err := r.storage.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}

	working := stored.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}

	if err := r.storage.SaveRoom(ctx, working); err != nil {
		return nil, fmt.Errorf("save room: %w", err)
	}
	for _, hook := range commit {
		hook(working)
	}
	return working.Clone(), nil
}

// Codes returns the codes of every live room
func (r *Registry) Codes(ctx context.Context) ([]model.RoomCode, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	return r.storage.ListRoomCodes(ctx)
}

// Count returns the number of live rooms
func (r *Registry) Count(ctx context.Context) (int, error) {
	if err := r.checkOpen(); err != nil {
		return 0, err
	}
	return r.storage.CountRooms(ctx)
}

// Delete removes a room
func (r *Registry) Delete(ctx context.Context, code model.RoomCode) error {
	_, err := r.deleteIf(ctx, code, func(*model.Room) bool { return true })
	return err
}

// deleteIf removes the room if pred holds for its stored state. The read and the delete
// share one hold of the room lock.
func (r *Registry) deleteIf(ctx context.Context, code model.RoomCode, pred func(room *model.Room) bool) (bool, error) {
	lock, err := r.lockFor(code)
	if err != nil {
		return false, err
	}
	lock.Lock()
	defer lock.Unlock()

	room, err := r.storage.GetRoom(ctx, code)
	if err != nil {
		return false, err
	}
	if !pred(room) {
		return false, nil
	}

	if err := r.storage.DeleteRoom(ctx, code); err != nil {
		return false, fmt.Errorf("delete room: %w", err)
	}

	r.mu.Lock()
	delete(r.locks, code)
	r.mu.Unlock()

	r.logger.Info("room deleted", slog.String("room", string(code)))
	return true, nil
}

// EvictIdle deletes every room whose last activity is before the cutoff
func (r *Registry) EvictIdle(ctx context.Context, before time.Time) ([]model.RoomCode, error) {
	codes, err := r.Codes(ctx)
	if err != nil {
		return nil, err
	}

	idle := func(room *model.Room) bool { return room.LastActivityAt.Before(before) }

	var evicted []model.RoomCode
	for _, code := range codes {
		deleted, err := r.deleteIf(ctx, code, idle)
		if errors.Is(err, model.ErrRoomNotFound) {
			continue
		}
		if err != nil {
			return evicted, err
		}
		if deleted {
			evicted = append(evicted, code)
		}
	}
	return evicted, nil
}

// Close destroys every room and rejects all further calls
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	locks := r.locks
	r.locks = make(map[model.RoomCode]*sync.Mutex)
	r.mu.Unlock()

	ctx := context.Background()
	for code, lock := range locks {
		lock.Lock()
		err := r.storage.DeleteRoom(ctx, code)
		lock.Unlock()
		if err != nil {
			return fmt.Errorf("delete room %s: %w", code, err)
		}
	}

	r.logger.Info("registry closed", slog.Int("rooms_destroyed", len(locks)))
	return nil
}

func (r *Registry) checkOpen() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return model.ErrRegistryClosed
	}
	return nil
}

func (r *Registry) lockFor(code model.RoomCode) (*sync.Mutex, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, model.ErrRegistryClosed
	}
	lock, ok := r.locks[code]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return lock, nil
}

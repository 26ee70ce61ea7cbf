package game

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrRoomExists   = errors.New("room already exists")
	ErrRoomNotFound = errors.New("room not found")
)

// Registry is the process-wide map from room id to session. Its lock
// covers only the map itself; session-level operations happen after
// the lookup, with the registry lock released.
type Registry struct {
	logger     *slog.Logger
	newSession func(id string) *Session

	mu    sync.Mutex
	rooms map[string]*Session
}

func NewRegistry(logger *slog.Logger, newSession func(id string) *Session) *Registry {
	return &Registry{
		logger:     logger,
		newSession: newSession,
		rooms:      make(map[string]*Session),
	}
}

// Create inserts a fresh session under id. ErrRoomExists when the id
// is taken; concurrent creates for the same id cannot double-insert.
func (r *Registry) Create(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[id]; ok {
		return ErrRoomExists
	}
	r.rooms[id] = r.newSession(id)
	r.logger.Info("room created", "room", id)
	return nil
}

// Resolve looks up the session for id.
func (r *Registry) Resolve(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return s, nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

// Sweep runs the idle-room eviction loop until ctx is cancelled,
// checking every interval for rooms that have been empty for ttl.
func (r *Registry) Sweep(ctx context.Context, interval, ttl time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.evictIdle(ttl)
		}
	}
}

func (r *Registry) evictIdle(ttl time.Duration) {
	// Snapshot under the registry lock; Idle takes each session's own
	// lock and must not run while the registry lock is held.
	r.mu.Lock()
	snapshot := make(map[string]*Session, len(r.rooms))
	for id, s := range r.rooms {
		snapshot[id] = s
	}
	r.mu.Unlock()

	for id, s := range snapshot {
		if !s.Idle(ttl) {
			continue
		}
		r.mu.Lock()
		// Re-check identity: the id may have been reused.
		if r.rooms[id] == s {
			delete(r.rooms, id)
			r.logger.Info("idle room evicted", "room", id)
		}
		r.mu.Unlock()
	}
}

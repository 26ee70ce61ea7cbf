package game

import (
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/cityguessr/server/internal/location"
)

func newTestRegistry() *Registry {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ds := location.NewDataset([]location.Location{testTarget})
	return NewRegistry(logger, func(id string) *Session {
		return NewSession(id, logger, ds, quickRules(), rand.New(rand.NewSource(1)))
	})
}

func TestCreateConflict(t *testing.T) {
	r := newTestRegistry()

	if err := r.Create("abc"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := r.Create("abc"); !errors.Is(err, ErrRoomExists) {
		t.Errorf("second create = %v, want ErrRoomExists", err)
	}
	if err := r.Create("xyz"); err != nil {
		t.Errorf("create with a different id: %v", err)
	}
}

func TestResolve(t *testing.T) {
	r := newTestRegistry()

	if _, err := r.Resolve("nope"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("resolve unknown room = %v, want ErrRoomNotFound", err)
	}

	if err := r.Create("abc"); err != nil {
		t.Fatalf("create: %v", err)
	}
	s, err := r.Resolve("abc")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if s == nil {
		t.Fatal("resolve returned a nil session")
	}
}

func TestEvictIdle(t *testing.T) {
	r := newTestRegistry()

	if err := r.Create("empty"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := r.Create("busy"); err != nil {
		t.Fatalf("create: %v", err)
	}

	busy, err := r.Resolve("busy")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	busy.Join("u1", "ana", &fakeConn{})

	time.Sleep(10 * time.Millisecond)
	r.evictIdle(time.Millisecond)

	if _, err := r.Resolve("empty"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("empty room should have been evicted, got %v", err)
	}
	if _, err := r.Resolve("busy"); err != nil {
		t.Errorf("room with a connected player must survive the sweep: %v", err)
	}
	if got := r.Len(); got != 1 {
		t.Errorf("registry size = %d, want 1", got)
	}
}

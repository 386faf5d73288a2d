package guard

import (
	"context"
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/fastygo/dashboard/domain"
)

// Factory builds an unmounted guard bound to navigator.
type Factory func(navigator Navigator) *Guard

// Snapshot is a guard's view plus the redirects it issued since the last
// snapshot.
type Snapshot struct {
	ID        string            `json:"id"`
	View      domain.View       `json:"view"`
	Redirects []domain.Redirect `json:"redirects,omitempty"`
}

type entry struct {
	guard   *Guard
	history *History
}

// Registry tracks guards mounted on behalf of dashboard tabs.
type Registry struct {
	factory Factory
	logger  *zap.Logger

	mu      sync.Mutex
	entries map[string]*entry
	entropy io.Reader
}

func NewRegistry(factory Factory, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		factory: factory,
		logger:  logger,
		entries: make(map[string]*entry),
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Mount creates and mounts a guard at path.
func (r *Registry) Mount(ctx context.Context, path string) (Snapshot, error) {
	if path == "" {
		return Snapshot{}, domain.ErrInvalidPayload
	}

	history := NewHistory()
	g := r.factory(history)
	if err := g.Mount(ctx, path); err != nil {
		return Snapshot{}, err
	}

	r.mu.Lock()
	id := ulid.MustNew(ulid.Timestamp(time.Now().UTC()), r.entropy).String()
	r.entries[id] = &entry{guard: g, history: history}
	r.mu.Unlock()

	r.logger.Debug("guard registered", zap.String("guard_id", id), zap.String("path", path))
	return r.snapshot(id, g, history), nil
}

// Navigate moves a mounted guard to path.
func (r *Registry) Navigate(id, path string) (Snapshot, error) {
	if path == "" {
		return Snapshot{}, domain.ErrInvalidPayload
	}
	e, err := r.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	if err := e.guard.Navigate(path); err != nil {
		return Snapshot{}, err
	}
	return r.snapshot(id, e.guard, e.history), nil
}

// View returns the current snapshot of a mounted guard.
func (r *Registry) View(id string) (Snapshot, error) {
	e, err := r.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	return r.snapshot(id, e.guard, e.history), nil
}

// Unmount stops and forgets a guard.
func (r *Registry) Unmount(id string) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()
	if !ok {
		return domain.ErrGuardNotFound
	}
	e.guard.Unmount()
	return nil
}

// Len returns the number of mounted guards.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Close unmounts every guard.
func (r *Registry) Close() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range entries {
		e.guard.Unmount()
	}
}

func (r *Registry) lookup(id string) (*entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, domain.ErrGuardNotFound
	}
	return e, nil
}

func (r *Registry) snapshot(id string, g *Guard, h *History) Snapshot {
	return Snapshot{ID: id, View: g.View(), Redirects: h.Drain()}
}

package windows

import (
	"context"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/fastygo/dashboard/domain"
	"github.com/fastygo/dashboard/internal/metrics"
	"github.com/fastygo/dashboard/usecase/notify"
)

// Registry tracks application windows that announced themselves. It is the
// window enumeration the notification worker routes clicks through.
type Registry struct {
	origin    *url.URL
	allowOpen bool
	clock     clockwork.Clock
	logger    *zap.Logger

	mu      sync.RWMutex
	windows map[string]*domain.Window
}

func NewRegistry(origin string, allowOpen bool, clock clockwork.Clock, logger *zap.Logger) (*Registry, error) {
	base, err := url.Parse(origin)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "application origin must be an absolute URL")
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		origin:    base,
		allowOpen: allowOpen,
		clock:     clock,
		logger:    logger,
		windows:   make(map[string]*domain.Window),
	}, nil
}

// Register records an open window at rawURL.
func (r *Registry) Register(rawURL string, controlled, focusable bool) (*domain.Window, error) {
	win, err := r.newWindow(rawURL, controlled, focusable)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.windows[win.ID] = win
	out := *win
	count := len(r.windows)
	r.mu.Unlock()

	metrics.OpenWindows.Set(float64(count))
	return &out, nil
}

// Heartbeat refreshes a window's liveness and, when rawURL is set, its location.
func (r *Registry) Heartbeat(id, rawURL string, visible bool) (*domain.Window, error) {
	var resolved string
	if rawURL != "" {
		var err error
		if resolved, err = r.resolve(rawURL); err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	win, ok := r.windows[id]
	if !ok {
		return nil, domain.ErrWindowNotFound
	}
	win.LastSeen = r.clock.Now().UTC()
	win.Visible = visible
	if resolved != "" {
		win.URL = resolved
	}
	out := *win
	return &out, nil
}

// Unregister forgets a closed window.
func (r *Registry) Unregister(id string) error {
	r.mu.Lock()
	_, ok := r.windows[id]
	delete(r.windows, id)
	count := len(r.windows)
	r.mu.Unlock()
	if !ok {
		return domain.ErrWindowNotFound
	}
	metrics.OpenWindows.Set(float64(count))
	return nil
}

// List returns every window, oldest first.
func (r *Registry) List() []domain.Window {
	r.mu.RLock()
	out := make([]domain.Window, 0, len(r.windows))
	for _, w := range r.windows {
		out = append(out, *w)
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OpenedAt.Equal(out[j].OpenedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].OpenedAt.Before(out[j].OpenedAt)
	})
	return out
}

func (r *Registry) MatchAll(_ context.Context, includeUncontrolled bool) ([]domain.Window, error) {
	all := r.List()
	if includeUncontrolled {
		return all, nil
	}
	out := all[:0]
	for _, w := range all {
		if w.Controlled {
			out = append(out, w)
		}
	}
	return out, nil
}

// Focus marks id as the focused window.
func (r *Registry) Focus(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	win, ok := r.windows[id]
	if !ok {
		return domain.ErrWindowNotFound
	}
	if !win.Focusable {
		return domain.ErrWindowNotFocusable
	}
	for _, w := range r.windows {
		w.Focused = false
	}
	win.Focused = true
	win.Visible = true
	return nil
}

// OpenWindow records a new focused window at rawURL.
func (r *Registry) OpenWindow(_ context.Context, rawURL string) (*domain.Window, error) {
	if !r.allowOpen {
		return nil, domain.ErrOpenWindowDenied
	}
	win, err := r.newWindow(rawURL, false, true)
	if err != nil {
		return nil, err
	}
	win.Opened = true
	win.Focused = true

	r.mu.Lock()
	for _, w := range r.windows {
		w.Focused = false
	}
	r.windows[win.ID] = win
	out := *win
	count := len(r.windows)
	r.mu.Unlock()

	metrics.OpenWindows.Set(float64(count))
	r.logger.Info("window opened", zap.String("window_id", out.ID), zap.String("url", out.URL))
	return &out, nil
}

func (r *Registry) CanOpenWindow() bool {
	return r.allowOpen
}

// Prune drops windows not seen since olderThan and returns how many.
func (r *Registry) Prune(olderThan time.Time) int {
	r.mu.Lock()
	removed := 0
	for id, w := range r.windows {
		if w.LastSeen.Before(olderThan) {
			delete(r.windows, id)
			removed++
		}
	}
	count := len(r.windows)
	r.mu.Unlock()

	metrics.OpenWindows.Set(float64(count))
	return removed
}

func (r *Registry) newWindow(rawURL string, controlled, focusable bool) (*domain.Window, error) {
	resolved, err := r.resolve(rawURL)
	if err != nil {
		return nil, err
	}
	now := r.clock.Now().UTC()
	return &domain.Window{
		ID:         uuid.NewString(),
		URL:        resolved,
		Visible:    true,
		Controlled: controlled,
		Focusable:  focusable,
		OpenedAt:   now,
		LastSeen:   now,
	}, nil
}

func (r *Registry) resolve(rawURL string) (string, error) {
	if rawURL == "" {
		return "", domain.ErrInvalidPayload
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", domain.WrapError(domain.ErrCodeInvalid, "invalid window url", err)
	}
	return r.origin.ResolveReference(u).String(), nil
}

var _ notify.Clients = (*Registry)(nil)

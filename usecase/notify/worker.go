package notify

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/fastygo/dashboard/domain"
	"github.com/fastygo/dashboard/internal/metrics"
)

const defaultInboxSize = 64

// Displayer shows notifications and closes them by tag.
type Displayer interface {
	Show(ctx context.Context, n domain.Notification) error
	Close(ctx context.Context, tag string) error
}

// Clients enumerates and drives application windows.
type Clients interface {
	MatchAll(ctx context.Context, includeUncontrolled bool) ([]domain.Window, error)
	Focus(ctx context.Context, id string) error
	OpenWindow(ctx context.Context, rawURL string) (*domain.Window, error)
	CanOpenWindow() bool
}

// Config tunes the worker.
type Config struct {
	// Origin is the application origin, e.g. https://admin.example.com.
	Origin    string
	InboxSize int
}

type kind int

const (
	kindDeliver kind = iota
	kindClick
)

func (k kind) String() string {
	if k == kindClick {
		return "click"
	}
	return "deliver"
}

type message struct {
	kind         kind
	ctx          context.Context
	push         domain.PushMessage
	notification domain.Notification
	done         chan error
}

// Worker is the background delivery context. It handles one message at a
// time; every accepted message is a pending unit until it settles.
type Worker struct {
	displayer Displayer
	clients   Clients
	origin    *url.URL
	logger    *zap.Logger

	pending *Pending
	inbox   chan message

	mu      sync.RWMutex
	started bool
	stopped bool
	senders sync.WaitGroup
	closing chan struct{}
	done    chan struct{}
}

func NewWorker(displayer Displayer, clients Clients, cfg Config, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = defaultInboxSize
	}
	origin, err := url.Parse(strings.TrimSpace(cfg.Origin))
	if err != nil || origin.Host == "" {
		logger.Warn("invalid application origin, window matching disabled", zap.String("origin", cfg.Origin))
		origin = nil
	}
	return &Worker{
		displayer: displayer,
		clients:   clients,
		origin:    origin,
		logger:    logger,
		pending:   NewPending(),
		inbox:     make(chan message, cfg.InboxSize),
		closing:   make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the message loop.
func (w *Worker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.stopped {
		return
	}
	w.started = true
	go w.loop()
	w.logger.Info("notification worker started")
}

// Deliver enqueues a push message. The returned channel yields the outcome
// of displaying it once the display request has completed.
func (w *Worker) Deliver(ctx context.Context, msg domain.PushMessage) <-chan error {
	return w.enqueue(ctx, message{kind: kindDeliver, push: msg})
}

// Click enqueues a click on a displayed notification.
func (w *Worker) Click(ctx context.Context, n domain.Notification) <-chan error {
	return w.enqueue(ctx, message{kind: kindClick, notification: n})
}

// Idle blocks until no message is pending.
func (w *Worker) Idle(ctx context.Context) error {
	return w.pending.Wait(ctx)
}

// Pending returns the number of unsettled messages.
func (w *Worker) Pending() int {
	return w.pending.Len()
}

// Stop refuses new messages, lets queued ones settle and waits for the loop.
// Callers still waiting for inbox space get ErrWorkerStopped. If the loop was
// never started, queued messages fail with ErrWorkerStopped too.
func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	started := w.started
	close(w.closing)
	w.mu.Unlock()

	w.senders.Wait()
	close(w.inbox)

	if !started {
		w.discard()
		return nil
	}

	select {
	case <-w.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	w.logger.Info("notification worker stopped")
	return nil
}

func (w *Worker) enqueue(ctx context.Context, m message) <-chan error {
	if ctx == nil {
		ctx = context.Background()
	}
	done := make(chan error, 1)
	m.done = done
	m.ctx = context.WithoutCancel(ctx)

	w.mu.RLock()
	if w.stopped {
		w.mu.RUnlock()
		done <- domain.ErrWorkerStopped
		return done
	}
	w.senders.Add(1)
	w.pending.Add()
	w.mu.RUnlock()
	defer w.senders.Done()

	select {
	case w.inbox <- m:
	case <-w.closing:
		w.pending.Done()
		done <- domain.ErrWorkerStopped
	case <-ctx.Done():
		w.pending.Done()
		done <- ctx.Err()
	}
	return done
}

func (w *Worker) discard() {
	for m := range w.inbox {
		w.pending.Done()
		m.done <- domain.ErrWorkerStopped
		close(m.done)
	}
}

func (w *Worker) loop() {
	defer close(w.done)
	for m := range w.inbox {
		w.process(m)
	}
}

func (w *Worker) process(m message) {
	var err error
	switch m.kind {
	case kindDeliver:
		err = w.handleDeliver(m.ctx, m.push)
	case kindClick:
		err = w.handleClick(m.ctx, m.notification)
	}
	if err != nil {
		w.logger.Error("notification unit failed", zap.Stringer("kind", m.kind), zap.Error(err))
	}
	w.pending.Done()
	m.done <- err
	close(m.done)
}

func (w *Worker) handleDeliver(ctx context.Context, msg domain.PushMessage) error {
	n := Resolve(msg)
	if err := w.displayer.Show(ctx, n); err != nil {
		metrics.NotificationsDisplayed.WithLabelValues("error").Inc()
		return err
	}
	metrics.NotificationsDisplayed.WithLabelValues("ok").Inc()
	w.logger.Debug("notification displayed", zap.String("tag", n.Tag), zap.String("title", n.Title))
	return nil
}

func (w *Worker) handleClick(ctx context.Context, n domain.Notification) error {
	if err := w.displayer.Close(ctx, n.Tag); err != nil && !errors.Is(err, domain.ErrNotificationNotFound) {
		w.logger.Warn("closing notification failed", zap.String("tag", n.Tag), zap.Error(err))
	}

	outcome, err := w.route(ctx, n)
	if err != nil {
		metrics.NotificationClicks.WithLabelValues("error").Inc()
		return err
	}
	metrics.NotificationClicks.WithLabelValues(string(outcome)).Inc()
	w.logger.Debug("notification click routed", zap.String("tag", n.Tag), zap.String("outcome", string(outcome)))
	return nil
}

func (w *Worker) route(ctx context.Context, n domain.Notification) (domain.ClickOutcome, error) {
	windows, err := w.clients.MatchAll(ctx, true)
	if err != nil {
		return "", err
	}
	for _, win := range windows {
		if win.Focusable && w.sameOrigin(win.URL) {
			if err := w.clients.Focus(ctx, win.ID); err != nil {
				return "", err
			}
			return domain.ClickFocused, nil
		}
	}

	if !w.clients.CanOpenWindow() {
		return domain.ClickIgnored, nil
	}
	if _, err := w.clients.OpenWindow(ctx, ClickTarget(n.Data)); err != nil {
		return "", err
	}
	return domain.ClickOpened, nil
}

func (w *Worker) sameOrigin(raw string) bool {
	if w.origin == nil {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Scheme, w.origin.Scheme) && strings.EqualFold(u.Host, w.origin.Host)
}

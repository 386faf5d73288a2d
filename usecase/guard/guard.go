package guard

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/fastygo/dashboard/domain"
	"github.com/fastygo/dashboard/internal/metrics"
	"github.com/fastygo/dashboard/repository"
)

// DefaultInterval is the periodic re-check period.
const DefaultInterval = 60 * time.Second

// Check triggers, used for logging and metrics.
const (
	sourceMount    = "mount"
	sourceStorage  = "storage"
	sourceInterval = "interval"
	sourceSignal   = "signal"
)

// TokenAccessor reads and clears the persisted credential.
type TokenAccessor interface {
	IsAuthenticated(ctx context.Context) bool
	RemoveAuthTokens(ctx context.Context)
}

// ChangeSource publishes storage mutations.
type ChangeSource interface {
	Subscribe(ctx context.Context) *repository.Subscription
}

// Navigator performs history-replacing navigations.
type Navigator interface {
	Replace(to string, state domain.RedirectState)
}

type Option func(*Guard)

// WithInterval overrides the periodic re-check period.
func WithInterval(d time.Duration) Option {
	return func(g *Guard) {
		if d > 0 {
			g.interval = d
		}
	}
}

// WithAuthRoute overrides the exempt route subtree.
func WithAuthRoute(route string) Option {
	return func(g *Guard) {
		if route != "" {
			g.authRoute = route
		}
	}
}

// WithStorage registers the media whose changes trigger re-checks.
func WithStorage(sources ...ChangeSource) Option {
	return func(g *Guard) {
		for _, s := range sources {
			if s != nil {
				g.sources = append(g.sources, s)
			}
		}
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(g *Guard) {
		if clock != nil {
			g.clock = clock
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// Guard gates every route outside the auth subtree on the presence of a
// session token and keeps that verdict fresh while mounted.
type Guard struct {
	accessor  TokenAccessor
	signals   *Signals
	navigator Navigator
	sources   []ChangeSource
	clock     clockwork.Clock
	interval  time.Duration
	authRoute string
	logger    *zap.Logger

	mu      sync.Mutex
	phase   domain.Phase
	state   domain.AuthState
	path    string
	mounted bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func New(accessor TokenAccessor, signals *Signals, navigator Navigator, opts ...Option) *Guard {
	g := &Guard{
		accessor:  accessor,
		signals:   signals,
		navigator: navigator,
		clock:     clockwork.NewRealClock(),
		interval:  DefaultInterval,
		authRoute: domain.DefaultAuthRoute,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Mount performs the initial check for path, registers the storage, signal
// and interval listeners, and renders once.
func (g *Guard) Mount(ctx context.Context, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.mounted {
		return nil
	}

	g.phase = domain.PhaseChecking
	g.state = domain.AuthUnknown
	g.path = path

	metrics.GuardChecks.WithLabelValues(sourceMount).Inc()
	g.state = domain.AuthStateFrom(g.accessor.IsAuthenticated(ctx))
	g.phase = domain.PhaseChecked

	loopCtx, cancel := context.WithCancel(context.Background())
	g.ctx = loopCtx
	g.cancel = cancel
	g.mounted = true
	metrics.GuardsMounted.Inc()

	for _, src := range g.sources {
		sub := src.Subscribe(loopCtx)
		g.wg.Add(1)
		go g.watchStorage(loopCtx, sub)
	}

	var (
		signalCh <-chan struct{}
		release  = func() {}
	)
	if g.signals != nil {
		signalCh, release = g.signals.Subscribe()
	}
	ticker := g.clock.NewTicker(g.interval)
	g.wg.Add(1)
	go g.loop(loopCtx, signalCh, release, ticker)

	g.logger.Debug("guard mounted", zap.String("path", path), zap.Stringer("state", g.state))
	g.render()
	return nil
}

// Unmount tears down every listener and waits for them to exit.
func (g *Guard) Unmount() {
	g.mu.Lock()
	if !g.mounted {
		g.mu.Unlock()
		return
	}
	g.mounted = false
	g.cancel()
	g.mu.Unlock()

	g.wg.Wait()
	metrics.GuardsMounted.Dec()
	g.logger.Debug("guard unmounted")
}

// Navigate moves the guarded location to path and renders.
func (g *Guard) Navigate(path string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.mounted {
		return domain.ErrGuardUnmounted
	}
	if path == g.path {
		return nil
	}
	g.path = path
	g.render()
	return nil
}

// View returns what the guard renders for its current location.
func (g *Guard) View() domain.View {
	g.mu.Lock()
	defer g.mu.Unlock()

	view := domain.View{Path: g.path, State: g.state.String()}
	switch {
	case g.phase == domain.PhaseChecking:
		view.Kind = domain.ViewLoading
	case g.blocked():
		view.Kind = domain.ViewRedirect
		view.Redirect = &domain.Redirect{
			To:      g.authRoute,
			Replace: true,
			State:   domain.RedirectState{From: g.path},
		}
	default:
		view.Kind = domain.ViewOutlet
	}
	return view
}

// State returns the current authentication verdict.
func (g *Guard) State() domain.AuthState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Guard) loop(ctx context.Context, signalCh <-chan struct{}, release func(), ticker clockwork.Ticker) {
	defer g.wg.Done()
	defer release()
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-signalCh:
			metrics.GuardChecks.WithLabelValues(sourceSignal).Inc()
			g.setState(domain.AuthUnauthenticated, sourceSignal)
		case <-ticker.Chan():
			g.recheck(ctx, sourceInterval)
		}
	}
}

func (g *Guard) watchStorage(ctx context.Context, sub *repository.Subscription) {
	defer g.wg.Done()
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			if ev.Key != domain.TokenKey && ev.Key != domain.LogoutKey {
				continue
			}
			// A removal cannot authenticate; this also drops the echo of
			// the guard's own RemoveAuthTokens.
			if ev.Key == domain.TokenKey && ev.NewValue == "" && g.State() == domain.AuthUnauthenticated {
				continue
			}
			g.recheck(ctx, sourceStorage)
		}
	}
}

func (g *Guard) recheck(ctx context.Context, source string) {
	metrics.GuardChecks.WithLabelValues(source).Inc()
	authenticated := g.accessor.IsAuthenticated(ctx)
	g.setState(domain.AuthStateFrom(authenticated), source)
}

func (g *Guard) setState(state domain.AuthState, source string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.mounted || state == g.state {
		return
	}
	g.logger.Debug("auth state changed",
		zap.Stringer("from", g.state),
		zap.Stringer("to", state),
		zap.String("source", source))
	g.state = state
	g.render()
}

// render must be called with mu held.
func (g *Guard) render() {
	if !g.blocked() {
		return
	}
	from := g.path
	g.accessor.RemoveAuthTokens(g.ctx)
	g.navigator.Replace(g.authRoute, domain.RedirectState{From: from})
	g.path = g.authRoute
	metrics.GuardRedirects.Inc()
	g.logger.Info("redirecting to auth route", zap.String("from", from), zap.String("to", g.authRoute))
}

func (g *Guard) blocked() bool {
	return g.phase == domain.PhaseChecked &&
		g.state == domain.AuthUnauthenticated &&
		!domain.UnderRoute(g.path, g.authRoute)
}

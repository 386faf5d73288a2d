package guard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/dashboard/domain"
	"github.com/fastygo/dashboard/repository"
	"github.com/fastygo/dashboard/repository/memory"
	"github.com/fastygo/dashboard/usecase/auth"
)

type fakeAccessor struct {
	mu            sync.Mutex
	authenticated bool
	reads         int
	removals      int
}

func (f *fakeAccessor) IsAuthenticated(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	return f.authenticated
}

func (f *fakeAccessor) RemoveAuthTokens(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removals++
	f.authenticated = false
}

func (f *fakeAccessor) set(authenticated bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authenticated = authenticated
}

func (f *fakeAccessor) readCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

type fixture struct {
	accessor *fakeAccessor
	signals  *Signals
	history  *History
	store    *memory.TokenStore
	clock    *clockwork.FakeClock
	guard    *Guard
}

func newFixture(t *testing.T, authenticated bool) *fixture {
	t.Helper()
	f := &fixture{
		accessor: &fakeAccessor{authenticated: authenticated},
		signals:  NewSignals(),
		history:  NewHistory(),
		store:    memory.NewTokenStore("test"),
		clock:    clockwork.NewFakeClock(),
	}
	f.guard = New(f.accessor, f.signals, f.history,
		WithStorage(f.store),
		WithClock(f.clock),
	)
	t.Cleanup(f.guard.Unmount)
	return f
}

func (f *fixture) mount(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, f.guard.Mount(context.Background(), path))
}

func TestGuard_MountWithoutTokenRedirectsOnce(t *testing.T) {
	f := newFixture(t, false)
	f.mount(t, "/dashboard")

	redirects := f.history.All()
	require.Len(t, redirects, 1)
	assert.Equal(t, domain.Redirect{
		To:      "/auth",
		Replace: true,
		State:   domain.RedirectState{From: "/dashboard"},
	}, redirects[0])
	assert.Equal(t, domain.AuthUnauthenticated, f.guard.State())
	assert.Equal(t, 1, f.accessor.removals)

	view := f.guard.View()
	assert.Equal(t, domain.ViewOutlet, view.Kind)
	assert.Equal(t, "/auth", view.Path)
}

func TestGuard_AuthSubtreeIsExempt(t *testing.T) {
	f := newFixture(t, false)
	f.mount(t, "/auth/login")

	assert.Empty(t, f.history.All())
	assert.Equal(t, domain.AuthUnauthenticated, f.guard.State())
	assert.Equal(t, domain.ViewOutlet, f.guard.View().Kind)
	assert.Zero(t, f.accessor.removals)
}

func TestGuard_AuthenticatedRendersOutlet(t *testing.T) {
	f := newFixture(t, true)
	f.mount(t, "/dashboard")

	assert.Empty(t, f.history.All())
	view := f.guard.View()
	assert.Equal(t, domain.ViewOutlet, view.Kind)
	assert.Equal(t, "authenticated", view.State)
	assert.Nil(t, view.Redirect)
}

func TestGuard_LogoutSignalSkipsTokenRead(t *testing.T) {
	f := newFixture(t, true)
	f.mount(t, "/dashboard")
	require.Equal(t, 1, f.accessor.readCount())

	f.signals.Dispatch()

	require.Eventually(t, func() bool {
		return f.guard.State() == domain.AuthUnauthenticated
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, f.accessor.readCount())

	redirects := f.history.All()
	require.Len(t, redirects, 1)
	assert.Equal(t, "/dashboard", redirects[0].State.From)
}

func TestGuard_StorageEventsFilteredByKey(t *testing.T) {
	f := newFixture(t, true)
	f.mount(t, "/dashboard")
	ctx := context.Background()

	require.NoError(t, f.store.Set(ctx, "unrelated", "x"))
	require.NoError(t, f.store.Set(ctx, domain.TokenKey, "abc"))

	// Events are handled in order, so once the token event was read the
	// unrelated one has been skipped.
	require.Eventually(t, func() bool {
		return f.accessor.readCount() == 2
	}, time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool {
		return f.accessor.readCount() > 2
	}, 50*time.Millisecond, 5*time.Millisecond)
}

func TestGuard_StorageTokenRemovalRedirects(t *testing.T) {
	f := newFixture(t, true)
	f.mount(t, "/reports")
	ctx := context.Background()

	require.NoError(t, f.store.Set(ctx, domain.TokenKey, "abc"))
	require.Eventually(t, func() bool { return f.accessor.readCount() == 2 }, time.Second, 5*time.Millisecond)

	f.accessor.set(false)
	require.NoError(t, f.store.Delete(ctx, domain.TokenKey))

	require.Eventually(t, func() bool {
		return len(f.history.All()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "/reports", f.history.All()[0].State.From)
}

func TestGuard_LogoutKeyTriggersRecheck(t *testing.T) {
	f := newFixture(t, true)
	f.mount(t, "/dashboard")

	f.accessor.set(false)
	require.NoError(t, f.store.Set(context.Background(), domain.LogoutKey, "1700000000000"))

	require.Eventually(t, func() bool {
		return f.guard.State() == domain.AuthUnauthenticated
	}, time.Second, 5*time.Millisecond)
	assert.Len(t, f.history.All(), 1)
}

func TestGuard_IntervalRecheck(t *testing.T) {
	f := newFixture(t, true)
	f.mount(t, "/dashboard")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, f.clock.BlockUntilContext(ctx, 1))

	f.accessor.set(false)
	f.clock.Advance(DefaultInterval)

	require.Eventually(t, func() bool {
		return f.guard.State() == domain.AuthUnauthenticated
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, f.accessor.readCount())
	assert.Len(t, f.history.All(), 1)
}

func TestGuard_UnchangedStateDoesNotRedirectAgain(t *testing.T) {
	f := newFixture(t, false)
	f.mount(t, "/dashboard")
	require.Len(t, f.history.All(), 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, f.clock.BlockUntilContext(ctx, 1))
	f.clock.Advance(DefaultInterval)

	require.Eventually(t, func() bool { return f.accessor.readCount() == 2 }, time.Second, 5*time.Millisecond)
	assert.Len(t, f.history.All(), 1)
}

func TestGuard_NavigateOutOfAuthSubtree(t *testing.T) {
	f := newFixture(t, false)
	f.mount(t, "/auth")
	require.Empty(t, f.history.All())

	require.NoError(t, f.guard.Navigate("/settings"))
	redirects := f.history.All()
	require.Len(t, redirects, 1)
	assert.Equal(t, "/settings", redirects[0].State.From)

	// Staying on the same path renders nothing new.
	require.NoError(t, f.guard.Navigate("/auth"))
	assert.Len(t, f.history.All(), 1)
}

func TestGuard_UnmountReleasesListeners(t *testing.T) {
	f := newFixture(t, true)
	f.mount(t, "/dashboard")

	f.guard.Unmount()
	reads := f.accessor.readCount()

	f.signals.Dispatch()
	require.NoError(t, f.store.Set(context.Background(), domain.TokenKey, "abc"))
	f.clock.Advance(2 * DefaultInterval)

	assert.Never(t, func() bool {
		return f.accessor.readCount() != reads || f.guard.State() != domain.AuthAuthenticated
	}, 50*time.Millisecond, 5*time.Millisecond)
	assert.ErrorIs(t, f.guard.Navigate("/other"), domain.ErrGuardUnmounted)
}

func TestGuard_CustomAuthRoute(t *testing.T) {
	accessor := &fakeAccessor{}
	history := NewHistory()
	g := New(accessor, nil, history,
		WithAuthRoute("/login"),
		WithClock(clockwork.NewFakeClock()),
	)
	t.Cleanup(g.Unmount)

	require.NoError(t, g.Mount(context.Background(), "/login?next=%2Fdashboard"))
	assert.Empty(t, history.All())

	require.NoError(t, g.Navigate("/loginx"))
	redirects := history.All()
	require.Len(t, redirects, 1)
	assert.Equal(t, "/login", redirects[0].To)
}

type countingStore struct {
	*memory.TokenStore
	mu   sync.Mutex
	gets int
}

func (c *countingStore) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	c.gets++
	c.mu.Unlock()
	return c.TokenStore.Get(ctx, key)
}

func (c *countingStore) getCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gets
}

func TestGuard_OwnTokenRemovalIsNotReread(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTokenStore("tab")
	require.NoError(t, store.Set(ctx, domain.TokenKey, "abc"))
	counting := &countingStore{TokenStore: store}

	signals := NewSignals()
	accessor := auth.New([]repository.TokenStore{counting}, signals, auth.Config{}, clockwork.NewFakeClock(), nil)
	history := NewHistory()
	g := New(accessor, signals, history,
		WithStorage(store),
		WithClock(clockwork.NewFakeClock()),
	)
	t.Cleanup(g.Unmount)

	require.NoError(t, g.Mount(ctx, "/dashboard"))
	require.Equal(t, 1, counting.getCount())

	signals.Dispatch()

	require.Eventually(t, func() bool {
		return len(history.All()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, domain.AuthUnauthenticated, g.State())

	_, err := store.Get(ctx, domain.TokenKey)
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)

	assert.Never(t, func() bool {
		return counting.getCount() != 1
	}, 50*time.Millisecond, 5*time.Millisecond)
}

package monitor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeLocal struct {
	size int
	err  error
}

func (f fakeLocal) Size() (int, error) { return f.size, f.err }

type fakeWorker int

func (f fakeWorker) Pending() int { return int(f) }

func TestMonitor_RefreshReportsDependencies(t *testing.T) {
	m := New(Targets{
		Postgres: func(context.Context) error { return nil },
		Redis:    func(context.Context) error { return errors.New("connection refused") },
		Local:    fakeLocal{size: 2},
		Worker:   fakeWorker(3),
	}, 0, nil)

	m.Refresh()
	status := m.GetStatus()

	assert.Equal(t, Dependency{Enabled: true, Online: true}, status.PostgreSQL)
	assert.Equal(t, Dependency{Enabled: true, Online: false}, status.Redis)
	assert.Equal(t, Dependency{Enabled: true, Online: true}, status.LocalStore)
	assert.Equal(t, 2, status.LocalKeys)
	assert.Equal(t, 3, status.PendingUnits)
	assert.False(t, status.Healthy())
	assert.False(t, m.IsOnline())
}

func TestMonitor_UnconfiguredTargetsAreHealthy(t *testing.T) {
	m := New(Targets{}, 0, nil)
	m.Refresh()

	status := m.GetStatus()
	assert.False(t, status.Redis.Enabled)
	assert.True(t, status.Healthy())
	assert.False(t, status.LastCheck.IsZero())

	m.Start()
	m.Stop()
	m.Stop()
}

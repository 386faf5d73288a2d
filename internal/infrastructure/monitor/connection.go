package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// PingFunc checks one remote dependency.
type PingFunc func(ctx context.Context) error

// LocalStore is the file-backed token medium.
type LocalStore interface {
	Size() (int, error)
}

// PendingCounter exposes the notification worker's backlog.
type PendingCounter interface {
	Pending() int
}

// Targets lists what the monitor probes; nil entries are skipped.
type Targets struct {
	Postgres PingFunc
	Redis    PingFunc
	Local    LocalStore
	Worker   PendingCounter
}

type Monitor struct {
	targets Targets

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(targets Targets, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		targets:  targets,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Healthy()
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Refresh()
	for {
		select {
		case <-ticker.C:
			m.Refresh()
		case <-m.stopCh:
			return
		}
	}
}

// Refresh probes every target once.
func (m *Monitor) Refresh() {
	localOK, localKeys := m.checkLocal()
	status := Status{
		PostgreSQL: m.ping("postgres", m.targets.Postgres, 3*time.Second),
		Redis:      m.ping("redis", m.targets.Redis, 2*time.Second),
		LocalStore: localOK,
		LocalKeys:  localKeys,
		LastCheck:  time.Now(),
	}
	if m.targets.Worker != nil {
		status.PendingUnits = m.targets.Worker.Pending()
	}

	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
}

func (m *Monitor) ping(name string, fn PingFunc, timeout time.Duration) Dependency {
	if fn == nil {
		return Dependency{}
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		m.logger.Warn("dependency check failed", zap.String("dependency", name), zap.Error(err))
		return Dependency{Enabled: true}
	}
	return Dependency{Enabled: true, Online: true}
}

func (m *Monitor) checkLocal() (Dependency, int) {
	if m.targets.Local == nil {
		return Dependency{}, 0
	}
	size, err := m.targets.Local.Size()
	if err != nil {
		m.logger.Warn("local store size check failed", zap.Error(err))
		return Dependency{Enabled: true}, size
	}
	return Dependency{Enabled: true, Online: true}, size
}

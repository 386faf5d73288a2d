package windows

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Janitor periodically forgets windows that stopped sending heartbeats.
type Janitor struct {
	registry *Registry
	ttl      time.Duration
	cron     *cron.Cron
	logger   *zap.Logger
}

func NewJanitor(registry *Registry, interval, ttl time.Duration, logger *zap.Logger) *Janitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	j := &Janitor{
		registry: registry,
		ttl:      ttl,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger,
	}

	if _, err := j.cron.AddFunc(fmt.Sprintf("@every %s", interval), func() { j.Sweep() }); err != nil {
		logger.Error("window janitor schedule rejected", zap.Duration("interval", interval), zap.Error(err))
	}
	return j
}

// Start launches the cron scheduler.
func (j *Janitor) Start() {
	j.cron.Start()
	j.logger.Info("window janitor started")
}

// Stop waits for a running sweep or ctx, whichever ends first.
func (j *Janitor) Stop(ctx context.Context) {
	stopCtx := j.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	j.logger.Info("window janitor stopped")
}

// Sweep prunes stale windows once.
func (j *Janitor) Sweep() int {
	cutoff := j.registry.clock.Now().UTC().Add(-j.ttl)
	removed := j.registry.Prune(cutoff)
	if removed > 0 {
		j.logger.Debug("pruned stale windows", zap.Int("count", removed))
	}
	return removed
}

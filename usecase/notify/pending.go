package notify

import (
	"context"
	"sync"

	"github.com/fastygo/dashboard/internal/metrics"
)

// Pending counts units of work that must settle before the worker may idle.
type Pending struct {
	mu      sync.Mutex
	count   int
	waiters []chan struct{}
}

func NewPending() *Pending {
	return &Pending{}
}

// Add registers one unit.
func (p *Pending) Add() {
	p.mu.Lock()
	p.count++
	p.mu.Unlock()
	metrics.PendingUnits.Inc()
}

// Done settles one unit.
func (p *Pending) Done() {
	p.mu.Lock()
	if p.count == 0 {
		p.mu.Unlock()
		panic("notify: Pending.Done without Add")
	}
	p.count--
	var waiters []chan struct{}
	if p.count == 0 {
		waiters = p.waiters
		p.waiters = nil
	}
	p.mu.Unlock()

	metrics.PendingUnits.Dec()
	for _, ch := range waiters {
		close(ch)
	}
}

// Len returns the number of unsettled units.
func (p *Pending) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

// Wait blocks until no unit is pending or ctx is done.
func (p *Pending) Wait(ctx context.Context) error {
	p.mu.Lock()
	if p.count == 0 {
		p.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	p.waiters = append(p.waiters, ch)
	p.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

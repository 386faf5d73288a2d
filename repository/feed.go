package repository

import (
	"context"
	"sync"
)

const feedBuffer = 16

// Feed fans storage events out to in-process subscribers.
type Feed struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan StorageEvent
}

// NewFeed returns an empty feed.
func NewFeed() *Feed {
	return &Feed{subs: make(map[int]chan StorageEvent)}
}

// Subscribe registers a subscriber. The subscription ends when ctx is done
// or Close is called.
func (f *Feed) Subscribe(ctx context.Context) *Subscription {
	ch := make(chan StorageEvent, feedBuffer)

	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = ch
	f.mu.Unlock()

	release := func() {
		f.mu.Lock()
		if c, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(c)
		}
		f.mu.Unlock()
	}

	sub := NewSubscription(ch, release)
	if ctx != nil && ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			sub.Close()
		}()
	}
	return sub
}

// Publish delivers ev to every subscriber. Slow subscribers miss events.
func (f *Feed) Publish(ev StorageEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Len returns the number of active subscribers.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

package guard

import "sync"

// Signals is the in-page logout event bus. Any code holding it can raise the
// logout signal; every mounted guard observes it.
type Signals struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan struct{}
}

func NewSignals() *Signals {
	return &Signals{subs: make(map[int]chan struct{})}
}

// Subscribe returns a channel that receives one value per dispatched signal
// (bursts coalesce) and a function releasing the subscription.
func (s *Signals) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Dispatch raises the logout signal.
func (s *Signals) Dispatch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

package guard

import (
	"sync"

	"github.com/fastygo/dashboard/domain"
)

// History records the replace-navigations a guard performs.
type History struct {
	mu        sync.Mutex
	redirects []domain.Redirect
	pending   int
}

func NewHistory() *History {
	return &History{}
}

func (h *History) Replace(to string, state domain.RedirectState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.redirects = append(h.redirects, domain.Redirect{To: to, Replace: true, State: state})
	h.pending++
}

// All returns every recorded redirect.
func (h *History) All() []domain.Redirect {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domain.Redirect(nil), h.redirects...)
}

// Drain returns redirects recorded since the previous Drain.
func (h *History) Drain() []domain.Redirect {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pending == 0 {
		return nil
	}
	out := append([]domain.Redirect(nil), h.redirects[len(h.redirects)-h.pending:]...)
	h.pending = 0
	return out
}

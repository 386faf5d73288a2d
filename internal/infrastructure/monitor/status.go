package monitor

import "time"

// Status is the last observed health of the service's dependencies. A
// dependency that is not configured reports Enabled=false.
type Status struct {
	PostgreSQL   Dependency `json:"postgresql"`
	Redis        Dependency `json:"redis"`
	LocalStore   Dependency `json:"local_store"`
	LocalKeys    int        `json:"local_keys"`
	PendingUnits int        `json:"pending_units"`
	LastCheck    time.Time  `json:"last_check"`
}

type Dependency struct {
	Enabled bool `json:"enabled"`
	Online  bool `json:"online"`
}

// Healthy reports whether every enabled dependency is online.
func (s Status) Healthy() bool {
	for _, d := range []Dependency{s.PostgreSQL, s.Redis, s.LocalStore} {
		if d.Enabled && !d.Online {
			return false
		}
	}
	return true
}

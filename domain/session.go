package domain

import (
	"strings"
	"time"
)

// Storage keys observed by the session guard.
const (
	TokenKey  = "authToken"
	LogoutKey = "logout"
)

// DefaultAuthRoute is the route subtree exempt from gating.
const DefaultAuthRoute = "/auth"

// Session describes a credential issued at login and persisted under TokenKey.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthState is the guard's verdict about the current session.
type AuthState int

const (
	AuthUnknown AuthState = iota
	AuthAuthenticated
	AuthUnauthenticated
)

func (s AuthState) String() string {
	switch s {
	case AuthAuthenticated:
		return "authenticated"
	case AuthUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// AuthStateFrom maps a presence check onto a state.
func AuthStateFrom(authenticated bool) AuthState {
	if authenticated {
		return AuthAuthenticated
	}
	return AuthUnauthenticated
}

// Phase tracks whether the guard has completed its first check.
type Phase int

const (
	PhaseChecking Phase = iota
	PhaseChecked
)

func (p Phase) String() string {
	if p == PhaseChecked {
		return "checked"
	}
	return "checking"
}

// ViewKind enumerates what a guard renders.
type ViewKind string

const (
	ViewLoading  ViewKind = "loading"
	ViewOutlet   ViewKind = "outlet"
	ViewRedirect ViewKind = "redirect"
)

// RedirectState carries the location the user attempted to reach.
type RedirectState struct {
	From string `json:"from"`
}

// Redirect is a history-replacing navigation produced by the guard.
type Redirect struct {
	To      string        `json:"to"`
	Replace bool          `json:"replace"`
	State   RedirectState `json:"state"`
}

// View is the guard's render output for the current location.
type View struct {
	Kind     ViewKind  `json:"kind"`
	Path     string    `json:"path"`
	State    string    `json:"state"`
	Redirect *Redirect `json:"redirect,omitempty"`
}

// UnderRoute reports whether path is route itself or nested beneath it.
func UnderRoute(path, route string) bool {
	route = strings.TrimRight(route, "/")
	if route == "" {
		return true
	}
	if path == route {
		return true
	}
	return strings.HasPrefix(path, route+"/") || strings.HasPrefix(path, route+"?")
}

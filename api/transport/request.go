package transport

import "github.com/fastygo/dashboard/domain"

type AuthLoginRequest struct {
	UserID string `json:"user_id"`
	TTL    int    `json:"ttl_seconds"`
}

type GuardMountRequest struct {
	Path string `json:"path"`
}

type GuardNavigateRequest struct {
	Path string `json:"path"`
}

// PushRequest is an inbound push message. Async hands it to the queue
// instead of waiting for the display to settle.
type PushRequest struct {
	domain.PushMessage
	Async bool `json:"async,omitempty"`
}

type WindowRegisterRequest struct {
	URL        string `json:"url"`
	Controlled bool   `json:"controlled"`
	Focusable  *bool  `json:"focusable,omitempty"`
}

type WindowHeartbeatRequest struct {
	URL     string `json:"url"`
	Visible bool   `json:"visible"`
}

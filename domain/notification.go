package domain

import "time"

// Fixed presentation attributes of every displayed notification.
const (
	DefaultNotificationTitle = "New Notification"
	DefaultNotificationBody  = "You have a new update"
	DefaultNotificationTag   = "default"
	NotificationIcon         = "/icon-192x192.png"
	NotificationBadge        = "/badge-72x72.png"

	// TaskIDKey is the data key that ties a notification to a task.
	TaskIDKey = "taskId"
)

// NotificationVibrate is the vibration pattern in milliseconds.
var NotificationVibrate = []int{200, 100, 200}

// PushContent is the optional presentation block of a push message.
type PushContent struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
}

// PushMessage is an inbound push payload.
type PushMessage struct {
	Notification *PushContent     `json:"notification,omitempty"`
	Data         map[string]string `json:"data,omitempty"`
}

// Notification is a display request and, once shown, the record kept until
// it is clicked or dismissed.
type Notification struct {
	Title              string            `json:"title"`
	Body               string            `json:"body"`
	Icon               string            `json:"icon"`
	Badge              string            `json:"badge"`
	Tag                string            `json:"tag"`
	Data               map[string]string `json:"data,omitempty"`
	RequireInteraction bool              `json:"requireInteraction"`
	Vibrate            []int             `json:"vibrate"`
	ShownAt            time.Time         `json:"shown_at"`
}

// TaskID returns the task identifier carried in the notification data.
func (n *Notification) TaskID() string {
	if n == nil || n.Data == nil {
		return ""
	}
	return n.Data[TaskIDKey]
}

// Window is an open application window or tab.
type Window struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	Focused    bool      `json:"focused"`
	Visible    bool      `json:"visible"`
	Controlled bool      `json:"controlled"`
	Focusable  bool      `json:"focusable"`
	Opened     bool      `json:"opened"`
	OpenedAt   time.Time `json:"opened_at"`
	LastSeen   time.Time `json:"last_seen"`
}

// ClickOutcome classifies what a notification click did.
type ClickOutcome string

const (
	ClickFocused ClickOutcome = "focused"
	ClickOpened  ClickOutcome = "opened"
	ClickIgnored ClickOutcome = "ignored"
)

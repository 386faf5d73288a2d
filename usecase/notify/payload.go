package notify

import (
	"net/url"

	"github.com/fastygo/dashboard/domain"
)

// Click destinations.
const (
	TasksPath     = "/tasks"
	DashboardPath = "/dashboard"
)

// Resolve turns a push message into a display request. Title and body fall
// back from the notification block to the data map to fixed defaults; the
// tag is the task id so notifications about one task replace each other.
func Resolve(msg domain.PushMessage) domain.Notification {
	var content domain.PushContent
	if msg.Notification != nil {
		content = *msg.Notification
	}

	data := make(map[string]string, len(msg.Data))
	for k, v := range msg.Data {
		data[k] = v
	}

	tag := data[domain.TaskIDKey]
	if tag == "" {
		tag = domain.DefaultNotificationTag
	}

	return domain.Notification{
		Title:              firstNonEmpty(content.Title, data["title"], domain.DefaultNotificationTitle),
		Body:               firstNonEmpty(content.Body, data["body"], domain.DefaultNotificationBody),
		Icon:               domain.NotificationIcon,
		Badge:              domain.NotificationBadge,
		Tag:                tag,
		Data:               data,
		RequireInteraction: true,
		Vibrate:            append([]int(nil), domain.NotificationVibrate...),
	}
}

// ClickTarget returns the in-app URL a click on a notification with data
// should open.
func ClickTarget(data map[string]string) string {
	if id := data[domain.TaskIDKey]; id != "" {
		return TasksPath + "?" + url.Values{domain.TaskIDKey: []string{id}}.Encode()
	}
	return DashboardPath
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

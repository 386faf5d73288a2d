package queue

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/fastygo/dashboard/domain"
)

// Task type constants
const (
	TypePushDeliver = "push:deliver"
	TypePushClick   = "push:click"
)

// ClickPayload identifies the displayed notification that was clicked.
type ClickPayload struct {
	Tag string `json:"tag"`
}

// NewDeliverTask wraps a push message. Delivery is never retried.
func NewDeliverTask(msg domain.PushMessage) (*asynq.Task, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypePushDeliver, payload, asynq.MaxRetry(0)), nil
}

// NewClickTask wraps a click on the notification with tag.
func NewClickTask(tag string) (*asynq.Task, error) {
	payload, err := json.Marshal(ClickPayload{Tag: tag})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypePushClick, payload, asynq.MaxRetry(0)), nil
}

// ParseDeliverPayload parses a push message from a task.
func ParseDeliverPayload(task *asynq.Task) (domain.PushMessage, error) {
	var msg domain.PushMessage
	if err := json.Unmarshal(task.Payload(), &msg); err != nil {
		return msg, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return msg, nil
}

// ParseClickPayload parses a click payload from a task.
func ParseClickPayload(task *asynq.Task) (ClickPayload, error) {
	var payload ClickPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if payload.Tag == "" {
		return payload, fmt.Errorf("click payload without tag")
	}
	return payload, nil
}

package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fastygo/dashboard/domain"
)

type fakeDeliverer struct {
	delivered []domain.PushMessage
	clicked   []domain.Notification
	err       error
}

func (f *fakeDeliverer) Deliver(_ context.Context, msg domain.PushMessage) <-chan error {
	f.delivered = append(f.delivered, msg)
	return settled(f.err)
}

func (f *fakeDeliverer) Click(_ context.Context, n domain.Notification) <-chan error {
	f.clicked = append(f.clicked, n)
	return settled(f.err)
}

func settled(err error) <-chan error {
	ch := make(chan error, 1)
	ch <- err
	close(ch)
	return ch
}

type fakeLookup map[string]domain.Notification

func (f fakeLookup) Get(_ context.Context, tag string) (*domain.Notification, error) {
	n, ok := f[tag]
	if !ok {
		return nil, domain.ErrNotificationNotFound
	}
	return &n, nil
}

func newTestConsumer(d Deliverer, lookup NotificationLookup) *Consumer {
	return &Consumer{worker: d, lookup: lookup, logger: zap.NewNop()}
}

func TestDeliverTask_RoundTrip(t *testing.T) {
	msg := domain.PushMessage{
		Notification: &domain.PushContent{Title: "hi"},
		Data:         map[string]string{"taskId": "T1"},
	}
	task, err := NewDeliverTask(msg)
	require.NoError(t, err)
	assert.Equal(t, TypePushDeliver, task.Type())

	parsed, err := ParseDeliverPayload(task)
	require.NoError(t, err)
	assert.Equal(t, msg, parsed)
}

func TestClickTask_RequiresTag(t *testing.T) {
	task, err := NewClickTask("T1")
	require.NoError(t, err)
	payload, err := ParseClickPayload(task)
	require.NoError(t, err)
	assert.Equal(t, "T1", payload.Tag)

	_, err = ParseClickPayload(asynq.NewTask(TypePushClick, []byte(`{}`)))
	assert.Error(t, err)
}

func TestConsumer_HandleDeliver(t *testing.T) {
	d := &fakeDeliverer{}
	c := newTestConsumer(d, fakeLookup{})

	task, err := NewDeliverTask(domain.PushMessage{Data: map[string]string{"taskId": "T1"}})
	require.NoError(t, err)
	require.NoError(t, c.HandleDeliver(context.Background(), task))
	require.Len(t, d.delivered, 1)
	assert.Equal(t, "T1", d.delivered[0].Data["taskId"])

	err = c.HandleDeliver(context.Background(), asynq.NewTask(TypePushDeliver, []byte("not json")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestConsumer_DeliveryFailureIsNotRetried(t *testing.T) {
	d := &fakeDeliverer{err: errors.New("display refused")}
	c := newTestConsumer(d, fakeLookup{})

	task, err := NewDeliverTask(domain.PushMessage{})
	require.NoError(t, err)
	err = c.HandleDeliver(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Contains(t, err.Error(), "display refused")
}

func TestConsumer_HandleClick(t *testing.T) {
	d := &fakeDeliverer{}
	c := newTestConsumer(d, fakeLookup{"T1": {Tag: "T1", Data: map[string]string{"taskId": "T1"}}})

	task, err := NewClickTask("T1")
	require.NoError(t, err)
	require.NoError(t, c.HandleClick(context.Background(), task))
	require.Len(t, d.clicked, 1)
	assert.Equal(t, "T1", d.clicked[0].Tag)

	missing, err := NewClickTask("T2")
	require.NoError(t, err)
	assert.ErrorIs(t, c.HandleClick(context.Background(), missing), asynq.SkipRetry)
}

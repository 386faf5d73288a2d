package queue

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/fastygo/dashboard/domain"
)

// Deliverer is the notification worker as seen by the queue.
type Deliverer interface {
	Deliver(ctx context.Context, msg domain.PushMessage) <-chan error
	Click(ctx context.Context, n domain.Notification) <-chan error
}

// NotificationLookup resolves a displayed notification by tag.
type NotificationLookup interface {
	Get(ctx context.Context, tag string) (*domain.Notification, error)
}

// Consumer feeds queued push traffic into the notification worker. It runs a
// single asynq worker so messages reach the notification worker one by one.
type Consumer struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	worker Deliverer
	lookup NotificationLookup
	logger *zap.Logger
}

func NewConsumer(opt asynq.RedisConnOpt, worker Deliverer, lookup NotificationLookup, logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Consumer{
		worker: worker,
		lookup: lookup,
		logger: logger,
		mux:    asynq.NewServeMux(),
	}
	c.server = asynq.NewServer(opt, asynq.Config{
		Concurrency: 1,
		Queues:      map[string]int{"default": 1},
		Logger:      &asynqLogger{log: logger.Sugar()},
	})
	c.mux.HandleFunc(TypePushDeliver, c.HandleDeliver)
	c.mux.HandleFunc(TypePushClick, c.HandleClick)
	return c
}

// Start begins processing in the background.
func (c *Consumer) Start() error {
	return c.server.Start(c.mux)
}

// Shutdown stops fetching tasks and waits for the active one.
func (c *Consumer) Shutdown() {
	c.server.Shutdown()
}

// HandleDeliver displays a queued push message and waits for the display to
// finish.
func (c *Consumer) HandleDeliver(ctx context.Context, t *asynq.Task) error {
	msg, err := ParseDeliverPayload(t)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	return c.await(ctx, c.worker.Deliver(ctx, msg))
}

// HandleClick routes a queued click.
func (c *Consumer) HandleClick(ctx context.Context, t *asynq.Task) error {
	payload, err := ParseClickPayload(t)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	n, err := c.lookup.Get(ctx, payload.Tag)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	return c.await(ctx, c.worker.Click(ctx, *n))
}

func (c *Consumer) await(ctx context.Context, done <-chan error) error {
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// asynqLogger adapts zap to asynq's logger interface.
type asynqLogger struct {
	log *zap.SugaredLogger
}

func (l *asynqLogger) Debug(args ...interface{}) { l.log.Debug(args...) }
func (l *asynqLogger) Info(args ...interface{})  { l.log.Info(args...) }
func (l *asynqLogger) Warn(args ...interface{})  { l.log.Warn(args...) }
func (l *asynqLogger) Error(args ...interface{}) { l.log.Error(args...) }
func (l *asynqLogger) Fatal(args ...interface{}) { l.log.Fatal(args...) }

package queue

import (
	"context"

	"github.com/hibiken/asynq"

	"github.com/fastygo/dashboard/domain"
)

// Publisher enqueues push traffic for the consumer.
type Publisher struct {
	client *asynq.Client
}

func NewPublisher(opt asynq.RedisConnOpt) *Publisher {
	return &Publisher{client: asynq.NewClient(opt)}
}

func (p *Publisher) PublishDeliver(ctx context.Context, msg domain.PushMessage) (string, error) {
	task, err := NewDeliverTask(msg)
	if err != nil {
		return "", err
	}
	info, err := p.client.EnqueueContext(ctx, task)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

func (p *Publisher) PublishClick(ctx context.Context, tag string) (string, error) {
	task, err := NewClickTask(tag)
	if err != nil {
		return "", err
	}
	info, err := p.client.EnqueueContext(ctx, task)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

func (p *Publisher) Close() error {
	return p.client.Close()
}

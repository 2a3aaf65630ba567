package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/hugh/go-storefront/internal/events"
	"github.com/hugh/go-storefront/pkg/crypto"
)

// Enqueuer is the part of *asynq.Client the publisher uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Publisher implements events.Publisher by enqueueing a mail task per event.
type Publisher struct {
	client    Enqueuer
	encryptor *crypto.Encryptor
	logger    *slog.Logger
}

var _ events.Publisher = (*Publisher)(nil)

func NewPublisher(client Enqueuer, encryptor *crypto.Encryptor, logger *slog.Logger) *Publisher {
	return &Publisher{
		client:    client,
		encryptor: encryptor,
		logger:    logger,
	}
}

func (p *Publisher) Publish(ctx context.Context, event events.Event) error {
	task, err := NewMailTask(event, p.encryptor)
	if err != nil {
		return err
	}

	info, err := p.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueueing %s: %w", task.Type(), err)
	}

	p.logger.Debug("enqueued mail task", "type", task.Type(), "task_id", info.ID, "queue", info.Queue)
	return nil
}

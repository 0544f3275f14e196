package sms

import (
	"context"
	"errors"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/servistore/servistore-backend/pkg/logger"
)

const publishTimeout = 10 * time.Second

// Enqueuer hands SMS tasks to the queue for asynchronous delivery.
type Enqueuer interface {
	Enqueue(ctx context.Context, phone, message string) error
}

type publisher interface {
	Publish(ctx context.Context, msg *pubsub.Message) publishResult
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

type enqueuer struct {
	pub  publisher
	logg *logger.Logger
}

// NewEnqueuer wraps the SMS topic publisher.
func NewEnqueuer(pub *pubsub.Publisher, logg *logger.Logger) (Enqueuer, error) {
	if pub == nil {
		return nil, fmt.Errorf("sms publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &enqueuer{pub: &gcpPublisher{Publisher: pub}, logg: logg}, nil
}

func (e *enqueuer) Enqueue(ctx context.Context, phone, message string) error {
	task := Task{Phone: phone, Message: message}
	data, err := task.Encode()
	if err != nil {
		return err
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	result := e.pub.Publish(publishCtx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"task_type": TaskType},
	})
	if result == nil {
		return errors.New("sms publisher returned no result")
	}
	id, err := result.Get(publishCtx)
	if err != nil {
		return fmt.Errorf("publishing sms task: %w", err)
	}

	e.logg.Info(e.logg.WithField(ctx, "message_id", id), "sms task enqueued")
	return nil
}

type gcpPublisher struct {
	*pubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *pubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return p.Publisher.Publish(ctx, msg)
}

package sms

import (
	"context"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/servistore/servistore-backend/pkg/logger"
)

// Consumer drains the SMS topic and delivers each task through the provider.
type Consumer struct {
	subscription *pubsub.Subscriber
	provider     Provider
	logg         *logger.Logger
}

// NewConsumer builds the SMS worker loop.
func NewConsumer(subscription *pubsub.Subscriber, provider Provider, logg *logger.Logger) (*Consumer, error) {
	if subscription == nil {
		return nil, fmt.Errorf("sms subscription required")
	}
	if provider == nil {
		return nil, fmt.Errorf("sms provider required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		subscription: subscription,
		provider:     provider,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg.ID, msg.Attributes, msg.Data)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, messageID string, attributes map[string]string, data []byte) processResult {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": messageID,
		"task_type":  attributes["task_type"],
	})

	if taskType, ok := attributes["task_type"]; ok && taskType != TaskType {
		c.logg.Info(logCtx, "skipping unknown task type")
		return processResult{ack: true}
	}

	task, err := DecodeTask(data)
	if err != nil {
		// Malformed tasks never become deliverable; drop them.
		c.logg.Error(logCtx, "invalid sms task", err)
		return processResult{ack: true}
	}

	logCtx = c.logg.WithField(logCtx, "phone", task.Phone)

	if err := c.provider.Send(ctx, task.Phone, task.Message); err != nil {
		var rejection *ProviderRejectionError
		if errors.As(err, &rejection) {
			// Provider refused the message; redelivery would refuse again.
			c.logg.Error(logCtx, "sms rejected by provider", err)
			return processResult{ack: true}
		}
		c.logg.Error(logCtx, "sms delivery failed", err)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "sms delivered")
	return processResult{ack: true}
}

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/servistore/servistore-backend/internal/sms"
	"github.com/servistore/servistore-backend/pkg/config"
	"github.com/servistore/servistore-backend/pkg/logger"
	"github.com/servistore/servistore-backend/pkg/pubsub"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "sms-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "sms-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	provider, err := sms.NewKavenegarClient(cfg.SMS)
	if err != nil {
		logg.Error(context.Background(), "failed to create sms provider", err)
		os.Exit(1)
	}

	consumer, err := sms.NewConsumer(pubsubClient.SMSSubscription(), provider, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create sms consumer", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "starting sms worker")

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "sms worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "sms worker shutting down gracefully")
}

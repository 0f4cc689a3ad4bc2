package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/BearBump/PizzaTrack/config"
	"github.com/BearBump/PizzaTrack/internal/broker/kafka"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(os.Getenv("configPath"))
	if err != nil {
		panic(fmt.Sprintf("config parse error, %v", err))
	}

	topic := cfg.Kafka.NotificationsTopicName
	if topic == "" {
		topic = "pizza.notifications"
	}
	group := cfg.PizzaTrack.KafkaConsumerGroup
	if group == "" {
		group = "pizza-toasts"
	}

	brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
	consumer := kafka.NewConsumer(brokers, topic, group)
	defer func() { _ = consumer.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	slog.Info("kafka consumer started", "topic", topic, "group", group)
	if err := RunToasts(ctx, consumer, slog.Default()); err != nil && !errors.Is(err, context.Canceled) {
		panic(err)
	}
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/SamBailey6194/boutique-ado-v1/internal/notify"
)

func main() {
	brokers := getEnv("KAFKA_BROKERS", "localhost:9092")
	apiKey := getEnv("SENDGRID_API_KEY", "")
	from := getEnv("DEFAULT_FROM_EMAIL", "orders@boutiqueado.example")

	sender := notify.NewSendGridSender(apiKey, from)
	consumer := notify.NewConsumer(sender, notify.ParseBrokers(brokers)...)
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("shutting down notifier...")
		cancel()
	}()

	log.Printf("notifier consuming %s from %s", notify.ConfirmationsTopic, brokers)
	consumer.Run(ctx)
	log.Println("notifier stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"thinktank-backend/cmd"
	"thinktank-backend/internal/database"
	"thinktank-backend/internal/documents"
	"thinktank-backend/internal/messaging"
	"thinktank-backend/internal/references"

	"github.com/caarlos0/env/v11"
)

type WorkerConfig struct {
	DatabaseURL string `env:"DATABASE_URL,notEmpty,required"`
	RabbitMQURL string `env:"RABBITMQ_URL,notEmpty,required"`

	cmd.StorageConfig
}

func main() {
	log.Println("Starting Worker Process...")

	cmd.LoadEnvFile()

	var cfg WorkerConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	objectStore, err := cmd.NewObjectStore(cfg.StorageConfig)
	if err != nil {
		log.Fatalf("Worker: Failed to create object store: %v", err)
	}

	reciever, err := messaging.NewRabbitMQReceiver(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}

	processor := documents.NewTaskProcessor(db, objectStore, reciever, references.NewResolver())
	go processor.Start()

	log.Println("Worker started. Waiting for tasks. Press Ctrl+C to exit.")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutdown signal received, stopping consumer...")
	processor.Stop()

	log.Println("Worker process stopped.")
}

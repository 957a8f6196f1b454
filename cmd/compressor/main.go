package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"bim-viewer-service/internal/compressor"
	"bim-viewer-service/internal/config"
	"bim-viewer-service/internal/queue"
	"bim-viewer-service/internal/repository"
	"bim-viewer-service/internal/storage"
)

// The compression worker runs as its own process so encoding load never
// competes with request handling.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}

	minioClient, err := storage.NewMinioClient(cfg)
	if err != nil {
		log.Fatalf("MinIO client initialization failed: %v", err)
	}
	store := storage.NewMinioStore(minioClient, cfg.MinioBucket)

	rabbit, err := queue.NewRabbitMQClient(cfg)
	if err != nil {
		log.Fatalf("RabbitMQ connection failed: %v", err)
	}
	defer rabbit.Close()

	// Declaring the topology here too lets the worker start before the server.
	if _, err := queue.NewCompressionProducer(rabbit.Channel); err != nil {
		log.Fatalf("Failed to declare compression topology: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := compressor.NewWorker(
		rabbit.Channel,
		store,
		repository.NewProjectRepository(db),
		compressor.NewTool(cfg.CompressorPath),
	)
	if err := worker.Start(ctx); err != nil {
		log.Fatalf("Failed to start compression worker: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Printf("Received signal %v, shutting down", sig)
}

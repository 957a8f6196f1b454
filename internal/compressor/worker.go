package compressor

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"

	"bim-viewer-service/internal/metrics"
	"bim-viewer-service/internal/queue"
	"bim-viewer-service/internal/repository"
	"bim-viewer-service/internal/storage"
)

// Worker consumes compression jobs, rewrites the uploaded GLB with the
// external encoder and records the compressed variant on the project.
// A failed job leaves the original model in service.
type Worker struct {
	channel  *amqp.Channel
	store    storage.ObjectStore
	projects repository.ProjectRepository
	tool     *Tool
}

// NewWorker wires a Worker to the broker channel, object store and
// project repository.
func NewWorker(channel *amqp.Channel, store storage.ObjectStore, projects repository.ProjectRepository, tool *Tool) *Worker {
	return &Worker{
		channel:  channel,
		store:    store,
		projects: projects,
		tool:     tool,
	}
}

// Start registers the consumer and processes jobs until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	msgs, err := w.channel.Consume(
		queue.CompressQueue,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return errors.Wrap(err, "failed to register compression consumer")
	}

	log.Printf("Compression worker listening on queue %s", queue.CompressQueue)

	go func() {
		for {
			select {
			case <-ctx.Done():
				log.Printf("Compression worker shutting down")
				return
			case msg, ok := <-msgs:
				if !ok {
					log.Printf("Compression queue channel closed")
					return
				}
				w.handle(ctx, msg)
			}
		}
	}()

	return nil
}

func (w *Worker) handle(ctx context.Context, msg amqp.Delivery) {
	var payload queue.CompressionRequestedMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		log.Printf("Compression job has invalid payload: %v", err)
		metrics.CompressionJobsTotal.WithLabelValues("invalid").Inc()
		_ = msg.Nack(false, false)
		return
	}

	projectID, err := uuid.Parse(payload.ProjectID)
	if err != nil {
		log.Printf("Compression job has invalid project id %q: %v", payload.ProjectID, err)
		metrics.CompressionJobsTotal.WithLabelValues("invalid").Inc()
		_ = msg.Nack(false, false)
		return
	}

	log.Printf("Compressing model %s for project %s", payload.ModelKey, projectID)
	if err := w.compress(ctx, projectID, payload.ModelKey, payload.ModelSize); err != nil {
		log.Printf("Compression failed for project %s: %v", projectID, err)
		metrics.CompressionJobsTotal.WithLabelValues("failed").Inc()
		_ = msg.Nack(false, false)
		return
	}

	metrics.CompressionJobsTotal.WithLabelValues("ok").Inc()
	_ = msg.Ack(false)
}

func (w *Worker) compress(ctx context.Context, projectID uuid.UUID, modelKey string, originalSize int64) error {
	reader, err := w.store.Get(ctx, modelKey)
	if err != nil {
		return errors.Wrap(err, "could not fetch model from storage")
	}
	defer reader.Close()

	tempFile, err := os.CreateTemp("", "compress-*.glb")
	if err != nil {
		return errors.Wrap(err, "could not create temporary file")
	}
	tempPath := tempFile.Name()
	defer os.Remove(tempPath)

	written, err := io.Copy(tempFile, reader)
	tempFile.Close()
	if err != nil {
		return errors.Wrap(err, "failed to write model to disk")
	}
	if originalSize == 0 {
		originalSize = written
	}

	outputPath, err := w.tool.Compress(tempPath)
	if err != nil {
		return errors.Wrap(err, "encoder failed")
	}
	defer os.Remove(outputPath)

	outFile, err := os.Open(outputPath)
	if err != nil {
		return errors.Wrap(err, "could not open compressed file")
	}
	defer outFile.Close()
	stat, err := outFile.Stat()
	if err != nil {
		return errors.Wrap(err, "could not stat compressed file")
	}

	compressedKey := CompressedKey(modelKey)
	if err := w.store.Put(ctx, compressedKey, outFile, stat.Size(), "model/gltf-binary"); err != nil {
		return errors.Wrap(err, "failed to upload compressed model")
	}

	project, err := w.projects.GetByID(projectID)
	if err != nil {
		// Project deleted while the job was queued; drop the orphan file.
		_ = w.store.Remove(ctx, compressedKey)
		return errors.Wrap(err, "project no longer exists")
	}
	project.CompressedKey = compressedKey
	if err := w.projects.Update(project); err != nil {
		return errors.Wrap(err, "failed to record compressed model")
	}

	if originalSize > 0 {
		metrics.CompressionRatio.Observe(float64(stat.Size()) / float64(originalSize))
	}
	log.Printf("Compressed %s: %d -> %d bytes", modelKey, originalSize, stat.Size())
	return nil
}

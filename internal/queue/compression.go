package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ModelExchange = "model.exchange"

	// CompressQueue carries requests for the compression worker.
	CompressQueue      = "model.compress"
	CompressRoutingKey = "model.compress"
)

// CompressionRequestedMessage asks the worker to rewrite an uploaded model
// into a smaller encoded form.
type CompressionRequestedMessage struct {
	ProjectID string `json:"project_id"`
	ModelKey  string `json:"model_key"` // Object key of the uploaded GLB
	ModelSize int64  `json:"model_size"`
	Timestamp int64  `json:"timestamp"`
}

// CompressionProducer publishes compression jobs.
type CompressionProducer struct {
	channel *amqp.Channel
}

// NewCompressionProducer declares the exchange and queue topology and
// returns a producer bound to the channel.
func NewCompressionProducer(channel *amqp.Channel) (*CompressionProducer, error) {
	err := channel.ExchangeDeclare(
		ModelExchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare model exchange: %w", err)
	}

	_, err = channel.QueueDeclare(
		CompressQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare compress queue: %w", err)
	}

	err = channel.QueueBind(CompressQueue, CompressRoutingKey, ModelExchange, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to bind compress queue: %w", err)
	}

	return &CompressionProducer{channel: channel}, nil
}

// PublishCompressionRequested enqueues a compression job for the worker.
func (p *CompressionProducer) PublishCompressionRequested(ctx context.Context, msg CompressionRequestedMessage) error {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().Unix()
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal compression message: %w", err)
	}

	err = p.channel.PublishWithContext(
		ctx,
		ModelExchange,
		CompressRoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish compression message: %w", err)
	}
	return nil
}

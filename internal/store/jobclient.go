package store

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"
)

var (
	_ Publisher = (*AsynqPublisher)(nil)
	_ Publisher = (*NoopPublisher)(nil)
)

// AsynqPublisher delivers notifications as asynq tasks. It does not retry a
// failed enqueue; MaxRetry only governs redelivery of enqueued tasks to workers.
type AsynqPublisher struct {
	client   *asynq.Client
	queue    string
	maxRetry int
}

// RedisOptions describes the Redis instance backing the queue.
type RedisOptions struct {
	Address  string
	Password string
	DB       int
}

func NewAsynqPublisher(redis RedisOptions, queue string, maxRetry int) (*AsynqPublisher, error) {
	if redis.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty for AsynqPublisher")
	}
	cli := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     redis.Address,
		Password: redis.Password,
		DB:       redis.DB,
	})
	return &AsynqPublisher{client: cli, queue: queue, maxRetry: maxRetry}, nil
}

func (p *AsynqPublisher) Close() error {
	return p.client.Close()
}

// Publish enqueues payload under the task type topic.
func (p *AsynqPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	if p.client == nil {
		return fmt.Errorf("AsynqPublisher client is not initialized")
	}
	opts := []asynq.Option{asynq.MaxRetry(p.maxRetry)}
	if p.queue != "" {
		opts = append(opts, asynq.Queue(p.queue))
	}
	info, err := p.client.EnqueueContext(ctx, asynq.NewTask(topic, payload), opts...)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", topic, err)
	}
	log.WithFields(log.Fields{"task_id": info.ID, "type": topic, "queue": info.Queue}).Debug("Enqueued task")
	return nil
}

// NoopPublisher drops every message. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(_ context.Context, topic string, payload []byte) error {
	log.WithField("type", topic).Warn("No broker configured, dropping notification")
	return nil
}

func (NoopPublisher) Close() error { return nil }

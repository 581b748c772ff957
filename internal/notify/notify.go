// Package notify publishes alerts about work that failed permanently.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Egonyu/tesotunes-next-web-sub012/internal/logger"
)

// Alert describes a task that will not be retried again.
type Alert struct {
	TaskID   string    `json:"task_id"`
	TaskType string    `json:"task_type"`
	Subject  string    `json:"subject"`
	Attempts int       `json:"attempts"`
	Error    string    `json:"error"`
	At       time.Time `json:"at"`
}

type Notifier interface {
	Alert(ctx context.Context, a Alert) error
}

// RedisNotifier publishes alerts as JSON on a pub/sub channel.
type RedisNotifier struct {
	client  *redis.Client
	channel string
}

// NewRedisNotifier connects to Redis and checks the connection.
func NewRedisNotifier(ctx context.Context, opts *redis.Options, channel string) (*RedisNotifier, error) {
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	return &RedisNotifier{client: client, channel: channel}, nil
}

func (n *RedisNotifier) Alert(ctx context.Context, a Alert) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	if err := n.client.Publish(ctx, n.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish alert: %w", err)
	}
	return nil
}

func (n *RedisNotifier) Close() error {
	return n.client.Close()
}

// LogNotifier writes alerts to the log. Used when Redis is not configured.
type LogNotifier struct {
	logger *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	if log == nil {
		log = logger.Default()
	}
	return &LogNotifier{logger: log.WithComponent("alerts")}
}

func (n *LogNotifier) Alert(_ context.Context, a Alert) error {
	n.logger.Error("Task failed permanently",
		"task_id", a.TaskID,
		"task_type", a.TaskType,
		"subject", a.Subject,
		"attempts", a.Attempts,
		"error", a.Error,
	)
	return nil
}

package signaling

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/medsync-org/medsync/config"
)

func NewRedisClient(cfg *config.Config, lifecycle fx.Lifecycle) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
	})

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return client
}

// redisRelay carries signaling messages over one redis pub/sub channel per
// call session.
type redisRelay struct {
	client *redis.Client
	logger *zap.SugaredLogger
}

func NewRedisRelay(client *redis.Client, logger *zap.SugaredLogger) Relay {
	return &redisRelay{
		client: client,
		logger: logger,
	}
}

func channelKey(sessionId string) string {
	return "signaling:" + sessionId
}

func (r *redisRelay) Publish(ctx context.Context, sessionId string, message Message) error {
	raw, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("error encoding signaling message: %w", err)
	}
	if err := r.client.Publish(ctx, channelKey(sessionId), raw).Err(); err != nil {
		return fmt.Errorf("error publishing signaling message: %w", err)
	}
	return nil
}

func (r *redisRelay) Subscribe(ctx context.Context, sessionId string) (<-chan Message, func(), error) {
	pubsub := r.client.Subscribe(ctx, channelKey(sessionId))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("error subscribing to signaling channel: %w", err)
	}

	messages := make(chan Message)
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			_ = pubsub.Close()
		})
	}

	go func() {
		defer close(messages)
		for raw := range pubsub.Channel() {
			var message Message
			if err := json.Unmarshal([]byte(raw.Payload), &message); err != nil {
				r.logger.Errorw("dropping malformed signaling message",
					"sessionId", sessionId, "error", err)
				continue
			}
			messages <- message
		}
	}()

	return messages, cancel, nil
}

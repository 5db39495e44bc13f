package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClients separates the blocking queue consumer from the alert pub/sub
// path. Queue carries the analysis job list (workers sit in BLPOP on it);
// PubSub carries the per-child alert channels the websocket hub subscribes
// to. Sharing one client would let a blocked pop starve alert delivery.
type RedisClients struct {
	Queue  *redis.Client
	PubSub *redis.Client
}

func NewRedisClients(redisURL string) (*RedisClients, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	queueClient, err := newPingedClient(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("redis queue client: %w", err)
	}

	pubsubOpt := *opt
	pubsubClient, err := newPingedClient(ctx, &pubsubOpt)
	if err != nil {
		queueClient.Close()
		return nil, fmt.Errorf("redis pubsub client: %w", err)
	}

	return &RedisClients{
		Queue:  queueClient,
		PubSub: pubsubClient,
	}, nil
}

func newPingedClient(ctx context.Context, opt *redis.Options) (*redis.Client, error) {
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func (r *RedisClients) Close() {
	r.Queue.Close()
	r.PubSub.Close()
}

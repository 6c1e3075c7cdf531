package sync

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
)

// RedisTransport implements DeltaTransport over a Redis list per target
// agent, for cross-process delivery when driftcortex agents run in
// separate processes or hosts. Enqueue RPUSHes, Dequeue/Requeue use
// LPOP/LPUSH so the list behaves as a FIFO exactly like
// InProcessTransport.
type RedisTransport struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisTransport returns a transport backed by client, namespacing
// queue keys under keyPrefix (e.g. "driftcortex:sync:").
func NewRedisTransport(client *redis.Client, keyPrefix string) *RedisTransport {
	return &RedisTransport{client: client, keyPrefix: keyPrefix}
}

func (t *RedisTransport) key(targetAgent string) string {
	return t.keyPrefix + targetAgent
}

func (t *RedisTransport) Enqueue(ctx context.Context, targetAgent string, delta Delta) error {
	b, err := json.Marshal(delta)
	if err != nil {
		return err
	}
	return t.client.RPush(ctx, t.key(targetAgent), b).Err()
}

func (t *RedisTransport) Dequeue(ctx context.Context, targetAgent string) (Delta, bool, error) {
	res, err := t.client.LPop(ctx, t.key(targetAgent)).Bytes()
	if err == redis.Nil {
		return Delta{}, false, nil
	}
	if err != nil {
		return Delta{}, false, err
	}
	var d Delta
	if err := json.Unmarshal(res, &d); err != nil {
		return Delta{}, false, err
	}
	return d, true, nil
}

func (t *RedisTransport) Requeue(ctx context.Context, targetAgent string, delta Delta) error {
	b, err := json.Marshal(delta)
	if err != nil {
		return err
	}
	return t.client.LPush(ctx, t.key(targetAgent), b).Err()
}

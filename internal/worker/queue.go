package worker

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrQueueEmpty is returned by Pop when nothing arrived before the timeout.
var ErrQueueEmpty = errors.New("queue empty")

// Queue is a FIFO list of raw job payloads.
type Queue interface {
	Push(ctx context.Context, payload []byte) error
	Pop(ctx context.Context, timeout time.Duration) ([]byte, error)
}

// RedisQueue is a Queue on a Redis list: RPUSH to enqueue, BLPOP to consume.
type RedisQueue struct {
	rdb *redis.Client
	key string
}

func NewRedisQueue(rdb *redis.Client, key string) *RedisQueue {
	return &RedisQueue{rdb: rdb, key: key}
}

func (q *RedisQueue) Push(ctx context.Context, payload []byte) error {
	return q.rdb.RPush(ctx, q.key, payload).Err()
}

func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	item, err := q.rdb.BLPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrQueueEmpty
		}
		return nil, err
	}
	if len(item) < 2 {
		return nil, ErrQueueEmpty
	}
	return []byte(item[1]), nil
}

// MemoryQueue is an in-process Queue for single-node setups without Redis.
type MemoryQueue struct {
	items chan []byte
}

func NewMemoryQueue(size int) *MemoryQueue {
	return &MemoryQueue{items: make(chan []byte, size)}
}

func (q *MemoryQueue) Push(ctx context.Context, payload []byte) error {
	select {
	case q.items <- payload:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case p := <-q.items:
		return p, nil
	case <-timer.C:
		return nil, ErrQueueEmpty
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len reports how many payloads are waiting.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.key).Result()
}

// Len reports how many payloads are waiting.
func (q *MemoryQueue) Len(context.Context) (int64, error) {
	return int64(len(q.items)), nil
}

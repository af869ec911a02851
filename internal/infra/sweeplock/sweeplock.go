package sweeplock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// lockKey ключ блокировки запуска auto-decline sweeper
const lockKey = "lock:sweep:auto-decline"

// Lock распределенная блокировка на запуск sweeper.
// Сам sweep идемпотентен, блокировка лишь избавляет от лишней работы
// при нескольких инстансах сервиса.
type Lock struct {
	client *redis.Client
	ttl    time.Duration
}

// New создает блокировку на указанном Redis
func New(client *redis.Client, ttl time.Duration) *Lock {
	return &Lock{client: client, ttl: ttl}
}

// TryAcquire пытается захватить блокировку (SET NX).
// Возвращает false, если sweep уже выполняется другим инстансом.
func (l *Lock) TryAcquire(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, lockKey, "locked", l.ttl).Result()
}

// Release снимает блокировку
func (l *Lock) Release(ctx context.Context) error {
	return l.client.Del(ctx, lockKey).Err()
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/larriantoniy/tg_sales_bot/internal/domain"
)

// RedisStore хранит сессии в Redis в виде JSON. Срок жизни — TTL ключа.
type RedisStore struct {
	rdb    *redis.Client
	prefix string // "salesbot:session:"
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (r *RedisStore) key(userID int64) string {
	return r.prefix + strconv.FormatInt(userID, 10)
}

func (r *RedisStore) Get(ctx context.Context, userID int64) (*domain.Session, error) {
	data, err := r.rdb.Get(ctx, r.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session %d: %w", userID, err)
	}

	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session %d: %w", userID, err)
	}
	return &s, nil
}

func (r *RedisStore) Save(ctx context.Context, s *domain.Session, ttl time.Duration) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session %d: %w", s.UserID, err)
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := r.rdb.Set(ctx, r.key(s.UserID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session %d: %w", s.UserID, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, userID int64) error {
	if err := r.rdb.Del(ctx, r.key(userID)).Err(); err != nil {
		return fmt.Errorf("redis del session %d: %w", userID, err)
	}
	return nil
}

func (r *RedisStore) Len(ctx context.Context) (int, error) {
	n := 0
	iter := r.rdb.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis scan sessions: %w", err)
	}
	return n, nil
}

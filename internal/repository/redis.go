package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mmeshcher/storefront-checkout/internal/model"
)

const redisKeyPrefix = "checkout:session:"

// RedisRepository хранит сеансы в Redis. Срок жизни сеанса задаётся TTL ключа
// и продлевается при каждом сохранении.
type RedisRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRepository создаёт репозиторий поверх Redis по указанному адресу.
func NewRedisRepository(addr, password string, db int, ttl time.Duration) (*RedisRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisRepository{client: client, ttl: ttl}, nil
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

// Close закрывает соединение с Redis.
func (r *RedisRepository) Close() error {
	return r.client.Close()
}

// Create сохраняет новый сеанс.
func (r *RedisRepository) Create(ctx context.Context, s *model.Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	ok, err := r.client.SetNX(ctx, redisKey(s.ID), payload, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionExists, s.ID)
	}
	return nil
}

// Get возвращает сеанс по идентификатору.
func (r *RedisRepository) Get(ctx context.Context, id string) (*model.Session, error) {
	payload, err := r.client.Get(ctx, redisKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	var s model.Session
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

// Save обновляет существующий сеанс и продлевает его срок жизни.
func (r *RedisRepository) Save(ctx context.Context, s *model.Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	ok, err := r.client.SetXX(ctx, redisKey(s.ID), payload, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}

// Delete удаляет сеанс.
func (r *RedisRepository) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, redisKey(id)).Result()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteExpired ничего не делает: Redis удаляет просроченные ключи сам.
func (r *RedisRepository) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

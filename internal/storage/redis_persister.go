// internal/storage/redis_persister.go
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"forex-signal-bot/internal/infrastructure/config"
	"forex-signal-bot/pkg/logger"

	"github.com/go-redis/redis/v8"
)

const redisCacheKey = "forexbot:snapshot_cache"

// RedisCachePersister - опциональный бэкенд кэша снапшотов в Redis.
// Весь кэш хранится одним JSON-значением, как и файловый вариант.
type RedisCachePersister struct {
	client  *redis.Client
	timeout time.Duration
}

// NewRedisCachePersister подключается к Redis и проверяет соединение
func NewRedisCachePersister(cfg *config.Config) (*RedisCachePersister, error) {
	redisConfig := cfg.Redis

	options := &redis.Options{
		Addr:     cfg.GetRedisAddress(),
		Password: redisConfig.Password,
		DB:       redisConfig.DB,

		// Настройки пула соединений
		PoolSize:     redisConfig.PoolSize,
		MinIdleConns: redisConfig.MinIdleConns,

		// Таймауты
		DialTimeout:  redisConfig.DialTimeout,
		ReadTimeout:  redisConfig.ReadTimeout,
		WriteTimeout: redisConfig.WriteTimeout,
		PoolTimeout:  redisConfig.PoolTimeout,

		// Повторные попытки
		MaxRetries:      redisConfig.MaxRetries,
		MinRetryBackoff: redisConfig.MinRetryBackoff,
		MaxRetryBackoff: redisConfig.MaxRetryBackoff,
	}

	client := redis.NewClient(options)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("📡 Connecting to Redis: %s (DB: %d)", options.Addr, redisConfig.DB)

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("✅ Successfully connected to Redis")

	return &RedisCachePersister{
		client:  client,
		timeout: redisConfig.ReadTimeout + redisConfig.WriteTimeout,
	}, nil
}

func (p *RedisCachePersister) Load() (*CacheDocument, error) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	raw, err := p.client.Get(ctx, redisCacheKey).Bytes()
	if err == redis.Nil {
		return &CacheDocument{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	doc := &CacheDocument{}
	if err := json.Unmarshal(raw, doc); err != nil {
		logger.Warn("⚠️ [Cache] Битый JSON в Redis, кэш считается пустым: %v", err)
		return &CacheDocument{}, nil
	}
	return doc, nil
}

func (p *RedisCachePersister) Save(doc *CacheDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.client.Set(ctx, redisCacheKey, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func (p *RedisCachePersister) Close() error {
	return p.client.Close()
}

package dumpstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const redisKeyPrefix = "msgtrace:dump:"

// RedisStoreConfig holds the configuration for the Redis backed dump store.
type RedisStoreConfig struct {
	Addr     string
	Password string
	DB       int
	// RecordTTL bounds how long a dump is retained. Zero keeps records forever.
	RecordTTL time.Duration
}

// RedisStore keeps dump records in Redis so every pipeline instance can look
// up a failure dump by exchange id. Records expire after the configured TTL.
type RedisStore struct {
	client *redis.Client
	logger zerolog.Logger
	ttl    time.Duration
}

// NewRedisStore creates and connects a RedisStore. It pings the Redis server
// to ensure connectivity before returning.
func NewRedisStore(ctx context.Context, cfg *RedisStoreConfig, logger zerolog.Logger) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info().Str("redis_address", cfg.Addr).Msg("Successfully connected to Redis.")

	return &RedisStore{
		client: rdb,
		logger: logger.With().Str("component", "RedisStore").Logger(),
		ttl:    cfg.RecordTTL,
	}, nil
}

// Write persists a record under its exchange id with the configured TTL.
func (s *RedisStore) Write(ctx context.Context, record *Record) error {
	if record == nil || record.ExchangeID == "" {
		return fmt.Errorf("record must carry an exchange id")
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal dump record: %w", err)
	}

	key := redisKeyPrefix + record.ExchangeID
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.logger.Error().Err(err).Str("exchange_id", record.ExchangeID).Msg("Failed to store dump record in Redis.")
		return fmt.Errorf("failed to set dump record in redis: %w", err)
	}

	s.logger.Debug().Str("exchange_id", record.ExchangeID).Msg("Stored dump record in Redis.")
	return nil
}

// Fetch returns the record for an exchange, or ErrNotFound when it is absent
// or already expired.
func (s *RedisStore) Fetch(ctx context.Context, exchangeID string) (*Record, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+exchangeID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		s.logger.Error().Err(err).Str("exchange_id", exchangeID).Msg("Unexpected Redis error during fetch.")
		return nil, err
	}

	var record Record
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dump record: %w", err)
	}
	return &record, nil
}

// Close closes the Redis client connection.
func (s *RedisStore) Close() error {
	if s.client != nil {
		s.logger.Info().Msg("Closing Redis client connection...")
		return s.client.Close()
	}
	return nil
}

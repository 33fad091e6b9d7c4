package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/sevlook/sevlook/internal/models"
	"github.com/sevlook/sevlook/internal/sevco"
)

const (
	redisCredentialsKey = "sevlook:credentials"
	redisLastLookupKey  = "sevlook:lastlookup"
	redisLookupSeqKey   = "sevlook:lookupseq"

	// Attempts before giving up on a WATCH conflict.
	publishRetries = 5
)

// RedisStore implements the Store interface using Redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore initializes a new RedisStore and verifies connectivity.
func NewRedisStore(cfg *StorageConfig) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}

	return &RedisStore{client: rdb}, nil
}

// Initialize is a no-op; Redis is schema-less.
func (r *RedisStore) Initialize(ctx context.Context) error {
	return nil
}

func (r *RedisStore) Close(ctx context.Context) error {
	return r.client.Close()
}

// SaveCredentials overwrites the credential record.
func (r *RedisStore) SaveCredentials(ctx context.Context, creds sevco.Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	return r.client.Set(ctx, redisCredentialsKey, data, 0).Err()
}

// GetCredentials retrieves the credential record, zero-valued when unset.
func (r *RedisStore) GetCredentials(ctx context.Context) (sevco.Credentials, error) {
	var creds sevco.Credentials
	val, err := r.client.Get(ctx, redisCredentialsKey).Result()
	if err == redis.Nil {
		return creds, nil
	}
	if err != nil {
		return creds, err
	}
	if err := json.Unmarshal([]byte(val), &creds); err != nil {
		return sevco.Credentials{}, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}
	return creds, nil
}

// NextLookupID reserves a monotonic lookup id.
func (r *RedisStore) NextLookupID(ctx context.Context) (uint64, error) {
	id, err := r.client.Incr(ctx, redisLookupSeqKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to reserve lookup id: %w", err)
	}
	return uint64(id), nil
}

// PublishLookup writes the single lookup slot, discarding writes that
// lost the race to a newer lookup id. The id comparison and the write
// run under WATCH so two concurrent publishes cannot interleave and
// let the older result land last.
func (r *RedisStore) PublishLookup(ctx context.Context, result models.LookupResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal lookup result: %w", err)
	}

	publish := func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, redisLastLookupKey).Result()
		if err != nil && err != redis.Nil {
			return err
		}
		if err == nil {
			var current models.LookupResult
			if err := json.Unmarshal([]byte(val), &current); err != nil {
				return fmt.Errorf("failed to unmarshal lookup result: %w", err)
			}
			if current.LookupID > result.LookupID {
				return ErrStaleWrite
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, redisLastLookupKey, data, 0)
			return nil
		})
		return err
	}

	for i := 0; i < publishRetries; i++ {
		err := r.client.Watch(ctx, publish, redisLastLookupKey)
		if err != redis.TxFailedErr {
			return err
		}
	}
	return redis.TxFailedErr
}

// LastLookup reads the slot.
func (r *RedisStore) LastLookup(ctx context.Context) (models.LookupResult, error) {
	var result models.LookupResult
	val, err := r.client.Get(ctx, redisLastLookupKey).Result()
	if err == redis.Nil {
		return result, ErrNoLookup
	}
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		return models.LookupResult{}, fmt.Errorf("failed to unmarshal lookup result: %w", err)
	}
	return result, nil
}

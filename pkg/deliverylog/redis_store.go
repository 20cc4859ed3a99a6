package deliverylog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisUpdateAttempts = 5

// RedisStore persists entries as JSON documents, one key per entry.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a store on client. Keys are prefix + "email_log:" + id.
// A zero ttl keeps entries forever; purging is left to the operator.
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + "email_log:" + id
}

func (s *RedisStore) Create(ctx context.Context, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("deliverylog: marshal entry: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.key(entry.ID), data, s.ttl).Result()
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrDuplicateEntry, entry.ID)
	}
	return nil
}

// Update reads, merges and writes the entry inside a WATCH transaction,
// retrying when a concurrent writer touched the key.
func (s *RedisStore) Update(ctx context.Context, id string, patch Patch) error {
	key := s.key(id)

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
		}
		if err != nil {
			return err
		}

		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			return fmt.Errorf("deliverylog: unmarshal entry: %w", err)
		}
		entry.Apply(patch)

		updated, err := json.Marshal(&entry)
		if err != nil {
			return fmt.Errorf("deliverylog: marshal entry: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, redis.KeepTTL)
			return nil
		})
		return err
	}

	for range redisUpdateAttempts {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil && !errors.Is(err, ErrEntryNotFound) {
			return errors.Join(ErrStoreUnavailable, err)
		}
		return err
	}
	return fmt.Errorf("%w: too many concurrent updates for %s", ErrStoreUnavailable, id)
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Entry, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("deliverylog: unmarshal entry: %w", err)
	}
	return &entry, nil
}

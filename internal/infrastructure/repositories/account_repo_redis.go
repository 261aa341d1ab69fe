package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"atomik.backend/internal/domain/entities"
	domainerrors "atomik.backend/internal/domain/errors"
	"atomik.backend/pkg/uow"
)

const accountKeyPrefix = "account:"

// RedisAccountRepository implements account data operations on Redis and
// joins units of work by dumping and re-seeding its key range. Rollback is
// best-effort: the key range is only consistent while nothing else writes to
// it during the scope.
type RedisAccountRepository struct {
	client *redis.Client
	prefix string
}

// redisSnapshot holds the serialized value of every key in the repository's
// range at checkpoint time.
type redisSnapshot struct {
	values map[string]string
}

// NewRedisAccountRepository creates a repository on the given client
func NewRedisAccountRepository(client *redis.Client) *RedisAccountRepository {
	return &RedisAccountRepository{client: client, prefix: accountKeyPrefix}
}

func (r *RedisAccountRepository) key(id uuid.UUID) string {
	return r.prefix + id.String()
}

// Add inserts an account, rejecting an existing ID via SETNX
func (r *RedisAccountRepository) Add(ctx context.Context, account *entities.Account) error {
	payload, err := json.Marshal(account)
	if err != nil {
		return err
	}
	ok, err := r.client.SetNX(ctx, r.key(account.ID), payload, 0).Result()
	if err != nil {
		return fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return fmt.Errorf("account %s: %w", account.ID, domainerrors.ErrAlreadyExists)
	}
	return nil
}

// GetByID gets an account by ID
func (r *RedisAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Account, error) {
	payload, err := r.client.Get(ctx, r.key(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("account %s: %w", id, domainerrors.ErrNotFound)
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var account entities.Account
	if err := json.Unmarshal([]byte(payload), &account); err != nil {
		return nil, fmt.Errorf("decode account %s: %w", id, err)
	}
	return &account, nil
}

// Save inserts or overwrites an account
func (r *RedisAccountRepository) Save(ctx context.Context, account *entities.Account) error {
	payload, err := json.Marshal(account)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(account.ID), payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// List returns all accounts ordered by creation time
func (r *RedisAccountRepository) List(ctx context.Context) ([]*entities.Account, error) {
	values, err := r.dump(ctx)
	if err != nil {
		return nil, err
	}
	accounts := make([]*entities.Account, 0, len(values))
	for key, payload := range values {
		var account entities.Account
		if err := json.Unmarshal([]byte(payload), &account); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		accounts = append(accounts, &account)
	}
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].ID.String() < accounts[j].ID.String()
		}
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts, nil
}

// Checkpoint dumps the full key range into an in-process snapshot
func (r *RedisAccountRepository) Checkpoint(ctx context.Context) (uow.Snapshot, error) {
	values, err := r.dump(ctx)
	if err != nil {
		return nil, err
	}
	return &redisSnapshot{values: values}, nil
}

// Restore deletes the current key range and re-seeds it from the snapshot
func (r *RedisAccountRepository) Restore(ctx context.Context, snapshot uow.Snapshot) error {
	snap, ok := snapshot.(*redisSnapshot)
	if !ok {
		return fmt.Errorf("redis account repository: foreign snapshot %T", snapshot)
	}
	keys, err := r.keys(ctx)
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	if len(keys) > 0 {
		pipe.Del(ctx, keys...)
	}
	for key, payload := range snap.values {
		pipe.Set(ctx, key, payload, 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis restore: %w", err)
	}
	return nil
}

// Commit has nothing to discard; snapshots live in process memory and die
// with the unit of work
func (r *RedisAccountRepository) Commit(_ context.Context) error {
	return nil
}

func (r *RedisAccountRepository) keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return keys, nil
}

func (r *RedisAccountRepository) dump(ctx context.Context) (map[string]string, error) {
	keys, err := r.keys(ctx)
	if err != nil {
		return nil, err
	}
	values := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return values, nil
	}
	payloads, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}
	for i, payload := range payloads {
		if payload == nil {
			continue // key vanished between SCAN and MGET
		}
		s, ok := payload.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected value type %T for %s", payload, keys[i])
		}
		values[keys[i]] = s
	}
	return values, nil
}

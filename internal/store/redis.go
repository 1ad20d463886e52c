package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const maxTxRetries = 5

// RedisStore keeps each workspace as a JSON string under prefix+"ws:"+id.
// Every write refreshes the TTL, so idle sessions expire on their own.
type RedisStore struct {
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// DialRedis connects and pings.
func DialRedis(ctx context.Context, addr string) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func NewRedisStore(rdb *goredis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix, ttl: ttl, now: time.Now}
}

func (s *RedisStore) key(id string) string { return s.prefix + "ws:" + id }

func (s *RedisStore) Create(ctx context.Context, ws Workspace) (Workspace, error) {
	if ws.ID == "" {
		ws.ID = uuid.NewString()
	}
	ws.UpdatedAt = s.now().UTC()
	raw, err := json.Marshal(ws)
	if err != nil {
		return Workspace{}, err
	}
	if err := s.rdb.Set(ctx, s.key(ws.ID), raw, s.ttl).Err(); err != nil {
		return Workspace{}, fmt.Errorf("redis set: %w", err)
	}
	return decodeWorkspace(raw)
}

func (s *RedisStore) Get(ctx context.Context, id string) (Workspace, error) {
	raw, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return Workspace{}, ErrNotFound
	}
	if err != nil {
		return Workspace{}, fmt.Errorf("redis get: %w", err)
	}
	return decodeWorkspace(raw)
}

// Update is an optimistic read-modify-write guarded by WATCH.
func (s *RedisStore) Update(ctx context.Context, id string, fn func(*Workspace) error) (Workspace, error) {
	key := s.key(id)
	var out Workspace
	txf := func(tx *goredis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, goredis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		ws, err := decodeWorkspace(raw)
		if err != nil {
			return err
		}
		if err := fn(&ws); err != nil {
			return err
		}
		ws.ID = id
		ws.UpdatedAt = s.now().UTC()
		next, err := json.Marshal(ws)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			p.Set(ctx, key, next, s.ttl)
			return nil
		})
		if err == nil {
			out, err = decodeWorkspace(next)
		}
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		if err != nil {
			return Workspace{}, err
		}
		return out, nil
	}
	return Workspace{}, fmt.Errorf("redis update %s: %w", id, goredis.TxFailedErr)
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := s.rdb.Del(ctx, s.key(id)).Result()
	if err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) Count(ctx context.Context) (int, error) {
	n := 0
	iter := s.rdb.Scan(ctx, 0, s.prefix+"ws:*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis scan: %w", err)
	}
	return n, nil
}

func decodeWorkspace(raw []byte) (Workspace, error) {
	var ws Workspace
	if err := json.Unmarshal(raw, &ws); err != nil {
		return Workspace{}, fmt.Errorf("decode workspace: %w", err)
	}
	return ws, nil
}

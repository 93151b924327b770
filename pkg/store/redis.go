package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on top of a go-redis client. It is the only
// file in this package that imports the redis driver; every other package
// in the module talks to the Store interface.
type RedisStore struct {
	client *redis.Client
}

// Dial opens a connection to addr and verifies it with a Ping before
// returning, so callers get a BootstrapFailure immediately rather than on
// first use.
func Dial(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, &ErrUnavailable{Op: "dial", Err: err}
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &ErrUnavailable{Op: "get", Err: err}
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return &ErrUnavailable{Op: "set", Err: err}
	}
	return nil
}

func (s *RedisStore) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return &ErrUnavailable{Op: "set_with_ttl", Err: err}
	}
	return nil
}

func (s *RedisStore) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	v, err := s.client.IncrBy(ctx, key, delta).Result()
	if err != nil {
		return 0, &ErrUnavailable{Op: "incr_by", Err: err}
	}
	return v, nil
}

func (s *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
		return &ErrUnavailable{Op: "expire", Err: err}
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return &ErrUnavailable{Op: "delete", Err: err}
	}
	return nil
}

func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, &ErrUnavailable{Op: "exists", Err: err}
	}
	return n > 0, nil
}

func (s *RedisStore) SetAdd(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	if err := s.client.SAdd(ctx, key, args...).Err(); err != nil {
		return &ErrUnavailable{Op: "set_add", Err: err}
	}
	return nil
}

func (s *RedisStore) SetMembers(ctx context.Context, key string) ([]string, error) {
	v, err := s.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, &ErrUnavailable{Op: "set_members", Err: err}
	}
	return v, nil
}

func (s *RedisStore) SetCardinality(ctx context.Context, key string) (int64, error) {
	n, err := s.client.SCard(ctx, key).Result()
	if err != nil {
		return 0, &ErrUnavailable{Op: "set_cardinality", Err: err}
	}
	return n, nil
}

func (s *RedisStore) ListPush(ctx context.Context, key string, values ...string) error {
	if len(values) == 0 {
		return nil
	}
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}
	if err := s.client.RPush(ctx, key, args...).Err(); err != nil {
		return &ErrUnavailable{Op: "list_push", Err: err}
	}
	return nil
}

func (s *RedisStore) ListRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	v, err := s.client.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, &ErrUnavailable{Op: "list_range", Err: err}
	}
	return v, nil
}

func (s *RedisStore) Pipeline() Pipeline {
	return &redisPipeline{client: s.client}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return &ErrUnavailable{Op: "ping", Err: err}
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// redisPipeline buffers a sequence of operations as closures and replays
// them inside a single go-redis TxPipelined call, so the whole batch either
// all lands or none of it does.
type redisPipeline struct {
	client *redis.Client
	ops    []func(redis.Pipeliner) error
}

func (p *redisPipeline) SetWithTTL(key, value string, ttl time.Duration) {
	p.ops = append(p.ops, func(tx redis.Pipeliner) error {
		return tx.Set(context.Background(), key, value, ttl).Err()
	})
}

func (p *redisPipeline) IncrBy(key string, delta int64) {
	p.ops = append(p.ops, func(tx redis.Pipeliner) error {
		return tx.IncrBy(context.Background(), key, delta).Err()
	})
}

func (p *redisPipeline) Expire(key string, ttl time.Duration) {
	p.ops = append(p.ops, func(tx redis.Pipeliner) error {
		return tx.Expire(context.Background(), key, ttl).Err()
	})
}

func (p *redisPipeline) Delete(keys ...string) {
	if len(keys) == 0 {
		return
	}
	p.ops = append(p.ops, func(tx redis.Pipeliner) error {
		return tx.Del(context.Background(), keys...).Err()
	})
}

func (p *redisPipeline) SetAdd(key string, members ...string) {
	if len(members) == 0 {
		return
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	p.ops = append(p.ops, func(tx redis.Pipeliner) error {
		return tx.SAdd(context.Background(), key, args...).Err()
	})
}

func (p *redisPipeline) ListPush(key string, values ...string) {
	if len(values) == 0 {
		return
	}
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}
	p.ops = append(p.ops, func(tx redis.Pipeliner) error {
		return tx.RPush(context.Background(), key, args...).Err()
	})
}

func (p *redisPipeline) Commit(ctx context.Context) error {
	if len(p.ops) == 0 {
		return nil
	}
	_, err := p.client.TxPipelined(ctx, func(tx redis.Pipeliner) error {
		for _, op := range p.ops {
			if err := op(tx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &ErrUnavailable{Op: "pipeline_commit", Err: err}
	}
	return nil
}

package store

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"
)

// MemStore is an in-memory Store used by unit tests throughout this
// module so session, admission, and queue logic can be exercised without
// a live Redis instance. TTLs are tracked but never actively swept;
// Get/Exists check expiry lazily.
type MemStore struct {
	mu      sync.Mutex
	strings map[string]string
	sets    map[string]map[string]struct{}
	lists   map[string][]string
	expiry  map[string]time.Time
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		strings: make(map[string]string),
		sets:    make(map[string]map[string]struct{}),
		lists:   make(map[string][]string),
		expiry:  make(map[string]time.Time),
	}
}

func (s *MemStore) expired(key string) bool {
	t, ok := s.expiry[key]
	return ok && time.Now().After(t)
}

func (s *MemStore) wipe(key string) {
	delete(s.strings, key)
	delete(s.sets, key)
	delete(s.lists, key)
	delete(s.expiry, key)
}

func (s *MemStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expired(key) {
		s.wipe(key)
	}
	v, ok := s.strings[key]
	return v, ok, nil
}

func (s *MemStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strings[key] = value
	delete(s.expiry, key)
	return nil
}

// SetWithTTL stores value with the given expiry. A zero or negative ttl
// means no expiration, matching Redis SET without EX.
func (s *MemStore) SetWithTTL(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strings[key] = value
	if ttl <= 0 {
		delete(s.expiry, key)
	} else {
		s.expiry[key] = time.Now().Add(ttl)
	}
	return nil
}

func (s *MemStore) IncrBy(_ context.Context, key string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expired(key) {
		s.wipe(key)
	}
	cur, _ := strconv.ParseInt(s.strings[key], 10, 64)
	cur += delta
	s.strings[key] = strconv.FormatInt(cur, 10)
	return cur, nil
}

func (s *MemStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expiry[key] = time.Now().Add(ttl)
	return nil
}

func (s *MemStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		s.wipe(k)
	}
	return nil
}

func (s *MemStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expired(key) {
		s.wipe(key)
		return false, nil
	}
	if _, ok := s.strings[key]; ok {
		return true, nil
	}
	if _, ok := s.sets[key]; ok {
		return true, nil
	}
	if _, ok := s.lists[key]; ok {
		return true, nil
	}
	return false, nil
}

func (s *MemStore) SetAdd(_ context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[key]
	if !ok {
		set = make(map[string]struct{})
		s.sets[key] = set
	}
	for _, m := range members {
		set[m] = struct{}{}
	}
	return nil
}

func (s *MemStore) SetMembers(_ context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.sets[key]
	out := make([]string, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemStore) SetCardinality(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.sets[key])), nil
}

func (s *MemStore) ListPush(_ context.Context, key string, values ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[key] = append(s.lists[key], values...)
	return nil
}

func (s *MemStore) ListRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.lists[key]
	n := int64(len(list))
	if n == 0 {
		return []string{}, nil
	}
	if stop < 0 || stop >= n {
		stop = n - 1
	}
	if start < 0 {
		start = 0
	}
	if start > stop {
		return []string{}, nil
	}
	out := make([]string, stop-start+1)
	copy(out, list[start:stop+1])
	return out, nil
}

func (s *MemStore) Pipeline() Pipeline {
	return &memPipeline{store: s}
}

func (s *MemStore) Ping(_ context.Context) error { return nil }

func (s *MemStore) Close() error { return nil }

// memPipeline queues operations and applies them to the MemStore in order
// on Commit. Each operation takes the store's mutex on its own, so the
// batch as a whole is not isolated from concurrent callers (see Commit).
type memPipeline struct {
	store *MemStore
	ops   []func(context.Context, *MemStore) error
}

func (p *memPipeline) SetWithTTL(key, value string, ttl time.Duration) {
	p.ops = append(p.ops, func(ctx context.Context, s *MemStore) error {
		return s.SetWithTTL(ctx, key, value, ttl)
	})
}

func (p *memPipeline) IncrBy(key string, delta int64) {
	p.ops = append(p.ops, func(ctx context.Context, s *MemStore) error {
		_, err := s.IncrBy(ctx, key, delta)
		return err
	})
}

func (p *memPipeline) Expire(key string, ttl time.Duration) {
	p.ops = append(p.ops, func(ctx context.Context, s *MemStore) error {
		return s.Expire(ctx, key, ttl)
	})
}

func (p *memPipeline) Delete(keys ...string) {
	p.ops = append(p.ops, func(ctx context.Context, s *MemStore) error {
		return s.Delete(ctx, keys...)
	})
}

func (p *memPipeline) SetAdd(key string, members ...string) {
	p.ops = append(p.ops, func(ctx context.Context, s *MemStore) error {
		return s.SetAdd(ctx, key, members...)
	})
}

func (p *memPipeline) ListPush(key string, values ...string) {
	p.ops = append(p.ops, func(ctx context.Context, s *MemStore) error {
		return s.ListPush(ctx, key, values...)
	})
}

// Commit replays the queued operations in order. Each underlying call takes
// the store's own mutex, so unlike Commit on the Redis pipeline this is not
// isolated from concurrent callers mid-batch; tests that need that
// guarantee should serialize around the store themselves.
func (p *memPipeline) Commit(ctx context.Context) error {
	for _, op := range p.ops {
		if err := op(ctx, p.store); err != nil {
			return err
		}
	}
	return nil
}

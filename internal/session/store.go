package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = 24 * time.Hour

// ErrNotFound is returned when a key has no live session.
var ErrNotFound = errors.New("session: not found")

// ErrLocked is returned by Lock while another request holds the key.
var ErrLocked = errors.New("session: locked by another request")

// Locker is implemented by stores shared between processes. Lock takes a
// lease on key that lapses after ttl unless unlock runs first; callers hold
// it across Get, mutation and Save.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// Store keeps session state between console requests. Implementations hand
// out copies: mutating a loaded State has no effect until Save.
type Store interface {
	Get(ctx context.Context, key string) (*State, error)
	Save(ctx context.Context, st *State) error
	Delete(ctx context.Context, key string) error
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore is a process-local Store with idle expiry.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

// NewMemoryStore creates a store whose sessions expire ttl after their last save.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go s.cleanup()
	return s
}

func (s *MemoryStore) Get(_ context.Context, key string) (*State, error) {
	s.mu.Lock()
	entry, ok := s.entries[key]
	if ok && !s.now().Before(entry.expiresAt) {
		delete(s.entries, key)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decodeState(entry.data)
}

func (s *MemoryStore) Save(_ context.Context, st *State) error {
	if st == nil || st.Key == "" {
		return errors.New("session: state key required")
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("session: encode state: %w", err)
	}
	s.mu.Lock()
	s.entries[st.Key] = memoryEntry{data: data, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored sessions, expired ones included until swept.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close stops the background sweeper.
func (s *MemoryStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *MemoryStore) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *MemoryStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for key, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, key)
		}
	}
}

// RedisStore shares sessions across console replicas. Entries expire after
// the TTL; it is a cache, not durable storage.
type RedisStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

// NewRedisStore wraps a configured client.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{
		redis:  client,
		ttl:    ttl,
		tracer: otel.Tracer("orch-console.internal.session"),
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) (*State, error) {
	ctx, span := s.tracer.Start(ctx, "session.get")
	defer span.End()

	data, err := s.redis.Get(ctx, redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to load state: %w", err)
	}
	st, err := decodeState(data)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return st, nil
}

func (s *RedisStore) Save(ctx context.Context, st *State) error {
	ctx, span := s.tracer.Start(ctx, "session.save")
	defer span.End()

	if st == nil || st.Key == "" {
		return errors.New("session: state key required")
	}
	data, err := json.Marshal(st)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: encode state: %w", err)
	}
	if err := s.redis.Set(ctx, redisKey(st.Key), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to persist state: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	ctx, span := s.tracer.Start(ctx, "session.delete")
	defer span.End()

	if err := s.redis.Del(ctx, redisKey(key)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to delete state: %w", err)
	}
	return nil
}

// releaseLock deletes the lease only while it still carries our token, so a
// lapsed lease taken over by another replica is left alone.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock takes the per-session lease with SET NX PX.
func (s *RedisStore) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	ctx, span := s.tracer.Start(ctx, "session.lock")
	defer span.End()

	if ttl <= 0 {
		return nil, errors.New("session: lock ttl must be positive")
	}
	token := uuid.NewString()
	ok, err := s.redis.SetNX(ctx, lockKey(key), token, ttl).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	unlock := func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		// A failed release lapses with the ttl.
		_ = releaseLock.Run(releaseCtx, s.redis, []string{lockKey(key)}, token).Err()
	}
	return unlock, nil
}

func redisKey(key string) string {
	return fmt.Sprintf("orch_console:session:%s", key)
}

func lockKey(key string) string {
	return fmt.Sprintf("orch_console:lock:%s", key)
}

func decodeState(data []byte) (*State, error) {
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("session: decode state: %w", err)
	}
	return &st, nil
}

// ABOUTME: Redis-backed room state snapshot store, with an in-memory fallback
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/syncjam/syncjam-go/internal/protocol"
)

// TTL is how long a snapshot survives without being refreshed.
const TTL = 24 * time.Hour

// Store persists and recalls a room's last known state. Absence — a store
// that has never seen this room, or one that's unreachable — is not an
// error: callers fall back to starting the room from Idle.
type Store interface {
	Save(ctx context.Context, roomID string, state protocol.RoomState) error
	Load(ctx context.Context, roomID string) (protocol.RoomState, bool, error)
}

// RedisStore stores snapshots as JSON values in Redis, keyed by room id.
type RedisStore struct {
	client *redis.Client
	log    zerolog.Logger
}

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStore connects to Redis and verifies reachability with a ping.
// Callers that want to run memory-only when Redis is down should fall
// back to NewMemoryStore when this errors.
func NewRedisStore(cfg Config, log zerolog.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisStore{client: client, log: log}, nil
}

func key(roomID string) string {
	return "syncjam:room:" + roomID
}

// Save writes state under roomID with TTL, refreshing expiry on every write.
func (s *RedisStore) Save(ctx context.Context, roomID string, state protocol.RoomState) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := s.client.Set(ctx, key(roomID), data, TTL).Err(); err != nil {
		s.log.Warn().Err(err).Str("room", roomID).Msg("snapshot save failed")
		return err
	}
	return nil
}

// Load recalls the last saved state for roomID. A missing key is reported
// as (zero value, false, nil) rather than an error.
func (s *RedisStore) Load(ctx context.Context, roomID string) (protocol.RoomState, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	val, err := s.client.Get(ctx, key(roomID)).Bytes()
	if err == redis.Nil {
		return protocol.RoomState{}, false, nil
	}
	if err != nil {
		s.log.Warn().Err(err).Str("room", roomID).Msg("snapshot load failed")
		return protocol.RoomState{}, false, err
	}

	var state protocol.RoomState
	if err := json.Unmarshal(val, &state); err != nil {
		return protocol.RoomState{}, false, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return state, true, nil
}

// MemoryStore is an in-process fallback used when Redis is unreachable, so
// the coordinator can still save/restore across a process restart's own
// lifetime even with no external store configured.
type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string]protocol.RoomState
}

// NewMemoryStore creates an empty in-memory snapshot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rooms: make(map[string]protocol.RoomState)}
}

func (s *MemoryStore) Save(_ context.Context, roomID string, state protocol.RoomState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[roomID] = state
	return nil
}

func (s *MemoryStore) Load(_ context.Context, roomID string) (protocol.RoomState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.rooms[roomID]
	return state, ok, nil
}

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"cyberguard/internal/cache"
)

const refreshTokenKeyPrefix = "refresh_token:"

// ErrRefreshNotFound is returned when a refresh token id is unknown or expired.
var ErrRefreshNotFound = errors.New("refresh token not found")

// RefreshStore tracks issued refresh tokens by their JTI.
type RefreshStore interface {
	StoreRefreshToken(ctx context.Context, tokenID string, sub Subject, ttl time.Duration) error
	GetRefreshToken(ctx context.Context, tokenID string) (Subject, error)
	DeleteRefreshToken(ctx context.Context, tokenID string) error
}

type refreshRecord struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// RedisRefreshStore keeps refresh tokens in Redis with a TTL.
type RedisRefreshStore struct {
	cache *cache.Client
}

// Ensure RedisRefreshStore implements RefreshStore
var _ RefreshStore = (*RedisRefreshStore)(nil)

// NewRedisRefreshStore creates a Redis backed refresh store.
func NewRedisRefreshStore(c *cache.Client) *RedisRefreshStore {
	return &RedisRefreshStore{cache: c}
}

// StoreRefreshToken stores a refresh token in Redis with TTL.
func (s *RedisRefreshStore) StoreRefreshToken(ctx context.Context, tokenID string, sub Subject, ttl time.Duration) error {
	payload, err := json.Marshal(refreshRecord{UserID: sub.UserID, Username: sub.Username, Role: sub.Role})
	if err != nil {
		return fmt.Errorf("marshal token data: %w", err)
	}
	return s.cache.Set(ctx, refreshTokenKeyPrefix+tokenID, payload, ttl)
}

// GetRefreshToken retrieves refresh token data from Redis.
func (s *RedisRefreshStore) GetRefreshToken(ctx context.Context, tokenID string) (Subject, error) {
	data, err := s.cache.Get(ctx, refreshTokenKeyPrefix+tokenID)
	if err != nil || data == nil {
		return Subject{}, ErrRefreshNotFound
	}
	var rec refreshRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return Subject{}, fmt.Errorf("unmarshal token data: %w", err)
	}
	return Subject{UserID: rec.UserID, Username: rec.Username, Role: rec.Role}, nil
}

// DeleteRefreshToken removes a refresh token from Redis.
func (s *RedisRefreshStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	return s.cache.Delete(ctx, refreshTokenKeyPrefix+tokenID)
}

// MemoryRefreshStore keeps refresh tokens in process memory.
type MemoryRefreshStore struct {
	mu     sync.Mutex
	tokens map[string]memoryRefresh
	now    func() time.Time
}

type memoryRefresh struct {
	sub     Subject
	expires time.Time
}

// Ensure MemoryRefreshStore implements RefreshStore
var _ RefreshStore = (*MemoryRefreshStore)(nil)

// NewMemoryRefreshStore creates an empty in-memory refresh store.
func NewMemoryRefreshStore() *MemoryRefreshStore {
	return &MemoryRefreshStore{tokens: make(map[string]memoryRefresh), now: time.Now}
}

func (s *MemoryRefreshStore) StoreRefreshToken(_ context.Context, tokenID string, sub Subject, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tokenID] = memoryRefresh{sub: sub, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryRefreshStore) GetRefreshToken(_ context.Context, tokenID string) (Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tokens[tokenID]
	if !ok {
		return Subject{}, ErrRefreshNotFound
	}
	if !s.now().Before(rec.expires) {
		delete(s.tokens, tokenID)
		return Subject{}, ErrRefreshNotFound
	}
	return rec.sub, nil
}

func (s *MemoryRefreshStore) DeleteRefreshToken(_ context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, tokenID)
	return nil
}

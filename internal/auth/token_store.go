package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"cyberguard/internal/cache"
)

const (
	// AccessTokenKey is where the bearer token lives.
	AccessTokenKey = "accessToken"
	// LegacyTokenKey is the older key; it is read and migrated, never written.
	LegacyTokenKey = "cyberguard_token"
)

// KV is the minimal key/value storage a token store needs. Get returns nil
// for a missing key.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// TokenStore holds the single access token of a session.
type TokenStore interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// KeyedTokenStore applies the canonical/legacy key policy over a KV.
type KeyedTokenStore struct {
	mu sync.Mutex
	kv KV
}

// Ensure KeyedTokenStore implements TokenStore
var _ TokenStore = (*KeyedTokenStore)(nil)

// NewTokenStore creates a token store over kv.
func NewTokenStore(kv KV) *KeyedTokenStore {
	return &KeyedTokenStore{kv: kv}
}

// NewMemoryTokenStore keeps the token in process memory.
func NewMemoryTokenStore() *KeyedTokenStore {
	return NewTokenStore(NewMemoryKV())
}

// NewFileTokenStore persists the token in a JSON file readable only by the owner.
func NewFileTokenStore(path string) *KeyedTokenStore {
	return NewTokenStore(NewFileKV(path))
}

// NewRedisTokenStore stores the token in Redis.
func NewRedisTokenStore(c *cache.Client) *KeyedTokenStore {
	return NewTokenStore(c)
}

// Token returns the stored token, or "" when there is none. A token found
// only under the legacy key is moved to the canonical key.
func (s *KeyedTokenStore) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.kv.Get(ctx, AccessTokenKey)
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	if len(data) > 0 {
		return string(data), nil
	}

	legacy, err := s.kv.Get(ctx, LegacyTokenKey)
	if err != nil {
		return "", fmt.Errorf("read legacy token: %w", err)
	}
	if len(legacy) == 0 {
		return "", nil
	}
	if err := s.kv.Set(ctx, AccessTokenKey, legacy, 0); err != nil {
		return "", fmt.Errorf("migrate legacy token: %w", err)
	}
	if err := s.kv.Delete(ctx, LegacyTokenKey); err != nil {
		return "", fmt.Errorf("migrate legacy token: %w", err)
	}
	return string(legacy), nil
}

// SetToken replaces the stored token wholesale.
func (s *KeyedTokenStore) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Set(ctx, AccessTokenKey, []byte(token), 0); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return s.kv.Delete(ctx, LegacyTokenKey)
}

// Clear removes the token under every key variant.
func (s *KeyedTokenStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kv.Delete(ctx, AccessTokenKey, LegacyTokenKey)
}

// MemoryKV is a map-backed KV. TTLs are ignored.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKV creates an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

// FileKV stores string values in a single JSON object on disk.
type FileKV struct {
	mu   sync.Mutex
	path string
}

// NewFileKV creates a FileKV at path. The file is created on first write.
func NewFileKV(path string) *FileKV {
	return &FileKV{path: path}
}

func (f *FileKV) load() (map[string]string, error) {
	values := make(map[string]string)
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return values, nil
}

func (f *FileKV) save(values map[string]string) error {
	if len(values) == 0 {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0o600)
}

func (f *FileKV) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.load()
	if err != nil {
		return nil, err
	}
	v, ok := values[key]
	if !ok {
		return nil, nil
	}
	return []byte(v), nil
}

func (f *FileKV) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.load()
	if err != nil {
		return err
	}
	values[key] = string(value)
	return f.save(values)
}

func (f *FileKV) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.load()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(values, k)
	}
	return f.save(values)
}

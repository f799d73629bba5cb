package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyberguard/internal/cache"
)

func TestTokenStore_Backends(t *testing.T) {
	backends := map[string]func(t *testing.T) *KeyedTokenStore{
		"memory": func(t *testing.T) *KeyedTokenStore { return NewMemoryTokenStore() },
		"file": func(t *testing.T) *KeyedTokenStore {
			return NewFileTokenStore(filepath.Join(t.TempDir(), "nested", "session.json"))
		},
	}

	for name, build := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := build(t)

			tok, err := store.Token(ctx)
			require.NoError(t, err)
			assert.Empty(t, tok)

			require.NoError(t, store.SetToken(ctx, "first"))
			require.NoError(t, store.SetToken(ctx, "second"))
			tok, err = store.Token(ctx)
			require.NoError(t, err)
			assert.Equal(t, "second", tok)

			require.NoError(t, store.Clear(ctx))
			tok, err = store.Token(ctx)
			require.NoError(t, err)
			assert.Empty(t, tok)
		})
	}
}

func TestTokenStore_RejectsEmptyToken(t *testing.T) {
	assert.Error(t, NewMemoryTokenStore().SetToken(context.Background(), ""))
}

func TestTokenStore_MigratesLegacyKey(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(ctx, LegacyTokenKey, []byte("old"), 0))
	store := NewTokenStore(kv)

	tok, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "old", tok)

	canonical, _ := kv.Get(ctx, AccessTokenKey)
	legacy, _ := kv.Get(ctx, LegacyTokenKey)
	assert.Equal(t, []byte("old"), canonical)
	assert.Nil(t, legacy)
}

func TestTokenStore_CanonicalKeyWins(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(ctx, AccessTokenKey, []byte("new"), 0))
	require.NoError(t, kv.Set(ctx, LegacyTokenKey, []byte("old"), 0))
	store := NewTokenStore(kv)

	tok, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", tok)

	require.NoError(t, store.SetToken(ctx, "newer"))
	legacy, _ := kv.Get(ctx, LegacyTokenKey)
	assert.Nil(t, legacy)
}

func TestTokenStore_ClearRemovesBothKeys(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(ctx, AccessTokenKey, []byte("a"), 0))
	require.NoError(t, kv.Set(ctx, LegacyTokenKey, []byte("b"), 0))

	require.NoError(t, NewTokenStore(kv).Clear(ctx))

	a, _ := kv.Get(ctx, AccessTokenKey)
	b, _ := kv.Get(ctx, LegacyTokenKey)
	assert.Nil(t, a)
	assert.Nil(t, b)
}

func TestFileKV_Permissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileTokenStore(path)
	require.NoError(t, store.SetToken(context.Background(), "secret"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, store.Clear(context.Background()))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFileKV_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileTokenStore(path).Token(context.Background())
	assert.Error(t, err)
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret")
	sub := Subject{UserID: "u1", Username: "alice", Role: "admin"}

	access, err := svc.GenerateAccessToken(sub)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "admin", claims.Role)

	tokenID, refresh, err := svc.GenerateRefreshToken(sub)
	require.NoError(t, err)
	gotID, err := svc.ExtractTokenID(refresh)
	require.NoError(t, err)
	assert.Equal(t, tokenID, gotID)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService("test-secret")
	other := NewJWTService("other-secret")
	token, err := other.GenerateAccessToken(Subject{UserID: "u1"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err, "wrong secret")

	expired := NewJWTService("test-secret", WithClock(func() time.Time { return time.Now().Add(-time.Hour) }))
	old, err := expired.GenerateAccessToken(Subject{UserID: "u1"})
	require.NoError(t, err)
	_, err = svc.ValidateToken(old)
	assert.Error(t, err, "expired")

	_, err = svc.ValidateToken("garbage")
	assert.Error(t, err)
}

func TestParseClaims(t *testing.T) {
	svc := NewJWTService("whatever")
	token, err := svc.GenerateAccessToken(Subject{UserID: "u9", Username: "bob"})
	require.NoError(t, err)

	claims, err := ParseClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "bob", claims.Username)
	assert.WithinDuration(t, time.Now().Add(AccessTokenExpiry), ExpiresAt(token), 5*time.Second)

	_, err = ParseClaims("opaque-token")
	assert.ErrorIs(t, err, ErrNotJWT)
	assert.True(t, ExpiresAt("opaque-token").IsZero())
}

func TestMemoryRefreshStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRefreshStore()
	sub := Subject{UserID: "u1", Username: "alice", Role: "user"}

	require.NoError(t, store.StoreRefreshToken(ctx, "jti", sub, time.Hour))
	got, err := store.GetRefreshToken(ctx, "jti")
	require.NoError(t, err)
	assert.Equal(t, sub, got)

	require.NoError(t, store.DeleteRefreshToken(ctx, "jti"))
	_, err = store.GetRefreshToken(ctx, "jti")
	assert.ErrorIs(t, err, ErrRefreshNotFound)

	require.NoError(t, store.StoreRefreshToken(ctx, "short", sub, time.Minute))
	store.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = store.GetRefreshToken(ctx, "short")
	assert.ErrorIs(t, err, ErrRefreshNotFound)
}

func TestRedisRefreshStore_Unavailable(t *testing.T) {
	// A nil cache behaves like an empty Redis.
	store := NewRedisRefreshStore(nil)
	ctx := context.Background()
	require.NoError(t, store.StoreRefreshToken(ctx, "jti", Subject{UserID: "u1"}, time.Minute))
	_, err := store.GetRefreshToken(ctx, "jti")
	assert.ErrorIs(t, err, ErrRefreshNotFound)
}

func TestRedisTokenStore_UnreachableWritesFail(t *testing.T) {
	c := cache.New("127.0.0.1:1", "", 0, "test:")
	defer c.Close()
	store := NewRedisTokenStore(c)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	tok, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)
	assert.Error(t, store.SetToken(ctx, "tok"))
	assert.Error(t, store.Clear(ctx))
}

package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"cyberguard/internal/auth"
	"cyberguard/internal/config"
	"cyberguard/internal/stubapi"
)

func newStub(t *testing.T) (*stubapi.Store, *config.Config) {
	t.Helper()
	store := stubapi.NewStore(stubapi.WithBcryptCost(bcrypt.MinCost))
	srv := httptest.NewServer(stubapi.New(stubapi.Options{
		Store: store,
		JWT:   auth.NewJWTService("seed-test-secret"),
	}))
	t.Cleanup(srv.Close)
	return store, &config.Config{
		APIBaseURL:     srv.URL + "/api",
		TokenStore:     config.StoreMemory,
		RequestTimeout: 5 * time.Second,
	}
}

func TestSeeder_Run(t *testing.T) {
	store, cfg := newStub(t)
	data, err := parseSeed(demoSeed)
	require.NoError(t, err)

	s := newSeeder(cfg, zap.NewNop())
	defer s.Close()
	sum, err := s.Run(context.Background(), data)
	require.NoError(t, err)

	assert.Equal(t, Summary{UsersCreated: 3, Posts: 3, Comments: 3, Reports: 2}, sum)
	assert.Len(t, store.Users(), 3)
	assert.Len(t, store.Posts(), 3)

	reports := store.Reports()
	require.Len(t, reports, 2)
	var anonymous, attributed int
	for _, r := range reports {
		if r.IsAnonymous {
			anonymous++
		} else {
			attributed++
		}
	}
	assert.Equal(t, 1, anonymous)
	assert.Equal(t, 1, attributed)

	// Comments are attributed to their authors.
	for _, p := range store.Posts() {
		for _, c := range p.Comments {
			assert.NotEmpty(t, c.User.Username)
		}
	}
}

func TestSeeder_RunTwiceSignsInExistingUsers(t *testing.T) {
	store, cfg := newStub(t)
	data, err := parseSeed(demoSeed)
	require.NoError(t, err)

	first := newSeeder(cfg, zap.NewNop())
	defer first.Close()
	_, err = first.Run(context.Background(), data)
	require.NoError(t, err)

	second := newSeeder(cfg, zap.NewNop())
	defer second.Close()
	sum, err := second.Run(context.Background(), data)
	require.NoError(t, err)

	assert.Equal(t, 0, sum.UsersCreated)
	assert.Equal(t, 3, sum.UsersExisting)
	assert.Len(t, store.Users(), 3)
	assert.Len(t, store.Posts(), 6)
}

func TestSeeder_UnknownAuthor(t *testing.T) {
	_, cfg := newStub(t)
	data := &SeedData{Posts: []SeedPost{{Author: "ghost"}}}

	s := newSeeder(cfg, zap.NewNop())
	defer s.Close()
	sum, err := s.Run(context.Background(), data)
	assert.ErrorContains(t, err, `unknown author "ghost"`)
	assert.Zero(t, sum.Posts)
}

func TestLoadSeed(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "seed.json")
		require.NoError(t, os.WriteFile(path, demoSeed, 0o600))
		data, err := loadSeed(context.Background(), path)
		require.NoError(t, err)
		assert.Len(t, data.Users, 3)
		assert.Equal(t, "maya", data.Posts[0].Author)
		assert.True(t, data.Posts[0].AdviceRequested)
		assert.Equal(t, "high", data.Reports[0].Severity)
	})

	t.Run("url", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(demoSeed)
		}))
		defer srv.Close()
		data, err := loadSeed(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Len(t, data.Reports, 2)
	})

	t.Run("bad status", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()
		_, err := loadSeed(context.Background(), srv.URL)
		assert.ErrorContains(t, err, "status code: 404")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadSeed(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := parseSeed([]byte("{"))
		assert.ErrorContains(t, err, "failed to parse JSON")
	})
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cyberguard/internal/auth"
	apperrors "cyberguard/internal/errors"
	"cyberguard/internal/model"
	"cyberguard/internal/notify"
)

func newTestSession(t *testing.T, token string) (Session, *MockAuthRepository, auth.TokenStore, *notify.Recorder) {
	t.Helper()
	repo := new(MockAuthRepository)
	tokens := auth.NewMemoryTokenStore()
	if token != "" {
		require.NoError(t, tokens.SetToken(context.Background(), token))
	}
	rec := &notify.Recorder{}
	return NewSession(repo, tokens, rec, nil), repo, tokens, rec
}

func storedToken(t *testing.T, tokens auth.TokenStore) string {
	t.Helper()
	tok, err := tokens.Token(context.Background())
	require.NoError(t, err)
	return tok
}

func TestSession_Init(t *testing.T) {
	tests := []struct {
		name      string
		token     string
		setupMock func(*MockAuthRepository)
		wantState State
		wantToken string
		wantErr   bool
	}{
		{
			name:      "no stored token",
			setupMock: func(m *MockAuthRepository) {},
			wantState: StateUnauthenticated,
		},
		{
			name:  "stored token accepted",
			token: "tok",
			setupMock: func(m *MockAuthRepository) {
				m.On("CurrentUser", mock.Anything).Return(alice, nil)
			},
			wantState: StateAuthenticated,
			wantToken: "tok",
		},
		{
			name:  "stored token rejected",
			token: "tok",
			setupMock: func(m *MockAuthRepository) {
				m.On("CurrentUser", mock.Anything).Return(nil, apperrors.NewHTTPError(401, "Token is not valid", ""))
			},
			wantState: StateUnauthenticated,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, repo, tokens, _ := newTestSession(t, tt.token)
			tt.setupMock(repo)

			err := s.Init(context.Background())

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantState, s.State())
			assert.Equal(t, tt.wantToken, storedToken(t, tokens))
			assert.False(t, s.Loading())
			repo.AssertExpectations(t)
		})
	}
}

func TestSession_Login(t *testing.T) {
	tests := []struct {
		name      string
		username  string
		password  string
		setupMock func(*MockAuthRepository)
		wantErr   error
		wantToken string
	}{
		{
			name:     "successful login",
			username: "alice",
			password: "secret1",
			setupMock: func(m *MockAuthRepository) {
				m.On("Login", mock.Anything, model.LoginInput{Username: "alice", Password: "secret1"}).
					Return(&model.AuthResponse{Token: "tok-alice", User: alice}, nil)
			},
			wantToken: "tok-alice",
		},
		{
			name:     "user fetched when response has none",
			username: "alice",
			password: "secret1",
			setupMock: func(m *MockAuthRepository) {
				m.On("Login", mock.Anything, mock.Anything).Return(&model.AuthResponse{AccessToken: "tok-2"}, nil)
				m.On("CurrentUser", mock.Anything).Return(alice, nil)
			},
			wantToken: "tok-2",
		},
		{
			name:     "admin credentials go to the backend",
			username: "admin",
			password: "admin123",
			setupMock: func(m *MockAuthRepository) {
				m.On("Login", mock.Anything, model.LoginInput{Username: "admin", Password: "admin123"}).
					Return(nil, apperrors.NewHTTPError(401, "Invalid credentials", ""))
			},
			wantErr: apperrors.ErrUnauthenticated,
		},
		{
			name:      "missing password never reaches the network",
			username:  "alice",
			setupMock: func(m *MockAuthRepository) {},
			wantErr:   apperrors.ErrInvalidInput,
		},
		{
			name:     "response without token",
			username: "alice",
			password: "secret1",
			setupMock: func(m *MockAuthRepository) {
				m.On("Login", mock.Anything, mock.Anything).Return(&model.AuthResponse{User: alice}, nil)
			},
			wantErr: ErrNoToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, repo, tokens, rec := newTestSession(t, "")
			tt.setupMock(repo)

			user, err := s.Login(context.Background(), tt.username, tt.password)

			last, ok := rec.Last()
			require.True(t, ok)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				assert.Equal(t, StateUnauthenticated, s.State())
				assert.Equal(t, notify.LevelError, last.Level)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "alice", user.Username)
				assert.Equal(t, StateAuthenticated, s.State())
				assert.Equal(t, notify.LevelSuccess, last.Level)
			}
			assert.Equal(t, tt.wantToken, storedToken(t, tokens))
			repo.AssertExpectations(t)
		})
	}
}

func TestSession_Register(t *testing.T) {
	valid := model.RegisterInput{Username: "bob", Email: "bob@example.com", Password: "secret1", ConfirmPassword: "secret1"}

	t.Run("mismatched confirmation is rejected locally", func(t *testing.T) {
		s, repo, _, _ := newTestSession(t, "")
		in := valid
		in.ConfirmPassword = "different"
		_, err := s.Register(context.Background(), in)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		repo.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})

	t.Run("token in response signs in", func(t *testing.T) {
		s, repo, tokens, _ := newTestSession(t, "")
		bob := &model.User{ID: "u-bob", Username: "bob"}
		repo.On("Register", mock.Anything, valid).Return(&model.AuthResponse{Token: "tok-bob", User: bob}, nil)

		user, err := s.Register(context.Background(), valid)
		require.NoError(t, err)
		assert.Equal(t, "u-bob", user.ID)
		assert.Equal(t, StateAuthenticated, s.State())
		assert.Equal(t, "tok-bob", storedToken(t, tokens))
	})

	t.Run("no token leaves the session signed out", func(t *testing.T) {
		s, repo, tokens, _ := newTestSession(t, "")
		repo.On("Register", mock.Anything, valid).Return(&model.AuthResponse{User: &model.User{Username: "bob"}}, nil)

		user, err := s.Register(context.Background(), valid)
		require.NoError(t, err)
		assert.Equal(t, "bob", user.Username)
		assert.Equal(t, StateUnauthenticated, s.State())
		assert.Empty(t, storedToken(t, tokens))
	})
}

func TestSession_LogoutAlwaysClears(t *testing.T) {
	s, repo, tokens, _ := newTestSession(t, "tok")
	repo.On("CurrentUser", mock.Anything).Return(alice, nil)
	repo.On("Logout", mock.Anything).Return(errors.New("connection refused"))
	require.NoError(t, s.Init(context.Background()))
	require.Equal(t, StateAuthenticated, s.State())

	require.NoError(t, s.Logout(context.Background()))

	assert.Equal(t, StateUnauthenticated, s.State())
	assert.Nil(t, s.User())
	assert.Empty(t, storedToken(t, tokens))
	repo.AssertExpectations(t)
}

// stuckTokenStore holds a token it cannot delete.
type stuckTokenStore struct{ auth.TokenStore }

func (stuckTokenStore) Clear(context.Context) error { return errors.New("redis del: connection refused") }

func TestSession_LogoutReportsClearFailure(t *testing.T) {
	repo := new(MockAuthRepository)
	tokens := auth.NewMemoryTokenStore()
	require.NoError(t, tokens.SetToken(context.Background(), "tok"))
	rec := &notify.Recorder{}
	s := NewSession(repo, stuckTokenStore{tokens}, rec, nil)
	repo.On("CurrentUser", mock.Anything).Return(alice, nil)
	repo.On("Logout", mock.Anything).Return(nil)
	require.NoError(t, s.Init(context.Background()))

	err := s.Logout(context.Background())
	assert.EqualError(t, err, "clear token: redis del: connection refused")
	assert.Nil(t, s.User())
	for _, n := range rec.Notices() {
		assert.NotEqual(t, "Logged out", n.Title)
	}
}

func TestSession_HandleAuthLost(t *testing.T) {
	s, repo, _, rec := newTestSession(t, "tok")
	repo.On("CurrentUser", mock.Anything).Return(alice, nil)
	require.NoError(t, s.Init(context.Background()))

	s.HandleAuthLost()

	assert.Equal(t, StateUnauthenticated, s.State())
	last, _ := rec.Last()
	assert.Equal(t, "Session expired", last.Title)

	n := len(rec.Notices())
	s.HandleAuthLost()
	assert.Len(t, rec.Notices(), n, "no second notice when already signed out")
}

func TestSession_RequireRole(t *testing.T) {
	s, repo, _, _ := newTestSession(t, "tok")
	assert.ErrorIs(t, s.RequireRole(model.RoleUser), apperrors.ErrUnauthenticated)

	repo.On("CurrentUser", mock.Anything).Return(alice, nil)
	require.NoError(t, s.Init(context.Background()))
	assert.NoError(t, s.RequireRole(model.RoleUser))
	assert.ErrorIs(t, s.RequireRole(model.RoleAdmin), apperrors.ErrForbidden)
}

func TestSession_UpdateProfile(t *testing.T) {
	name := "alicia"

	t.Run("requires a session", func(t *testing.T) {
		s, repo, _, _ := newTestSession(t, "")
		_, err := s.UpdateProfile(context.Background(), model.ProfileUpdate{Username: &name})
		assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
		repo.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything)
	})

	t.Run("replaces the cached user", func(t *testing.T) {
		s, repo, _, _ := newTestSession(t, "tok")
		repo.On("CurrentUser", mock.Anything).Return(alice, nil)
		require.NoError(t, s.Init(context.Background()))
		repo.On("UpdateProfile", mock.Anything, model.ProfileUpdate{Username: &name}).
			Return(&model.User{ID: alice.ID, Username: name}, nil)

		u, err := s.UpdateProfile(context.Background(), model.ProfileUpdate{Username: &name})
		require.NoError(t, err)
		assert.Equal(t, name, u.Username)
		assert.Equal(t, name, s.User().Username)
	})
}

func TestSession_TokenExpiry(t *testing.T) {
	jwtSvc := auth.NewJWTService("secret")
	token, err := jwtSvc.GenerateAccessToken(auth.Subject{UserID: "u1"})
	require.NoError(t, err)

	s, _, _, _ := newTestSession(t, token)
	exp, err := s.TokenExpiry(context.Background())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(auth.AccessTokenExpiry), exp, 5*time.Second)

	opaque, _, _, _ := newTestSession(t, "opaque")
	exp, err = opaque.TokenExpiry(context.Background())
	require.NoError(t, err)
	assert.True(t, exp.IsZero())
}

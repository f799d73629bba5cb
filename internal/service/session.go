package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"cyberguard/internal/auth"
	apperrors "cyberguard/internal/errors"
	"cyberguard/internal/model"
	"cyberguard/internal/notify"
	"cyberguard/internal/repository"
	"cyberguard/internal/validation"
)

// ErrNoToken is returned when login or registration succeeds without a token.
var ErrNoToken = errors.New("response carried no access token")

// State of a session.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticated   State = "authenticated"
)

// Identity is what the resource services need to know about the session.
type Identity interface {
	User() *model.User
	RequireRole(role string) error
}

// Session owns the signed-in user and the token lifecycle.
type Session interface {
	Identity
	Init(ctx context.Context) error
	Login(ctx context.Context, username, password string) (*model.User, error)
	Register(ctx context.Context, in model.RegisterInput) (*model.User, error)
	UpdateProfile(ctx context.Context, in model.ProfileUpdate) (*model.User, error)
	Logout(ctx context.Context) error
	HandleAuthLost()
	State() State
	Loading() bool
	TokenExpiry(ctx context.Context) (time.Time, error)
}

type session struct {
	repo     repository.AuthRepository
	tokens   auth.TokenStore
	notifier notify.Notifier
	logger   *zap.Logger

	mu      sync.RWMutex
	user    *model.User
	loading int
}

// NewSession creates an unauthenticated session.
func NewSession(repo repository.AuthRepository, tokens auth.TokenStore, notifier notify.Notifier, logger *zap.Logger) Session {
	notifier, logger = orDefaults(notifier, logger)
	return &session{
		repo:     repo,
		tokens:   tokens,
		notifier: notifier,
		logger:   logger.Named("session"),
	}
}

func (s *session) begin() func() {
	s.mu.Lock()
	s.loading++
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.loading--
		s.mu.Unlock()
	}
}

func (s *session) setUser(u *model.User) {
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
}

// Init restores the session from a stored token. A token the backend no
// longer accepts is discarded.
func (s *session) Init(ctx context.Context) error {
	defer s.begin()()

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	if token == "" {
		s.setUser(nil)
		return nil
	}

	user, err := s.repo.CurrentUser(ctx)
	if err != nil {
		s.logger.Info("stored token rejected", zap.Error(err))
		if cerr := s.tokens.Clear(ctx); cerr != nil {
			s.logger.Warn("clear token", zap.Error(cerr))
		}
		s.setUser(nil)
		return fmt.Errorf("restore session: %w", err)
	}
	s.setUser(user)
	s.logger.Debug("session restored", zap.String("user", user.Username))
	return nil
}

// Login authenticates with the backend. There are no local credential shortcuts.
func (s *session) Login(ctx context.Context, username, password string) (*model.User, error) {
	defer s.begin()()

	in := model.LoginInput{Username: strings.TrimSpace(username), Password: password}
	if err := validation.Struct(in); err != nil {
		s.notifier.Notify(notify.Failure("Login failed", err))
		return nil, err
	}

	res, err := s.repo.Login(ctx, in)
	if err != nil {
		s.notifier.Notify(notify.Failure("Login failed", err))
		return nil, err
	}
	user, err := s.adopt(ctx, res)
	if err != nil {
		s.notifier.Notify(notify.Failure("Login failed", err))
		return nil, err
	}
	s.notifier.Notify(notify.Success("Welcome back!", "You have been logged in successfully."))
	return user, nil
}

// Register creates an account. The session becomes authenticated only when
// the backend answers with a token.
func (s *session) Register(ctx context.Context, in model.RegisterInput) (*model.User, error) {
	defer s.begin()()

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validation.Struct(in); err != nil {
		s.notifier.Notify(notify.Failure("Registration failed", err))
		return nil, err
	}

	res, err := s.repo.Register(ctx, in)
	if err != nil {
		s.notifier.Notify(notify.Failure("Registration failed", err))
		return nil, err
	}
	if res.BearerToken() == "" {
		s.notifier.Notify(notify.Success("Account created!", "You can now log in."))
		return res.User, nil
	}
	user, err := s.adopt(ctx, res)
	if err != nil {
		s.notifier.Notify(notify.Failure("Registration failed", err))
		return nil, err
	}
	s.notifier.Notify(notify.Success("Account created!", "Welcome to CyberGuard."))
	return user, nil
}

// adopt stores the token from res and resolves the user it belongs to.
func (s *session) adopt(ctx context.Context, res *model.AuthResponse) (*model.User, error) {
	token := res.BearerToken()
	if token == "" {
		return nil, ErrNoToken
	}
	if err := s.tokens.SetToken(ctx, token); err != nil {
		return nil, err
	}
	user := res.User
	if user == nil {
		var err error
		if user, err = s.repo.CurrentUser(ctx); err != nil {
			_ = s.tokens.Clear(ctx)
			return nil, err
		}
	}
	s.setUser(user)
	return user, nil
}

func (s *session) UpdateProfile(ctx context.Context, in model.ProfileUpdate) (*model.User, error) {
	if err := s.RequireRole(model.RoleUser); err != nil {
		s.notifier.Notify(notify.Failure("Profile not updated", err))
		return nil, err
	}
	defer s.begin()()

	if err := validation.Struct(in); err != nil {
		s.notifier.Notify(notify.Failure("Profile not updated", err))
		return nil, err
	}
	user, err := s.repo.UpdateProfile(ctx, in)
	if err != nil {
		s.notifier.Notify(notify.Failure("Profile not updated", err))
		return nil, err
	}
	s.setUser(user)
	s.notifier.Notify(notify.Success("Profile updated", ""))
	return user, nil
}

// Logout always ends the local session; the backend call is best effort.
func (s *session) Logout(ctx context.Context) error {
	defer s.begin()()

	if err := s.repo.Logout(ctx); err != nil {
		s.logger.Info("backend logout failed", zap.Error(err))
	}
	s.setUser(nil)
	if err := s.tokens.Clear(ctx); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	s.notifier.Notify(notify.Info("Logged out", "You have been logged out."))
	return nil
}

// HandleAuthLost drops the user after the client failed to refresh the token.
func (s *session) HandleAuthLost() {
	s.mu.Lock()
	had := s.user != nil
	s.user = nil
	s.mu.Unlock()
	if had {
		s.notifier.Notify(notify.Info("Session expired", "Please log in again."))
	}
}

// User returns a copy of the signed-in user, or nil.
func (s *session) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return StateUnauthenticated
	}
	return StateAuthenticated
}

func (s *session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading > 0
}

// TokenExpiry reports when the stored token expires. Opaque tokens and an
// empty store yield the zero time.
func (s *session) TokenExpiry(ctx context.Context) (time.Time, error) {
	token, err := s.tokens.Token(ctx)
	if err != nil || token == "" {
		return time.Time{}, err
	}
	return auth.ExpiresAt(token), nil
}

// RequireRole fails with ErrUnauthenticated when nobody is signed in and
// ErrForbidden when the user ranks below role.
func (s *session) RequireRole(role string) error {
	u := s.User()
	if u == nil {
		return apperrors.ErrUnauthenticated
	}
	if !u.HasRole(role) {
		return fmt.Errorf("%w: requires %s", apperrors.ErrForbidden, role)
	}
	return nil
}

func orDefaults(n notify.Notifier, l *zap.Logger) (notify.Notifier, *zap.Logger) {
	if n == nil {
		n = notify.Nop{}
	}
	if l == nil {
		l = zap.NewNop()
	}
	return n, l
}

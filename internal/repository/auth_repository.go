package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"cyberguard/internal/model"
)

// AuthRepository wraps the /auth session endpoints.
type AuthRepository interface {
	Login(ctx context.Context, in model.LoginInput) (*model.AuthResponse, error)
	Register(ctx context.Context, in model.RegisterInput) (*model.AuthResponse, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*model.User, error)
	UpdateProfile(ctx context.Context, in model.ProfileUpdate) (*model.User, error)
}

type authRepository struct {
	api API
}

// NewAuthRepository builds an HTTP-backed AuthRepository.
func NewAuthRepository(api API) AuthRepository {
	return &authRepository{api: api}
}

func (r *authRepository) Login(ctx context.Context, in model.LoginInput) (*model.AuthResponse, error) {
	var out model.AuthResponse
	if err := r.api.PublicJSON(ctx, http.MethodPost, "/auth/login", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *authRepository) Register(ctx context.Context, in model.RegisterInput) (*model.AuthResponse, error) {
	var out model.AuthResponse
	if err := r.api.PublicJSON(ctx, http.MethodPost, "/auth/register", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes the refresh cookie. It is sent without the bearer token so an
// expired session never triggers a refresh on the way out.
func (r *authRepository) Logout(ctx context.Context) error {
	return r.api.PublicJSON(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

func (r *authRepository) CurrentUser(ctx context.Context) (*model.User, error) {
	var raw json.RawMessage
	if err := r.api.JSON(ctx, http.MethodGet, "/auth/user", nil, &raw); err != nil {
		return nil, err
	}
	return decodeUser(raw)
}

// UpdateProfile accepts either a bare user or a {user} envelope.
func (r *authRepository) UpdateProfile(ctx context.Context, in model.ProfileUpdate) (*model.User, error) {
	var raw json.RawMessage
	if err := r.api.JSON(ctx, http.MethodPatch, "/auth/profile", in, &raw); err != nil {
		return nil, err
	}
	return decodeUser(raw)
}

func decodeUser(raw json.RawMessage) (*model.User, error) {
	var env struct {
		User *model.User `json:"user"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && env.User != nil {
		return env.User, nil
	}
	var u model.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &u, nil
}

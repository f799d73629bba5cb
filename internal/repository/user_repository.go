package repository

import (
	"context"
	"net/http"

	"cyberguard/internal/model"
)

// UserRepository wraps the admin user-management endpoints under /auth.
type UserRepository interface {
	List(ctx context.Context) ([]model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	CreateAdmin(ctx context.Context, in model.CreateAdminInput) (*model.User, error)
	Promote(ctx context.Context, id string) (*model.MessageResponse, error)
	Delete(ctx context.Context, id string) (*model.MessageResponse, error)
}

type userRepository struct {
	api API
}

// NewUserRepository builds an HTTP-backed UserRepository.
func NewUserRepository(api API) UserRepository {
	return &userRepository{api: api}
}

func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.api.JSON(ctx, http.MethodGet, "/auth/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := r.api.JSON(ctx, http.MethodGet, path("/auth/user", id), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) CreateAdmin(ctx context.Context, in model.CreateAdminInput) (*model.User, error) {
	var user model.User
	if err := r.api.JSON(ctx, http.MethodPost, "/auth/admin", in, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Promote(ctx context.Context, id string) (*model.MessageResponse, error) {
	var msg model.MessageResponse
	if err := r.api.JSON(ctx, http.MethodPatch, path("/auth/promote", id), nil, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *userRepository) Delete(ctx context.Context, id string) (*model.MessageResponse, error) {
	var msg model.MessageResponse
	if err := r.api.JSON(ctx, http.MethodDelete, path("/auth/user", id), nil, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

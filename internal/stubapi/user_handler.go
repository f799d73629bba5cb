package stubapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "cyberguard/internal/errors"
	"cyberguard/internal/model"
)

// UserHandler serves the admin user-management endpoints.
type UserHandler struct {
	store *Store
}

// NewUserHandler creates a user handler.
func NewUserHandler(store *Store) *UserHandler {
	return &UserHandler{store: store}
}

// ListUsers handles GET /auth/users.
func (h *UserHandler) ListUsers(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.Users())
}

// GetUser handles GET /auth/user/:id.
func (h *UserHandler) GetUser(c echo.Context) error {
	user, err := h.store.User(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// CreateAdmin handles POST /auth/admin.
func (h *UserHandler) CreateAdmin(c echo.Context) error {
	var req model.CreateAdminInput
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.store.CreateUser(strings.TrimSpace(req.Username), strings.TrimSpace(req.Email), req.Password, model.RoleAdmin)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, user)
}

// Promote handles PATCH /auth/promote/:id.
func (h *UserHandler) Promote(c echo.Context) error {
	user, err := h.store.Promote(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return message(c, http.StatusOK, fmt.Sprintf("%s is now an admin", user.Username))
}

// DeleteUser handles DELETE /auth/user/:id. Admins cannot delete themselves.
func (h *UserHandler) DeleteUser(c echo.Context) error {
	actor, err := currentUser(c, h.store)
	if err != nil {
		return err
	}
	id := c.Param("id")
	if id == actor.ID {
		return httpError(fmt.Errorf("%w: cannot delete your own account", apperrors.ErrInvalidInput))
	}
	if err := h.store.DeleteUser(id); err != nil {
		return httpError(err)
	}
	return message(c, http.StatusOK, "User deleted")
}

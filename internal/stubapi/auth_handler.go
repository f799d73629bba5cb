package stubapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"cyberguard/internal/auth"
	apperrors "cyberguard/internal/errors"
	"cyberguard/internal/model"
)

// RefreshCookie carries the refresh token between login and /auth/refresh.
const RefreshCookie = "refreshToken"

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	store   *Store
	jwt     *auth.JWTService
	refresh auth.RefreshStore
	logger  *zap.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(store *Store, jwtService *auth.JWTService, refresh auth.RefreshStore, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{store: store, jwt: jwtService, refresh: refresh, logger: logger}
}

func subjectOf(u model.User) auth.Subject {
	return auth.Subject{UserID: u.ID, Username: u.Username, Role: u.EffectiveRole()}
}

// issue signs an access token and sets a fresh refresh cookie.
func (h *AuthHandler) issue(c echo.Context, u model.User) (string, error) {
	sub := subjectOf(u)
	access, err := h.jwt.GenerateAccessToken(sub)
	if err != nil {
		return "", err
	}
	tokenID, refresh, err := h.jwt.GenerateRefreshToken(sub)
	if err != nil {
		return "", err
	}
	if err := h.refresh.StoreRefreshToken(c.Request().Context(), tokenID, sub, auth.RefreshTokenExpiry); err != nil {
		return "", err
	}
	c.SetCookie(&http.Cookie{
		Name:     RefreshCookie,
		Value:    refresh,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(auth.RefreshTokenExpiry / time.Second),
	})
	return access, nil
}

func clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     RefreshCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c echo.Context) error {
	var req model.RegisterInput
	if err := bind(c, &req); err != nil {
		return err
	}

	// Self-registration never grants a privileged role.
	user, err := h.store.CreateUser(strings.TrimSpace(req.Username), strings.TrimSpace(req.Email), req.Password, model.RoleUser)
	if err != nil {
		return httpError(err)
	}
	token, err := h.issue(c, user)
	if err != nil {
		return httpError(err)
	}
	h.logger.Info("user registered", zap.String("user_id", user.ID))
	return c.JSON(http.StatusCreated, model.AuthResponse{Token: token, User: &user})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req model.LoginInput
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.store.Authenticate(req.Username, req.Password)
	if err != nil {
		return httpError(err)
	}
	token, err := h.issue(c, user)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, model.AuthResponse{Token: token, User: &user})
}

// Refresh handles POST /auth/refresh. The refresh token only travels in the
// HttpOnly cookie.
func (h *AuthHandler) Refresh(c echo.Context) error {
	invalid := echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
		Error: "invalid refresh token",
		Code:  "INVALID_REFRESH_TOKEN",
	})

	cookie, err := c.Cookie(RefreshCookie)
	if err != nil || cookie.Value == "" {
		return invalid
	}
	tokenID, err := h.jwt.ExtractTokenID(cookie.Value)
	if err != nil {
		return invalid
	}
	sub, err := h.refresh.GetRefreshToken(c.Request().Context(), tokenID)
	if err != nil {
		return invalid
	}
	user, err := h.store.User(sub.UserID)
	if err != nil {
		_ = h.refresh.DeleteRefreshToken(c.Request().Context(), tokenID)
		return invalid
	}

	access, err := h.jwt.GenerateAccessToken(subjectOf(user))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"accessToken": access})
}

// Logout handles POST /auth/logout. It succeeds without a cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(RefreshCookie); err == nil && cookie.Value != "" {
		if tokenID, err := h.jwt.ExtractTokenID(cookie.Value); err == nil {
			if err := h.refresh.DeleteRefreshToken(c.Request().Context(), tokenID); err != nil {
				h.logger.Warn("revoke refresh token", zap.Error(err))
			}
		}
	}
	clearRefreshCookie(c)
	return message(c, http.StatusOK, "Logged out successfully")
}

// CurrentUser handles GET /auth/user.
func (h *AuthHandler) CurrentUser(c echo.Context) error {
	user, err := currentUser(c, h.store)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateProfile handles PATCH /auth/profile.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	user, err := currentUser(c, h.store)
	if err != nil {
		return err
	}
	var req model.ProfileUpdate
	if err := bind(c, &req); err != nil {
		return err
	}
	updated, err := h.store.UpdateProfile(user.ID, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Profile updated",
		"user":    updated,
	})
}

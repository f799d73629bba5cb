package stubapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"cyberguard/internal/auth"
	apperrors "cyberguard/internal/errors"
	"cyberguard/internal/model"
)

// claimsKey is where the JWT middleware leaves the parsed claims.
const claimsKey = "user"

// httpError maps store and validation errors onto the API's error shape.
func httpError(err error) *echo.HTTPError {
	var (
		status int
		code   string
	)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, apperrors.ErrConflict):
		status, code = http.StatusConflict, "ALREADY_EXISTS"
	case errors.Is(err, apperrors.ErrInvalidInput):
		status, code = http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, apperrors.ErrForbidden):
		status, code = http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, ErrInvalidCredentials):
		status, code = http.StatusUnauthorized, "INVALID_CREDENTIALS"
	case errors.Is(err, apperrors.ErrUnauthenticated):
		status, code = http.StatusUnauthorized, "UNAUTHENTICATED"
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, apperrors.ErrorResponse{
			Error: "internal error",
			Code:  "INTERNAL",
		}).SetInternal(err)
	}
	return echo.NewHTTPError(status, apperrors.ErrorResponse{Error: err.Error(), Code: code})
}

func invalidBody() *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
		Error: "invalid request body",
		Code:  "INVALID_REQUEST",
	})
}

// bind decodes and validates the request body into req.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return invalidBody()
	}
	if err := c.Validate(req); err != nil {
		return httpError(err)
	}
	return nil
}

func message(c echo.Context, status int, msg string) error {
	return c.JSON(status, model.MessageResponse{Message: msg})
}

// currentUser resolves the token's subject against the store, so a deleted
// account or a changed role takes effect immediately.
func currentUser(c echo.Context, store *Store) (model.User, error) {
	claims, ok := c.Get(claimsKey).(*auth.Claims)
	if !ok {
		return model.User{}, httpError(apperrors.ErrUnauthenticated)
	}
	u, err := store.User(claims.UserID)
	if err != nil {
		return model.User{}, httpError(apperrors.ErrUnauthenticated)
	}
	return u, nil
}

// requireRole rejects requests from users ranked below role.
func requireRole(store *Store, role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, err := currentUser(c, store)
			if err != nil {
				return err
			}
			if !u.HasRole(role) {
				return echo.NewHTTPError(http.StatusForbidden, apperrors.ErrorResponse{
					Error: "Access denied",
					Code:  "FORBIDDEN",
				})
			}
			return next(c)
		}
	}
}

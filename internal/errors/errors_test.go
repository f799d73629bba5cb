package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromResponse(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
		code    string
	}{
		{"msg field wins", http.StatusBadRequest, `{"msg":"username taken","message":"other"}`, "username taken", ""},
		{"message field", http.StatusUnauthorized, `{"message":"Invalid credentials"}`, "Invalid credentials", ""},
		{"error and code", http.StatusNotFound, `{"error":"post not found","code":"POST_NOT_FOUND"}`, "post not found", "POST_NOT_FOUND"},
		{"plain text", http.StatusInternalServerError, "boom\n", "boom", ""},
		{"empty body", http.StatusBadGateway, "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			herr := FromResponse(tt.status, []byte(tt.body))
			assert.Equal(t, tt.status, herr.StatusCode)
			assert.Equal(t, tt.message, herr.Message)
			assert.Equal(t, tt.code, herr.Code)
		})
	}
}

func TestHTTPError_UnwrapsToSentinel(t *testing.T) {
	wrapped := fmt.Errorf("delete post: %w", NewHTTPError(http.StatusNotFound, "post not found", ""))

	assert.ErrorIs(t, wrapped, ErrNotFound)
	assert.NotErrorIs(t, wrapped, ErrUnauthenticated)
	assert.Equal(t, http.StatusNotFound, StatusCode(wrapped))
	assert.Equal(t, "Bad Gateway", NewHTTPError(http.StatusBadGateway, "", "").Error())
}

func TestKindOf(t *testing.T) {
	netErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

	assert.Equal(t, KindValidation, KindOf(fmt.Errorf("%w: description too short", ErrInvalidInput)))
	assert.Equal(t, KindAuth, KindOf(NewHTTPError(http.StatusUnauthorized, "expired", "")))
	assert.Equal(t, KindAuth, KindOf(ErrForbidden))
	assert.Equal(t, KindHTTP, KindOf(NewHTTPError(http.StatusInternalServerError, "boom", "")))
	assert.Equal(t, KindNetwork, KindOf(fmt.Errorf("get posts: %w", netErr)))
	assert.Equal(t, KindUnknown, KindOf(context.Canceled))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

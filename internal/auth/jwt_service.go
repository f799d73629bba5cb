package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// AccessTokenExpiry is the duration for which access tokens are valid.
	AccessTokenExpiry = 15 * time.Minute
	// RefreshTokenExpiry is the duration for which refresh tokens are valid.
	RefreshTokenExpiry = 7 * 24 * time.Hour
)

// ErrNotJWT is returned by ParseClaims for opaque tokens.
var ErrNotJWT = errors.New("token is not a JWT")

// Claims represents JWT claims.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Subject is the identity a token is issued for.
type Subject struct {
	UserID   string
	Username string
	Role     string
}

// JWTService handles JWT token generation and validation.
type JWTService struct {
	secret []byte
	now    func() time.Time
}

// JWTOption configures a JWTService.
type JWTOption func(*JWTService)

// WithClock replaces the time source used to stamp and check tokens.
func WithClock(now func() time.Time) JWTOption {
	return func(s *JWTService) { s.now = now }
}

// NewJWTService creates a new JWT service with the given secret.
func NewJWTService(secret string, opts ...JWTOption) *JWTService {
	s := &JWTService{
		secret: []byte(secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Secret returns the signing key, for echo-jwt.
func (s *JWTService) Secret() []byte {
	return s.secret
}

func (s *JWTService) sign(sub Subject, id string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID:   sub.UserID,
		Username: sub.Username,
		Role:     sub.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   sub.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// GenerateAccessToken generates a new access token for the user.
func (s *JWTService) GenerateAccessToken(sub Subject) (string, error) {
	return s.sign(sub, uuid.NewString(), AccessTokenExpiry)
}

// GenerateRefreshToken generates a new refresh token for the user.
// The refresh token ID is returned separately for storage.
func (s *JWTService) GenerateRefreshToken(sub Subject) (tokenID string, token string, err error) {
	tokenID = uuid.NewString()
	token, err = s.sign(sub, tokenID, RefreshTokenExpiry)
	return tokenID, token, err
}

// ValidateToken validates a JWT token and returns the claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// ExtractTokenID extracts the token ID (JTI) from a refresh token.
func (s *JWTService) ExtractTokenID(tokenString string) (string, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}
	if claims.ID == "" {
		return "", errors.New("token ID not found")
	}
	return claims.ID, nil
}

// ParseClaims decodes the claims of token without verifying its signature.
// Clients use it to read expiry and identity; it is not an authorization check.
func ParseClaims(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, ErrNotJWT
	}
	return claims, nil
}

// ExpiresAt returns the expiry of token, or the zero time when it is opaque
// or carries no exp claim.
func ExpiresAt(token string) time.Time {
	claims, err := ParseClaims(token)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

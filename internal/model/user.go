package model

import (
	"encoding/json"
	"time"
)

// Role names as the backend spells them.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

var roleRank = map[string]int{
	RoleUser:      1,
	RoleModerator: 2,
	RoleAdmin:     3,
}

// User is the account the session is authenticated as.
type User struct {
	ID          string    `json:"_id"`
	Username    string    `json:"username"`
	Email       string    `json:"email,omitempty"`
	Role        string    `json:"role,omitempty"`
	IsAdmin     bool      `json:"isAdmin"`
	IsModerator bool      `json:"isModerator,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// UnmarshalJSON accepts both `id` and `_id`, and derives the admin and
// moderator flags from the role field.
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var aux struct {
		plain
		AltID string `json:"id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*u = User(aux.plain)
	if u.ID == "" {
		u.ID = aux.AltID
	}
	switch u.Role {
	case RoleAdmin:
		u.IsAdmin = true
	case RoleModerator:
		u.IsModerator = true
	}
	return nil
}

// EffectiveRole resolves the role from the flags first, then the role field.
func (u *User) EffectiveRole() string {
	switch {
	case u == nil:
		return ""
	case u.IsAdmin:
		return RoleAdmin
	case u.IsModerator:
		return RoleModerator
	default:
		return RoleUser
	}
}

// HasRole reports whether u ranks at or above required.
func (u *User) HasRole(required string) bool {
	if u == nil {
		return false
	}
	need, ok := roleRank[required]
	if !ok {
		return false
	}
	return roleRank[u.EffectiveRole()] >= need
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"accessToken,omitempty"`
	User        *User  `json:"user"`
}

// BearerToken returns whichever token field the backend filled in.
func (r *AuthResponse) BearerToken() string {
	if r.Token != "" {
		return r.Token
	}
	return r.AccessToken
}

// Package session owns the authenticated-user state of the client: the
// current user, the access/refresh token pair, and a wall-clock expiry.
// It is the single source of truth for "is there a valid logged-in user";
// everything else in the client consumes its exposed state.
package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the set of roles a MyHome user can hold.
type Role string

const (
	RoleAdmin         Role = "admin"
	RoleCaregiver     Role = "caregiver"
	RoleDoctor        Role = "doctor"
	RoleSupervisor    Role = "supervisor"
	RoleFacilityOwner Role = "facility_owner"
)

var validRoles = map[Role]bool{
	RoleAdmin: true, RoleCaregiver: true, RoleDoctor: true,
	RoleSupervisor: true, RoleFacilityOwner: true,
}

func (r Role) Valid() bool { return validRoles[r] }

// User is the identity record of the authenticated user. It is owned
// exclusively by the session manager: replaced wholesale on login and on
// startup verification, cleared on logout or expiry.
type User struct {
	ID            string  `json:"id"`
	Email         string  `json:"email"`
	Name          string  `json:"name"`
	Role          Role    `json:"role"`
	FacilityID    *string `json:"facility_id,omitempty"`
	IsActive      bool    `json:"is_active"`
	EmailVerified bool    `json:"email_verified"`
}

// Tokens is the bearer credential pair. AccessToken is replaced on every
// refresh; RefreshToken stays stable across refreshes unless the backend
// issues a new one.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Session is the in-memory and persisted record of the current
// authenticated user. User and Tokens are both present or both absent;
// authenticated state is all-or-nothing.
type Session struct {
	User      User      `json:"user"`
	Tokens    Tokens    `json:"tokens"`
	ExpiresAt time.Time `json:"expiry"`
}

// Live reports whether the session has not yet passed its expiry.
func (s *Session) Live(now time.Time) bool {
	return s != nil && now.Before(s.ExpiresAt)
}

// RegisterData is the payload for creating a new user account.
// Registration does not authenticate the caller; a separate login is
// required afterwards.
type RegisterData struct {
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	Name       string  `json:"name"`
	Role       Role    `json:"role"`
	FacilityID *string `json:"facility_id,omitempty"`
}

// tokenExpiry extracts the exp claim from an access token when the token is
// a parseable JWT. The signature is deliberately not verified: the claim is
// only used to bound the client-side expiry estimate, never to grant
// anything. Opaque tokens return false.
func tokenExpiry(accessToken string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(accessToken, claims)
	if err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

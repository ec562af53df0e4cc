package sandbox

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/myhome/myhome/internal/session"
)

// tokenIssuer mints and verifies the sandbox's HS256 access tokens. Tokens
// carry a real exp claim so clients exercising JWT-derived expiry get
// honest values.
type tokenIssuer struct {
	key []byte
	ttl time.Duration
}

func (t *tokenIssuer) issue(u *session.User, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":   u.ID,
		"email": u.Email,
		"role":  string(u.Role),
		"iat":   now.Unix(),
		"exp":   now.Add(t.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
}

// verify checks the signature and expiry and returns the subject user ID.
func (t *tokenIssuer) verify(tokenStr string) (string, error) {
	claims := jwt.MapClaims{}
	tok, err := jwt.ParseWithClaims(tokenStr, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.key, nil
	})
	if err != nil {
		return "", err
	}
	if !tok.Valid {
		return "", fmt.Errorf("invalid token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("token missing subject")
	}
	return sub, nil
}

type refreshGrant struct {
	userID    string
	expiresAt time.Time
}

// refreshStore holds opaque refresh tokens. Tokens are not rotated on use:
// a refresh keeps its token valid until logout or expiry, matching the
// backend contract the client is built against.
type refreshStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	grants map[string]refreshGrant
}

func newRefreshStore(ttl time.Duration) *refreshStore {
	return &refreshStore{ttl: ttl, grants: make(map[string]refreshGrant)}
}

func (r *refreshStore) issue(userID string, now time.Time) string {
	token := uuid.NewString()
	r.mu.Lock()
	r.grants[token] = refreshGrant{userID: userID, expiresAt: now.Add(r.ttl)}
	r.mu.Unlock()
	return token
}

func (r *refreshStore) validate(token string, now time.Time) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.grants[token]
	if !ok {
		return "", fmt.Errorf("unknown refresh token")
	}
	if now.After(g.expiresAt) {
		delete(r.grants, token)
		return "", fmt.Errorf("refresh token expired")
	}
	return g.userID, nil
}

func (r *refreshStore) revoke(token string) {
	r.mu.Lock()
	delete(r.grants, token)
	r.mu.Unlock()
}

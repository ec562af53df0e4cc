package sandbox

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/myhome/myhome/internal/session"
)

type account struct {
	user session.User
	hash []byte
}

// userStore is the sandbox's in-memory account table.
type userStore struct {
	mu      sync.RWMutex
	byID    map[string]*account
	byEmail map[string]*account
	order   []string
}

func newUserStore() *userStore {
	return &userStore{
		byID:    make(map[string]*account),
		byEmail: make(map[string]*account),
	}
}

func (s *userStore) create(email, password, name string, role session.Role, facilityID *string) (*session.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required")
	}
	if role != "" && !role.Valid() {
		return nil, fmt.Errorf("invalid role: %s", role)
	}
	if role == "" {
		role = session.RoleCaregiver
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[email]; exists {
		return nil, fmt.Errorf("an account with email %s already exists", email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	acc := &account{
		user: session.User{
			ID:            uuid.NewString(),
			Email:         email,
			Name:          name,
			Role:          role,
			FacilityID:    facilityID,
			IsActive:      true,
			EmailVerified: false,
		},
		hash: hash,
	}
	s.byID[acc.user.ID] = acc
	s.byEmail[email] = acc
	s.order = append(s.order, acc.user.ID)

	u := acc.user
	return &u, nil
}

func (s *userStore) authenticate(email, password string) (*session.User, error) {
	s.mu.RLock()
	acc, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("invalid email or password")
	}
	if !acc.user.IsActive {
		return nil, fmt.Errorf("account is deactivated")
	}
	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid email or password")
	}
	u := acc.user
	return &u, nil
}

func (s *userStore) get(id string) (*session.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	u := acc.user
	return &u, true
}

func (s *userStore) list(role session.Role) []*session.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*session.User, 0, len(s.order))
	for _, id := range s.order {
		u := s.byID[id].user
		if role != "" && u.Role != role {
			continue
		}
		cp := u
		out = append(out, &cp)
	}
	return out
}

func (s *userStore) update(id string, name string, role session.Role, facilityID *string, active *bool) (*session.User, error) {
	if role != "" && !role.Valid() {
		return nil, fmt.Errorf("invalid role: %s", role)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("user not found")
	}
	if name != "" {
		acc.user.Name = name
	}
	if role != "" {
		acc.user.Role = role
	}
	if facilityID != nil {
		acc.user.FacilityID = facilityID
	}
	if active != nil {
		acc.user.IsActive = *active
	}
	u := acc.user
	return &u, nil
}

func (s *userStore) deactivate(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("user not found")
	}
	acc.user.IsActive = false
	return nil
}

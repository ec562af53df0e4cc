package api

import (
	"context"
	"net/url"
	"time"

	"github.com/myhome/myhome/internal/session"
)

// User is a staff account as administered through the users screens, a
// superset of the identity record the session manager holds.
type User struct {
	ID            string       `json:"id"`
	Email         string       `json:"email"`
	Name          string       `json:"name"`
	Role          session.Role `json:"role"`
	FacilityID    *string      `json:"facility_id,omitempty"`
	IsActive      bool         `json:"is_active"`
	EmailVerified bool         `json:"email_verified"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

type userPage struct {
	Data  []*User `json:"data"`
	Total int     `json:"total"`
}

// ListUsers returns staff accounts, optionally filtered by role.
func (c *Client) ListUsers(ctx context.Context, role session.Role, p ListParams) ([]*User, int, error) {
	q := p.query()
	if role != "" {
		q.Set("role", string(role))
	}
	var page userPage
	if err := c.get(ctx, "/api/v1/users", q, &page); err != nil {
		return nil, 0, err
	}
	return page.Data, page.Total, nil
}

func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	var u User
	if err := c.get(ctx, "/api/v1/users/"+id, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, u *User) (*User, error) {
	var updated User
	if err := c.put(ctx, "/api/v1/users/"+id, u, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeactivateUser clears the account's active flag; accounts are never hard
// deleted so their history stays attributable.
func (c *Client) DeactivateUser(ctx context.Context, id string) error {
	return c.del(ctx, "/api/v1/users/"+id)
}

func residentQuery(residentID string, p ListParams) url.Values {
	q := p.query()
	if residentID != "" {
		q.Set("resident_id", residentID)
	}
	return q
}

package api

import (
	"context"
	"time"
)

// Contact is a family member or other person associated with a resident.
type Contact struct {
	ID           string    `json:"id"`
	ResidentID   string    `json:"resident_id"`
	Name         string    `json:"name"`
	Relationship *string   `json:"relationship,omitempty"`
	Phone        *string   `json:"phone,omitempty"`
	Email        *string   `json:"email,omitempty"`
	Address      *string   `json:"address,omitempty"`
	IsEmergency  bool      `json:"is_emergency"`
	IsPrimary    bool      `json:"is_primary"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type contactPage struct {
	Data  []*Contact `json:"data"`
	Total int        `json:"total"`
}

func (c *Client) ListContacts(ctx context.Context, residentID string, p ListParams) ([]*Contact, int, error) {
	var page contactPage
	if err := c.get(ctx, "/api/v1/contacts", residentQuery(residentID, p), &page); err != nil {
		return nil, 0, err
	}
	return page.Data, page.Total, nil
}

func (c *Client) GetContact(ctx context.Context, id string) (*Contact, error) {
	var ct Contact
	if err := c.get(ctx, "/api/v1/contacts/"+id, nil, &ct); err != nil {
		return nil, err
	}
	return &ct, nil
}

func (c *Client) CreateContact(ctx context.Context, ct *Contact) (*Contact, error) {
	var created Contact
	if err := c.post(ctx, "/api/v1/contacts", ct, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateContact(ctx context.Context, id string, ct *Contact) (*Contact, error) {
	var updated Contact
	if err := c.put(ctx, "/api/v1/contacts/"+id, ct, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteContact(ctx context.Context, id string) error {
	return c.del(ctx, "/api/v1/contacts/"+id)
}

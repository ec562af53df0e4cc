package api

import (
	"context"
	"time"
)

// Facility is a care home administered through MyHome.
type Facility struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Address    *string   `json:"address,omitempty"`
	City       *string   `json:"city,omitempty"`
	State      *string   `json:"state,omitempty"`
	PostalCode *string   `json:"postal_code,omitempty"`
	Phone      *string   `json:"phone,omitempty"`
	Email      *string   `json:"email,omitempty"`
	Capacity   int       `json:"capacity"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type facilityPage struct {
	Data  []*Facility `json:"data"`
	Total int         `json:"total"`
}

func (c *Client) ListFacilities(ctx context.Context, p ListParams) ([]*Facility, int, error) {
	var page facilityPage
	if err := c.get(ctx, "/api/v1/facilities", p.query(), &page); err != nil {
		return nil, 0, err
	}
	return page.Data, page.Total, nil
}

func (c *Client) GetFacility(ctx context.Context, id string) (*Facility, error) {
	var f Facility
	if err := c.get(ctx, "/api/v1/facilities/"+id, nil, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Client) CreateFacility(ctx context.Context, f *Facility) (*Facility, error) {
	var created Facility
	if err := c.post(ctx, "/api/v1/facilities", f, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateFacility(ctx context.Context, id string, f *Facility) (*Facility, error) {
	var updated Facility
	if err := c.put(ctx, "/api/v1/facilities/"+id, f, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteFacility(ctx context.Context, id string) error {
	return c.del(ctx, "/api/v1/facilities/"+id)
}

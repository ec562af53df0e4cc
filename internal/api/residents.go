package api

import (
	"context"
	"time"
)

// Resident is a person living in a facility.
type Resident struct {
	ID            string     `json:"id"`
	FacilityID    string     `json:"facility_id"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	BirthDate     *time.Time `json:"birth_date,omitempty"`
	Gender        *string    `json:"gender,omitempty"`
	RoomNumber    *string    `json:"room_number,omitempty"`
	AdmissionDate *time.Time `json:"admission_date,omitempty"`
	DischargeDate *time.Time `json:"discharge_date,omitempty"`
	Active        bool       `json:"active"`
	Notes         *string    `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type residentPage struct {
	Data  []*Resident `json:"data"`
	Total int         `json:"total"`
}

// ListResidents returns residents, optionally scoped to one facility.
func (c *Client) ListResidents(ctx context.Context, facilityID string, p ListParams) ([]*Resident, int, error) {
	q := p.query()
	if facilityID != "" {
		q.Set("facility_id", facilityID)
	}
	var page residentPage
	if err := c.get(ctx, "/api/v1/residents", q, &page); err != nil {
		return nil, 0, err
	}
	return page.Data, page.Total, nil
}

func (c *Client) GetResident(ctx context.Context, id string) (*Resident, error) {
	var r Resident
	if err := c.get(ctx, "/api/v1/residents/"+id, nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) CreateResident(ctx context.Context, r *Resident) (*Resident, error) {
	var created Resident
	if err := c.post(ctx, "/api/v1/residents", r, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateResident(ctx context.Context, id string, r *Resident) (*Resident, error) {
	var updated Resident
	if err := c.put(ctx, "/api/v1/residents/"+id, r, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteResident(ctx context.Context, id string) error {
	return c.del(ctx, "/api/v1/residents/"+id)
}

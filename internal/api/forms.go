package api

import (
	"context"
	"time"
)

// FormField is one input in a custom form definition.
type FormField struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Type     string   `json:"type"` // text, number, date, select, checkbox
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

// Form is a custom form definition a facility uses for intake, incidents
// and similar paperwork.
type Form struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description *string     `json:"description,omitempty"`
	FacilityID  *string     `json:"facility_id,omitempty"`
	Fields      []FormField `json:"fields"`
	Active      bool        `json:"active"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type formPage struct {
	Data  []*Form `json:"data"`
	Total int     `json:"total"`
}

func (c *Client) ListForms(ctx context.Context, p ListParams) ([]*Form, int, error) {
	var page formPage
	if err := c.get(ctx, "/api/v1/forms", p.query(), &page); err != nil {
		return nil, 0, err
	}
	return page.Data, page.Total, nil
}

func (c *Client) GetForm(ctx context.Context, id string) (*Form, error) {
	var f Form
	if err := c.get(ctx, "/api/v1/forms/"+id, nil, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Client) CreateForm(ctx context.Context, f *Form) (*Form, error) {
	var created Form
	if err := c.post(ctx, "/api/v1/forms", f, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateForm(ctx context.Context, id string, f *Form) (*Form, error) {
	var updated Form
	if err := c.put(ctx, "/api/v1/forms/"+id, f, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteForm(ctx context.Context, id string) error {
	return c.del(ctx, "/api/v1/forms/"+id)
}

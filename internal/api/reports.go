package api

import (
	"context"
	"time"
)

// Report is a generated report record. Creation requests generation
// server-side; the client only reads the result metadata.
type Report struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Type        string            `json:"type"` // census, med-compliance, incidents, staffing
	FacilityID  *string           `json:"facility_id,omitempty"`
	Params      map[string]string `json:"params,omitempty"`
	URL         *string           `json:"url,omitempty"`
	GeneratedBy string            `json:"generated_by"`
	GeneratedAt time.Time         `json:"generated_at"`
	CreatedAt   time.Time         `json:"created_at"`
}

type reportPage struct {
	Data  []*Report `json:"data"`
	Total int       `json:"total"`
}

func (c *Client) ListReports(ctx context.Context, p ListParams) ([]*Report, int, error) {
	var page reportPage
	if err := c.get(ctx, "/api/v1/reports", p.query(), &page); err != nil {
		return nil, 0, err
	}
	return page.Data, page.Total, nil
}

func (c *Client) GetReport(ctx context.Context, id string) (*Report, error) {
	var r Report
	if err := c.get(ctx, "/api/v1/reports/"+id, nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateReport asks the backend to generate a new report.
func (c *Client) CreateReport(ctx context.Context, r *Report) (*Report, error) {
	var created Report
	if err := c.post(ctx, "/api/v1/reports", r, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) DeleteReport(ctx context.Context, id string) error {
	return c.del(ctx, "/api/v1/reports/"+id)
}

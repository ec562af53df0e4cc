package api

import (
	"context"
	"time"
)

// Assessment is a scored evaluation of a resident (falls risk, cognition,
// nutrition and so on).
type Assessment struct {
	ID         string    `json:"id"`
	ResidentID string    `json:"resident_id"`
	Type       string    `json:"type"`
	Score      *int      `json:"score,omitempty"`
	Summary    *string   `json:"summary,omitempty"`
	AssessedBy string    `json:"assessed_by"`
	AssessedAt time.Time `json:"assessed_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type assessmentPage struct {
	Data  []*Assessment `json:"data"`
	Total int           `json:"total"`
}

func (c *Client) ListAssessments(ctx context.Context, residentID string, p ListParams) ([]*Assessment, int, error) {
	var page assessmentPage
	if err := c.get(ctx, "/api/v1/assessments", residentQuery(residentID, p), &page); err != nil {
		return nil, 0, err
	}
	return page.Data, page.Total, nil
}

func (c *Client) GetAssessment(ctx context.Context, id string) (*Assessment, error) {
	var a Assessment
	if err := c.get(ctx, "/api/v1/assessments/"+id, nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) CreateAssessment(ctx context.Context, a *Assessment) (*Assessment, error) {
	var created Assessment
	if err := c.post(ctx, "/api/v1/assessments", a, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateAssessment(ctx context.Context, id string, a *Assessment) (*Assessment, error) {
	var updated Assessment
	if err := c.put(ctx, "/api/v1/assessments/"+id, a, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteAssessment(ctx context.Context, id string) error {
	return c.del(ctx, "/api/v1/assessments/"+id)
}

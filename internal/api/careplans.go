package api

import (
	"context"
	"fmt"
	"time"
)

// Care plan statuses.
const (
	CarePlanDraft     = "draft"
	CarePlanActive    = "active"
	CarePlanCompleted = "completed"
	CarePlanCancelled = "cancelled"
)

var validCarePlanStatuses = map[string]bool{
	CarePlanDraft: true, CarePlanActive: true, CarePlanCompleted: true, CarePlanCancelled: true,
}

// CarePlan is a resident's plan of care with its goals and review cadence.
type CarePlan struct {
	ID          string     `json:"id"`
	ResidentID  string     `json:"resident_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Status      string     `json:"status"`
	Goals       []string   `json:"goals,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	ReviewDate  *time.Time `json:"review_date,omitempty"`
	CreatedBy   string     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type carePlanPage struct {
	Data  []*CarePlan `json:"data"`
	Total int         `json:"total"`
}

func (c *Client) ListCarePlans(ctx context.Context, residentID string, p ListParams) ([]*CarePlan, int, error) {
	var page carePlanPage
	if err := c.get(ctx, "/api/v1/care-plans", residentQuery(residentID, p), &page); err != nil {
		return nil, 0, err
	}
	return page.Data, page.Total, nil
}

func (c *Client) GetCarePlan(ctx context.Context, id string) (*CarePlan, error) {
	var cp CarePlan
	if err := c.get(ctx, "/api/v1/care-plans/"+id, nil, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (c *Client) CreateCarePlan(ctx context.Context, cp *CarePlan) (*CarePlan, error) {
	if cp.Status != "" && !validCarePlanStatuses[cp.Status] {
		return nil, fmt.Errorf("invalid care plan status %q", cp.Status)
	}
	var created CarePlan
	if err := c.post(ctx, "/api/v1/care-plans", cp, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateCarePlan(ctx context.Context, id string, cp *CarePlan) (*CarePlan, error) {
	if cp.Status != "" && !validCarePlanStatuses[cp.Status] {
		return nil, fmt.Errorf("invalid care plan status %q", cp.Status)
	}
	var updated CarePlan
	if err := c.put(ctx, "/api/v1/care-plans/"+id, cp, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteCarePlan(ctx context.Context, id string) error {
	return c.del(ctx, "/api/v1/care-plans/"+id)
}

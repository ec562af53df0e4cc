package api

import (
	"context"
	"time"
)

// Document is a stored file reference attached to a resident or facility.
type Document struct {
	ID          string    `json:"id"`
	ResidentID  *string   `json:"resident_id,omitempty"`
	FacilityID  *string   `json:"facility_id,omitempty"`
	Title       string    `json:"title"`
	Category    *string   `json:"category,omitempty"`
	ContentType *string   `json:"content_type,omitempty"`
	URL         *string   `json:"url,omitempty"`
	UploadedBy  string    `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type documentPage struct {
	Data  []*Document `json:"data"`
	Total int         `json:"total"`
}

func (c *Client) ListDocuments(ctx context.Context, residentID string, p ListParams) ([]*Document, int, error) {
	var page documentPage
	if err := c.get(ctx, "/api/v1/documents", residentQuery(residentID, p), &page); err != nil {
		return nil, 0, err
	}
	return page.Data, page.Total, nil
}

func (c *Client) GetDocument(ctx context.Context, id string) (*Document, error) {
	var d Document
	if err := c.get(ctx, "/api/v1/documents/"+id, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) CreateDocument(ctx context.Context, d *Document) (*Document, error) {
	var created Document
	if err := c.post(ctx, "/api/v1/documents", d, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateDocument(ctx context.Context, id string, d *Document) (*Document, error) {
	var updated Document
	if err := c.put(ctx, "/api/v1/documents/"+id, d, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	return c.del(ctx, "/api/v1/documents/"+id)
}

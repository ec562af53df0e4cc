package api

import (
	"context"
	"time"
)

// Note is a free-text care note on a resident.
type Note struct {
	ID         string    `json:"id"`
	ResidentID string    `json:"resident_id"`
	AuthorID   string    `json:"author_id"`
	Category   *string   `json:"category,omitempty"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type notePage struct {
	Data  []*Note `json:"data"`
	Total int     `json:"total"`
}

func (c *Client) ListNotes(ctx context.Context, residentID string, p ListParams) ([]*Note, int, error) {
	var page notePage
	if err := c.get(ctx, "/api/v1/notes", residentQuery(residentID, p), &page); err != nil {
		return nil, 0, err
	}
	return page.Data, page.Total, nil
}

func (c *Client) GetNote(ctx context.Context, id string) (*Note, error) {
	var n Note
	if err := c.get(ctx, "/api/v1/notes/"+id, nil, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (c *Client) CreateNote(ctx context.Context, n *Note) (*Note, error) {
	var created Note
	if err := c.post(ctx, "/api/v1/notes", n, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateNote(ctx context.Context, id string, n *Note) (*Note, error) {
	var updated Note
	if err := c.put(ctx, "/api/v1/notes/"+id, n, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteNote(ctx context.Context, id string) error {
	return c.del(ctx, "/api/v1/notes/"+id)
}

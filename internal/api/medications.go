package api

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Medication is a recurring medication order for a resident. ScheduleTimes
// holds the custom administration slots as HH:MM wall-clock strings; an
// empty list with PRN set means as-needed.
type Medication struct {
	ID            string     `json:"id"`
	ResidentID    string     `json:"resident_id"`
	Name          string     `json:"name"`
	Dosage        string     `json:"dosage"`
	Route         *string    `json:"route,omitempty"`
	Frequency     string     `json:"frequency"`
	ScheduleTimes []string   `json:"schedule_times,omitempty"`
	Instructions  *string    `json:"instructions,omitempty"`
	PRN           bool       `json:"prn"`
	Active        bool       `json:"active"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	PrescribedBy  *string    `json:"prescribed_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Med log administration statuses.
const (
	MedLogGiven   = "given"
	MedLogRefused = "refused"
	MedLogMissed  = "missed"
	MedLogHeld    = "held"
)

var validMedLogStatuses = map[string]bool{
	MedLogGiven: true, MedLogRefused: true, MedLogMissed: true, MedLogHeld: true,
}

func ValidMedLogStatus(s string) bool { return validMedLogStatuses[s] }

// MedLog records the outcome of one scheduled administration slot.
type MedLog struct {
	ID           string    `json:"id"`
	MedicationID string    `json:"medication_id"`
	ResidentID   string    `json:"resident_id"`
	Slot         string    `json:"slot"` // HH:MM schedule slot this entry covers
	ScheduledFor time.Time `json:"scheduled_for"`
	Status       string    `json:"status"`
	Notes        *string   `json:"notes,omitempty"`
	RecordedBy   string    `json:"recorded_by"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// NextScheduleTime returns the next administration instant at or after now
// for a set of HH:MM slots, rolling over to the next day when every slot
// for today has passed.
func NextScheduleTime(now time.Time, slots []string) (time.Time, error) {
	if len(slots) == 0 {
		return time.Time{}, fmt.Errorf("no schedule times")
	}
	times := make([]time.Time, 0, len(slots))
	for _, s := range slots {
		hm, err := time.Parse("15:04", s)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid schedule time %q: %w", s, err)
		}
		t := time.Date(now.Year(), now.Month(), now.Day(), hm.Hour(), hm.Minute(), 0, 0, now.Location())
		times = append(times, t)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	for _, t := range times {
		if !t.Before(now) {
			return t, nil
		}
	}
	return times[0].AddDate(0, 0, 1), nil
}

type medicationPage struct {
	Data  []*Medication `json:"data"`
	Total int           `json:"total"`
}

// ListMedications returns medications, optionally scoped to one resident.
func (c *Client) ListMedications(ctx context.Context, residentID string, p ListParams) ([]*Medication, int, error) {
	var page medicationPage
	if err := c.get(ctx, "/api/v1/medications", residentQuery(residentID, p), &page); err != nil {
		return nil, 0, err
	}
	return page.Data, page.Total, nil
}

func (c *Client) GetMedication(ctx context.Context, id string) (*Medication, error) {
	var m Medication
	if err := c.get(ctx, "/api/v1/medications/"+id, nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) CreateMedication(ctx context.Context, m *Medication) (*Medication, error) {
	for _, s := range m.ScheduleTimes {
		if _, err := time.Parse("15:04", s); err != nil {
			return nil, fmt.Errorf("invalid schedule time %q (want HH:MM)", s)
		}
	}
	var created Medication
	if err := c.post(ctx, "/api/v1/medications", m, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateMedication(ctx context.Context, id string, m *Medication) (*Medication, error) {
	var updated Medication
	if err := c.put(ctx, "/api/v1/medications/"+id, m, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteMedication(ctx context.Context, id string) error {
	return c.del(ctx, "/api/v1/medications/"+id)
}

type medLogPage struct {
	Data  []*MedLog `json:"data"`
	Total int       `json:"total"`
}

// ListMedLogs returns administration records, optionally scoped to one
// medication.
func (c *Client) ListMedLogs(ctx context.Context, medicationID string, p ListParams) ([]*MedLog, int, error) {
	q := p.query()
	if medicationID != "" {
		q.Set("medication_id", medicationID)
	}
	var page medLogPage
	if err := c.get(ctx, "/api/v1/med-logs", q, &page); err != nil {
		return nil, 0, err
	}
	return page.Data, page.Total, nil
}

// RecordMedLog writes one administration outcome.
func (c *Client) RecordMedLog(ctx context.Context, l *MedLog) (*MedLog, error) {
	if !ValidMedLogStatus(l.Status) {
		return nil, fmt.Errorf("invalid med log status %q", l.Status)
	}
	var created MedLog
	if err := c.post(ctx, "/api/v1/med-logs", l, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the layout of the milestone form's due date field.
const DateLayout = "2006-01-02"

// Milestone groups issues towards a target date.
type Milestone struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	DueDate      *Date     `json:"due_date"`
	Status       string    `json:"status"` // "open" or "closed"
	OpenIssues   int       `json:"openIssues"`
	ClosedIssues int       `json:"closedIssues"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsOverdue reports whether the due date lies before now.
func (m Milestone) IsOverdue(now time.Time) bool {
	return m.DueDate != nil && m.DueDate.Before(now)
}

// Date is a due date. Backends send either a bare "YYYY-MM-DD" or a full
// RFC 3339 timestamp; both decode.
type Date struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for _, layout := range []string{time.RFC3339Nano, DateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(DateLayout))
}

// MilestoneInput is the UI-shaped form data. DueDate uses DateLayout and may
// be empty.
type MilestoneInput struct {
	Title       string
	Description string
	DueDate     string
	Status      string
}

// MilestonePayload is the backend shape of a milestone write.
type MilestonePayload struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	DueDate     *string `json:"due_date"`
	Status      string  `json:"status"`
}

package models

import "time"

// Issue statuses.
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Issue priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Issue represents a tracked issue.
type Issue struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`   // "open" or "closed"
	Priority    string     `json:"priority"` // low, medium, high, urgent
	Assignee    string     `json:"assignee"`
	Creator     string     `json:"creator"`
	MilestoneID *string    `json:"milestoneId,omitempty"`
	Milestone   *Milestone `json:"milestone,omitempty"`
	Labels      []Label    `json:"labels"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// IssueInput is the UI-shaped payload of the create form. Empty fields get
// the backend defaults applied by the issue service.
type IssueInput struct {
	Title       string
	Description string
	Status      string
	Priority    string
	Assignee    string
	MilestoneID string
	LabelIDs    []string
}

// IssuePayload is the backend shape of a new issue.
type IssuePayload struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority"`
	Assignee    string   `json:"assignee"`
	MilestoneID *string  `json:"milestone_id"`
	Labels      []string `json:"labels"`
}

// IssuePatch is a partial update. Nil fields are left untouched.
type IssuePatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Status      *string   `json:"status,omitempty"`
	Priority    *string   `json:"priority,omitempty"`
	Assignee    *string   `json:"assignee,omitempty"`
	MilestoneID *string   `json:"milestone_id,omitempty"`
	LabelIDs    *[]string `json:"labels,omitempty"`
}

// IssueFilters narrows the issue list. Label matches a label name and
// Milestone a milestone title.
type IssueFilters struct {
	Status    string `json:"status,omitempty"`
	Priority  string `json:"priority,omitempty"`
	Label     string `json:"label,omitempty"`
	Milestone string `json:"milestone,omitempty"`
	Search    string `json:"search,omitempty"`
}

// IsZero reports whether no filter is set.
func (f IssueFilters) IsZero() bool {
	return f == IssueFilters{}
}

// Comment is a comment on an issue.
type Comment struct {
	ID        string    `json:"id"`
	IssueID   string    `json:"issueId"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Pagination mirrors the pagination block the issue list is wrapped in.
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

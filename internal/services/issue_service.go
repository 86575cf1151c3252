package services

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"

	"github.com/isdelr/mantis-client/internal/apierror"
	"github.com/isdelr/mantis-client/internal/apiclient"
	"github.com/isdelr/mantis-client/internal/models"
)

// IssueServiceProvider defines the interface for issue and comment services.
type IssueServiceProvider interface {
	List(ctx context.Context, filters models.IssueFilters) ([]models.Issue, error)
	Get(ctx context.Context, id string) (models.Issue, error)
	Create(ctx context.Context, input models.IssueInput) (models.Issue, error)
	Update(ctx context.Context, id string, patch models.IssuePatch) (models.Issue, error)
	Delete(ctx context.Context, id string) error
	Comments(ctx context.Context, issueID string) ([]models.Comment, error)
	AddComment(ctx context.Context, issueID, content string) (models.Comment, error)
	UpdateComment(ctx context.Context, commentID, content string) (models.Comment, error)
	DeleteComment(ctx context.Context, commentID string) error
}

// IssueService maps the issue and comment endpoints.
type IssueService struct {
	api *apiclient.Client
}

// NewIssueService creates a new IssueService.
func NewIssueService(api *apiclient.Client) *IssueService {
	return &IssueService{api: api}
}

// List returns the issues matching filters. The backend wraps the list as
// {"data": [...], "pagination": {...}}; a bare array is accepted as well.
func (s *IssueService) List(ctx context.Context, filters models.IssueFilters) ([]models.Issue, error) {
	q := url.Values{}
	for key, value := range map[string]string{
		"status":    filters.Status,
		"priority":  filters.Priority,
		"label":     filters.Label,
		"milestone": filters.Milestone,
		"search":    filters.Search,
	} {
		if value != "" {
			q.Set(key, value)
		}
	}

	var raw json.RawMessage
	if err := s.api.Get(ctx, "/issues", q, &raw); err != nil {
		return nil, err
	}
	return decodeIssueList(raw)
}

func decodeIssueList(raw json.RawMessage) ([]models.Issue, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return []models.Issue{}, nil
	}

	issues := []models.Issue{}
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &issues); err != nil {
			return nil, apierror.NewMalformed(err)
		}
		return issues, nil
	}

	var wrapped struct {
		Data       []models.Issue     `json:"data"`
		Pagination *models.Pagination `json:"pagination"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, apierror.NewMalformed(err)
	}
	if wrapped.Data != nil {
		issues = wrapped.Data
	}
	return issues, nil
}

// Get returns a single issue.
func (s *IssueService) Get(ctx context.Context, id string) (models.Issue, error) {
	var issue models.Issue
	err := s.api.Get(ctx, "/issues/"+url.PathEscape(id), nil, &issue)
	return issue, err
}

// Create creates an issue, applying the defaults the backend expects for
// omitted fields.
func (s *IssueService) Create(ctx context.Context, input models.IssueInput) (models.Issue, error) {
	payload := models.IssuePayload{
		Title:       input.Title,
		Description: input.Description,
		Status:      orDefault(input.Status, models.StatusOpen),
		Priority:    orDefault(input.Priority, models.PriorityMedium),
		Assignee:    input.Assignee,
		Labels:      input.LabelIDs,
	}
	if payload.Labels == nil {
		payload.Labels = []string{}
	}
	if input.MilestoneID != "" {
		payload.MilestoneID = &input.MilestoneID
	}

	var issue models.Issue
	err := s.api.Post(ctx, "/issues", payload, &issue)
	return issue, err
}

// Update applies a partial update.
func (s *IssueService) Update(ctx context.Context, id string, patch models.IssuePatch) (models.Issue, error) {
	var issue models.Issue
	err := s.api.Patch(ctx, "/issues/"+url.PathEscape(id), patch, &issue)
	return issue, err
}

// Delete removes an issue.
func (s *IssueService) Delete(ctx context.Context, id string) error {
	return s.api.Delete(ctx, "/issues/"+url.PathEscape(id))
}

// Comments lists the comments of an issue.
func (s *IssueService) Comments(ctx context.Context, issueID string) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := s.api.Get(ctx, "/issues/"+url.PathEscape(issueID)+"/comments", nil, &comments)
	return comments, err
}

// AddComment posts a comment. The author is taken from the session by the
// server.
func (s *IssueService) AddComment(ctx context.Context, issueID, content string) (models.Comment, error) {
	var comment models.Comment
	body := map[string]string{"content": content}
	err := s.api.Post(ctx, "/issues/"+url.PathEscape(issueID)+"/comments", body, &comment)
	return comment, err
}

// UpdateComment edits a comment's content.
func (s *IssueService) UpdateComment(ctx context.Context, commentID, content string) (models.Comment, error) {
	var comment models.Comment
	body := map[string]string{"content": content}
	err := s.api.Patch(ctx, "/comments/"+url.PathEscape(commentID), body, &comment)
	return comment, err
}

// DeleteComment removes a comment.
func (s *IssueService) DeleteComment(ctx context.Context, commentID string) error {
	return s.api.Delete(ctx, "/comments/"+url.PathEscape(commentID))
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

package tracker

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/isdelr/mantis-client/internal/models"
)

// DefaultPageSize is used when a list request gives no limit.
const DefaultPageSize = 100

// IssueServiceProvider defines the interface for issue and comment services.
type IssueServiceProvider interface {
	ListIssues(filters models.IssueFilters, page, limit int) ([]models.Issue, models.Pagination, error)
	GetIssue(id string) (models.Issue, error)
	CreateIssue(input models.IssuePayload, creator string) (models.Issue, error)
	UpdateIssue(id string, patch models.IssuePatch) (models.Issue, error)
	DeleteIssue(id string) error
	ListComments(issueID string) ([]models.Comment, error)
	AddComment(issueID, content, author string) (models.Comment, error)
	UpdateComment(id, content string) (models.Comment, error)
	DeleteComment(id string) error
}

// IssueService manages issues and their comments.
type IssueService struct {
	db *sql.DB
}

// NewIssueService creates a new IssueService.
func NewIssueService(db *sql.DB) *IssueService {
	return &IssueService{db: db}
}

const issueSelect = `
SELECT i.id, i.title, i.description, i.status, i.priority, i.assignee, i.creator,
	i.milestone_id, i.created_at, i.updated_at, m.title, m.due_date, m.status
FROM issues i
LEFT JOIN milestones m ON m.id = i.milestone_id`

func scanIssue(row scanner) (models.Issue, error) {
	var (
		issue                 models.Issue
		milestoneID           sql.NullString
		mTitle, mDue, mStatus sql.NullString
	)
	err := row.Scan(&issue.ID, &issue.Title, &issue.Description, &issue.Status, &issue.Priority,
		&issue.Assignee, &issue.Creator, &milestoneID, &issue.CreatedAt, &issue.UpdatedAt,
		&mTitle, &mDue, &mStatus)
	if err != nil {
		return models.Issue{}, err
	}
	issue.Labels = []models.Label{}
	if milestoneID.Valid {
		id := milestoneID.String
		issue.MilestoneID = &id
		issue.Milestone = &models.Milestone{
			ID:      id,
			Title:   mTitle.String,
			DueDate: parseDueDate(mDue),
			Status:  mStatus.String,
		}
	}
	return issue, nil
}

var (
	issueStatuses   = map[string]bool{models.StatusOpen: true, models.StatusClosed: true}
	issuePriorities = map[string]bool{
		models.PriorityLow: true, models.PriorityMedium: true,
		models.PriorityHigh: true, models.PriorityUrgent: true,
	}
)

func validateTitle(title string) error {
	if utf8.RuneCountInString(strings.TrimSpace(title)) < 3 {
		return invalid("Title must be at least 3 characters")
	}
	return nil
}

// ListIssues returns the issues matching filters, newest first. Label
// matches a label name and Milestone a milestone title.
func (s *IssueService) ListIssues(filters models.IssueFilters, page, limit int) ([]models.Issue, models.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}

	var (
		where []string
		args  []any
	)
	if filters.Status != "" {
		where = append(where, "i.status = ?")
		args = append(args, filters.Status)
	}
	if filters.Priority != "" {
		where = append(where, "i.priority = ?")
		args = append(args, filters.Priority)
	}
	if filters.Label != "" {
		where = append(where, `EXISTS (SELECT 1 FROM issue_labels il JOIN labels l ON l.id = il.label_id
			WHERE il.issue_id = i.id AND l.name = ?)`)
		args = append(args, filters.Label)
	}
	if filters.Milestone != "" {
		where = append(where, "m.title = ?")
		args = append(args, filters.Milestone)
	}
	if filters.Search != "" {
		where = append(where, "(i.title LIKE ? OR i.description LIKE ?)")
		pattern := "%" + filters.Search + "%"
		args = append(args, pattern, pattern)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	pagination := models.Pagination{Page: page, Limit: limit}
	countQuery := "SELECT COUNT(*) FROM issues i LEFT JOIN milestones m ON m.id = i.milestone_id" + clause
	if err := s.db.QueryRow(countQuery, args...).Scan(&pagination.Total); err != nil {
		return nil, models.Pagination{}, err
	}

	query := issueSelect + clause + " ORDER BY i.created_at DESC LIMIT ? OFFSET ?"
	rows, err := s.db.Query(query, append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	defer rows.Close()

	issues := []models.Issue{}
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, models.Pagination{}, err
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Pagination{}, err
	}

	if err := s.attachLabels(issues); err != nil {
		return nil, models.Pagination{}, err
	}
	return issues, pagination, nil
}

// attachLabels loads the labels of every issue in one query.
func (s *IssueService) attachLabels(issues []models.Issue) error {
	if len(issues) == 0 {
		return nil
	}
	index := make(map[string]int, len(issues))
	placeholders := make([]string, len(issues))
	args := make([]any, len(issues))
	for i, issue := range issues {
		index[issue.ID] = i
		placeholders[i] = "?"
		args[i] = issue.ID
	}

	rows, err := s.db.Query(`
		SELECT il.issue_id, l.id, l.name, l.description, l.color, l.created_at
		FROM issue_labels il JOIN labels l ON l.id = il.label_id
		WHERE il.issue_id IN (`+strings.Join(placeholders, ",")+`)
		ORDER BY l.name`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			issueID string
			l       models.Label
		)
		if err := rows.Scan(&issueID, &l.ID, &l.Name, &l.Description, &l.Color, &l.CreatedAt); err != nil {
			return err
		}
		i := index[issueID]
		issues[i].Labels = append(issues[i].Labels, l)
	}
	return rows.Err()
}

// GetIssue returns one issue with its labels and milestone.
func (s *IssueService) GetIssue(id string) (models.Issue, error) {
	issue, err := scanIssue(s.db.QueryRow(issueSelect+" WHERE i.id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Issue{}, fmt.Errorf("issue %s: %w", id, ErrNotFound)
		}
		return models.Issue{}, err
	}
	issues := []models.Issue{issue}
	if err := s.attachLabels(issues); err != nil {
		return models.Issue{}, err
	}
	return issues[0], nil
}

// CreateIssue creates an issue on behalf of creator.
func (s *IssueService) CreateIssue(input models.IssuePayload, creator string) (models.Issue, error) {
	if err := validateTitle(input.Title); err != nil {
		return models.Issue{}, err
	}
	if input.Status == "" {
		input.Status = models.StatusOpen
	}
	if input.Priority == "" {
		input.Priority = models.PriorityMedium
	}
	if !issueStatuses[input.Status] {
		return models.Issue{}, invalid("Status must be open or closed")
	}
	if !issuePriorities[input.Priority] {
		return models.Issue{}, invalid("Priority must be low, medium, high or urgent")
	}
	if input.MilestoneID != nil && *input.MilestoneID == "" {
		input.MilestoneID = nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return models.Issue{}, err
	}
	defer tx.Rollback()

	if input.MilestoneID != nil {
		if err := requireRow(tx, "milestones", *input.MilestoneID, "Milestone not found"); err != nil {
			return models.Issue{}, err
		}
	}

	id := uuid.New().String()
	now := time.Now().UTC()
	_, err = tx.Exec(`INSERT INTO issues(id, title, description, status, priority, assignee, creator, milestone_id, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, strings.TrimSpace(input.Title), input.Description, input.Status, input.Priority,
		input.Assignee, creator, input.MilestoneID, now, now)
	if err != nil {
		return models.Issue{}, err
	}
	if err := setLabels(tx, id, input.Labels); err != nil {
		return models.Issue{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Issue{}, err
	}
	return s.GetIssue(id)
}

// UpdateIssue applies the fields present in patch. An empty milestone id
// unassigns the milestone; a labels list replaces the current labels.
func (s *IssueService) UpdateIssue(id string, patch models.IssuePatch) (models.Issue, error) {
	var (
		sets []string
		args []any
	)
	if patch.Title != nil {
		if err := validateTitle(*patch.Title); err != nil {
			return models.Issue{}, err
		}
		sets = append(sets, "title = ?")
		args = append(args, strings.TrimSpace(*patch.Title))
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Status != nil {
		if !issueStatuses[*patch.Status] {
			return models.Issue{}, invalid("Status must be open or closed")
		}
		sets = append(sets, "status = ?")
		args = append(args, *patch.Status)
	}
	if patch.Priority != nil {
		if !issuePriorities[*patch.Priority] {
			return models.Issue{}, invalid("Priority must be low, medium, high or urgent")
		}
		sets = append(sets, "priority = ?")
		args = append(args, *patch.Priority)
	}
	if patch.Assignee != nil {
		sets = append(sets, "assignee = ?")
		args = append(args, *patch.Assignee)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return models.Issue{}, err
	}
	defer tx.Rollback()

	if err := requireRow(tx, "issues", id, ""); err != nil {
		return models.Issue{}, err
	}
	if patch.MilestoneID != nil {
		var milestone any
		if *patch.MilestoneID != "" {
			if err := requireRow(tx, "milestones", *patch.MilestoneID, "Milestone not found"); err != nil {
				return models.Issue{}, err
			}
			milestone = *patch.MilestoneID
		}
		sets = append(sets, "milestone_id = ?")
		args = append(args, milestone)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)
	if _, err := tx.Exec("UPDATE issues SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...); err != nil {
		return models.Issue{}, err
	}
	if patch.LabelIDs != nil {
		if _, err := tx.Exec("DELETE FROM issue_labels WHERE issue_id = ?", id); err != nil {
			return models.Issue{}, err
		}
		if err := setLabels(tx, id, *patch.LabelIDs); err != nil {
			return models.Issue{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return models.Issue{}, err
	}
	return s.GetIssue(id)
}

// DeleteIssue removes an issue with its comments.
func (s *IssueService) DeleteIssue(id string) error {
	res, err := s.db.Exec("DELETE FROM issues WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res, "issue", id)
}

// requireRow checks that id exists in table. With a message the miss is a
// validation error, otherwise ErrNotFound.
func requireRow(tx *sql.Tx, table, id, msg string) error {
	var exists bool
	if err := tx.QueryRow("SELECT EXISTS(SELECT 1 FROM "+table+" WHERE id = ?)", id).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return nil
	}
	if msg != "" {
		return invalid(msg)
	}
	return fmt.Errorf("%s %s: %w", strings.TrimSuffix(table, "s"), id, ErrNotFound)
}

func setLabels(tx *sql.Tx, issueID string, labelIDs []string) error {
	for _, labelID := range labelIDs {
		if err := requireRow(tx, "labels", labelID, "Label not found"); err != nil {
			return err
		}
		if _, err := tx.Exec("INSERT OR IGNORE INTO issue_labels(issue_id, label_id) VALUES(?, ?)", issueID, labelID); err != nil {
			return err
		}
	}
	return nil
}

// ListComments returns the comments of an issue, oldest first.
func (s *IssueService) ListComments(issueID string) ([]models.Comment, error) {
	var exists bool
	if err := s.db.QueryRow("SELECT EXISTS(SELECT 1 FROM issues WHERE id = ?)", issueID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("issue %s: %w", issueID, ErrNotFound)
	}

	rows, err := s.db.Query(`SELECT id, issue_id, content, author, created_at, updated_at
		FROM comments WHERE issue_id = ? ORDER BY created_at`, issueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.IssueID, &c.Content, &c.Author, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (s *IssueService) getComment(id string) (models.Comment, error) {
	var c models.Comment
	row := s.db.QueryRow("SELECT id, issue_id, content, author, created_at, updated_at FROM comments WHERE id = ?", id)
	if err := row.Scan(&c.ID, &c.IssueID, &c.Content, &c.Author, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Comment{}, fmt.Errorf("comment %s: %w", id, ErrNotFound)
		}
		return models.Comment{}, err
	}
	return c, nil
}

// AddComment adds a comment by author to an issue.
func (s *IssueService) AddComment(issueID, content, author string) (models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return models.Comment{}, invalid("Content is required")
	}
	var exists bool
	if err := s.db.QueryRow("SELECT EXISTS(SELECT 1 FROM issues WHERE id = ?)", issueID).Scan(&exists); err != nil {
		return models.Comment{}, err
	}
	if !exists {
		return models.Comment{}, fmt.Errorf("issue %s: %w", issueID, ErrNotFound)
	}

	now := time.Now().UTC()
	c := models.Comment{
		ID:        uuid.New().String(),
		IssueID:   issueID,
		Content:   content,
		Author:    author,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.Exec("INSERT INTO comments(id, issue_id, content, author, created_at, updated_at) VALUES(?, ?, ?, ?, ?, ?)",
		c.ID, c.IssueID, c.Content, c.Author, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return models.Comment{}, err
	}
	return c, nil
}

// UpdateComment replaces a comment's content.
func (s *IssueService) UpdateComment(id, content string) (models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return models.Comment{}, invalid("Content is required")
	}
	res, err := s.db.Exec("UPDATE comments SET content = ?, updated_at = ? WHERE id = ?", content, time.Now().UTC(), id)
	if err != nil {
		return models.Comment{}, err
	}
	if err := requireAffected(res, "comment", id); err != nil {
		return models.Comment{}, err
	}
	return s.getComment(id)
}

// DeleteComment removes a comment.
func (s *IssueService) DeleteComment(id string) error {
	res, err := s.db.Exec("DELETE FROM comments WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res, "comment", id)
}

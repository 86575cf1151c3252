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

// MilestoneServiceProvider defines the interface for milestone services.
type MilestoneServiceProvider interface {
	GetAllMilestones() ([]models.Milestone, error)
	GetMilestone(id string) (models.Milestone, error)
	CreateMilestone(input models.MilestonePayload) (models.Milestone, error)
	UpdateMilestone(id string, input models.MilestonePayload) (models.Milestone, error)
	DeleteMilestone(id string) error
}

// MilestoneService manages milestones.
type MilestoneService struct {
	db *sql.DB
}

// NewMilestoneService creates a new MilestoneService.
func NewMilestoneService(db *sql.DB) *MilestoneService {
	return &MilestoneService{db: db}
}

// milestoneSelect yields milestone columns plus open and closed issue counts.
const milestoneSelect = `
SELECT m.id, m.title, m.description, m.due_date, m.status, m.created_at,
	COUNT(CASE WHEN i.status = 'open' THEN 1 END),
	COUNT(CASE WHEN i.status = 'closed' THEN 1 END)
FROM milestones m
LEFT JOIN issues i ON i.milestone_id = m.id`

type scanner interface {
	Scan(dest ...any) error
}

func scanMilestone(row scanner) (models.Milestone, error) {
	var (
		m   models.Milestone
		due sql.NullString
	)
	if err := row.Scan(&m.ID, &m.Title, &m.Description, &due, &m.Status, &m.CreatedAt, &m.OpenIssues, &m.ClosedIssues); err != nil {
		return models.Milestone{}, err
	}
	m.DueDate = parseDueDate(due)
	return m, nil
}

func parseDueDate(due sql.NullString) *models.Date {
	if !due.Valid || due.String == "" {
		return nil
	}
	t, err := time.Parse(models.DateLayout, due.String)
	if err != nil {
		return nil
	}
	return &models.Date{Time: t}
}

func validateMilestone(input *models.MilestonePayload) error {
	input.Title = strings.TrimSpace(input.Title)
	if utf8.RuneCountInString(input.Title) < 3 {
		return invalid("Title must be at least 3 characters")
	}
	if input.Status == "" {
		input.Status = models.StatusOpen
	}
	if input.Status != models.StatusOpen && input.Status != models.StatusClosed {
		return invalid("Status must be open or closed")
	}
	if input.DueDate != nil && *input.DueDate == "" {
		input.DueDate = nil
	}
	if input.DueDate != nil {
		if _, err := time.Parse(models.DateLayout, *input.DueDate); err != nil {
			return invalid("Due date must be YYYY-MM-DD")
		}
	}
	return nil
}

// GetAllMilestones returns every milestone with its issue counts.
func (s *MilestoneService) GetAllMilestones() ([]models.Milestone, error) {
	rows, err := s.db.Query(milestoneSelect + " GROUP BY m.id ORDER BY m.created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	milestones := []models.Milestone{}
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, err
		}
		milestones = append(milestones, m)
	}
	return milestones, rows.Err()
}

// GetMilestone returns one milestone with its issue counts.
func (s *MilestoneService) GetMilestone(id string) (models.Milestone, error) {
	m, err := scanMilestone(s.db.QueryRow(milestoneSelect+" WHERE m.id = ? GROUP BY m.id", id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Milestone{}, fmt.Errorf("milestone %s: %w", id, ErrNotFound)
	}
	return m, err
}

// CreateMilestone creates a milestone.
func (s *MilestoneService) CreateMilestone(input models.MilestonePayload) (models.Milestone, error) {
	if err := validateMilestone(&input); err != nil {
		return models.Milestone{}, err
	}

	id := uuid.New().String()
	_, err := s.db.Exec("INSERT INTO milestones(id, title, description, due_date, status, created_at) VALUES(?, ?, ?, ?, ?, ?)",
		id, input.Title, input.Description, input.DueDate, input.Status, time.Now().UTC())
	if err != nil {
		return models.Milestone{}, err
	}
	return s.GetMilestone(id)
}

// UpdateMilestone replaces a milestone's fields.
func (s *MilestoneService) UpdateMilestone(id string, input models.MilestonePayload) (models.Milestone, error) {
	if err := validateMilestone(&input); err != nil {
		return models.Milestone{}, err
	}

	res, err := s.db.Exec("UPDATE milestones SET title = ?, description = ?, due_date = ?, status = ? WHERE id = ?",
		input.Title, input.Description, input.DueDate, input.Status, id)
	if err != nil {
		return models.Milestone{}, err
	}
	if err := requireAffected(res, "milestone", id); err != nil {
		return models.Milestone{}, err
	}
	return s.GetMilestone(id)
}

// DeleteMilestone removes a milestone. Its issues stay, unassigned.
func (s *MilestoneService) DeleteMilestone(id string) error {
	res, err := s.db.Exec("DELETE FROM milestones WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res, "milestone", id)
}

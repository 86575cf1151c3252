package tracker

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/isdelr/mantis-client/internal/models"
)

// LabelServiceProvider defines the interface for label services.
type LabelServiceProvider interface {
	GetAllLabels() ([]models.Label, error)
	CreateLabel(input models.LabelInput) (models.Label, error)
	UpdateLabel(id string, input models.LabelInput) (models.Label, error)
	DeleteLabel(id string) error
}

// LabelService manages labels.
type LabelService struct {
	db *sql.DB
}

// NewLabelService creates a new LabelService.
func NewLabelService(db *sql.DB) *LabelService {
	return &LabelService{db: db}
}

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func validateLabel(input *models.LabelInput) error {
	input.Name = strings.TrimSpace(input.Name)
	if utf8.RuneCountInString(input.Name) < 2 {
		return invalid("Name must be at least 2 characters")
	}
	if !colorPattern.MatchString(input.Color) {
		return invalid("Color must look like #rrggbb")
	}
	return nil
}

// GetAllLabels returns every label ordered by name.
func (s *LabelService) GetAllLabels() ([]models.Label, error) {
	rows, err := s.db.Query("SELECT id, name, description, color, created_at FROM labels ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	labels := []models.Label{}
	for rows.Next() {
		var l models.Label
		if err := rows.Scan(&l.ID, &l.Name, &l.Description, &l.Color, &l.CreatedAt); err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

func (s *LabelService) getLabel(id string) (models.Label, error) {
	var l models.Label
	row := s.db.QueryRow("SELECT id, name, description, color, created_at FROM labels WHERE id = ?", id)
	if err := row.Scan(&l.ID, &l.Name, &l.Description, &l.Color, &l.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Label{}, fmt.Errorf("label %s: %w", id, ErrNotFound)
		}
		return models.Label{}, err
	}
	return l, nil
}

func (s *LabelService) nameTaken(name, exceptID string) (bool, error) {
	var taken bool
	err := s.db.QueryRow("SELECT EXISTS(SELECT 1 FROM labels WHERE name = ? AND id != ?)", name, exceptID).Scan(&taken)
	return taken, err
}

// CreateLabel creates a label. Names are unique.
func (s *LabelService) CreateLabel(input models.LabelInput) (models.Label, error) {
	if err := validateLabel(&input); err != nil {
		return models.Label{}, err
	}
	taken, err := s.nameTaken(input.Name, "")
	if err != nil {
		return models.Label{}, err
	}
	if taken {
		return models.Label{}, fmt.Errorf("label %q: %w", input.Name, ErrConflict)
	}

	l := models.Label{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Description: input.Description,
		Color:       input.Color,
		CreatedAt:   time.Now().UTC(),
	}
	_, err = s.db.Exec("INSERT INTO labels(id, name, description, color, created_at) VALUES(?, ?, ?, ?, ?)",
		l.ID, l.Name, l.Description, l.Color, l.CreatedAt)
	if err != nil {
		return models.Label{}, err
	}
	return l, nil
}

// UpdateLabel replaces a label's fields.
func (s *LabelService) UpdateLabel(id string, input models.LabelInput) (models.Label, error) {
	if err := validateLabel(&input); err != nil {
		return models.Label{}, err
	}
	if _, err := s.getLabel(id); err != nil {
		return models.Label{}, err
	}
	taken, err := s.nameTaken(input.Name, id)
	if err != nil {
		return models.Label{}, err
	}
	if taken {
		return models.Label{}, fmt.Errorf("label %q: %w", input.Name, ErrConflict)
	}

	_, err = s.db.Exec("UPDATE labels SET name = ?, description = ?, color = ? WHERE id = ?",
		input.Name, input.Description, input.Color, id)
	if err != nil {
		return models.Label{}, err
	}
	return s.getLabel(id)
}

// DeleteLabel removes a label and detaches it from every issue.
func (s *LabelService) DeleteLabel(id string) error {
	res, err := s.db.Exec("DELETE FROM labels WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res, "label", id)
}

func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

package services

import (
	"context"
	"net/url"

	"github.com/isdelr/mantis-client/internal/apiclient"
	"github.com/isdelr/mantis-client/internal/models"
)

// MilestoneServiceProvider defines the interface for milestone services.
type MilestoneServiceProvider interface {
	List(ctx context.Context) ([]models.Milestone, error)
	Create(ctx context.Context, input models.MilestoneInput) (models.Milestone, error)
	Update(ctx context.Context, id string, input models.MilestoneInput) (models.Milestone, error)
	Delete(ctx context.Context, id string) error
}

// MilestoneService maps the milestone endpoints.
type MilestoneService struct {
	api *apiclient.Client
}

// NewMilestoneService creates a new MilestoneService.
func NewMilestoneService(api *apiclient.Client) *MilestoneService {
	return &MilestoneService{api: api}
}

func (s *MilestoneService) List(ctx context.Context) ([]models.Milestone, error) {
	milestones := []models.Milestone{}
	err := s.api.Get(ctx, "/milestones", nil, &milestones)
	return milestones, err
}

// Create creates a milestone. New milestones always start open.
func (s *MilestoneService) Create(ctx context.Context, input models.MilestoneInput) (models.Milestone, error) {
	payload := toMilestonePayload(input)
	payload.Status = models.StatusOpen

	var milestone models.Milestone
	err := s.api.Post(ctx, "/milestones", payload, &milestone)
	return milestone, err
}

func (s *MilestoneService) Update(ctx context.Context, id string, input models.MilestoneInput) (models.Milestone, error) {
	var milestone models.Milestone
	err := s.api.Patch(ctx, "/milestones/"+url.PathEscape(id), toMilestonePayload(input), &milestone)
	return milestone, err
}

func (s *MilestoneService) Delete(ctx context.Context, id string) error {
	return s.api.Delete(ctx, "/milestones/"+url.PathEscape(id))
}

// toMilestonePayload translates form data to backend field names: dueDate
// becomes due_date, and an empty due date is sent as null.
func toMilestonePayload(input models.MilestoneInput) models.MilestonePayload {
	p := models.MilestonePayload{
		Title:       input.Title,
		Description: input.Description,
		Status:      orDefault(input.Status, models.StatusOpen),
	}
	if input.DueDate != "" {
		due := input.DueDate
		p.DueDate = &due
	}
	return p
}

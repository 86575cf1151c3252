package services

import (
	"context"
	"net/url"

	"github.com/isdelr/mantis-client/internal/apiclient"
	"github.com/isdelr/mantis-client/internal/models"
)

// LabelServiceProvider defines the interface for label services.
type LabelServiceProvider interface {
	List(ctx context.Context) ([]models.Label, error)
	Create(ctx context.Context, input models.LabelInput) (models.Label, error)
	Update(ctx context.Context, id string, input models.LabelInput) (models.Label, error)
	Delete(ctx context.Context, id string) error
}

// LabelService maps the label endpoints.
type LabelService struct {
	api *apiclient.Client
}

// NewLabelService creates a new LabelService.
func NewLabelService(api *apiclient.Client) *LabelService {
	return &LabelService{api: api}
}

func (s *LabelService) List(ctx context.Context) ([]models.Label, error) {
	labels := []models.Label{}
	err := s.api.Get(ctx, "/labels", nil, &labels)
	return labels, err
}

func (s *LabelService) Create(ctx context.Context, input models.LabelInput) (models.Label, error) {
	var label models.Label
	err := s.api.Post(ctx, "/labels", input, &label)
	return label, err
}

func (s *LabelService) Update(ctx context.Context, id string, input models.LabelInput) (models.Label, error) {
	var label models.Label
	err := s.api.Patch(ctx, "/labels/"+url.PathEscape(id), input, &label)
	return label, err
}

func (s *LabelService) Delete(ctx context.Context, id string) error {
	return s.api.Delete(ctx, "/labels/"+url.PathEscape(id))
}

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/mantis-client/internal/models"
	"github.com/isdelr/mantis-client/internal/tracker"
	"github.com/rs/zerolog/log"
)

// LabelHandler handles HTTP requests for labels.
type LabelHandler struct {
	service tracker.LabelServiceProvider
}

// NewLabelHandler creates a new LabelHandler.
func NewLabelHandler(service tracker.LabelServiceProvider) *LabelHandler {
	return &LabelHandler{service: service}
}

func (h *LabelHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	labels, err := h.service.GetAllLabels()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list labels")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve labels")
		return
	}
	respondJSON(w, http.StatusOK, labels)
}

func (h *LabelHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload models.LabelInput
	if !decodeJSON(w, r, &payload) {
		return
	}
	label, err := h.service.CreateLabel(payload)
	if err != nil {
		respondServiceError(w, err, "Label not found")
		return
	}
	respondJSON(w, http.StatusCreated, label)
}

func (h *LabelHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload models.LabelInput
	if !decodeJSON(w, r, &payload) {
		return
	}
	label, err := h.service.UpdateLabel(chi.URLParam(r, "id"), payload)
	if err != nil {
		respondServiceError(w, err, "Label not found")
		return
	}
	respondJSON(w, http.StatusOK, label)
}

func (h *LabelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteLabel(chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err, "Label not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MilestoneHandler handles HTTP requests for milestones.
type MilestoneHandler struct {
	service tracker.MilestoneServiceProvider
}

// NewMilestoneHandler creates a new MilestoneHandler.
func NewMilestoneHandler(service tracker.MilestoneServiceProvider) *MilestoneHandler {
	return &MilestoneHandler{service: service}
}

func (h *MilestoneHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	milestones, err := h.service.GetAllMilestones()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list milestones")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve milestones")
		return
	}
	respondJSON(w, http.StatusOK, milestones)
}

func (h *MilestoneHandler) Get(w http.ResponseWriter, r *http.Request) {
	milestone, err := h.service.GetMilestone(chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err, "Milestone not found")
		return
	}
	respondJSON(w, http.StatusOK, milestone)
}

func (h *MilestoneHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload models.MilestonePayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	milestone, err := h.service.CreateMilestone(payload)
	if err != nil {
		respondServiceError(w, err, "Milestone not found")
		return
	}
	respondJSON(w, http.StatusCreated, milestone)
}

func (h *MilestoneHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload models.MilestonePayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	milestone, err := h.service.UpdateMilestone(chi.URLParam(r, "id"), payload)
	if err != nil {
		respondServiceError(w, err, "Milestone not found")
		return
	}
	respondJSON(w, http.StatusOK, milestone)
}

func (h *MilestoneHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteMilestone(chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err, "Milestone not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

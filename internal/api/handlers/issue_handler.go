package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/mantis-client/internal/auth"
	"github.com/isdelr/mantis-client/internal/models"
	"github.com/isdelr/mantis-client/internal/tracker"
	"github.com/rs/zerolog/log"
)

// IssueHandler handles HTTP requests for issues and comments.
type IssueHandler struct {
	service tracker.IssueServiceProvider
}

// NewIssueHandler creates a new IssueHandler.
func NewIssueHandler(service tracker.IssueServiceProvider) *IssueHandler {
	return &IssueHandler{service: service}
}

// GetAll lists issues. Query parameters: status, priority, label,
// milestone, search, page, limit.
func (h *IssueHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := models.IssueFilters{
		Status:    q.Get("status"),
		Priority:  q.Get("priority"),
		Label:     q.Get("label"),
		Milestone: q.Get("milestone"),
		Search:    q.Get("search"),
	}
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	issues, pagination, err := h.service.ListIssues(filters, page, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list issues")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve issues")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"data":       issues,
		"pagination": pagination,
	})
}

// Get returns one issue.
func (h *IssueHandler) Get(w http.ResponseWriter, r *http.Request) {
	issue, err := h.service.GetIssue(chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err, "Issue not found")
		return
	}
	respondJSON(w, http.StatusOK, issue)
}

// Create creates an issue owned by the current user.
func (h *IssueHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload models.IssuePayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	claims, _ := auth.ClaimsFrom(r.Context())

	issue, err := h.service.CreateIssue(payload, claims.Username)
	if err != nil {
		respondServiceError(w, err, "Issue not found")
		return
	}
	log.Info().Str("issue_id", issue.ID).Str("creator", claims.Username).Msg("Issue created")
	respondJSON(w, http.StatusCreated, issue)
}

// Update applies a partial update.
func (h *IssueHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.IssuePatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	issue, err := h.service.UpdateIssue(chi.URLParam(r, "id"), patch)
	if err != nil {
		respondServiceError(w, err, "Issue not found")
		return
	}
	respondJSON(w, http.StatusOK, issue)
}

// Delete removes an issue.
func (h *IssueHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteIssue(chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err, "Issue not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type commentPayload struct {
	Content string `json:"content"`
}

// GetComments lists the comments of an issue.
func (h *IssueHandler) GetComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.service.ListComments(chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err, "Issue not found")
		return
	}
	respondJSON(w, http.StatusOK, comments)
}

// AddComment adds a comment by the current user.
func (h *IssueHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	var payload commentPayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	claims, _ := auth.ClaimsFrom(r.Context())

	comment, err := h.service.AddComment(chi.URLParam(r, "id"), payload.Content, claims.Username)
	if err != nil {
		respondServiceError(w, err, "Issue not found")
		return
	}
	respondJSON(w, http.StatusCreated, comment)
}

// UpdateComment edits a comment.
func (h *IssueHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	var payload commentPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	comment, err := h.service.UpdateComment(chi.URLParam(r, "id"), payload.Content)
	if err != nil {
		respondServiceError(w, err, "Comment not found")
		return
	}
	respondJSON(w, http.StatusOK, comment)
}

// DeleteComment removes a comment.
func (h *IssueHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteComment(chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err, "Comment not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

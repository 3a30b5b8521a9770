package handler

import (
	"encoding/json"
	"net/http"

	"ballotbox/internal/api/middleware"
	"ballotbox/internal/app/service"
	"ballotbox/internal/common"

	"github.com/go-chi/chi/v5"
)

type CandidateHandler struct {
	candidateService *service.CandidateService
}

func NewCandidateHandler(cs *service.CandidateService) *CandidateHandler {
	return &CandidateHandler{candidateService: cs}
}

// RegisterPublicRoutes mounts the unauthenticated read endpoints.
func (h *CandidateHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/", h.listCandidates)
	r.Get("/vote/count", h.voteTally)
}

// RegisterAdminRoutes mounts the mutation endpoints; the caller wires the
// authenticator in front. Role checks live in the service.
func (h *CandidateHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/", h.createCandidate)
	r.Put("/{candidateID}", h.updateCandidate)
	r.Delete("/{candidateID}", h.deleteCandidate)
}

func (h *CandidateHandler) createCandidate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.CandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	candidate, err := h.candidateService.CreateCandidate(r.Context(), userID, req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, candidate)
}

func (h *CandidateHandler) updateCandidate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	candidateID := chi.URLParam(r, "candidateID")

	var req service.CandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	candidate, err := h.candidateService.UpdateCandidate(r.Context(), userID, candidateID, req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, candidate)
}

func (h *CandidateHandler) deleteCandidate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	candidateID := chi.URLParam(r, "candidateID")

	if err := h.candidateService.DeleteCandidate(r.Context(), userID, candidateID); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Candidate deleted"})
}

func (h *CandidateHandler) listCandidates(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.candidateService.ListCandidates(r.Context())
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, summaries)
}

func (h *CandidateHandler) voteTally(w http.ResponseWriter, r *http.Request) {
	entries, err := h.candidateService.VoteTally(r.Context())
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, entries)
}

package handler

import (
	"net/http"

	"ballotbox/internal/api/middleware"
	"ballotbox/internal/app/service"
	"ballotbox/internal/common"

	"github.com/go-chi/chi/v5"
)

type VoteHandler struct {
	voteService *service.VoteService
}

func NewVoteHandler(vs *service.VoteService) *VoteHandler {
	return &VoteHandler{voteService: vs}
}

func (h *VoteHandler) RegisterRoutes(r chi.Router) {
	r.Post("/vote/{candidateID}", h.castVote)
}

func (h *VoteHandler) castVote(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	candidateID := chi.URLParam(r, "candidateID")

	if err := h.voteService.CastVote(r.Context(), userID, candidateID); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Vote recorded successfully"})
}

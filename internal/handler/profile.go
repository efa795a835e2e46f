package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/podloop/podloop/internal/ctxkeys"
	"github.com/podloop/podloop/internal/service"
)

type ProfileHandler struct {
	userService *service.UserService
}

func NewProfileHandler(userService *service.UserService) *ProfileHandler {
	return &ProfileHandler{
		userService: userService,
	}
}

type updateBioRequest struct {
	Bio string `json:"bio"`
}

// UpdateBio persists a new bio for the caller. Future recommendations use
// it; scores already returned are not recomputed.
func (h *ProfileHandler) UpdateBio(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req updateBioRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		respondError(w, fmt.Errorf("%w: invalid JSON body", service.ErrValidation))
		return
	}

	err = h.userService.UpdateBio(r.Context(), user.ID, req.Bio)
	if err != nil {
		respondError(w, err)
		return
	}

	updated, err := h.userService.ByID(r.Context(), user.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newUserPayload(updated))
}

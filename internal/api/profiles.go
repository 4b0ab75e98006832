package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/wanasa-app/wanasa/internal/store"
)

// ProfileRequest carries partial updates; nil fields are left untouched.
type ProfileRequest struct {
	IsParent   *bool    `json:"is_parent"`
	Image      *string  `json:"image"`
	Bio        *string  `json:"bio"`
	Age        *int64   `json:"age"`
	Gender     *string  `json:"gender" validate:"omitempty,oneof=male female"`
	Job        *string  `json:"job"`
	Dependents *[]int64 `json:"dependents"`
}

func applyProfileRequest(p *store.Profile, req *ProfileRequest) {
	if req.IsParent != nil {
		p.IsParent = *req.IsParent
	}
	if req.Image != nil {
		p.Image = *req.Image
	}
	if req.Bio != nil {
		p.Bio = *req.Bio
	}
	if req.Age != nil {
		p.Age = req.Age
	}
	if req.Gender != nil {
		p.Gender = req.Gender
	}
	if req.Job != nil {
		p.Job = *req.Job
	}
	if req.Dependents != nil {
		p.Dependents = *req.Dependents
	}
}

// ListProfilesHandler returns the caller's singleton as a collection, or an
// empty one for unauthenticated callers.
func (h *APIHandler) ListProfilesHandler(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(r)
	if user == nil {
		respondJSON(w, http.StatusOK, []store.Profile{})
		return
	}

	profile, err := h.store.ProfileByUserID(user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondJSON(w, http.StatusOK, []store.Profile{})
			return
		}
		h.logger.Error("failed to list profiles", zap.Int64("user_id", user.ID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to list profiles")
		return
	}
	respondJSON(w, http.StatusOK, []store.Profile{*profile})
}

// CreateProfileHandler materializes the caller's profile if absent and
// applies the submitted fields. Repeated creates update in place.
func (h *APIHandler) CreateProfileHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req ProfileRequest
	if r.Body != http.NoBody {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid profile fields: "+err.Error())
		return
	}

	profile, err := h.store.GetOrCreateProfile(user.ID)
	if err != nil {
		h.logger.Error("failed to get or create profile", zap.Int64("user_id", user.ID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to create profile")
		return
	}

	applyProfileRequest(profile, &req)
	if err := h.store.UpdateProfile(profile); err != nil {
		h.logger.Error("failed to update profile", zap.Int64("user_id", user.ID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to create profile")
		return
	}

	respondJSON(w, http.StatusCreated, profile)
}

func (h *APIHandler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(r)
	if user == nil {
		respondError(w, http.StatusNotFound, "Profile not found")
		return
	}

	id, err := urlID(r, "profileID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid profile ID")
		return
	}

	profile, err := h.store.ProfileByUserID(user.ID)
	if err != nil || profile.ID != id {
		respondError(w, http.StatusNotFound, "Profile not found")
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

func (h *APIHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	id, err := urlID(r, "profileID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid profile ID")
		return
	}

	var req ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid profile fields: "+err.Error())
		return
	}

	profile, err := h.store.ProfileByUserID(user.ID)
	if err != nil || profile.ID != id {
		respondError(w, http.StatusNotFound, "Profile not found")
		return
	}

	applyProfileRequest(profile, &req)
	if err := h.store.UpdateProfile(profile); err != nil {
		h.logger.Error("failed to update profile", zap.Int64("user_id", user.ID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

func (h *APIHandler) DeleteProfileHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	id, err := urlID(r, "profileID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid profile ID")
		return
	}

	profile, err := h.store.ProfileByUserID(user.ID)
	if err != nil || profile.ID != id {
		respondError(w, http.StatusNotFound, "Profile not found")
		return
	}

	if err := h.store.DeleteProfile(user.ID); err != nil {
		h.logger.Error("failed to delete profile", zap.Int64("user_id", user.ID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to delete profile")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/wanasa-app/wanasa/internal/store"
)

type PersonaRequest struct {
	PersonaPrompt string `json:"persona_prompt" validate:"max=500"`
}

func (h *APIHandler) ListPersonaStatusesHandler(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(r)
	if user == nil {
		respondJSON(w, http.StatusOK, []store.PersonaStatus{})
		return
	}

	status, err := h.store.PersonaStatusByUserID(user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondJSON(w, http.StatusOK, []store.PersonaStatus{})
			return
		}
		h.logger.Error("failed to list persona statuses", zap.Int64("user_id", user.ID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to list persona statuses")
		return
	}
	respondJSON(w, http.StatusOK, []store.PersonaStatus{*status})
}

// CreatePersonaStatusHandler materializes the caller's persona record if
// absent and applies the submitted prompt. Repeated creates update in place.
func (h *APIHandler) CreatePersonaStatusHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req PersonaRequest
	if r.Body != http.NoBody {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid persona fields: "+err.Error())
		return
	}

	status, err := h.store.GetOrCreatePersonaStatus(user.ID)
	if err != nil {
		h.logger.Error("failed to get or create persona status", zap.Int64("user_id", user.ID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to create persona status")
		return
	}

	if req.PersonaPrompt != "" {
		if err := h.store.UpdatePersonaPrompt(user.ID, req.PersonaPrompt); err != nil {
			h.logger.Error("failed to update persona prompt", zap.Int64("user_id", user.ID), zap.Error(err))
			respondError(w, http.StatusInternalServerError, "Failed to create persona status")
			return
		}
		status.PersonaPrompt = req.PersonaPrompt
	}

	respondJSON(w, http.StatusCreated, status)
}

func (h *APIHandler) GetPersonaStatusHandler(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(r)
	if user == nil {
		respondError(w, http.StatusNotFound, "Persona status not found")
		return
	}

	id, err := urlID(r, "personaID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid persona status ID")
		return
	}

	status, err := h.store.PersonaStatusByUserID(user.ID)
	if err != nil || status.ID != id {
		respondError(w, http.StatusNotFound, "Persona status not found")
		return
	}
	respondJSON(w, http.StatusOK, status)
}

func (h *APIHandler) UpdatePersonaStatusHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	id, err := urlID(r, "personaID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid persona status ID")
		return
	}

	var req PersonaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid persona fields: "+err.Error())
		return
	}

	status, err := h.store.PersonaStatusByUserID(user.ID)
	if err != nil || status.ID != id {
		respondError(w, http.StatusNotFound, "Persona status not found")
		return
	}

	if err := h.store.UpdatePersonaPrompt(user.ID, req.PersonaPrompt); err != nil {
		h.logger.Error("failed to update persona prompt", zap.Int64("user_id", user.ID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to update persona status")
		return
	}
	status.PersonaPrompt = req.PersonaPrompt
	respondJSON(w, http.StatusOK, status)
}

func (h *APIHandler) DeletePersonaStatusHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	id, err := urlID(r, "personaID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid persona status ID")
		return
	}

	status, err := h.store.PersonaStatusByUserID(user.ID)
	if err != nil || status.ID != id {
		respondError(w, http.StatusNotFound, "Persona status not found")
		return
	}

	if err := h.store.DeletePersonaStatus(user.ID); err != nil {
		h.logger.Error("failed to delete persona status", zap.Int64("user_id", user.ID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to delete persona status")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

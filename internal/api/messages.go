package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/wanasa-app/wanasa/internal/core"
	"github.com/wanasa-app/wanasa/internal/media"
	"github.com/wanasa-app/wanasa/internal/store"
)

const maxUploadBytes = 10 << 20

type PostMessageRequest struct {
	ChatID  int64  `json:"chat_id"`
	Content string `json:"content"`
}

func (h *APIHandler) ListMessagesHandler(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(r)
	if user == nil {
		respondJSON(w, http.StatusOK, []store.Message{})
		return
	}

	messages, err := h.store.MessagesByOwner(user.ID)
	if err != nil {
		h.logger.Error("failed to list messages", zap.Int64("user_id", user.ID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to list messages")
		return
	}
	respondJSON(w, http.StatusOK, messages)
}

// PostMessageHandler runs one conversation turn and returns the persisted
// user message and AI reply as a pair. Accepts JSON, or multipart form data
// when an image is attached.
func (h *APIHandler) PostMessageHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req PostMessageRequest
	var imagePath string

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
			return
		}
		chatID, err := strconv.ParseInt(r.FormValue("chat_id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid chat_id")
			return
		}
		req.ChatID = chatID
		req.Content = r.FormValue("content")

		if file, header, err := r.FormFile("image"); err == nil {
			defer file.Close()
			imagePath, err = h.media.Save(media.ChatImages, header.Filename, file)
			if err != nil {
				h.logger.Error("failed to save message image", zap.Error(err))
				respondError(w, http.StatusInternalServerError, "Failed to store image")
				return
			}
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}

	turn, err := h.chat.PostMessage(r.Context(), user.ID, req.ChatID, req.Content, imagePath)
	if err != nil {
		// A rejected turn must not leave the upload behind.
		if imagePath != "" {
			if rmErr := h.media.Remove(imagePath); rmErr != nil {
				h.logger.Warn("failed to remove rejected upload", zap.String("path", imagePath), zap.Error(rmErr))
			}
		}
		switch {
		case errors.Is(err, core.ErrEmptyContent):
			respondError(w, http.StatusBadRequest, "Message content cannot be empty")
		case errors.Is(err, core.ErrChatNotFound):
			respondError(w, http.StatusNotFound, "Chat not found")
		case errors.Is(err, core.ErrChatForbidden):
			respondError(w, http.StatusForbidden, "You do not have permission to use this chat")
		default:
			h.logger.Error("failed to post message", zap.Int64("chat_id", req.ChatID), zap.Error(err))
			respondError(w, http.StatusInternalServerError, "Failed to post message")
		}
		return
	}
	respondJSON(w, http.StatusCreated, turn)
}

func (h *APIHandler) GetMessageHandler(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(r)
	if user == nil {
		respondError(w, http.StatusNotFound, "Message not found")
		return
	}

	messageID, err := urlID(r, "messageID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid message ID")
		return
	}

	msg, err := h.store.MessageByID(messageID, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Message not found")
			return
		}
		h.logger.Error("failed to get message", zap.Int64("message_id", messageID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to get message")
		return
	}
	respondJSON(w, http.StatusOK, msg)
}

type UpdateMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

func (h *APIHandler) UpdateMessageHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	messageID, err := urlID(r, "messageID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid message ID")
		return
	}

	var req UpdateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "Message content cannot be empty")
		return
	}

	if err := h.store.UpdateMessageContent(messageID, user.ID, req.Content); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Message not found")
			return
		}
		h.logger.Error("failed to update message", zap.Int64("message_id", messageID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to update message")
		return
	}

	msg, err := h.store.MessageByID(messageID, user.ID)
	if err != nil {
		h.logger.Error("failed to reload message", zap.Int64("message_id", messageID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to update message")
		return
	}
	respondJSON(w, http.StatusOK, msg)
}

func (h *APIHandler) DeleteMessageHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	messageID, err := urlID(r, "messageID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid message ID")
		return
	}

	if err := h.store.DeleteMessage(messageID, user.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Message not found")
			return
		}
		h.logger.Error("failed to delete message", zap.Int64("message_id", messageID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to delete message")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

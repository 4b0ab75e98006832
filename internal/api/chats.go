package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/wanasa-app/wanasa/internal/store"
)

type ChatRequest struct {
	ChatName string `json:"chat_name" validate:"max=100"`
}

func (h *APIHandler) ListChatsHandler(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(r)
	if user == nil {
		respondJSON(w, http.StatusOK, []store.Chat{})
		return
	}

	chats, err := h.store.ChatsByUserID(user.ID)
	if err != nil {
		h.logger.Error("failed to list chats", zap.Int64("user_id", user.ID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to list chats")
		return
	}
	respondJSON(w, http.StatusOK, chats)
}

func (h *APIHandler) CreateChatHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req ChatRequest
	if r.Body != http.NoBody {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid chat fields: "+err.Error())
		return
	}

	chat, err := h.store.CreateChat(user.ID, req.ChatName)
	if err != nil {
		h.logger.Error("failed to create chat", zap.Int64("user_id", user.ID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to create chat")
		return
	}
	respondJSON(w, http.StatusCreated, chat)
}

type ChatDetailsResponse struct {
	*store.Chat
	Messages []store.Message `json:"messages"`
}

// checkChatOwnership resolves whether the chat is usable by the caller,
// writing a 404 for a missing chat and a 403 for someone else's.
func (h *APIHandler) checkChatOwnership(w http.ResponseWriter, chatID, userID int64) bool {
	ownerID, err := h.store.ChatOwner(chatID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Chat not found")
			return false
		}
		h.logger.Error("failed to resolve chat owner", zap.Int64("chat_id", chatID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to get chat")
		return false
	}
	if ownerID != userID {
		respondError(w, http.StatusForbidden, "You do not have permission to view this chat")
		return false
	}
	return true
}

func (h *APIHandler) GetChatHandler(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(r)
	if user == nil {
		respondError(w, http.StatusNotFound, "Chat not found")
		return
	}

	chatID, err := urlID(r, "chatID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid chat ID")
		return
	}

	if !h.checkChatOwnership(w, chatID, user.ID) {
		return
	}

	chat, err := h.store.ChatByID(chatID, user.ID)
	if err != nil {
		h.logger.Error("failed to get chat", zap.Int64("chat_id", chatID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to get chat")
		return
	}

	messages, err := h.store.MessagesByChatID(chatID)
	if err != nil {
		h.logger.Error("failed to get chat messages", zap.Int64("chat_id", chatID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to get chat")
		return
	}

	respondJSON(w, http.StatusOK, ChatDetailsResponse{Chat: chat, Messages: messages})
}

func (h *APIHandler) UpdateChatHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	chatID, err := urlID(r, "chatID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid chat ID")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.ChatName == "" {
		respondError(w, http.StatusBadRequest, "chat_name is required")
		return
	}

	if !h.checkChatOwnership(w, chatID, user.ID) {
		return
	}

	if err := h.store.RenameChat(chatID, user.ID, req.ChatName); err != nil {
		h.logger.Error("failed to rename chat", zap.Int64("chat_id", chatID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to update chat")
		return
	}

	chat, err := h.store.ChatByID(chatID, user.ID)
	if err != nil {
		h.logger.Error("failed to reload chat", zap.Int64("chat_id", chatID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to update chat")
		return
	}
	respondJSON(w, http.StatusOK, chat)
}

func (h *APIHandler) DeleteChatHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	chatID, err := urlID(r, "chatID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid chat ID")
		return
	}

	if !h.checkChatOwnership(w, chatID, user.ID) {
		return
	}

	if err := h.store.DeleteChat(chatID, user.ID); err != nil {
		h.logger.Error("failed to delete chat", zap.Int64("chat_id", chatID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to delete chat")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

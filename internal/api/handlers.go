package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/wanasa-app/wanasa/internal/auth"
	"github.com/wanasa-app/wanasa/internal/core"
	"github.com/wanasa-app/wanasa/internal/media"
	"github.com/wanasa-app/wanasa/internal/store"
)

type ctxKey int

const userKey ctxKey = iota

type APIHandler struct {
	store    *store.Store
	chat     *core.ChatService
	tokens   *auth.TokenManager
	media    *media.Store
	validate *validator.Validate
	logger   *zap.Logger
}

func NewAPIHandler(st *store.Store, chat *core.ChatService, tokens *auth.TokenManager, mediaStore *media.Store, logger *zap.Logger) *APIHandler {
	return &APIHandler{
		store:    st,
		chat:     chat,
		tokens:   tokens,
		media:    mediaStore,
		validate: validator.New(),
		logger:   logger,
	}
}

// Authenticate attaches the caller's identity when a valid bearer token is
// present and passes the request through otherwise. Read handlers degrade to
// empty result sets without an identity; write handlers reject.
func (h *APIHandler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		userID, err := h.tokens.Validate(tokenString)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		user, err := h.store.UserByID(userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondError(w, http.StatusUnauthorized, "User not found")
				return
			}
			h.logger.Error("failed to resolve token user", zap.Int64("user_id", userID), zap.Error(err))
			respondError(w, http.StatusInternalServerError, "Failed to process user identity")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *APIHandler) currentUser(r *http.Request) *store.User {
	user, _ := r.Context().Value(userKey).(*store.User)
	return user
}

// requireUser enforces authentication for mutating endpoints.
func (h *APIHandler) requireUser(w http.ResponseWriter, r *http.Request) (*store.User, bool) {
	user := h.currentUser(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}
	return user, true
}

func urlID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}

type RegisterRequest struct {
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type RegisterResponse struct {
	User  *store.User `json:"user"`
	Token string      `json:"token"`
}

func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "Username, password and email are required: "+err.Error())
		return
	}

	if taken, err := h.store.UsernameTaken(req.Username); err != nil {
		h.logger.Error("failed to check username", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to create user")
		return
	} else if taken {
		respondError(w, http.StatusBadRequest, "Username is already registered")
		return
	}

	if taken, err := h.store.EmailTaken(req.Email); err != nil {
		h.logger.Error("failed to check email", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to create user")
		return
	} else if taken {
		respondError(w, http.StatusBadRequest, "Email is already registered")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("failed to hash password", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to process password")
		return
	}

	user := &store.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	}
	if err := h.store.CreateUser(user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			respondError(w, http.StatusBadRequest, "Username or email is already registered")
			return
		}
		h.logger.Error("failed to create user", zap.String("username", req.Username), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	token, err := h.tokens.Generate(user.ID)
	if err != nil {
		h.logger.Error("failed to generate token", zap.Int64("user_id", user.ID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	respondJSON(w, http.StatusCreated, RegisterResponse{User: user, Token: token})
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := h.store.UserByUsername(req.Username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.logger.Error("failed to query user", zap.String("username", req.Username), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to process login")
		return
	}
	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.tokens.Generate(user.ID)
	if err != nil {
		h.logger.Error("failed to generate token", zap.Int64("user_id", user.ID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

package api_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wanasa-app/wanasa/internal/ai"
	"github.com/wanasa-app/wanasa/internal/api"
	"github.com/wanasa-app/wanasa/internal/auth"
	"github.com/wanasa-app/wanasa/internal/core"
	"github.com/wanasa-app/wanasa/internal/media"
	"github.com/wanasa-app/wanasa/internal/store"
)

type testEnv struct {
	handler  http.Handler
	gen      *ai.FakeGenerator
	mediaDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	mediaDir := t.TempDir()
	mediaStore, err := media.NewStore(mediaDir)
	require.NoError(t, err)

	logger := zap.NewNop()
	gen := &ai.FakeGenerator{Reply: "ahlan ya sahby"}
	chatService := core.NewChatService(st, gen, ai.ChatTemplateComposer{}, logger)
	tokens := auth.NewTokenManager("test-secret")

	handler := api.NewAPIHandler(st, chatService, tokens, mediaStore, logger)
	return &testEnv{
		handler:  api.NewRouter(handler, nil),
		gen:      gen,
		mediaDir: mediaDir,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(v))
}

// register creates a user and returns the bearer token.
func (e *testEnv) register(t *testing.T, username string) string {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"username": username,
		"password": "p",
		"email":    username + "@x.com",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	decode(t, w, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (e *testEnv) createChat(t *testing.T, token string) int64 {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/chats", token, map[string]string{})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var chat store.Chat
	decode(t, w, &chat)
	return chat.ID
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/register", "", map[string]string{"username": "a"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	env.register(t, "a")

	// Same email is rejected.
	w = env.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"username": "b", "password": "p", "email": "a@x.com",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Same username is rejected.
	w = env.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"username": "a", "password": "p", "email": "fresh@x.com",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "a")

	w := env.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "a", "password": "p"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	decode(t, w, &resp)
	require.NotEmpty(t, resp["token"])

	w = env.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "a", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestConversationTurnEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "a")
	chatID := env.createChat(t, token)

	// Without a token the write is rejected.
	w := env.do(t, http.MethodPost, "/api/messages", "", map[string]interface{}{
		"chat_id": chatID, "content": "hi",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/messages", token, map[string]interface{}{
		"chat_id": chatID, "content": "hi",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var turn core.Turn
	decode(t, w, &turn)
	require.Equal(t, "hi", turn.UserMessage.Content)
	require.False(t, turn.UserMessage.AI)
	require.True(t, turn.AIMessage.AI)
	require.Nil(t, turn.AIMessage.UserID)
	require.Equal(t, "ahlan ya sahby", turn.AIMessage.Content)
}

func TestConversationTurnSucceedsWhenBackendIsDown(t *testing.T) {
	env := newTestEnv(t)
	env.gen.Err = errors.New("pipeline is not loaded")

	token := env.register(t, "a")
	chatID := env.createChat(t, token)

	w := env.do(t, http.MethodPost, "/api/messages", token, map[string]interface{}{
		"chat_id": chatID, "content": "hi",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var turn core.Turn
	decode(t, w, &turn)
	require.Equal(t, ai.DiagnosticReply(env.gen.Err), turn.AIMessage.Content)
	require.True(t, turn.AIMessage.AI)
}

func TestMessageValidation(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "a")
	chatID := env.createChat(t, token)

	w := env.do(t, http.MethodPost, "/api/messages", token, map[string]interface{}{
		"chat_id": chatID, "content": "",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/messages", token, map[string]interface{}{
		"chat_id": chatID + 999, "content": "hi",
	})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnauthenticatedReadsReturnEmptyCollections(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "a")
	chatID := env.createChat(t, token)

	w := env.do(t, http.MethodPost, "/api/messages", token, map[string]interface{}{
		"chat_id": chatID, "content": "hi",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	for _, path := range []string{"/api/chats", "/api/messages", "/api/profiles", "/api/persona-statuses"} {
		w := env.do(t, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, w.Code, path)
		require.JSONEq(t, "[]", w.Body.String(), path)
	}
}

func TestChatsAreInvisibleAcrossUsers(t *testing.T) {
	env := newTestEnv(t)
	ownerToken := env.register(t, "owner")
	otherToken := env.register(t, "other")
	chatID := env.createChat(t, ownerToken)

	w := env.do(t, http.MethodPost, "/api/messages", ownerToken, map[string]interface{}{
		"chat_id": chatID, "content": "secret",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/chats/%d", chatID), otherToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/api/messages", otherToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, "[]", w.Body.String())

	w = env.do(t, http.MethodPost, "/api/messages", otherToken, map[string]interface{}{
		"chat_id": chatID, "content": "hi",
	})
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestProfileSingletonLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "a")

	w := env.do(t, http.MethodGet, "/api/profiles", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, "[]", w.Body.String())

	w = env.do(t, http.MethodPost, "/api/profiles", token, map[string]interface{}{"bio": "hello"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var first store.Profile
	decode(t, w, &first)
	require.Equal(t, "hello", first.Bio)

	// A second create updates in place instead of duplicating.
	w = env.do(t, http.MethodPost, "/api/profiles", token, map[string]interface{}{"job": "engineer"})
	require.Equal(t, http.StatusCreated, w.Code)

	var second store.Profile
	decode(t, w, &second)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "hello", second.Bio)
	require.Equal(t, "engineer", second.Job)

	var profiles []store.Profile
	w = env.do(t, http.MethodGet, "/api/profiles", token, nil)
	decode(t, w, &profiles)
	require.Len(t, profiles, 1)

	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/profiles/%d", first.ID), token, map[string]interface{}{
		"gender": "female", "age": 30,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/profiles/%d", first.ID), token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, "/api/profiles", token, nil)
	require.JSONEq(t, "[]", w.Body.String())
}

func TestPersonaStatusDrivesPrompt(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "a")
	chatID := env.createChat(t, token)

	w := env.do(t, http.MethodPost, "/api/persona-statuses", token, map[string]string{
		"persona_prompt": "X",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/messages", token, map[string]interface{}{
		"chat_id": chatID, "content": "hi",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, env.gen.LastPrompt, "X")
}

func TestPersonaStatusSingletonLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "a")

	w := env.do(t, http.MethodPost, "/api/persona-statuses", token, map[string]string{"persona_prompt": "X"})
	require.Equal(t, http.StatusCreated, w.Code)

	var first store.PersonaStatus
	decode(t, w, &first)

	w = env.do(t, http.MethodPost, "/api/persona-statuses", token, map[string]string{"persona_prompt": "Y"})
	require.Equal(t, http.StatusCreated, w.Code)

	var second store.PersonaStatus
	decode(t, w, &second)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "Y", second.PersonaPrompt)

	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/persona-statuses/%d", first.ID), token, map[string]string{"persona_prompt": "Z"})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/persona-statuses/%d", first.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got store.PersonaStatus
	decode(t, w, &got)
	require.Equal(t, "Z", got.PersonaPrompt)

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/persona-statuses/%d", first.ID), token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestChatRenameAndDelete(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "a")
	chatID := env.createChat(t, token)

	w := env.do(t, http.MethodPut, fmt.Sprintf("/api/chats/%d", chatID), token, map[string]string{"chat_name": "plans"})
	require.Equal(t, http.StatusOK, w.Code)

	var chat store.Chat
	decode(t, w, &chat)
	require.Equal(t, "plans", chat.ChatName)

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/chats/%d", chatID), token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/chats/%d", chatID), token, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestMessageUpdateAndDeleteAreOwnerScoped(t *testing.T) {
	env := newTestEnv(t)
	ownerToken := env.register(t, "owner")
	otherToken := env.register(t, "other")
	chatID := env.createChat(t, ownerToken)

	w := env.do(t, http.MethodPost, "/api/messages", ownerToken, map[string]interface{}{
		"chat_id": chatID, "content": "hi",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var turn core.Turn
	decode(t, w, &turn)
	msgID := turn.UserMessage.ID

	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/messages/%d", msgID), otherToken, map[string]string{"content": "hacked"})
	require.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/messages/%d", msgID), ownerToken, map[string]string{"content": "edited"})
	require.Equal(t, http.StatusOK, w.Code)

	var msg store.Message
	decode(t, w, &msg)
	require.Equal(t, "edited", msg.Content)

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/messages/%d", msgID), otherToken, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/messages/%d", msgID), ownerToken, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
}

// multipartMessage builds a message post with an attached image.
func multipartMessage(t *testing.T, chatID int64, content string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("chat_id", strconv.FormatInt(chatID, 10)))
	require.NoError(t, mw.WriteField("content", content))
	fw, err := mw.CreateFormFile("image", "cat.jpg")
	require.NoError(t, err)
	_, err = fw.Write([]byte("not-really-a-jpeg"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (e *testEnv) postMultipart(t *testing.T, token string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/messages", body)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func TestMessageWithImageAttachment(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "a")
	chatID := env.createChat(t, token)

	body, contentType := multipartMessage(t, chatID, "look at this")
	w := env.postMultipart(t, token, body, contentType)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var turn core.Turn
	decode(t, w, &turn)
	require.Equal(t, "look at this", turn.UserMessage.Content)
	require.NotNil(t, turn.UserMessage.Image)
	require.Contains(t, *turn.UserMessage.Image, "chat_images")
	require.True(t, strings.HasSuffix(*turn.UserMessage.Image, ".jpg"))
	require.Nil(t, turn.AIMessage.Image)
}

func TestRejectedMessageLeavesNoOrphanUpload(t *testing.T) {
	env := newTestEnv(t)
	ownerToken := env.register(t, "owner")
	intruderToken := env.register(t, "intruder")
	chatID := env.createChat(t, ownerToken)

	// Someone else's chat.
	body, contentType := multipartMessage(t, chatID, "hi")
	w := env.postMultipart(t, intruderToken, body, contentType)
	require.Equal(t, http.StatusForbidden, w.Code)

	// Empty content.
	body, contentType = multipartMessage(t, chatID, "")
	w = env.postMultipart(t, ownerToken, body, contentType)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Missing chat.
	body, contentType = multipartMessage(t, chatID+99, "hi")
	w = env.postMultipart(t, ownerToken, body, contentType)
	require.Equal(t, http.StatusNotFound, w.Code)

	entries, err := os.ReadDir(filepath.Join(env.mediaDir, "chat_images"))
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAllowedHosts(t *testing.T) {
	env := newTestEnv(t)

	guarded := api.AllowedHosts([]string{"wanasa.example.com"})(env.handler)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Host = "evil.example.com"
	w := httptest.NewRecorder()
	guarded.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Host = "wanasa.example.com:8080"
	w = httptest.NewRecorder()
	guarded.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	guardedV6 := api.AllowedHosts([]string{"::1"})(env.handler)
	for _, hostHeader := range []string{"[::1]", "[::1]:8080"} {
		req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Host = hostHeader
		w = httptest.NewRecorder()
		guardedV6.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, hostHeader)
	}
}

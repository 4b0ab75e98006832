package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wanasa-app/wanasa/internal/ai"
	"github.com/wanasa-app/wanasa/internal/store"
)

func newTestService(t *testing.T, gen ai.Generator) (*ChatService, *store.Store) {
	t.Helper()

	st, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	return NewChatService(st, gen, ai.ChatTemplateComposer{}, zap.NewNop()), st
}

func setupUserAndChat(t *testing.T, st *store.Store) (*store.User, *store.Chat) {
	t.Helper()

	user := &store.User{Username: "amira", Email: "amira@example.com", PasswordHash: "x"}
	require.NoError(t, st.CreateUser(user))

	chat, err := st.CreateChat(user.ID, "")
	require.NoError(t, err)
	return user, chat
}

func TestPostMessagePersistsBothSidesOfTheTurn(t *testing.T) {
	gen := &ai.FakeGenerator{Reply: "ahlan!"}
	svc, st := newTestService(t, gen)
	user, chat := setupUserAndChat(t, st)

	turn, err := svc.PostMessage(context.Background(), user.ID, chat.ID, "hi", "")
	require.NoError(t, err)

	require.Equal(t, "hi", turn.UserMessage.Content)
	require.False(t, turn.UserMessage.AI)
	require.NotNil(t, turn.UserMessage.UserID)
	require.Equal(t, user.ID, *turn.UserMessage.UserID)

	require.Equal(t, "ahlan!", turn.AIMessage.Content)
	require.True(t, turn.AIMessage.AI)
	require.Nil(t, turn.AIMessage.UserID)

	messages, err := st.MessagesByChatID(chat.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.False(t, messages[0].AI)
	require.True(t, messages[1].AI)
	require.False(t, messages[1].Timestamp.Before(messages[0].Timestamp))
}

func TestPostMessageGenerationFailureBecomesReplyContent(t *testing.T) {
	genErr := errors.New("backend unavailable")
	svc, st := newTestService(t, &ai.FakeGenerator{Err: genErr})
	user, chat := setupUserAndChat(t, st)

	turn, err := svc.PostMessage(context.Background(), user.ID, chat.ID, "hi", "")
	require.NoError(t, err)

	require.Equal(t, ai.DiagnosticReply(genErr), turn.AIMessage.Content)
	require.True(t, turn.AIMessage.AI)

	// Both messages were still written; the user message is never rolled back.
	messages, err := st.MessagesByChatID(chat.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
}

func TestPostMessageRejectsEmptyContentWithoutWrites(t *testing.T) {
	svc, st := newTestService(t, &ai.FakeGenerator{Reply: "x"})
	user, chat := setupUserAndChat(t, st)

	_, err := svc.PostMessage(context.Background(), user.ID, chat.ID, "", "")
	require.ErrorIs(t, err, ErrEmptyContent)

	messages, err := st.MessagesByChatID(chat.ID)
	require.NoError(t, err)
	require.Empty(t, messages)
}

func TestPostMessageRejectsForeignChatWithoutWrites(t *testing.T) {
	svc, st := newTestService(t, &ai.FakeGenerator{Reply: "x"})
	_, chat := setupUserAndChat(t, st)

	intruder := &store.User{Username: "intruder", Email: "intruder@example.com", PasswordHash: "x"}
	require.NoError(t, st.CreateUser(intruder))

	_, err := svc.PostMessage(context.Background(), intruder.ID, chat.ID, "hi", "")
	require.ErrorIs(t, err, ErrChatForbidden)

	messages, err := st.MessagesByChatID(chat.ID)
	require.NoError(t, err)
	require.Empty(t, messages)
}

func TestPromptContainsStoredPersonaVerbatim(t *testing.T) {
	gen := &ai.FakeGenerator{Reply: "ok"}
	svc, st := newTestService(t, gen)
	user, chat := setupUserAndChat(t, st)

	_, err := st.GetOrCreatePersonaStatus(user.ID)
	require.NoError(t, err)
	require.NoError(t, st.UpdatePersonaPrompt(user.ID, "X"))

	_, err = svc.PostMessage(context.Background(), user.ID, chat.ID, "hi", "")
	require.NoError(t, err)
	require.Contains(t, gen.LastPrompt, "X")
	require.Contains(t, gen.LastPrompt, "hi")
}

func TestPromptFallsBackToDefaultPersona(t *testing.T) {
	gen := &ai.FakeGenerator{Reply: "ok"}
	svc, st := newTestService(t, gen)
	user, chat := setupUserAndChat(t, st)

	_, err := svc.PostMessage(context.Background(), user.ID, chat.ID, "hi", "")
	require.NoError(t, err)
	require.Contains(t, gen.LastPrompt, DefaultPersona)
}

func TestResolvePersonaIgnoresEmptyPrompt(t *testing.T) {
	svc, st := newTestService(t, &ai.FakeGenerator{Reply: "ok"})
	user, _ := setupUserAndChat(t, st)

	require.Equal(t, DefaultPersona, svc.ResolvePersona(user.ID))

	_, err := st.GetOrCreatePersonaStatus(user.ID)
	require.NoError(t, err)
	require.Equal(t, DefaultPersona, svc.ResolvePersona(user.ID))

	require.NoError(t, st.UpdatePersonaPrompt(user.ID, "marid w saby"))
	require.Equal(t, "marid w saby", svc.ResolvePersona(user.ID))
}

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

func (s *Store) CreateChat(userID int64, chatName string) (*Chat, error) {
	if chatName == "" {
		chatName = "New Chat"
	}
	now := time.Now().UTC()
	res, err := s.db.Exec("INSERT INTO chats (user_id, chat_name, created_at) VALUES (?, ?, ?)", userID, chatName, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert chat: %w", err)
	}
	id, _ := res.LastInsertId()
	return &Chat{ID: id, UserID: userID, ChatName: chatName, CreatedAt: now}, nil
}

// ChatByID is scoped to the owning user: a chat belonging to someone else is
// indistinguishable from a missing one.
func (s *Store) ChatByID(chatID, userID int64) (*Chat, error) {
	var chat Chat
	err := s.db.Get(&chat,
		"SELECT id, user_id, chat_name, created_at FROM chats WHERE id = ? AND user_id = ?", chatID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	return &chat, nil
}

// ChatOwner reports who owns a chat regardless of the caller, so handlers
// can distinguish a missing chat from a foreign one.
func (s *Store) ChatOwner(chatID int64) (int64, error) {
	var ownerID int64
	err := s.db.Get(&ownerID, "SELECT user_id FROM chats WHERE id = ?", chatID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to get chat owner: %w", err)
	}
	return ownerID, nil
}

func (s *Store) ChatsByUserID(userID int64) ([]Chat, error) {
	chats := []Chat{}
	err := s.db.Select(&chats,
		"SELECT id, user_id, chat_name, created_at FROM chats WHERE user_id = ? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chats: %w", err)
	}
	return chats, nil
}

func (s *Store) RenameChat(chatID, userID int64, chatName string) error {
	res, err := s.db.Exec("UPDATE chats SET chat_name = ? WHERE id = ? AND user_id = ?", chatName, chatID, userID)
	if err != nil {
		return fmt.Errorf("failed to rename chat: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteChat(chatID, userID int64) error {
	res, err := s.db.Exec("DELETE FROM chats WHERE id = ? AND user_id = ?", chatID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

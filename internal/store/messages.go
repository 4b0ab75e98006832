package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

func (s *Store) CreateMessage(msg *Message) error {
	msg.Timestamp = time.Now().UTC()
	res, err := s.db.Exec(
		"INSERT INTO messages (chat_id, user_id, ai, image, content, timestamp) VALUES (?, ?, ?, ?, ?, ?)",
		msg.ChatID, msg.UserID, msg.AI, msg.Image, msg.Content, msg.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	msg.ID, _ = res.LastInsertId()
	return nil
}

// MessagesByChatID returns a chat's messages in insertion order. The id
// tiebreak keeps a user message ahead of the AI reply written in the same
// instant.
func (s *Store) MessagesByChatID(chatID int64) ([]Message, error) {
	messages := []Message{}
	err := s.db.Select(&messages,
		"SELECT id, chat_id, user_id, ai, image, content, timestamp FROM messages WHERE chat_id = ? ORDER BY timestamp ASC, id ASC", chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	return messages, nil
}

// MessagesByOwner returns every message across the chats owned by userID.
func (s *Store) MessagesByOwner(userID int64) ([]Message, error) {
	messages := []Message{}
	err := s.db.Select(&messages, `
        SELECT m.id, m.chat_id, m.user_id, m.ai, m.image, m.content, m.timestamp
        FROM messages m
        JOIN chats c ON c.id = m.chat_id
        WHERE c.user_id = ?
        ORDER BY m.timestamp ASC, m.id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	return messages, nil
}

// MessageByID resolves a message only when it sits inside a chat owned by
// userID.
func (s *Store) MessageByID(messageID, userID int64) (*Message, error) {
	var msg Message
	err := s.db.Get(&msg, `
        SELECT m.id, m.chat_id, m.user_id, m.ai, m.image, m.content, m.timestamp
        FROM messages m
        JOIN chats c ON c.id = m.chat_id
        WHERE m.id = ? AND c.user_id = ?`, messageID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return &msg, nil
}

func (s *Store) UpdateMessageContent(messageID, userID int64, content string) error {
	res, err := s.db.Exec(`
        UPDATE messages SET content = ?
        WHERE id = ? AND chat_id IN (SELECT id FROM chats WHERE user_id = ?)`,
		content, messageID, userID)
	if err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteMessage(messageID, userID int64) error {
	res, err := s.db.Exec(`
        DELETE FROM messages
        WHERE id = ? AND chat_id IN (SELECT id FROM chats WHERE user_id = ?)`,
		messageID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// GetOrCreatePersonaStatus returns the user's persona record, materializing
// an empty one on first access. UNIQUE(user_id) keeps it a singleton.
func (s *Store) GetOrCreatePersonaStatus(userID int64) (*PersonaStatus, error) {
	_, err := s.db.Exec(
		"INSERT INTO persona_statuses (user_id) VALUES (?) ON CONFLICT (user_id) DO NOTHING", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert persona status: %w", err)
	}
	return s.PersonaStatusByUserID(userID)
}

func (s *Store) PersonaStatusByUserID(userID int64) (*PersonaStatus, error) {
	var status PersonaStatus
	err := s.db.Get(&status,
		"SELECT id, user_id, persona_prompt, created_at FROM persona_statuses WHERE user_id = ?", userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get persona status: %w", err)
	}
	return &status, nil
}

func (s *Store) UpdatePersonaPrompt(userID int64, prompt string) error {
	res, err := s.db.Exec("UPDATE persona_statuses SET persona_prompt = ? WHERE user_id = ?", prompt, userID)
	if err != nil {
		return fmt.Errorf("failed to update persona status: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeletePersonaStatus(userID int64) error {
	res, err := s.db.Exec("DELETE FROM persona_statuses WHERE user_id = ?", userID)
	if err != nil {
		return fmt.Errorf("failed to delete persona status: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

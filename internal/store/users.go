package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
)

func (s *Store) CreateUser(u *User) error {
	u.DateJoined = time.Now().UTC()
	res, err := s.db.Exec(
		"INSERT INTO users (username, email, password_hash, first_name, last_name, date_joined) VALUES (?, ?, ?, ?, ?, ?)",
		u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.DateJoined,
	)
	if err != nil {
		// The pre-insert availability checks race under concurrent
		// registration; the constraint is the source of truth.
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	u.ID, _ = res.LastInsertId()
	return nil
}

func (s *Store) UserByID(id int64) (*User, error) {
	var user User
	err := s.db.Get(&user,
		"SELECT id, username, email, password_hash, first_name, last_name, date_joined FROM users WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (s *Store) UserByUsername(username string) (*User, error) {
	var user User
	err := s.db.Get(&user,
		"SELECT id, username, email, password_hash, first_name, last_name, date_joined FROM users WHERE username = ?", username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

// UsernameTaken and EmailTaken back the registration uniqueness checks.
func (s *Store) UsernameTaken(username string) (bool, error) {
	var n int
	if err := s.db.Get(&n, "SELECT COUNT(*) FROM users WHERE username = ?", username); err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return n > 0, nil
}

func (s *Store) EmailTaken(email string) (bool, error) {
	var n int
	if err := s.db.Get(&n, "SELECT COUNT(*) FROM users WHERE email = ?", email); err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return n > 0, nil
}

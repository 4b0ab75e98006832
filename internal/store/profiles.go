package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// GetOrCreateProfile returns the user's profile, materializing it on first
// access. The UNIQUE(user_id) constraint makes the insert a no-op when the
// singleton already exists.
func (s *Store) GetOrCreateProfile(userID int64) (*Profile, error) {
	_, err := s.db.Exec("INSERT INTO profiles (user_id) VALUES (?) ON CONFLICT (user_id) DO NOTHING", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}
	return s.ProfileByUserID(userID)
}

func (s *Store) ProfileByUserID(userID int64) (*Profile, error) {
	var profile Profile
	err := s.db.Get(&profile,
		"SELECT id, user_id, is_parent, image, bio, age, gender, job FROM profiles WHERE user_id = ?", userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	profile.Dependents = []int64{}
	if err := s.db.Select(&profile.Dependents,
		"SELECT user_id FROM profile_dependents WHERE profile_id = ? ORDER BY user_id", profile.ID); err != nil {
		return nil, fmt.Errorf("failed to get profile dependents: %w", err)
	}
	return &profile, nil
}

// UpdateProfile writes the profile fields and replaces the dependents set in
// a single transaction.
func (s *Store) UpdateProfile(p *Profile) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		"UPDATE profiles SET is_parent = ?, image = ?, bio = ?, age = ?, gender = ?, job = ? WHERE user_id = ?",
		p.IsParent, p.Image, p.Bio, p.Age, p.Gender, p.Job, p.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec("DELETE FROM profile_dependents WHERE profile_id = ?", p.ID); err != nil {
		return fmt.Errorf("failed to clear profile dependents: %w", err)
	}
	for _, userID := range p.Dependents {
		if _, err := tx.Exec("INSERT INTO profile_dependents (profile_id, user_id) VALUES (?, ?)", p.ID, userID); err != nil {
			return fmt.Errorf("failed to insert profile dependent: %w", err)
		}
	}

	return tx.Commit()
}

func (s *Store) DeleteProfile(userID int64) error {
	res, err := s.db.Exec("DELETE FROM profiles WHERE user_id = ?", userID)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

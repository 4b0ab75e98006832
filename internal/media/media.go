// Package media stores uploaded attachments on disk and hands back relative
// file-path references for persistence.
package media

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Upload subdirectories, one per attachment kind.
const (
	ChatImages  = "chat_images"
	ProfilePics = "profile_pics"
)

type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	for _, sub := range []string{ChatImages, ProfilePics} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create media directory: %w", err)
		}
	}
	return &Store{dir: dir}, nil
}

// Save writes the upload under subdir with a fresh name and returns the
// relative path stored on the owning record.
func (s *Store) Save(subdir, originalName string, r io.Reader) (string, error) {
	name := uuid.NewString() + filepath.Ext(originalName)
	rel := filepath.Join(subdir, name)

	f, err := os.Create(filepath.Join(s.dir, rel))
	if err != nil {
		return "", fmt.Errorf("failed to create media file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("failed to write media file: %w", err)
	}
	return rel, nil
}

// Remove deletes a previously saved attachment by its relative path.
func (s *Store) Remove(rel string) error {
	if err := os.Remove(filepath.Join(s.dir, rel)); err != nil {
		return fmt.Errorf("failed to remove media file: %w", err)
	}
	return nil
}

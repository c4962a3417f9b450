package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/fiercekittenz/gifbot/internal/domain"
)

var areaNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// FileStore persists each feature area as <dir>/<area>.json.
type FileStore struct {
	dir string
}

// NewFileStore creates the backing directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(area string) (string, error) {
	if !areaNamePattern.MatchString(area) {
		return "", fmt.Errorf("invalid feature area name %q", area)
	}
	return filepath.Join(s.dir, area+".json"), nil
}

// Load reads an area document into v. Returns domain.ErrNoDocument when
// the area has never been saved.
func (s *FileStore) Load(_ context.Context, area string, v any) error {
	path, err := s.path(area)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.ErrNoDocument
		}
		return fmt.Errorf("failed to read %s document: %w", area, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s document: %w", area, err)
	}
	return nil
}

// Save overwrites the area document atomically (temp file + rename), so a
// crash mid-write never leaves a truncated document behind.
func (s *FileStore) Save(_ context.Context, area string, v any) error {
	path, err := s.path(area)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s document: %w", area, err)
	}

	tmp, err := os.CreateTemp(s.dir, area+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s document: %w", area, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s document: %w", area, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s document: %w", area, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s document: %w", area, err)
	}
	return nil
}

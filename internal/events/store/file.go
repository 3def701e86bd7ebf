package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"event-scheduler/internal/models"
)

// FileBackend keeps the collection as one JSON array in a single file.
type FileBackend struct {
	Path string
}

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{Path: path}
}

// Load returns an empty collection when the file is missing or empty.
func (f *FileBackend) Load(ctx context.Context) ([]models.Event, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return []models.Event{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []models.Event{}, nil
	}

	var events []models.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.Path, err)
	}
	if events == nil {
		events = []models.Event{}
	}
	return events, nil
}

// Save rewrites the file through a temp file and rename so a crash mid-write
// leaves the previous version intact.
func (f *FileBackend) Save(ctx context.Context, events []models.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if events == nil {
		events = []models.Event{}
	}

	data, err := json.MarshalIndent(events, "", "    ")
	if err != nil {
		return fmt.Errorf("encode events: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(f.Path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, f.Path); err != nil {
		return fmt.Errorf("replace %s: %w", f.Path, err)
	}
	return nil
}

func (f *FileBackend) Close() error {
	return nil
}

package repository

import (
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"railcal-service/internal/domain/repository"
	"railcal-service/pkg/logger"
)

// FileProcessedSetRepository keeps the processed-message set in a gob
// blob on disk. The set is small (one sender's mail), so it is
// rewritten wholesale after every addition.
type FileProcessedSetRepository struct {
	path   string
	logger logger.Logger
	ids    map[string]bool
}

// NewFileProcessedSetRepository creates a file-backed processed set
func NewFileProcessedSetRepository(path string, logger logger.Logger) repository.ProcessedSetRepository {
	return &FileProcessedSetRepository{
		path:   path,
		logger: logger,
		ids:    make(map[string]bool),
	}
}

// Load reads the persisted set. A missing file is a fresh start.
func (r *FileProcessedSetRepository) Load(_ context.Context) error {
	f, err := os.Open(r.path)
	if os.IsNotExist(err) {
		r.logger.Info("No processed set on disk, starting empty", "path", r.path)
		r.ids = make(map[string]bool)
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening processed set: %w", err)
	}
	defer f.Close()

	ids := make(map[string]bool)
	if err := gob.NewDecoder(f).Decode(&ids); err != nil {
		return fmt.Errorf("decoding processed set: %w", err)
	}
	r.ids = ids

	r.logger.Info("Processed set loaded", "path", r.path, "count", len(ids))
	return nil
}

// Contains reports whether the identifier has been processed
func (r *FileProcessedSetRepository) Contains(id string) bool {
	return r.ids[id]
}

// Add records the identifier and persists the set immediately. The
// write goes to a temp file first and is renamed into place so a crash
// never leaves a truncated blob.
func (r *FileProcessedSetRepository) Add(_ context.Context, id string) error {
	r.ids[id] = true

	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating processed set directory: %w", err)
		}
	}

	tmp := r.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating processed set temp file: %w", err)
	}

	if err := gob.NewEncoder(f).Encode(r.ids); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encoding processed set: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing processed set temp file: %w", err)
	}

	if err := os.Rename(tmp, r.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing processed set: %w", err)
	}
	return nil
}

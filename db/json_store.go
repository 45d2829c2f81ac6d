package db

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"whereiam/models"
)

// JSONStore keeps the ledger in a single JSON file
type JSONStore struct {
	path string
}

// NewJSONStore creates a store backed by the file at path
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Path returns the backing file path
func (s *JSONStore) Path() string {
	return s.path
}

// Load reads the ledger. A missing file is an empty ledger.
func (s *JSONStore) Load(ctx context.Context) (models.Ledger, error) {
	if err := ctx.Err(); err != nil {
		return models.Ledger{}, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.NewLedger(), nil
	}
	if err != nil {
		return models.Ledger{}, fmt.Errorf("failed to read store %s: %w", s.path, err)
	}

	ledger, err := DecodeLedger(data)
	if err != nil {
		return models.Ledger{}, fmt.Errorf("store %s: %w", s.path, err)
	}
	return ledger, nil
}

// Save replaces the file atomically
func (s *JSONStore) Save(ctx context.Context, ledger models.Ledger) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := EncodeLedger(ledger)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for store: %w", err)
	}

	tempFile := s.path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write store: %w", err)
	}

	if err := os.Rename(tempFile, s.path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to replace store: %w", err)
	}

	return nil
}

// Close satisfies the Repository interface
func (s *JSONStore) Close() error {
	return nil
}

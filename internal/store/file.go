package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// FileStore keeps the configuration in an INI file. Writes use temp file +
// rename for crash safety and set 0600 permissions.
type FileStore struct {
	filePath string
}

// Compile-time check to ensure FileStore implements Store
var _ Store = (*FileStore)(nil)

// DefaultFilePath returns the per-user config file path,
// $XDG_CONFIG_HOME/sidefx-web/config.ini on Linux.
func DefaultFilePath() string {
	return filepath.Join(xdg.ConfigHome, "sidefx-web", "config.ini")
}

// NewFileStore creates a FileStore for the given path, creating parent
// directories with 0700 permissions if they don't exist.
func NewFileStore(filePath string) (*FileStore, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	return &FileStore{
		filePath: filePath,
	}, nil
}

// Load reads and parses the config file. Returns ErrNotFound if the file
// doesn't exist.
func (f *FileStore) Load(ctx context.Context) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.filePath)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	cfg, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.filePath, err)
	}
	return cfg, nil
}

// Save atomically writes the config using temp file + rename, then sets file
// permissions to 0600 (owner read/write only).
func (f *FileStore) Save(ctx context.Context, cfg *Config) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encode(cfg)
	if err != nil {
		return err
	}

	// Create temp file in same directory for atomic rename
	dir := filepath.Dir(f.filePath)
	tempFile, err := os.CreateTemp(dir, "*.tmp")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()
	// Cleanup deferred for all exit paths
	defer func() { _ = os.Remove(tempName) }()
	defer func() { _ = tempFile.Close() }()

	if _, err := tempFile.Write(data); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tempFile.Close(); err != nil {
		return err
	}

	if err := os.Rename(tempName, f.filePath); err != nil {
		return err
	}

	// Credentials live in this file, keep it owner-only
	if err := os.Chmod(f.filePath, 0600); err != nil {
		return err
	}

	return nil
}

// Package app holds the runtime configuration shared by all CLI commands.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os/user"

	"github.com/go-playground/validator/v10"

	"github.com/tykeal/sidefx-web-cli/internal/store"
)

// StorageType represents the different backends supported for the persisted
// credential/token store.
type StorageType string

const (
	StorageTypeFile    StorageType = "file"
	StorageTypeKeyring StorageType = "keyring"
)

// Default configuration values
const (
	DefaultConfigAccessTokenURL = "https://www.sidefx.com/oauth2/application_token"
	DefaultConfigEndpointURL    = "https://www.sidefx.com/api/"
	DefaultConfigStorage        = StorageTypeFile
)

// StorageConfig describes where credentials and the cached token live.
type StorageConfig struct {
	// Type selects the storage backend.
	Type StorageType `json:"type" validate:"required,oneof=file keyring"`

	// Backend-specific settings (mutually exclusive based on Type)
	File        string `json:"file,omitempty"`         // For file storage: path to INI config file
	KeyringUser string `json:"keyring_user,omitempty"` // For keyring storage: user identifier
}

// NewStore creates a Store from the storage configuration.
func (s *StorageConfig) NewStore() (store.Store, error) {
	switch s.Type {
	case StorageTypeFile:
		return store.NewFileStore(s.File)
	case StorageTypeKeyring:
		return store.NewKeyringStore(s.KeyringUser)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", s.Type)
	}
}

// Config holds the runtime configuration resolved from the settings file,
// environment variables, CLI flags, and defaults. It is distinct from the
// persisted credential store.
type Config struct {
	// Debug enables debug-level logging.
	Debug          bool          `json:"debug"`
	AccessTokenURL string        `json:"access_token_url" validate:"required,url"`
	EndpointURL    string        `json:"endpoint_url" validate:"required,url"`
	Storage        StorageConfig `json:"storage"`
}

// Default creates a new Config with default values applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset config fields with sensible defaults.
func (c *Config) ApplyDefaults() error {
	if c.AccessTokenURL == "" {
		c.AccessTokenURL = DefaultConfigAccessTokenURL
	}
	if c.EndpointURL == "" {
		c.EndpointURL = DefaultConfigEndpointURL
	}
	if c.Storage.Type == "" {
		c.Storage.Type = DefaultConfigStorage
	}

	// Dynamic defaults based on storage type
	switch c.Storage.Type {
	case StorageTypeFile:
		if c.Storage.File == "" {
			c.Storage.File = store.DefaultFilePath()
		}
	case StorageTypeKeyring:
		if c.Storage.KeyringUser == "" {
			currentUser, err := user.Current()
			if err != nil {
				return fmt.Errorf("storage.keyring_user required (auto-detect failed: %w)", err)
			}
			c.Storage.KeyringUser = currentUser.Username
		}
	}

	return nil
}

// Validate validates the configuration using struct tags and backend rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	switch c.Storage.Type {
	case StorageTypeFile:
		if c.Storage.File == "" {
			return errors.New("file path required for file storage")
		}
	case StorageTypeKeyring:
		if c.Storage.KeyringUser == "" {
			return errors.New("keyring_user required for keyring storage")
		}
	}

	return nil
}

// LogLevel returns the slog level implied by the debug flag.
func (c *Config) LogLevel() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

package app

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, DefaultConfigAccessTokenURL, cfg.AccessTokenURL)
	assert.Equal(t, DefaultConfigEndpointURL, cfg.EndpointURL)
	assert.Equal(t, StorageTypeFile, cfg.Storage.Type)
	assert.NotEmpty(t, cfg.Storage.File)
	assert.NoError(t, cfg.Validate())
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := &Config{
		AccessTokenURL: "https://token.example.com/",
		EndpointURL:    "https://api.example.com/",
		Storage:        StorageConfig{Type: StorageTypeFile, File: "/tmp/custom.ini"},
	}
	require.NoError(t, cfg.ApplyDefaults())

	assert.Equal(t, "https://token.example.com/", cfg.AccessTokenURL)
	assert.Equal(t, "https://api.example.com/", cfg.EndpointURL)
	assert.Equal(t, "/tmp/custom.ini", cfg.Storage.File)
}

func TestApplyDefaultsKeyringUser(t *testing.T) {
	cfg := &Config{Storage: StorageConfig{Type: StorageTypeKeyring}}
	require.NoError(t, cfg.ApplyDefaults())
	assert.NotEmpty(t, cfg.Storage.KeyringUser)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "bad endpoint URL",
			mutate:  func(c *Config) { c.EndpointURL = "not-a-url" },
			wantErr: true,
		},
		{
			name:    "bad token URL",
			mutate:  func(c *Config) { c.AccessTokenURL = "" },
			wantErr: true,
		},
		{
			name:    "unknown storage type",
			mutate:  func(c *Config) { c.Storage.Type = "vault" },
			wantErr: true,
		},
		{
			name: "keyring without user",
			mutate: func(c *Config) {
				c.Storage.Type = StorageTypeKeyring
				c.Storage.KeyringUser = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Default()
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLogLevel(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel())
	cfg.Debug = true
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())
}

func TestNewStoreUnsupportedType(t *testing.T) {
	sc := &StorageConfig{Type: "vault"}
	_, err := sc.NewStore()
	assert.Error(t, err)
}

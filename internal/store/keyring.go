package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// keyringService identifies this application's entry in the OS keyring.
const keyringService = "sidefx-web"

// KeyringStore holds the configuration document in OS-native secure
// credential storage (macOS Keychain, Windows Credential Manager, Linux
// Secret Service).
type KeyringStore struct {
	service string
	user    string
}

// Compile-time check to ensure KeyringStore implements Store
var _ Store = (*KeyringStore)(nil)

// NewKeyringStore creates a KeyringStore for the given user identifier.
func NewKeyringStore(user string) (*KeyringStore, error) {
	if user == "" {
		return nil, fmt.Errorf("user cannot be empty")
	}

	return &KeyringStore{
		service: keyringService,
		user:    user,
	}, nil
}

// Load reads and parses the configuration from the system keyring. Returns
// ErrNotFound if no entry exists for the user.
func (k *KeyringStore) Load(ctx context.Context) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := keyring.Get(k.service, k.user)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	cfg, err := decode([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("keyring entry for %s: %w", k.user, err)
	}
	return cfg, nil
}

// Save persists the configuration to the system keyring, overwriting any
// existing entry.
func (k *KeyringStore) Save(ctx context.Context, cfg *Config) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encode(cfg)
	if err != nil {
		return err
	}

	return keyring.Set(k.service, k.user, string(data))
}

package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"gopkg.in/ini.v1"
)

// INI section and key names, kept compatible with config files written by
// earlier clients.
const (
	sectionAuth  = "Auth"
	sectionCache = "Cache"

	keyClientID        = "client_id"
	keyClientSecretKey = "client_secret_key"
	keyAccessToken     = "access_token"
	keyTokenExpiry     = "access_token_expiry"
)

// ErrNotFound indicates that no persisted configuration exists yet. The
// command layer decides whether to run interactive setup when it sees this.
var ErrNotFound = errors.New("configuration not found")

// Credentials are the OAuth2 application credentials issued by SideFX.
type Credentials struct {
	ClientID        string
	ClientSecretKey string
}

// CachedToken is a previously fetched access token and its expiry time.
// A zero CachedToken means nothing is cached.
type CachedToken struct {
	AccessToken string
	Expiry      time.Time
}

// Valid reports whether the cached token can still be used at time now.
func (t CachedToken) Valid(now time.Time) bool {
	return t.AccessToken != "" && !t.Expiry.IsZero() && !t.Expiry.Before(now)
}

// Config is the full persisted state: credentials plus the token cache.
type Config struct {
	Credentials Credentials
	Token       CachedToken
}

// Store reads and writes the persisted configuration.
type Store interface {
	// Load returns the stored configuration. Returns ErrNotFound if no
	// configuration has been saved yet.
	Load(ctx context.Context) (*Config, error)

	// Save persists the configuration, replacing any previous state.
	Save(ctx context.Context, cfg *Config) error
}

// decode parses an INI document into a Config. Missing [Auth] keys are an
// error; the [Cache] section is optional.
func decode(data []byte) (*Config, error) {
	f, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	auth := f.Section(sectionAuth)
	cfg := &Config{
		Credentials: Credentials{
			ClientID:        auth.Key(keyClientID).String(),
			ClientSecretKey: auth.Key(keyClientSecretKey).String(),
		},
	}
	if cfg.Credentials.ClientID == "" {
		return nil, fmt.Errorf("missing required key [%s] %s", sectionAuth, keyClientID)
	}
	if cfg.Credentials.ClientSecretKey == "" {
		return nil, fmt.Errorf("missing required key [%s] %s", sectionAuth, keyClientSecretKey)
	}

	cache := f.Section(sectionCache)
	cfg.Token.AccessToken = cache.Key(keyAccessToken).String()
	if raw := cache.Key(keyTokenExpiry).String(); raw != "" {
		expiry, err := cache.Key(keyTokenExpiry).Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", keyTokenExpiry, raw, err)
		}
		cfg.Token.Expiry = fromUnixFloat(expiry)
	}

	return cfg, nil
}

// encode renders a Config as an INI document. Cache keys are omitted when no
// token is cached.
func encode(cfg *Config) ([]byte, error) {
	f := ini.Empty()

	auth := f.Section(sectionAuth)
	auth.Key(keyClientID).SetValue(cfg.Credentials.ClientID)
	auth.Key(keyClientSecretKey).SetValue(cfg.Credentials.ClientSecretKey)

	if cfg.Token.AccessToken != "" {
		cache := f.Section(sectionCache)
		cache.Key(keyAccessToken).SetValue(cfg.Token.AccessToken)
		// A token without an expiry (legacy file with a bare
		// access_token) stays without one instead of serializing the
		// zero time.
		if !cfg.Token.Expiry.IsZero() {
			cache.Key(keyTokenExpiry).SetValue(formatUnixFloat(cfg.Token.Expiry))
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("rendering config: %w", err)
	}
	return buf.Bytes(), nil
}

// Expiry timestamps are stored as unix seconds with a fractional part, the
// format earlier clients wrote.

func formatUnixFloat(t time.Time) string {
	return strconv.FormatFloat(float64(t.UnixNano())/float64(time.Second), 'f', -1, 64)
}

func fromUnixFloat(f float64) time.Time {
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9)))
}

// Package auth obtains and caches OAuth2 application tokens for the SideFX
// Web API using the client-credentials flow with HTTP Basic authentication.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/tykeal/sidefx-web-cli/internal/store"
)

// expiryMargin is subtracted from the reported token lifetime so a token
// never expires between the validity check and its use.
const expiryMargin = 2 * time.Second

// TokenError reports a non-200 response from the token endpoint. The command
// layer turns it into a message and exit code 1.
type TokenError struct {
	StatusCode int
	Status     string
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("token endpoint returned %s", e.Status)
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithHTTPClient sets a custom HTTP client for token requests. If not
// provided, a client with a 30 second timeout is used.
func WithHTTPClient(client *http.Client) ManagerOption {
	return func(m *Manager) {
		m.httpClient = client
	}
}

// WithClock sets a custom time source, used by tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// Manager returns a valid access token on demand, fetching a fresh one from
// the token endpoint only when the cached token is missing or expired.
// Fresh tokens are written back through the Store.
type Manager struct {
	tokenURL string
	creds    store.Credentials
	cached   store.CachedToken
	store    store.Store
	logger   *slog.Logger

	httpClient *http.Client
	now        func() time.Time
}

// Compile-time check to ensure Manager implements oauth2.TokenSource
var _ oauth2.TokenSource = (*Manager)(nil)

// NewManager creates a Manager from the loaded configuration. No I/O is
// performed until the first Token call.
func NewManager(tokenURL string, cfg *store.Config, st store.Store, logger *slog.Logger, opts ...ManagerOption) (*Manager, error) {
	if tokenURL == "" {
		return nil, fmt.Errorf("missing token URL")
	}
	if cfg == nil {
		return nil, fmt.Errorf("missing configuration")
	}
	if st == nil {
		return nil, fmt.Errorf("missing store")
	}
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		tokenURL:   tokenURL,
		creds:      cfg.Credentials,
		cached:     cfg.Token,
		store:      st,
		logger:     logger,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// tokenResponse is the JSON body returned by the token endpoint.
type tokenResponse struct {
	AccessToken string  `json:"access_token"`
	ExpiresIn   float64 `json:"expires_in"`
}

// Token returns a usable access token, fetching a fresh one if the cached
// token is missing or expired. It implements oauth2.TokenSource.
func (m *Manager) Token() (*oauth2.Token, error) {
	// oauth2.TokenSource.Token() has no context parameter (legacy
	// interface limitation), so token fetches use the background context.
	ctx := context.Background()

	if m.cached.Valid(m.now()) {
		m.logger.Debug("using cached access token", "expiry", m.cached.Expiry)
		return &oauth2.Token{
			AccessToken: m.cached.AccessToken,
			Expiry:      m.cached.Expiry,
		}, nil
	}

	m.logger.Info("fetching a new token")
	token, err := m.fetch(ctx)
	if err != nil {
		return nil, err
	}

	m.cached = store.CachedToken{
		AccessToken: token.AccessToken,
		Expiry:      token.Expiry,
	}
	// The fetched token is valid regardless of whether caching it works;
	// a failed write only costs a re-auth on the next invocation.
	if err := m.store.Save(ctx, &store.Config{Credentials: m.creds, Token: m.cached}); err != nil {
		m.logger.Warn("failed to persist access token", "error", err)
	}

	return token, nil
}

// fetch requests a new application token with HTTP Basic authentication
// built from the client credentials.
func (m *Manager) fetch(ctx context.Context) (*oauth2.Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building token request: %w", err)
	}
	req.SetBasicAuth(m.creds.ClientID, m.creds.ClientSecretKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &TokenError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding token response: %w", err)
	}
	if body.AccessToken == "" {
		return nil, fmt.Errorf("token response missing access_token")
	}

	expiry := m.now().Add(-expiryMargin).Add(time.Duration(body.ExpiresIn * float64(time.Second)))
	return &oauth2.Token{
		AccessToken: body.AccessToken,
		Expiry:      expiry,
	}, nil
}

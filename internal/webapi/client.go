// Package webapi calls the SideFX Web API. Every remote procedure is a POST
// of a single form field "json" holding the envelope
// [function_name, positional_args, keyword_args]; results come back as JSON.
package webapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

// Remote function names exposed by the vendor for build downloads.
const (
	fnListBuilds   = "download.get_daily_builds_list"
	fnDownloadInfo = "download.get_daily_build_download"
)

// Products lists the product names accepted by the download functions.
var Products = []string{
	"houdini",
	"houdini-py3",
	"sidefxlabs",
	"docker",
	"houdini-launcher",
	"houdini-launcher-py3",
	"launcher-iso",
	"launcher-iso-py3",
}

// Platforms lists the accepted platform names. The empty string is allowed
// for products that are not platform-specific.
var Platforms = []string{"win64", "macos", "linux", ""}

// APIError reports a non-200 response from the API endpoint or a download
// URL. The response body is kept for diagnostics.
type APIError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api returned %s", e.Status)
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the HTTP client used for download retrieval. The
// RPC client keeps its token-injecting transport regardless.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.downloadClient = client
	}
}

// Client issues authenticated remote-procedure calls against an endpoint URL.
type Client struct {
	endpointURL string
	httpClient  *http.Client
	// Download URLs are pre-signed, so retrieval uses a plain client
	// without the Bearer transport and without a timeout (archives are
	// large).
	downloadClient *http.Client
	logger         *slog.Logger
}

// New creates a Client for the given endpoint. Bearer authorization is
// supplied per request by the token source.
func New(endpointURL string, ts oauth2.TokenSource, opts ...ClientOption) (*Client, error) {
	if endpointURL == "" {
		return nil, fmt.Errorf("missing endpoint URL")
	}
	if ts == nil {
		return nil, fmt.Errorf("missing token source")
	}

	c := &Client{
		endpointURL:    endpointURL,
		httpClient:     &http.Client{Transport: &oauth2.Transport{Source: ts}},
		downloadClient: &http.Client{},
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Call invokes a remote function. args and kwargs are marshalled into the
// vendor's fixed RPC envelope; a nil kwargs map is sent as {}.
//
// HTTP 200 returns the raw JSON body. Any other status returns *APIError;
// transport failures return a wrapped error, so callers can tell the two
// apart.
func (c *Client) Call(ctx context.Context, function string, args []any, kwargs map[string]any) (json.RawMessage, error) {
	if args == nil {
		args = []any{}
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}

	envelope, err := json.Marshal([]any{function, args, kwargs})
	if err != nil {
		return nil, fmt.Errorf("encoding rpc envelope: %w", err)
	}

	form := url.Values{"json": {string(envelope)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	c.logger.Debug("calling api", "function", function, "endpoint", c.endpointURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", function, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("api call failed", "function", function, "status", resp.Status, "body", string(body))
		return nil, &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Body: body}
	}

	return json.RawMessage(body), nil
}

// ListBuilds returns the builds available for a product. version and
// platform are optional filters; onlyProduction restricts the result to
// production builds. Optional arguments are sent as null so the server sees
// the same envelope older clients produced.
func (c *Client) ListBuilds(ctx context.Context, product string, version, platform *string, onlyProduction bool) ([]json.RawMessage, error) {
	args := []any{product, optString(version), optString(platform), optBool(onlyProduction)}

	raw, err := c.Call(ctx, fnListBuilds, args, nil)
	if err != nil {
		return nil, err
	}

	var builds []json.RawMessage
	if err := json.Unmarshal(raw, &builds); err != nil {
		return nil, fmt.Errorf("decoding build list: %w", err)
	}
	return builds, nil
}

// DownloadInfo describes where to fetch a specific build.
type DownloadInfo struct {
	DownloadURL string `json:"download_url"`
	Filename    string `json:"filename"`
	Hash        string `json:"hash"`
}

// GetDownloadInfo resolves the download URL and filename for a build. build
// is either a build number or the string "production".
func (c *Client) GetDownloadInfo(ctx context.Context, product, version, build, platform string) (*DownloadInfo, error) {
	raw, err := c.Call(ctx, fnDownloadInfo, []any{product, version, build, platform}, nil)
	if err != nil {
		return nil, err
	}

	var info DownloadInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("decoding download info: %w", err)
	}
	if info.DownloadURL == "" || info.Filename == "" {
		return nil, fmt.Errorf("download info missing download_url or filename")
	}
	return &info, nil
}

func optString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// optBool maps false to null; the server treats an absent filter and a
// null filter the same.
func optBool(b bool) any {
	if !b {
		return nil
	}
	return true
}

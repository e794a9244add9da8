package webapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func testTokenSource() oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"})
}

func strPtr(s string) *string { return &s }

func TestCallSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, http.MethodPost, r.Method)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, `["some.function",["x"],{}]`, r.PostForm.Get("json"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"a":1}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, testTokenSource())
	require.NoError(t, err)

	raw, err := c.Call(context.Background(), "some.function", []any{"x"}, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(raw))
}

func TestCallHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := New(srv.URL, testTokenSource())
	require.NoError(t, err)

	_, err = c.Call(context.Background(), "some.function", nil, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Contains(t, string(apiErr.Body), "boom")
}

func TestCallNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c, err := New(srv.URL, testTokenSource())
	require.NoError(t, err)

	_, err = c.Call(context.Background(), "some.function", nil, nil)
	require.Error(t, err)

	// Network failures must stay distinguishable from HTTP errors.
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestListBuildsEnvelope(t *testing.T) {
	tests := []struct {
		name           string
		version        *string
		platform       *string
		onlyProduction bool
		wantJSON       string
	}{
		{
			name:     "version only",
			version:  strPtr("19.5"),
			wantJSON: `["download.get_daily_builds_list",["houdini","19.5",null,null],{}]`,
		},
		{
			name:     "no filters",
			wantJSON: `["download.get_daily_builds_list",["houdini",null,null,null],{}]`,
		},
		{
			name:           "all filters",
			version:        strPtr("20.0"),
			platform:       strPtr("linux"),
			onlyProduction: true,
			wantJSON:       `["download.get_daily_builds_list",["houdini","20.0","linux",true],{}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotJSON string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.NoError(t, r.ParseForm())
				gotJSON = r.PostForm.Get("json")
				_, _ = w.Write([]byte(`[{"build":"382"},{"build":"383"}]`))
			}))
			defer srv.Close()

			c, err := New(srv.URL, testTokenSource())
			require.NoError(t, err)

			builds, err := c.ListBuilds(context.Background(), "houdini", tt.version, tt.platform, tt.onlyProduction)
			require.NoError(t, err)
			assert.Equal(t, tt.wantJSON, gotJSON)
			require.Len(t, builds, 2)
			assert.JSONEq(t, `{"build":"382"}`, string(builds[0]))
		})
	}
}

func TestGetDownloadInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t,
			`["download.get_daily_build_download",["houdini","19.5","382","linux"],{}]`,
			r.PostForm.Get("json"))
		_, _ = w.Write([]byte(`{"download_url":"https://dl.example.com/h.tar.gz","filename":"houdini-19.5.382-linux.tar.gz","hash":"abc123"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, testTokenSource())
	require.NoError(t, err)

	info, err := c.GetDownloadInfo(context.Background(), "houdini", "19.5", "382", "linux")
	require.NoError(t, err)
	assert.Equal(t, "https://dl.example.com/h.tar.gz", info.DownloadURL)
	assert.Equal(t, "houdini-19.5.382-linux.tar.gz", info.Filename)
	assert.Equal(t, "abc123", info.Hash)
}

func TestGetDownloadInfoMissingFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, testTokenSource())
	require.NoError(t, err)

	_, err = c.GetDownloadInfo(context.Background(), "houdini", "19.5", "382", "linux")
	assert.Error(t, err)
}

func TestRetrieve(t *testing.T) {
	const payload = "archive-bytes"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Pre-signed URL: no Authorization header expected
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	c, err := New(srv.URL, testTokenSource())
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "build.tar.gz")
	require.NoError(t, c.Retrieve(context.Background(), srv.URL+"/build.tar.gz", dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, string(data))
}

func TestRetrieveHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := New(srv.URL, testTokenSource())
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "build.tar.gz")
	err = c.Retrieve(context.Background(), srv.URL+"/missing", dest)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "failed download must not leave a file")
}

package taxonomy

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/civicgate/filingpilot/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(baseURL string) *Client {
	return New(config.TaxonomyConfig{Address: baseURL, Timeout: 10 * time.Second})
}

func TestValidateFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/validate", r.URL.Path)
		assert.Equal(t, "Leather goods", r.URL.Query().Get("term"))
		assert.Equal(t, "18", r.URL.Query().Get("category"))
		io.WriteString(w, `{"found":true,"matched":{"term":"Leather goods","category":"18","score":1.0}}`)
	}))
	defer srv.Close()

	result, err := newClient(srv.URL).Validate(context.Background(), "Leather goods", "18")
	require.NoError(t, err)
	assert.True(t, result.Found)
	require.NotNil(t, result.Matched)
	assert.Equal(t, "18", result.Matched.Category)
}

func TestValidateUnknownTermCarriesSuggestions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"found":false,"suggestions":[{"term":"Leather goods","category":"18","score":0.82}]}`)
	}))
	defer srv.Close()

	result, err := newClient(srv.URL).Validate(context.Background(), "lether goods", "")
	require.NoError(t, err)
	assert.False(t, result.Found)
	require.Len(t, result.Suggestions, 1)
	assert.Equal(t, "Leather goods", result.Suggestions[0].Term)
}

func TestValidateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Validate(context.Background(), "anything", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "leather", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		io.WriteString(w, `[{"term":"Leather goods","category":"18","score":0.97},{"term":"Leather straps","category":"18","score":0.91}]`)
	}))
	defer srv.Close()

	entries, err := newClient(srv.URL).Search(context.Background(), "leather", SearchOptions{Limit: 5})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Leather goods", entries[0].Term)
}

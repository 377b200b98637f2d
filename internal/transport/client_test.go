package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/civicgate/filingpilot/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) config.PortalConfig {
	return config.PortalConfig{
		BaseURL:   baseURL,
		UserAgent: "filingpilot-test",
		Timeout:   10 * time.Second,
	}
}

func TestClientCarriesCookiesAcrossExchanges(t *testing.T) {
	var sawCookie bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/start":
			http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "abc123", Path: "/"})
			io.WriteString(w, "ok")
		case "/next":
			c, err := r.Cookie("JSESSIONID")
			sawCookie = err == nil && c.Value == "abc123"
			io.WriteString(w, "ok")
		}
	}))
	defer srv.Close()

	c, err := New(testConfig(srv.URL))
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "/start", nil)
	require.NoError(t, err)
	_, err = c.Get(context.Background(), "/next", nil)
	require.NoError(t, err)
	assert.True(t, sawCookie)
}

func TestClientsDoNotShareCookies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("JSESSIONID"); err != nil {
			http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: r.URL.Query().Get("id"), Path: "/"})
		}
		c, _ := r.Cookie("JSESSIONID")
		if c != nil {
			io.WriteString(w, c.Value)
		}
	}))
	defer srv.Close()

	first, err := New(testConfig(srv.URL))
	require.NoError(t, err)
	second, err := New(testConfig(srv.URL))
	require.NoError(t, err)

	_, err = first.Get(context.Background(), "/", url.Values{"id": {"one"}})
	require.NoError(t, err)
	_, err = second.Get(context.Background(), "/", url.Values{"id": {"two"}})
	require.NoError(t, err)

	resp, err := first.Get(context.Background(), "/", nil)
	require.NoError(t, err)
	assert.Equal(t, "one", resp.Body)

	resp, err = second.Get(context.Background(), "/", nil)
	require.NoError(t, err)
	assert.Equal(t, "two", resp.Body)
}

func TestPostFormSendsOrderedBody(t *testing.T) {
	var body string
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		contentType = r.Header.Get("Content-Type")
	}))
	defer srv.Close()

	c, err := New(testConfig(srv.URL))
	require.NoError(t, err)

	form := NewForm()
	form.Set("z", "last-first")
	form.Set("a", "second")

	_, err = c.PostForm(context.Background(), "/submit", nil, form)
	require.NoError(t, err)
	assert.Equal(t, "z=last-first&a=second", body)
	assert.Contains(t, contentType, "application/x-www-form-urlencoded")
}

func TestPostFormNoRedirectReturnsTheRedirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/submit":
			http.Redirect(w, r, "/confirmation?tid=TX-1", http.StatusFound)
		case "/confirmation":
			io.WriteString(w, "followed")
		}
	}))
	defer srv.Close()

	c, err := New(testConfig(srv.URL))
	require.NoError(t, err)

	resp, err := c.PostFormNoRedirect(context.Background(), "/submit", nil, NewForm())
	require.NoError(t, err)
	assert.True(t, resp.IsRedirect())
	assert.Equal(t, http.StatusFound, resp.Status)
	assert.Equal(t, "/confirmation?tid=TX-1", resp.Location)

	// The follow client chases the same redirect.
	followed, err := c.PostForm(context.Background(), "/submit", nil, NewForm())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, followed.Status)
	assert.Equal(t, "followed", followed.Body)
}

func TestPostMultipartCarriesFieldsAndFile(t *testing.T) {
	var gotField, gotFilename, gotContent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotField = r.FormValue("javax.faces.ViewState")
		f, hdr, err := r.FormFile("wizardForm:attachments:upload")
		require.NoError(t, err)
		defer f.Close()
		raw, _ := io.ReadAll(f)
		gotFilename = hdr.Filename
		gotContent = string(raw)
	}))
	defer srv.Close()

	c, err := New(testConfig(srv.URL))
	require.NoError(t, err)

	form := NewForm()
	form.Set("javax.faces.ViewState", "vs-4")

	_, err = c.PostMultipart(context.Background(), "/upload", nil, form, FileUpload{
		Param:       "wizardForm:attachments:upload",
		Filename:    "logo.png",
		ContentType: "image/png",
		Content:     []byte("png-bytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, "vs-4", gotField)
	assert.Equal(t, "logo.png", gotFilename)
	assert.Equal(t, "png-bytes", gotContent)
}

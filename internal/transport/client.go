package transport

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/civicgate/filingpilot/internal/config"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// Response is the transport-level view of one exchange.
type Response struct {
	Status   int
	Body     string
	Header   http.Header
	Location string
}

// IsRedirect reports whether the response is a 3xx with a Location header.
func (r *Response) IsRedirect() bool {
	return r.Status >= 300 && r.Status < 400 && r.Location != ""
}

// Client issues portal exchanges for exactly one session. The cookie jar is
// client-owned, so concurrent workflow runs never share cookies.
type Client struct {
	follow   *resty.Client
	noFollow *resty.Client
	limiter  *rate.Limiter
	baseURL  string
}

// New builds a session client from portal configuration.
func New(cfg config.PortalConfig) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	// retryablehttp supplies the tuned transport; retry itself is handled
	// by resty and defaults to zero (stage re-submission is not idempotent).
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.Logger = nil

	rps := cfg.RequestsPerSecond
	limiter := rate.NewLimiter(rate.Inf, 0)
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}

	build := func() *resty.Client {
		c := resty.New()
		c.SetBaseURL(cfg.BaseURL).
			SetTimeout(cfg.Timeout).
			SetRetryCount(cfg.MaxRetries).
			SetRetryWaitTime(1 * time.Second).
			SetRetryMaxWaitTime(30 * time.Second).
			SetHeader("User-Agent", cfg.UserAgent).
			SetCookieJar(jar).
			SetTransport(retryClient.HTTPClient.Transport)
		return c
	}

	follow := build()
	noFollow := build()
	// http.ErrUseLastResponse makes net/http hand back the 3xx itself
	// instead of chasing it; the final transaction id may only exist in
	// that Location header.
	noFollow.SetRedirectPolicy(resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}))

	return &Client{
		follow:   follow,
		noFollow: noFollow,
		limiter:  limiter,
		baseURL:  cfg.BaseURL,
	}, nil
}

// request prepares a rate-limited resty request.
func (c *Client) request(ctx context.Context, rc *resty.Client) (*resty.Request, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return rc.R().SetContext(ctx), nil
}

func toResponse(resp *resty.Response) *Response {
	return &Response{
		Status:   resp.StatusCode(),
		Body:     resp.String(),
		Header:   resp.Header(),
		Location: resp.Header().Get("Location"),
	}
}

// Get issues a GET, following redirects.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	req, err := c.request(ctx, c.follow)
	if err != nil {
		return nil, err
	}
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}
	resp, err := req.Get(path)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	return toResponse(resp), nil
}

// PostForm issues a URL-encoded POST with a pre-encoded ordered body,
// following redirects.
func (c *Client) PostForm(ctx context.Context, path string, query url.Values, form *Form) (*Response, error) {
	return c.postForm(ctx, c.follow, path, query, form)
}

// PostFormNoRedirect issues a URL-encoded POST without following redirects.
// Used for the confirmation exchange.
func (c *Client) PostFormNoRedirect(ctx context.Context, path string, query url.Values, form *Form) (*Response, error) {
	return c.postForm(ctx, c.noFollow, path, query, form)
}

func (c *Client) postForm(ctx context.Context, rc *resty.Client, path string, query url.Values, form *Form) (*Response, error) {
	req, err := c.request(ctx, rc)
	if err != nil {
		return nil, err
	}
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}
	req.SetHeader("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.SetBody(form.Encode())

	resp, err := req.Post(path)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", path, err)
	}
	return toResponse(resp), nil
}

// FileUpload is one multipart file part.
type FileUpload struct {
	Param       string
	Filename    string
	ContentType string
	Content     []byte
}

// PostMultipart issues a multipart POST carrying form fields in insertion
// order plus one file part. Used by the attachment sub-protocol.
func (c *Client) PostMultipart(ctx context.Context, path string, query url.Values, form *Form, file FileUpload) (*Response, error) {
	req, err := c.request(ctx, c.follow)
	if err != nil {
		return nil, err
	}
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}

	data := make(map[string]string, form.Len())
	for _, p := range form.Pairs() {
		data[p.Name] = p.Value
	}
	req.SetMultipartFormData(data)
	req.SetMultipartField(file.Param, file.Filename, file.ContentType, bytes.NewReader(file.Content))

	resp, err := req.Post(path)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", path, err)
	}
	return toResponse(resp), nil
}

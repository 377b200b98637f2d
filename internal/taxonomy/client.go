package taxonomy

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/civicgate/filingpilot/internal/config"
	"github.com/go-resty/resty/v2"
)

// Entry is one ranked taxonomy entry.
type Entry struct {
	Term     string  `json:"term"`
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

// ValidationResult is the validator's answer for one term.
type ValidationResult struct {
	Found       bool    `json:"found"`
	Matched     *Entry  `json:"matched,omitempty"`
	Suggestions []Entry `json:"suggestions,omitempty"`
}

// SearchOptions narrows a search exchange.
type SearchOptions struct {
	Category string
	Limit    int
}

// Client talks to the fuzzy-matching classification-term lookup service. It
// is advisory only; the stage pipeline never requires it.
type Client struct {
	resty *resty.Client
}

// New creates a validator client from configuration.
func New(cfg config.TaxonomyConfig) *Client {
	c := resty.New().
		SetBaseURL(cfg.Address).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	return &Client{resty: c}
}

// Validate checks one free-text term, optionally restricted to a category.
func (c *Client) Validate(ctx context.Context, term, category string) (*ValidationResult, error) {
	req := c.resty.R().SetContext(ctx).SetQueryParam("term", term)
	if category != "" {
		req.SetQueryParam("category", category)
	}

	resp, err := req.Get("/validate")
	if err != nil {
		return nil, fmt.Errorf("taxonomy validate: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("taxonomy validate: status %d", resp.StatusCode())
	}

	var result ValidationResult
	if err := sonic.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("taxonomy validate: decode: %w", err)
	}
	return &result, nil
}

// Search returns ranked entries for a free-text query.
func (c *Client) Search(ctx context.Context, query string, opts SearchOptions) ([]Entry, error) {
	req := c.resty.R().SetContext(ctx).SetQueryParam("q", query)
	if opts.Category != "" {
		req.SetQueryParam("category", opts.Category)
	}
	if opts.Limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(opts.Limit))
	}

	resp, err := req.Get("/search")
	if err != nil {
		return nil, fmt.Errorf("taxonomy search: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("taxonomy search: status %d", resp.StatusCode())
	}

	var entries []Entry
	if err := sonic.Unmarshal(resp.Body(), &entries); err != nil {
		return nil, fmt.Errorf("taxonomy search: decode: %w", err)
	}
	return entries, nil
}

package documents

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bytedance/sonic"
	"github.com/civicgate/filingpilot/internal/config"
	"github.com/civicgate/filingpilot/internal/types"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"github.com/klauspost/compress/zip"
)

// Receipt is the finalization service's answer for a confirmed transaction.
type Receipt struct {
	Status       string    `json:"status"`
	ReferenceID  string    `json:"reference_id"`
	CreationTime time.Time `json:"creation_time"`
}

// Client talks to the document finalization service: it commits a confirmed
// transaction and retrieves the issued receipt bundle.
type Client struct {
	resty *resty.Client
}

// New creates a finalization client from configuration.
func New(cfg config.DocumentsConfig) *Client {
	c := resty.New().
		SetBaseURL(cfg.Address).
		SetTimeout(cfg.Timeout)
	return &Client{resty: c}
}

// Finalize commits the transaction and returns the authority's receipt.
func (c *Client) Finalize(ctx context.Context, transactionID string) (*Receipt, error) {
	resp, err := c.resty.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"transaction_id": transactionID}).
		Post("/finalize")
	if err != nil {
		return nil, fmt.Errorf("finalize %s: %w", transactionID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("finalize %s: status %d", transactionID, resp.StatusCode())
	}

	var receipt Receipt
	if err := sonic.Unmarshal(resp.Body(), &receipt); err != nil {
		return nil, fmt.Errorf("finalize %s: decode: %w", transactionID, err)
	}
	return &receipt, nil
}

// FetchDocuments retrieves and unpacks the receipt bundle for a transaction.
func (c *Client) FetchDocuments(ctx context.Context, transactionID string) ([]types.Document, error) {
	resp, err := c.resty.R().
		SetContext(ctx).
		SetQueryParam("tid", transactionID).
		Get("/bundle")
	if err != nil {
		return nil, fmt.Errorf("fetch documents %s: %w", transactionID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch documents %s: status %d", transactionID, resp.StatusCode())
	}
	return ExtractArchive(resp.Body())
}

// ExtractArchive unpacks a ZIP receipt bundle into documents with detected
// mime types.
func ExtractArchive(data []byte) ([]types.Document, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	var docs []types.Document
	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", file.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file.Name, err)
		}
		docs = append(docs, types.Document{
			Filename: file.Name,
			Bytes:    content,
			MimeType: mimetype.Detect(content).String(),
		})
	}
	return docs, nil
}

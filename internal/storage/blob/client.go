// Package blob uploads media into the backend's object storage. The
// store is append-only from this service's perspective: every attachment
// becomes a new object, nothing is overwritten.
package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Store is the minimal blob interface the media pipeline needs.
type Store interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
}

type Client struct {
	BaseURL    string
	Bucket     string
	APIKey     string
	HTTPClient *http.Client
}

func NewClient(baseURL, bucket, apiKey string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Bucket:     bucket,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Upload writes an object and returns its public URL.
func (c *Client) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.BaseURL, c.Bucket, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("blob upload non-2xx: %d: %s", resp.StatusCode, string(msg))
	}

	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.BaseURL, c.Bucket, path), nil
}

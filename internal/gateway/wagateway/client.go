// Package wagateway is the HTTP client for the WhatsApp gateway
// provider. The webhook core only uses two of its endpoints: media
// decryption and raw downloads off the messaging CDN.
package wagateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// maxMediaBytes caps downloads; gateway media beyond this is dropped
// rather than buffered into memory.
const maxMediaBytes = 64 << 20

// DecryptResult is the gateway's decrypt response: either a re-hosted
// public URL or the raw bytes as base64, depending on provider version.
type DecryptResult struct {
	URL    string `json:"url"`
	Base64 string `json:"base64"`
}

type Client struct {
	BaseURL    string
	Session    string
	Token      string
	HTTPClient *http.Client
}

func NewClient(baseURL, session, token string, opts ...func(*Client)) *Client {
	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Session:    session,
		Token:      token,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func WithHTTPClient(hc *http.Client) func(*Client) {
	return func(c *Client) { c.HTTPClient = hc }
}

// DecryptMedia asks the gateway to decrypt an attachment. The original
// message envelope is echoed back verbatim together with the normalized
// media key; the gateway needs both to locate and decrypt the blob.
func (c *Client) DecryptMedia(ctx context.Context, envelope json.RawMessage, mediaKey string) (*DecryptResult, error) {
	body, err := json.Marshal(map[string]any{
		"message":  json.RawMessage(envelope),
		"mediaKey": mediaKey,
	})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/api/%s/decrypt-media", c.BaseURL, url.PathEscape(c.Session))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("decrypt-media non-2xx: %d: %s", resp.StatusCode, string(msg))
	}

	var result DecryptResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decrypt-media decode: %w", err)
	}
	if result.URL == "" && result.Base64 == "" {
		return nil, fmt.Errorf("decrypt-media returned neither url nor bytes")
	}
	return &result, nil
}

// Download fetches a media URL with a browser-like user agent. The CDN
// rejects default Go clients, hence the spoofed UA.
func (c *Client) Download(ctx context.Context, mediaURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, "", fmt.Errorf("media download non-2xx: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes))
	if err != nil {
		return nil, "", err
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// LooksEncrypted reports whether a media URL points at the messaging
// network's encrypted CDN: matched by host pattern or the .enc suffix.
func LooksEncrypted(mediaURL string) bool {
	if mediaURL == "" {
		return false
	}
	if strings.HasSuffix(strings.ToLower(strings.SplitN(mediaURL, "?", 2)[0]), ".enc") {
		return true
	}
	u, err := url.Parse(mediaURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return strings.HasSuffix(host, ".whatsapp.net") || strings.HasSuffix(host, ".cdn.whatsapp.net")
}

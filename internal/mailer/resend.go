// Package mailer delivers notification emails through the Resend
// transactional-email API.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultEndpoint = "https://api.resend.com/emails"
	defaultTimeout  = 10 * time.Second
)

// ErrNotConfigured is returned when the client has no API key.
var ErrNotConfigured = errors.New("mailer: email service not configured")

// Message is one outbound email.
type Message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Client posts messages to the delivery API.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// NewClient constructs a Client. An empty apiKey yields a client whose Send
// always reports ErrNotConfigured. httpClient may be nil.
func NewClient(apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		endpoint: defaultEndpoint,
		apiKey:   strings.TrimSpace(apiKey),
		http:     httpClient,
	}
}

// SetEndpoint overrides the delivery endpoint, primarily for tests.
func (c *Client) SetEndpoint(endpoint string) {
	if endpoint != "" {
		c.endpoint = endpoint
	}
}

// Configured reports whether the client holds credentials.
func (c *Client) Configured() bool { return c != nil && c.apiKey != "" }

// Send delivers one message. Provider rejections surface as errors with the
// drained response detail.
func (c *Client) Send(ctx context.Context, m Message) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	payload, err := json.Marshal(m)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("mailer: delivery status %d: %s", resp.StatusCode, drainError(resp.Body))
	}
	return nil
}

func drainError(r io.Reader) string {
	if r == nil {
		return ""
	}
	b, _ := io.ReadAll(io.LimitReader(r, 256))
	return strings.TrimSpace(string(b))
}

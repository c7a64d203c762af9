// Package distribution defines the delivery collaborator interface and its
// HTTP client implementation. Partial success (some channels delivered) is
// representable and is not treated as total failure.
package distribution

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/scorewire/telecast/internal/generator"
)

const defaultTimeout = 30 * time.Second

// Delivery modes.
const (
	ModeAuto   = "auto"
	ModeManual = "manual"
)

// ChannelResult is the delivery outcome for one target channel.
type ChannelResult struct {
	ChannelID int64  `json:"channel_id"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// Result is the outcome of a send across all target channels.
type Result struct {
	Success           bool            `json:"success"`
	ChannelsSent      int             `json:"channels_sent"`
	PerChannelResults []ChannelResult `json:"per_channel_results"`
	Error             string          `json:"error,omitempty"`
}

// Sender delivers content to a set of channels.
type Sender interface {
	Send(ctx context.Context, content *generator.Content, language string, channelIDs []int64, mode string) (*Result, error)
}

// ---------------------------------------------------------------------------
// HTTP implementation
// ---------------------------------------------------------------------------

// Client calls the distribution API (Telegram relay) over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a distribution client. timeout <= 0 uses the default.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type sendRequest struct {
	Content    *generator.Content `json:"content"`
	Language   string             `json:"language"`
	ChannelIDs []int64            `json:"channel_ids"`
	Mode       string             `json:"mode"`
}

// Send delivers content to the given channels. A transport-level error or
// timeout counts as a delivery failure for every channel.
func (c *Client) Send(ctx context.Context, content *generator.Content, language string, channelIDs []int64, mode string) (*Result, error) {
	body, err := json.Marshal(sendRequest{
		Content:    content,
		Language:   language,
		ChannelIDs: channelIDs,
		Mode:       mode,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/send", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send %s to %d channels: %w", language, len(channelIDs), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("send %s: status %d", language, resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode send result: %w", err)
	}
	return &result, nil
}

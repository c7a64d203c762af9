// Package generator defines the content-generation collaborator interface
// and its HTTP client implementation. The scheduling core treats generation
// as opaque and unreliable; it never inspects generation internals.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 30 * time.Second

// Options carries optional hints for a generation call.
type Options struct {
	MatchID int64             `json:"match_id,omitempty"`
	Subtype string            `json:"subtype,omitempty"`
	Extra   map[string]string `json:"extra,omitempty"`
}

// Content is a single generated content item.
type Content struct {
	Title    string            `json:"title"`
	Body     string            `json:"content"`
	ImageURL string            `json:"image_url,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// AIConfidence returns the generator's self-reported confidence, 0 when the
// metadata does not carry one.
func (c *Content) AIConfidence() float64 {
	if c.Metadata == nil {
		return 0
	}
	var conf float64
	if v, ok := c.Metadata["ai_confidence"]; ok {
		fmt.Sscanf(v, "%f", &conf)
	}
	return conf
}

// Generator produces content for one (content type, language, channel) tuple.
type Generator interface {
	Generate(ctx context.Context, contentType, language string, channelID int64, opts Options) (*Content, error)
}

// Selector picks the best contextual follow-up item for a smart-push
// trigger. A nil result with nil error means "nothing suitable found".
type Selector interface {
	SelectFollowUp(ctx context.Context, primaryContentType, language string) (*Content, string, error)
}

// ---------------------------------------------------------------------------
// HTTP implementation
// ---------------------------------------------------------------------------

// Client calls the content-generation API over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a generation client. timeout <= 0 uses the default.
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

type generateRequest struct {
	ContentType string  `json:"content_type"`
	Language    string  `json:"language"`
	ChannelID   int64   `json:"channel_id"`
	Options     Options `json:"options"`
}

// Generate requests one content item. A timeout or non-2xx response is a
// generation failure, never a silent skip.
func (c *Client) Generate(ctx context.Context, contentType, language string, channelID int64, opts Options) (*Content, error) {
	body, err := json.Marshal(generateRequest{
		ContentType: contentType,
		Language:    language,
		ChannelID:   channelID,
		Options:     opts,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generate %s/%s: %w", contentType, language, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("generate %s/%s: status %d: %s", contentType, language, resp.StatusCode, raw)
	}

	var content Content
	if err := json.NewDecoder(resp.Body).Decode(&content); err != nil {
		return nil, fmt.Errorf("decode generated content: %w", err)
	}
	return &content, nil
}

type selectRequest struct {
	PrimaryContentType string `json:"primary_content_type"`
	Language           string `json:"language"`
}

type selectResponse struct {
	Found    bool     `json:"found"`
	CouponID string   `json:"coupon_id"`
	Content  *Content `json:"content"`
}

// SelectFollowUp asks the generation API for the best contextual follow-up
// item. Returns (nil, "", nil) when nothing suitable exists.
func (c *Client) SelectFollowUp(ctx context.Context, primaryContentType, language string) (*Content, string, error) {
	body, err := json.Marshal(selectRequest{
		PrimaryContentType: primaryContentType,
		Language:           language,
	})
	if err != nil {
		return nil, "", fmt.Errorf("marshal select request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/select-followup", bytes.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("build select request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("select follow-up: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("select follow-up: status %d", resp.StatusCode)
	}

	var sel selectResponse
	if err := json.NewDecoder(resp.Body).Decode(&sel); err != nil {
		return nil, "", fmt.Errorf("decode follow-up: %w", err)
	}
	if !sel.Found || sel.Content == nil {
		return nil, "", nil
	}
	return sel.Content, sel.CouponID, nil
}

// Package ai is the client for the remote generative service the library
// consumes: metadata extraction, cover generation and the recommendation
// assistant. Failures never propagate as crashes; every call substitutes the
// contract's fallback and reports a non-fatal error for notification.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/abhi9818/libris/internal/entities"
)

// FallbackCategory is the category substituted when extraction fails or
// returns partial data.
const FallbackCategory = entities.CategoryNovel

// Metadata is the extraction output.
type Metadata struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	Summary  string `json:"summary"`
	Category string `json:"category"`
}

// FallbackMetadata is the defined extraction fallback: empty fields, the
// fallback category.
func FallbackMetadata() Metadata {
	return Metadata{Category: FallbackCategory}
}

// ChatMessage is one turn of assistant history.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Suggestion is one recommended book.
type Suggestion struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Reason string `json:"reason"`
}

// ChatResult is the assistant output; at least one field is populated.
type ChatResult struct {
	TextResponse string       `json:"textResponse,omitempty"`
	Suggestions  []Suggestion `json:"suggestions,omitempty"`
}

// Client talks to the remote AI service over JSON/HTTP.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	rateLimiter *rateLimiter
}

type rateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	interval time.Duration
}

func newRateLimiter(interval time.Duration) *rateLimiter {
	return &rateLimiter{interval: interval}
}

func (r *rateLimiter) wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	since := time.Since(r.lastCall)
	if since < r.interval {
		time.Sleep(r.interval - since)
	}
	r.lastCall = time.Now()
}

// NewClient creates a rate-limited client for the AI service at baseURL.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		apiKey:      apiKey,
		rateLimiter: newRateLimiter(time.Second),
	}
}

// ExtractMetadata asks the service for {title, author, summary, category}
// given book text. The returned metadata is always usable: on any failure or
// partial response the fallback fields are substituted, and the error only
// signals that a notification should be surfaced.
func (c *Client) ExtractMetadata(ctx context.Context, text string) (Metadata, error) {
	var meta Metadata
	err := c.post(ctx, "/v1/metadata/extract", map[string]string{"text": text}, &meta)
	if err != nil {
		return FallbackMetadata(), fmt.Errorf("metadata extraction: %w", err)
	}
	if meta.Category == "" {
		meta.Category = FallbackCategory
	}
	return meta, nil
}

// GenerateCover asks the service for cover art and returns an inline image
// data URI. It returns an empty string on any failure, never an error.
func (c *Client) GenerateCover(ctx context.Context, title, summary, category string) string {
	var out struct {
		CoverImageDataURI string `json:"coverImageDataUri"`
	}
	payload := map[string]string{"title": title, "summary": summary, "category": category}
	if err := c.post(ctx, "/v1/covers/generate", payload, &out); err != nil {
		return ""
	}
	return out.CoverImageDataURI
}

// Chat sends the current query plus conversation history and returns the
// assistant's answer. On failure the result carries a user-facing error text,
// satisfying the at-least-one-field contract.
func (c *Client) Chat(ctx context.Context, query string, history []ChatMessage) ChatResult {
	payload := struct {
		CurrentQuery string        `json:"currentQuery"`
		History      []ChatMessage `json:"history"`
	}{CurrentQuery: query, History: history}

	var result ChatResult
	if err := c.post(ctx, "/v1/assistant/chat", payload, &result); err != nil {
		return ChatResult{TextResponse: "Sorry, I could not reach the assistant. Please try again."}
	}
	if result.TextResponse == "" && len(result.Suggestions) == 0 {
		return ChatResult{TextResponse: "Sorry, I have no answer for that right now."}
	}
	return result
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	if c.baseURL == "" {
		return fmt.Errorf("ai service not configured")
	}

	c.rateLimiter.wait()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Libris/1.0")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status from %s: %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

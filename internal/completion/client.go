// Package completion is the pass-through adapter to the external
// text-generation API. It forwards a message list and returns the raw
// completion body unmodified; no retry, no streaming.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kushal1111/LLMproject/internal/models"
)

// MaxAllowedTokens is the hard ceiling applied to the caller's
// max-token hint regardless of input.
const MaxAllowedTokens = 4096

const (
	defaultModel     = "deepseek/deepseek-r1:free"
	defaultMaxTokens = 2000
	temperature      = 0.7
)

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

// Complete forwards the message list upstream and hands back the raw
// response body. The max-token hint is clamped to MaxAllowedTokens and
// the sampling temperature is fixed.
func (c *Client) Complete(ctx context.Context, msgs []models.Message, model string, maxTokens int) (json.RawMessage, error) {
	if model == "" {
		model = defaultModel
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	if maxTokens > MaxAllowedTokens {
		maxTokens = MaxAllowedTokens
	}

	payload := completionRequest{
		Model:       model,
		Messages:    make([]message, 0, len(msgs)),
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
	for _, m := range msgs {
		payload.Messages = append(payload.Messages, message{Role: m.Role, Content: m.Content})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("completion: upstream returned %d: %s", resp.StatusCode, string(raw))
	}
	return raw, nil
}

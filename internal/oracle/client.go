package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/webrecon/spider/internal/ratelimit"
)

// Completer is the text-completion capability the batcher consumes: one
// prompt in, one reassembled response text out.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Stream      bool      `json:"stream"`
}

type completionChoice struct {
	Index        int     `json:"index"`
	FinishReason string  `json:"finish_reason"`
	Message      message `json:"message"`
}

type completionResponse struct {
	Choices []completionChoice `json:"choices"`
}

type ClientOptions struct {
	Endpoint    string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	APIKey      string
}

func DefaultClientOptions() *ClientOptions {
	return &ClientOptions{
		Endpoint:    "http://localhost:8081/v1/chat/completions",
		Model:       "deepseek-r1-distill-llama-70b",
		Temperature: 0.6,
		MaxTokens:   1024,
		Timeout:     60 * time.Second,
	}
}

// Client calls an OpenAI-style chat-completions endpoint. The model and
// sampling parameters are opaque configuration; the client does not
// interpret them.
type Client struct {
	httpClient *http.Client
	opts       *ClientOptions
	limiter    ratelimit.Limiter
	logger     *slog.Logger
}

func NewClient(opts *ClientOptions, limiter ratelimit.Limiter) (*Client, error) {
	if opts == nil {
		opts = DefaultClientOptions()
	}
	if opts.Endpoint == "" {
		return nil, errors.New("oracle endpoint is required")
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}

	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		opts:       opts,
		limiter:    limiter,
		logger:     slog.Default().With("component", "oracle_client"),
	}, nil
}

// Complete submits one prompt and returns the completion text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	reqBody, err := json.Marshal(completionRequest{
		Model:       c.opts.Model,
		Messages:    []message{{Role: "user", Content: prompt}},
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
		Stream:      false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.Endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("completion endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var completion completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", errors.New("completion response contained no choices")
	}

	return completion.Choices[0].Message.Content, nil
}

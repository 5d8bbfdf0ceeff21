// Package advisory wraps the external language-model API behind a
// narrow client interface. The client is constructed once at process
// start and injected into the advisory service; there is no package
// level client state.
package advisory

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Completer is the narrow surface the advisory service depends on.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Client talks to an OpenAI-compatible chat completions endpoint
// (Groq in production).
type Client struct {
	http  *resty.Client
	model string
}

// Options configures a Client.
type Options struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// NewClient builds a chat completions client with sane retry defaults.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(opts.BaseURL).
		SetAuthToken(opts.APIKey).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(4 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			if r == nil {
				return false
			}
			code := r.StatusCode()
			return code == 429 || (code >= 500 && code <= 599)
		})

	return &Client{http: httpClient, model: opts.Model}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends one system+user exchange and returns the assistant text.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var result chatResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model: c.model,
			Messages: []chatMessage{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: userPrompt},
			},
			Temperature: 0.4,
		}).
		SetResult(&result).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}

	if resp.IsError() {
		if result.Error != nil {
			return "", fmt.Errorf("chat completion error: %s (status %d)", result.Error.Message, resp.StatusCode())
		}
		return "", fmt.Errorf("chat completion error: status %d", resp.StatusCode())
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return result.Choices[0].Message.Content, nil
}

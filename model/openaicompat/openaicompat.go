// Package openaicompat provides a client for OpenAI-compatible chat
// completion endpoints. The search partner speaks this dialect, so the
// web_search tool runs its queries through here with a custom base URL.
package openaicompat

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Options configures the compatible-endpoint client.
type Options struct {
	// BaseURL points at the compatible endpoint (e.g. the search partner).
	BaseURL string
	// Model is the completion model requested from the endpoint.
	Model string
	APIKey string
}

// Client issues single-shot chat completions against a compatible endpoint.
type Client struct {
	client openai.Client
	model  string
}

// NewClient builds a Client for one endpoint.
func NewClient(optFns ...func(o *Options)) *Client {
	opts := Options{Model: "sonar"}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	return &Client{
		client: openai.NewClient(clientOpts...),
		model:  opts.Model,
	}
}

// Search runs the query as a single user message and returns the raw JSON
// completion. Callers relay or speak the result; the payload shape is
// owned by the partner, not parsed here.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(query),
		},
	})
	if err != nil {
		return "", fmt.Errorf("search completion: %w", err)
	}
	return resp.RawJSON(), nil
}

package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-3.5-turbo"

// ErrMissingAPIKey is returned by NewClient when no API key is given.
var ErrMissingAPIKey = errors.New("OpenAI API key not found, set OPENAI_API_KEY")

const systemPrompt = "You are an email classifier. Analyze the email content and " +
	"classify it into exactly one of these four categories:\n" +
	"1. Informational - News, updates, notifications.\n" +
	"2. Promotional/Marketing - Sales, offers, newsletters, advertisements, promotional content.\n" +
	"3. Personal - Personal correspondence or work-related correspondence.\n" +
	"4. Other - Anything that doesn't fit the above categories\n" +
	"Respond with only the category name, nothing else."

const (
	maxTokens   = 10
	temperature = 0.1
)

type Client struct {
	api   openai.Client
	model string
}

// NewClient builds a chat-completion classifier. Extra request options are
// appended after the API key, e.g. to point at a different base URL.
func NewClient(apiKey, model string, opts ...option.RequestOption) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if model == "" {
		model = DefaultModel
	}

	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)

	return &Client{
		api:   client,
		model: model,
	}, nil
}

func (c *Client) Model() string {
	return c.model
}

// Classify asks the model for one of the four categories and returns its
// trimmed answer. Mapping the answer onto a label is left to the caller.
func (c *Client) Classify(ctx context.Context, sender, subject, body string) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userContent(sender, subject, body)),
		},
		MaxTokens:   openai.Int(maxTokens),
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty LLM response")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func userContent(sender, subject, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\n", sender)
	fmt.Fprintf(&b, "Subject: %s\n", subject)
	fmt.Fprintf(&b, "Body: %s", body)
	return b.String()
}

package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"replygate/clients"
	"replygate/models"
)

// AnthropicCompletionClient implements the clients.CompletionClient interface
// using the Anthropic Messages API.
type AnthropicCompletionClient struct {
	client           anthropic.Client
	model            string
	defaultMaxTokens int
}

// NewAnthropicCompletionClient creates a completion client for the given
// model. maxTokens is the default output budget per call.
func NewAnthropicCompletionClient(apiKey, model string, maxTokens int) clients.CompletionClient {
	return &AnthropicCompletionClient{
		client:           anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:            model,
		defaultMaxTokens: maxTokens,
	}
}

// GenerateCompletion runs a single completion call and returns the generated
// text plus token usage. Deadlines are expected to arrive via ctx.
func (c *AnthropicCompletionClient) GenerateCompletion(
	ctx context.Context,
	systemText, userText string,
	opts clients.CompletionOptions,
) (*clients.CompletionResult, error) {
	maxTokens := c.defaultMaxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userText)),
		},
	}
	if systemText != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemText}}
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to generate completion: %w", err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &clients.CompletionResult{
		Text: text.String(),
		Usage: models.CompletionUsage{
			Model:        string(message.Model),
			InputTokens:  int(message.Usage.InputTokens),
			OutputTokens: int(message.Usage.OutputTokens),
		},
	}, nil
}

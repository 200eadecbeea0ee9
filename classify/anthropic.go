package classify

import (
	"context"
	"fmt"
	"os"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicMaxTokens = 2000

// anthropicCompleter calls the Anthropic messages API through the official
// SDK.
type anthropicCompleter struct {
	model  string
	apiKey func() string
}

func newAnthropicCompleter(model string) *anthropicCompleter {
	return &anthropicCompleter{
		model: model,
		apiKey: func() string {
			return os.Getenv("ANTHROPIC_API_KEY")
		},
	}
}

func (c *anthropicCompleter) Name() string {
	return "anthropic"
}

func (c *anthropicCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	key := c.apiKey()
	if key == "" {
		return "", fmt.Errorf("ANTHROPIC_API_KEY not set")
	}

	client := sdk.NewClient(option.WithAPIKey(key))
	msg, err := client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: anthropicMaxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return text.String(), nil
}

package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/dmitrijs2005/daybook/internal/models"
)

const prompt = `Classify the following task into one Eisenhower matrix quadrant.
Answer with a single digit and nothing else:
1 = urgent and important, 2 = important but not urgent,
3 = urgent but not important, 4 = neither.

Task: %s`

// LLMClassifier asks a language model for the quadrant. Any failure, or an
// answer that is not a digit 1..4, falls back to the rule classifier, so
// classification never fails outright.
type LLMClassifier struct {
	fallback Classifier

	// complete sends the prompt and returns the raw answer text.
	complete func(ctx context.Context, prompt string) (string, error)
}

// NewLLMClassifier builds a classifier on the Anthropic SDK. The SDK reads
// its API key from the environment.
func NewLLMClassifier(model string) *LLMClassifier {
	client := anthropic.NewClient()

	return &LLMClassifier{
		fallback: NewRuleClassifier(),
		complete: func(ctx context.Context, prompt string) (string, error) {
			msg, err := client.Messages.New(ctx, anthropic.MessageNewParams{
				Model:     anthropic.Model(model),
				MaxTokens: 4,
				Messages: []anthropic.MessageParam{
					anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
				},
			})
			if err != nil {
				return "", err
			}

			var sb strings.Builder
			for _, block := range msg.Content {
				sb.WriteString(block.Text)
			}
			return sb.String(), nil
		},
	}
}

func (c *LLMClassifier) Classify(ctx context.Context, content string) (models.Quadrant, error) {
	answer, err := c.complete(ctx, fmt.Sprintf(prompt, content))
	if err != nil {
		return c.fallback.Classify(ctx, content)
	}

	q, ok := parseQuadrant(answer)
	if !ok {
		return c.fallback.Classify(ctx, content)
	}
	return q, nil
}

// parseQuadrant accepts the first digit 1..4 in the answer.
func parseQuadrant(answer string) (models.Quadrant, bool) {
	for _, r := range strings.TrimSpace(answer) {
		if r >= '1' && r <= '4' {
			return models.Quadrant(r - '0'), true
		}
	}
	return 0, false
}

package classify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/daybook/internal/models"
)

func TestRuleClassifier(t *testing.T) {
	tests := []struct {
		content string
		want    models.Quadrant
	}{
		{"file taxes, deadline is today", 1},
		{"plan next year's health checkups", 2},
		{"reply to this email asap", 3},
		{"watch that series everyone mentions", 4},
		{"URGENT: doctor appointment", 1}, // case-insensitive
	}

	c := NewRuleClassifier()
	for _, tt := range tests {
		got, err := c.Classify(context.Background(), tt.content)
		require.NoError(t, err, tt.content)
		assert.Equal(t, tt.want, got, tt.content)
	}
}

func TestLLMClassifier_UsesModelAnswer(t *testing.T) {
	c := &LLMClassifier{
		fallback: NewRuleClassifier(),
		complete: func(ctx context.Context, prompt string) (string, error) {
			assert.Contains(t, prompt, "walk the dog")
			return " 2 ", nil
		},
	}

	got, err := c.Classify(context.Background(), "walk the dog")
	require.NoError(t, err)
	assert.Equal(t, models.Quadrant(2), got)
}

func TestLLMClassifier_FallsBackToRules(t *testing.T) {
	tests := []struct {
		name     string
		complete func(ctx context.Context, prompt string) (string, error)
	}{
		{"model error", func(ctx context.Context, _ string) (string, error) {
			return "", errors.New("model unreachable")
		}},
		{"nonsense answer", func(ctx context.Context, _ string) (string, error) {
			return "definitely quadrant seven", nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &LLMClassifier{fallback: NewRuleClassifier(), complete: tt.complete}

			got, err := c.Classify(context.Background(), "file taxes, due today")
			require.NoError(t, err)
			assert.Equal(t, models.Quadrant(1), got, "rules classify instead")
		})
	}
}

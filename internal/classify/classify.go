// Package classify assigns Eisenhower quadrants to records. The rule-based
// classifier is the baseline; an optional LLM classifier refines it and
// falls back to the rules when the model is unreachable or answers
// nonsense.
package classify

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/daybook/internal/models"
)

// Classifier maps free text to a quadrant (1..4).
type Classifier interface {
	Classify(ctx context.Context, content string) (models.Quadrant, error)
}

var urgentWords = []string{
	"today", "tonight", "now", "asap", "urgent", "immediately",
	"deadline", "due", "overdue", "expires",
}

var importantWords = []string{
	"goal", "plan", "project", "health", "doctor", "family",
	"career", "learn", "study", "finance", "taxes", "important",
}

// RuleClassifier is the deterministic keyword matcher.
//
// Quadrants: 1 = urgent+important, 2 = important, 3 = urgent, 4 = neither.
type RuleClassifier struct{}

func NewRuleClassifier() *RuleClassifier { return &RuleClassifier{} }

func (c *RuleClassifier) Classify(_ context.Context, content string) (models.Quadrant, error) {
	text := strings.ToLower(content)

	urgent := containsAny(text, urgentWords)
	important := containsAny(text, importantWords)

	switch {
	case urgent && important:
		return 1, nil
	case important:
		return 2, nil
	case urgent:
		return 3, nil
	default:
		return 4, nil
	}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"

	contractx "github.com/tanpawarit/agentic-query-router/agent/contract"
	llmx "github.com/tanpawarit/agentic-query-router/agent/llm"
)

// Classifier asks the model for one label and accepts nothing but the four
// known categories. There is no default category.
type Classifier struct {
	runner *llmx.TextRunner
}

var _ contractx.Classifier = (*Classifier)(nil)

func New(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*Classifier, error) {
	runner, err := llmx.CompileTextGraph(ctx, chatModel, systemPrompt, "Query: {input}", "classifier.classify")
	if err != nil {
		return nil, fmt.Errorf("compile classifier graph: %w", err)
	}
	return &Classifier{runner: runner}, nil
}

func (c *Classifier) Classify(ctx context.Context, query string) (contractx.Category, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("%w: query is empty", contractx.ErrValidation)
	}

	label, err := c.runner.RunInput(ctx, query)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", contractx.ErrClassification, err)
	}

	category, err := contractx.ParseCategory(firstLine(label))
	if err != nil {
		return "", fmt.Errorf("%w (model replied %q)", err, truncate(label, 64))
	}
	return category, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return s[:i]
	}
	return s
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

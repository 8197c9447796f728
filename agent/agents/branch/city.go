package branch

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"

	contractx "github.com/tanpawarit/agentic-query-router/agent/contract"
	llmx "github.com/tanpawarit/agentic-query-router/agent/llm"
)

const (
	maxCityRunes = 64
	maxCityWords = 5
)

var noCityReplies = map[string]bool{
	"none": true, "unknown": true, "n/a": true, "na": true, "null": true, "no city": true,
}

// LLMCityExtractor asks the model for the city named in a query.
type LLMCityExtractor struct {
	runner *llmx.TextRunner
}

var _ contractx.CityExtractor = (*LLMCityExtractor)(nil)

func NewCityExtractor(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*LLMCityExtractor, error) {
	runner, err := llmx.CompileTextGraph(ctx, chatModel, systemPrompt, "Query: {input}", "branch.extract_city")
	if err != nil {
		return nil, fmt.Errorf("compile city extraction graph: %w", err)
	}
	return &LLMCityExtractor{runner: runner}, nil
}

func (e *LLMCityExtractor) ExtractCity(ctx context.Context, query string) (string, error) {
	reply, err := e.runner.RunInput(ctx, query)
	if err != nil {
		return "", err
	}
	return NormalizeCity(reply)
}

// NormalizeCity keeps the first line of a model reply and rejects anything
// that does not look like a single place name.
func NormalizeCity(reply string) (string, error) {
	city := strings.TrimSpace(reply)
	if i := strings.IndexAny(city, "\r\n"); i >= 0 {
		city = city[:i]
	}
	city = strings.Trim(city, " \t\"'`*.!?:;")
	city = strings.TrimPrefix(city, "City: ")

	switch {
	case city == "":
		return "", fmt.Errorf("%w: no city in query", contractx.ErrValidation)
	case noCityReplies[strings.ToLower(city)]:
		return "", fmt.Errorf("%w: no city in query", contractx.ErrValidation)
	case len([]rune(city)) > maxCityRunes, len(strings.Fields(city)) > maxCityWords:
		return "", fmt.Errorf("%w: city reply is not a place name: %q", contractx.ErrValidation, city)
	}
	return city, nil
}

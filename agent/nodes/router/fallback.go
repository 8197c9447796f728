package routernode

import (
	"fmt"

	contractx "github.com/tanpawarit/agentic-query-router/agent/contract"
)

const (
	ClassificationFallbackText = "Sorry, I could not understand your query. Please rephrase it."
	WeatherFallbackText        = "Sorry, I could not fetch the weather right now. Please try again later."
	DocumentFallbackText       = "Sorry, I could not find an answer to your question right now."
	SchedulingFallbackText     = "I could not check the weather, so I cannot recommend whether to schedule the meeting right now."
	DatabaseFallbackText       = `Sorry, I could not answer that from the meetings database. Try asking "List all meetings".`
)

func FallbackText(category contractx.Category) string {
	switch category {
	case contractx.CategoryWeather:
		return WeatherFallbackText
	case contractx.CategoryDocumentQA:
		return DocumentFallbackText
	case contractx.CategoryScheduling:
		return SchedulingFallbackText
	case contractx.CategoryDatabaseQuery:
		return DatabaseFallbackText
	default:
		return ClassificationFallbackText
	}
}

func ClassificationFallback(in *GraphState) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	reason := "classification failed"
	if in.ClassifyErr != nil {
		reason = in.ClassifyErr.Error()
	}
	in.Result = contractx.RouteResult{
		Status: contractx.RouteFallback,
		Text:   ClassificationFallbackText,
		Reason: reason,
	}
	return in, nil
}

package routernode

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/agentic-query-router/agent/contract"
)

const (
	NodeWeather                = "weather"
	NodeDocument               = "document"
	NodeScheduling             = "scheduling"
	NodeDatabase               = "database"
	NodeClassificationFallback = "classification_fallback"
)

var BranchNodes = map[string]bool{
	NodeWeather:                true,
	NodeDocument:               true,
	NodeScheduling:             true,
	NodeDatabase:               true,
	NodeClassificationFallback: true,
}

// SelectBranch maps the classified category to its graph node.
func SelectBranch(in *GraphState) (string, error) {
	if in == nil {
		return "", fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.ClassifyErr != nil {
		return NodeClassificationFallback, nil
	}

	switch in.Category {
	case contractx.CategoryWeather:
		return NodeWeather, nil
	case contractx.CategoryDocumentQA:
		return NodeDocument, nil
	case contractx.CategoryScheduling:
		return NodeScheduling, nil
	case contractx.CategoryDatabaseQuery:
		return NodeDatabase, nil
	default:
		in.ClassifyErr = fmt.Errorf("%w: unknown category %q", contractx.ErrClassification, in.Category)
		return NodeClassificationFallback, nil
	}
}

// RunBranch invokes the branch for in.Category. A branch failure becomes the
// fixed fallback text for that category.
func RunBranch(ctx context.Context, in *GraphState, branch contractx.Branch) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	text, err := branch.Handle(ctx, in.Query)
	if err == nil && strings.TrimSpace(text) == "" {
		err = contractx.NewBranchError(in.Category, contractx.ErrSchemaViolation, "branch returned empty text", nil)
	}
	if err != nil {
		be := contractx.AsBranchError(in.Category, err)
		in.Result = contractx.RouteResult{
			Category: in.Category,
			Status:   contractx.RouteFallback,
			Text:     FallbackText(in.Category),
			Reason:   be.Error(),
		}
		return in, nil
	}

	in.Result = contractx.RouteResult{
		Category: in.Category,
		Status:   contractx.RouteSucceeded,
		Text:     strings.TrimSpace(text),
	}
	return in, nil
}

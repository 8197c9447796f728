package routernode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/agentic-query-router/agent/contract"
)

// ClassifyQuery records either a category or the classification failure. It
// never fails the graph; the failure is routed to the fallback node.
func ClassifyQuery(ctx context.Context, in *GraphState, classifier contractx.Classifier) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	category, err := classifier.Classify(ctx, in.Query)
	if err == nil && !category.Valid() {
		err = fmt.Errorf("%w: classifier returned %q", contractx.ErrClassification, category)
	}
	if err != nil {
		in.Category = ""
		in.ClassifyErr = err
		return in, nil
	}

	in.Category = category
	return in, nil
}

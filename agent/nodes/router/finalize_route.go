package routernode

import (
	"fmt"
	"time"

	contractx "github.com/tanpawarit/agentic-query-router/agent/contract"
)

func FinalizeRoute(in *GraphState, nowFn func() time.Time) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.Result.Status == "" {
		return GraphOutput{}, fmt.Errorf("%w: route produced no result", contractx.ErrValidation)
	}
	if nowFn == nil {
		nowFn = time.Now
	}

	result := in.Result
	if !in.Start.IsZero() {
		result.Duration = nowFn().Sub(in.Start)
	}
	return GraphOutput{Result: result}, nil
}

package routernode

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/tanpawarit/agentic-query-router/agent/contract"
)

var ErrInvalidQuery = errors.New("query is empty")

type GraphInput struct {
	Query string
}

type GraphOutput struct {
	Result contractx.RouteResult
}

type GraphState struct {
	Query string
	Start time.Time

	Category    contractx.Category
	ClassifyErr error

	Result contractx.RouteResult
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return nil, ErrInvalidQuery
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	return &GraphState{Query: query, Start: nowFn()}, nil
}

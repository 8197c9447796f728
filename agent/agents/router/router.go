package router

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/agentic-query-router/agent/contract"
	nodex "github.com/tanpawarit/agentic-query-router/agent/nodes/router"
	metricsx "github.com/tanpawarit/agentic-query-router/pkg/metrics"
)

var ErrInvalidQuery = nodex.ErrInvalidQuery

// Branches holds one handler per category. All four are required.
type Branches struct {
	Weather    contractx.Branch
	Document   contractx.Branch
	Scheduling contractx.Branch
	Database   contractx.Branch
}

func (b Branches) validate() error {
	switch {
	case b.Weather == nil:
		return errors.New("weather branch is required")
	case b.Document == nil:
		return errors.New("document branch is required")
	case b.Scheduling == nil:
		return errors.New("scheduling branch is required")
	case b.Database == nil:
		return errors.New("database branch is required")
	}
	return nil
}

type Router struct {
	classifier contractx.Classifier
	branches   Branches

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now func() time.Time
}

func New(classifier contractx.Classifier, branches Branches) (*Router, error) {
	if classifier == nil {
		return nil, errors.New("classifier is required")
	}
	if err := branches.validate(); err != nil {
		return nil, err
	}

	r := &Router{
		classifier: classifier,
		branches:   branches,
		now:        time.Now,
	}

	graphRunner, err := r.compileRouteGraph(context.Background())
	if err != nil {
		return nil, err
	}
	r.graphRunner = graphRunner

	return r, nil
}

// Route classifies query and runs exactly one branch. Every failure other
// than an empty query is reported as a fallback result, not an error.
func (r *Router) Route(ctx context.Context, query string) (contractx.RouteResult, error) {
	out, err := r.graphRunner.Invoke(ctx, nodex.GraphInput{Query: query})
	if err != nil {
		if errors.Is(err, ErrInvalidQuery) {
			return contractx.RouteResult{}, ErrInvalidQuery
		}
		log.Error().Err(err).Msg("router graph failed")
		out.Result = contractx.RouteResult{
			Status: contractx.RouteFallback,
			Text:   nodex.ClassificationFallbackText,
			Reason: err.Error(),
		}
	}

	result := out.Result
	record(result)
	return result, nil
}

// Answer is Route reduced to the response text.
func (r *Router) Answer(ctx context.Context, query string) (string, error) {
	result, err := r.Route(ctx, query)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

func record(result contractx.RouteResult) {
	category := string(result.Category)
	if category == "" {
		category = "unclassified"
	}
	metricsx.RouteQueries.WithLabelValues(category, string(result.Status)).Inc()
	if result.Category != "" {
		metricsx.BranchDuration.WithLabelValues(category).Observe(result.Duration.Seconds())
	}

	event := log.Info()
	if !result.Succeeded() {
		event = log.Warn().Str("reason", result.Reason)
	}
	event.
		Str("category", category).
		Str("status", string(result.Status)).
		Dur("duration", result.Duration).
		Msg("query routed")
}

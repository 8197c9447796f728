package router

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/tanpawarit/agentic-query-router/agent/contract"
	nodex "github.com/tanpawarit/agentic-query-router/agent/nodes/router"
)

func (r *Router) compileRouteGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, r.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("classify_query",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ClassifyQuery(ctx, in, r.classifier)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node classify_query: %w", err)
	}

	branches := []struct {
		node   string
		branch contractx.Branch
	}{
		{nodex.NodeWeather, r.branches.Weather},
		{nodex.NodeDocument, r.branches.Document},
		{nodex.NodeScheduling, r.branches.Scheduling},
		{nodex.NodeDatabase, r.branches.Database},
	}
	for _, b := range branches {
		branch := b.branch
		if err := graph.AddLambdaNode(b.node,
			compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
				return nodex.RunBranch(ctx, in, branch)
			}),
		); err != nil {
			return nil, fmt.Errorf("add node %s: %w", b.node, err)
		}
	}

	if err := graph.AddLambdaNode(nodex.NodeClassificationFallback,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ClassificationFallback(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.NodeClassificationFallback, err)
	}

	if err := graph.AddLambdaNode("finalize_route",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeRoute(in, r.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_route: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "classify_query"},
		{"finalize_route", compose.END},
	}
	for node := range nodex.BranchNodes {
		edges = append(edges, [2]string{node, "finalize_route"})
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	dispatch := compose.NewGraphBranch(func(ctx context.Context, in *nodex.GraphState) (string, error) {
		return nodex.SelectBranch(in)
	}, nodex.BranchNodes)
	if err := graph.AddBranch("classify_query", dispatch); err != nil {
		return nil, fmt.Errorf("add branch classify_query: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("router.route"))
	if err != nil {
		return nil, fmt.Errorf("compile router graph: %w", err)
	}
	return runner, nil
}

package llm

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/agentic-query-router/agent/contract"
)

// DefaultUserTemplate renders the "input" variable as the user turn.
const DefaultUserTemplate = "{input}"

// TextRunner renders a prompt, calls the model and returns the reply text.
type TextRunner struct {
	runner compose.Runnable[map[string]any, string]
	name   string
}

// CompileTextGraph builds prompt -> model -> extract_text. The system prompt
// must not contain braces; userTemplate may reference FString variables.
func CompileTextGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	userTemplate string,
	graphName string,
) (*TextRunner, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is required for %s", contractx.ErrValidation, graphName)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: %s", contractx.ErrPromptMissing, graphName)
	}
	if strings.TrimSpace(userTemplate) == "" {
		userTemplate = DefaultUserTemplate
	}

	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(userTemplate),
	)

	graph := compose.NewGraph[map[string]any, string]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add %s prompt node: %w", graphName, err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add %s model node: %w", graphName, err)
	}
	if err := graph.AddLambdaNode("extract_text",
		compose.InvokableLambda(func(ctx context.Context, msg *schema.Message) (string, error) {
			if msg == nil {
				return "", fmt.Errorf("%w: model returned no message", contractx.ErrSchemaViolation)
			}
			return strings.TrimSpace(msg.Content), nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add %s extract node: %w", graphName, err)
	}

	edges := [][2]string{
		{compose.START, "prompt"},
		{"prompt", "model"},
		{"model", "extract_text"},
		{"extract_text", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add %s edge %s->%s: %w", graphName, edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(graphName))
	if err != nil {
		return nil, fmt.Errorf("compile %s graph: %w", graphName, err)
	}
	return &TextRunner{runner: runner, name: graphName}, nil
}

// Run fails with ErrModelInvoke on any model error and ErrSchemaViolation
// when the reply is empty.
func (r *TextRunner) Run(ctx context.Context, vars map[string]any) (string, error) {
	out, err := r.runner.Invoke(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", contractx.ErrModelInvoke, r.name, err)
	}
	if out == "" {
		return "", fmt.Errorf("%w: %s returned empty text", contractx.ErrSchemaViolation, r.name)
	}
	return out, nil
}

// RunInput is Run with the single "input" variable.
func (r *TextRunner) RunInput(ctx context.Context, input string) (string, error) {
	return r.Run(ctx, map[string]any{"input": input})
}

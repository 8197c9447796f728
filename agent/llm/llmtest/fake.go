// Package llmtest provides a scripted chat model for graph tests.
package llmtest

import (
	"context"
	"errors"
	"sync"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

var ErrNoResponse = errors.New("no fake response left")

// ChatModel answers with Reply when set, else pops Responses in order.
type ChatModel struct {
	Responses []string
	Reply     func(input []*schema.Message) (string, error)
	Err       error

	mu     sync.Mutex
	calls  int
	inputs [][]*schema.Message
}

var _ einomodel.BaseChatModel = (*ChatModel)(nil)

func New(responses ...string) *ChatModel {
	return &ChatModel{Responses: responses}
}

func Failing(err error) *ChatModel {
	return &ChatModel{Err: err}
}

func (f *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.inputs = append(f.inputs, input)
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Reply != nil {
		text, err := f.Reply(input)
		if err != nil {
			return nil, err
		}
		return schema.AssistantMessage(text, nil), nil
	}
	if len(f.Responses) == 0 {
		return nil, ErrNoResponse
	}
	text := f.Responses[0]
	f.Responses = f.Responses[1:]
	return schema.AssistantMessage(text, nil), nil
}

func (f *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func (f *ChatModel) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// LastUserMessage returns the content of the final message of the last call.
func (f *ChatModel) LastUserMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.inputs) == 0 {
		return ""
	}
	msgs := f.inputs[len(f.inputs)-1]
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1].Content
}

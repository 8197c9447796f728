package branch

import (
	"context"
	"errors"

	contractx "github.com/tanpawarit/agentic-query-router/agent/contract"
)

type Document struct {
	answerer contractx.DocumentAnswerer
}

var _ contractx.Branch = (*Document)(nil)

func NewDocument(answerer contractx.DocumentAnswerer) (*Document, error) {
	if answerer == nil {
		return nil, errors.New("document answerer is required")
	}
	return &Document{answerer: answerer}, nil
}

func (d *Document) Handle(ctx context.Context, query string) (string, error) {
	text, err := d.answerer.Answer(ctx, query)
	if err != nil {
		return "", contractx.AsBranchError(contractx.CategoryDocumentQA, err)
	}
	return text, nil
}

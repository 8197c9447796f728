package branch

import (
	"context"
	"errors"

	contractx "github.com/tanpawarit/agentic-query-router/agent/contract"
)

type Database struct {
	agent contractx.DatabaseAnswerer
}

var _ contractx.Branch = (*Database)(nil)

func NewDatabase(agent contractx.DatabaseAnswerer) (*Database, error) {
	if agent == nil {
		return nil, errors.New("database answerer is required")
	}
	return &Database{agent: agent}, nil
}

func (d *Database) Handle(ctx context.Context, query string) (string, error) {
	text, err := d.agent.Query(ctx, query)
	if err != nil {
		return "", contractx.AsBranchError(contractx.CategoryDatabaseQuery, err)
	}
	return text, nil
}

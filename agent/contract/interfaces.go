package contract

import (
	"context"

	weatherx "github.com/tanpawarit/agentic-query-router/pkg/weather"
)

type Classifier interface {
	Classify(ctx context.Context, query string) (Category, error)
}

// Branch handles one classified query. Failures are *BranchError.
type Branch interface {
	Handle(ctx context.Context, query string) (string, error)
}

type CityExtractor interface {
	ExtractCity(ctx context.Context, query string) (string, error)
}

type WeatherLookup interface {
	Fetch(ctx context.Context, city string) (weatherx.Summary, error)
}

type DocumentAnswerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

type DatabaseAnswerer interface {
	Query(ctx context.Context, text string) (string, error)
}

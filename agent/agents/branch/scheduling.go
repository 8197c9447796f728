package branch

import (
	"context"
	"errors"

	contractx "github.com/tanpawarit/agentic-query-router/agent/contract"
)

// Scheduling composes city extraction, a weather lookup and the deterministic
// recommendation rule. A failed lookup is returned as a BranchError and never
// turned into a recommendation here.
type Scheduling struct {
	cities  contractx.CityExtractor
	weather contractx.WeatherLookup
}

var _ contractx.Branch = (*Scheduling)(nil)

func NewScheduling(cities contractx.CityExtractor, weather contractx.WeatherLookup) (*Scheduling, error) {
	if cities == nil {
		return nil, errors.New("city extractor is required")
	}
	if weather == nil {
		return nil, errors.New("weather lookup is required")
	}
	return &Scheduling{cities: cities, weather: weather}, nil
}

func (s *Scheduling) Handle(ctx context.Context, query string) (string, error) {
	summary, err := lookupWeather(ctx, contractx.CategoryScheduling, s.cities, s.weather, query)
	if err != nil {
		return "", err
	}
	return Recommend(summary), nil
}

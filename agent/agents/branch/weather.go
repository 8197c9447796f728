package branch

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/tanpawarit/agentic-query-router/agent/contract"
	weatherx "github.com/tanpawarit/agentic-query-router/pkg/weather"
)

type Weather struct {
	cities  contractx.CityExtractor
	weather contractx.WeatherLookup
}

var _ contractx.Branch = (*Weather)(nil)

func NewWeather(cities contractx.CityExtractor, weather contractx.WeatherLookup) (*Weather, error) {
	if cities == nil {
		return nil, errors.New("city extractor is required")
	}
	if weather == nil {
		return nil, errors.New("weather lookup is required")
	}
	return &Weather{cities: cities, weather: weather}, nil
}

func (w *Weather) Handle(ctx context.Context, query string) (string, error) {
	summary, err := lookupWeather(ctx, contractx.CategoryWeather, w.cities, w.weather, query)
	if err != nil {
		return "", err
	}
	return summary.String(), nil
}

// lookupWeather is shared by the weather and scheduling branches.
func lookupWeather(
	ctx context.Context,
	category contractx.Category,
	cities contractx.CityExtractor,
	lookup contractx.WeatherLookup,
	query string,
) (weatherx.Summary, error) {
	city, err := cities.ExtractCity(ctx, query)
	if err != nil {
		return weatherx.Summary{}, contractx.NewBranchError(category, contractx.KindOf(err), "extract city", err)
	}

	summary, err := lookup.Fetch(ctx, city)
	if err != nil {
		return weatherx.Summary{}, contractx.NewBranchError(category, weatherKind(err), fmt.Sprintf("fetch weather for %q", city), err)
	}
	return summary, nil
}

func weatherKind(err error) error {
	switch {
	case errors.Is(err, weatherx.ErrCityNotFound):
		return contractx.ErrNotFound
	case errors.Is(err, weatherx.ErrRateLimited):
		return contractx.ErrRateLimited
	default:
		return contractx.ErrUpstream
	}
}

package branch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contractx "github.com/tanpawarit/agentic-query-router/agent/contract"
	"github.com/tanpawarit/agentic-query-router/agent/llm/llmtest"
	weatherx "github.com/tanpawarit/agentic-query-router/pkg/weather"
)

type fakeCities struct {
	city string
	err  error
}

func (f fakeCities) ExtractCity(ctx context.Context, query string) (string, error) {
	return f.city, f.err
}

type fakeWeather struct {
	summaries map[string]weatherx.Summary
	err       error
	calls     int
}

func (f *fakeWeather) Fetch(ctx context.Context, city string) (weatherx.Summary, error) {
	f.calls++
	if f.err != nil {
		return weatherx.Summary{}, f.err
	}
	s, ok := f.summaries[city]
	if !ok {
		return weatherx.Summary{}, weatherx.ErrCityNotFound
	}
	return s, nil
}

var (
	chennaiRain = weatherx.Summary{City: "Chennai", Group: "Rain", Condition: "light rain", Temperature: 29.5, Humidity: 80, Units: "metric"}
	londonClear = weatherx.Summary{City: "London", Group: "Clear", Condition: "clear sky", Temperature: 18, Humidity: 50, Units: "metric"}
)

func newFakeWeather() *fakeWeather {
	return &fakeWeather{summaries: map[string]weatherx.Summary{"Chennai": chennaiRain, "London": londonClear}}
}

func TestWeatherHandle(t *testing.T) {
	t.Parallel()

	w, err := NewWeather(fakeCities{city: "Chennai"}, newFakeWeather())
	require.NoError(t, err)

	out, err := w.Handle(context.Background(), "What's the weather in Chennai?")
	require.NoError(t, err)
	assert.Equal(t, "Weather in Chennai: light rain, Temp: 29.5°C", out)
}

func TestWeatherHandleFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cities  fakeCities
		weather *fakeWeather
		kind    error
	}{
		{name: "no city", cities: fakeCities{err: fmt.Errorf("%w: no city in query", contractx.ErrValidation)}, weather: newFakeWeather(), kind: contractx.ErrValidation},
		{name: "unknown city", cities: fakeCities{city: "Atlantis"}, weather: newFakeWeather(), kind: contractx.ErrNotFound},
		{name: "rate limited", cities: fakeCities{city: "London"}, weather: &fakeWeather{err: weatherx.ErrRateLimited}, kind: contractx.ErrRateLimited},
		{name: "upstream", cities: fakeCities{city: "London"}, weather: &fakeWeather{err: weatherx.ErrUpstream}, kind: contractx.ErrUpstream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w, err := NewWeather(tt.cities, tt.weather)
			require.NoError(t, err)

			_, err = w.Handle(context.Background(), "weather?")
			var be *contractx.BranchError
			require.ErrorAs(t, err, &be)
			assert.Equal(t, contractx.CategoryWeather, be.Category)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestSchedulingHandle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		city string
		want string
	}{
		{name: "adverse", city: "Chennai", want: "Bad weather in Chennai (light rain, 29.5°C). Postponing the meeting is recommended."},
		{name: "favorable", city: "London", want: "Good weather in London (clear sky, 18.0°C). The meeting can be scheduled as planned."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, err := NewScheduling(fakeCities{city: tt.city}, newFakeWeather())
			require.NoError(t, err)

			out, err := s.Handle(context.Background(), "Schedule a meeting tomorrow in "+tt.city+" if the weather is good")
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestSchedulingWeatherFailure(t *testing.T) {
	t.Parallel()

	s, err := NewScheduling(fakeCities{city: "London"}, &fakeWeather{err: weatherx.ErrUpstream})
	require.NoError(t, err)

	out, err := s.Handle(context.Background(), "Schedule a meeting in London")
	assert.Empty(t, out)
	var be *contractx.BranchError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, contractx.CategoryScheduling, be.Category)
}

func TestIsAdverse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		summary weatherx.Summary
		want    bool
	}{
		{summary: weatherx.Summary{Group: "Thunderstorm", Condition: "thunderstorm with heavy rain"}, want: true},
		{summary: weatherx.Summary{Group: "Snow", Condition: "light snow"}, want: true},
		{summary: weatherx.Summary{Group: "Clouds", Condition: "overcast clouds"}, want: false},
		{summary: weatherx.Summary{Group: "Clear", Condition: "clear sky"}, want: false},
		{summary: weatherx.Summary{Group: "Mist", Condition: "freezing drizzle"}, want: true},
		{summary: weatherx.Summary{Group: "", Condition: "scattered showers"}, want: true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsAdverse(tt.summary), tt.summary.Condition)
		// Same input, same answer.
		assert.Equal(t, IsAdverse(tt.summary), IsAdverse(tt.summary))
	}
}

type fakeAnswerer struct {
	text string
	err  error
}

func (f fakeAnswerer) Answer(ctx context.Context, question string) (string, error) {
	return f.text, f.err
}

func (f fakeAnswerer) Query(ctx context.Context, text string) (string, error) {
	return f.text, f.err
}

func TestDocumentAndDatabaseBranches(t *testing.T) {
	t.Parallel()

	doc, err := NewDocument(fakeAnswerer{text: "Remote work is allowed on Fridays."})
	require.NoError(t, err)
	out, err := doc.Handle(context.Background(), "remote work policy?")
	require.NoError(t, err)
	assert.Equal(t, "Remote work is allowed on Fridays.", out)

	doc, err = NewDocument(fakeAnswerer{err: contractx.ErrNotFound})
	require.NoError(t, err)
	_, err = doc.Handle(context.Background(), "x")
	var be *contractx.BranchError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, contractx.CategoryDocumentQA, be.Category)
	assert.Equal(t, contractx.ErrNotFound, be.Kind)

	db, err := NewDatabase(fakeAnswerer{err: errors.Join(contractx.ErrExecution, errors.New("no such table"))})
	require.NoError(t, err)
	_, err = db.Handle(context.Background(), "List all meetings")
	require.ErrorAs(t, err, &be)
	assert.Equal(t, contractx.CategoryDatabaseQuery, be.Category)
	assert.Equal(t, contractx.ErrExecution, be.Kind)

	_, err = NewDatabase(nil)
	require.Error(t, err)
}

func TestNormalizeCity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		reply   string
		want    string
		wantErr bool
	}{
		{reply: "Chennai", want: "Chennai"},
		{reply: " \"New York\".\n", want: "New York"},
		{reply: "City: London", want: "London"},
		{reply: "NONE", wantErr: true},
		{reply: "", wantErr: true},
		{reply: "The user did not mention any city at all here", wantErr: true},
	}
	for _, tt := range tests {
		got, err := NormalizeCity(tt.reply)
		if tt.wantErr {
			assert.ErrorIs(t, err, contractx.ErrValidation, tt.reply)
			continue
		}
		require.NoError(t, err, tt.reply)
		assert.Equal(t, tt.want, got)
	}
}

func TestLLMCityExtractor(t *testing.T) {
	t.Parallel()

	fake := llmtest.New("Chennai")
	e, err := NewCityExtractor(context.Background(), fake, "extract the city")
	require.NoError(t, err)

	city, err := e.ExtractCity(context.Background(), "What's the weather in Chennai?")
	require.NoError(t, err)
	assert.Equal(t, "Chennai", city)
	assert.Equal(t, "Query: What's the weather in Chennai?", fake.LastUserMessage())
}

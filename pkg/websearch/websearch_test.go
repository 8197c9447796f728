package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchDuckDuckGo(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "remote work policy", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		fmt.Fprint(w, `{
			"Heading": "Remote work",
			"AbstractText": "Remote work is working outside the office.",
			"AbstractSource": "Wikipedia",
			"AbstractURL": "https://en.wikipedia.org/wiki/Remote_work",
			"RelatedTopics": [
				{"Text": "Telecommuting - a work arrangement", "FirstURL": "https://duckduckgo.com/Telecommuting"},
				{"Text": "duplicate", "FirstURL": "https://duckduckgo.com/Telecommuting"},
				{"Text": "", "FirstURL": "https://duckduckgo.com/empty"},
				{"Text": "Hybrid work", "FirstURL": "https://duckduckgo.com/Hybrid"}
			]
		}`)
	}))
	t.Cleanup(server.Close)

	s, err := New(Config{Endpoint: server.URL, MaxResults: 5}, WithHTTPClient(server.Client()))
	require.NoError(t, err)

	results, err := s.Search(context.Background(), "remote work policy", 0)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "Remote work", results[0].Title)
	assert.Equal(t, "Remote work is working outside the office.", results[0].Snippet)
	assert.Equal(t, "https://duckduckgo.com/Telecommuting", results[1].URL)
	assert.Equal(t, "Hybrid work", results[2].Snippet)
}

func TestSearchGoogle(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.URL.Query().Get("key"))
		assert.Equal(t, "cx1", r.URL.Query().Get("cx"))
		assert.Equal(t, "2", r.URL.Query().Get("num"))
		fmt.Fprint(w, `{"items":[
			{"link":"https://a.example","title":"A","snippet":"alpha","mime":"text/html"},
			{"link":"https://b.example/file.pdf","title":"B","snippet":"beta","mime":"application/pdf"},
			{"link":"https://c.example","title":"C","snippet":"gamma"}
		]}`)
	}))
	t.Cleanup(server.Close)

	s, err := New(Config{Provider: "google", Endpoint: server.URL, APIKey: "k", EngineID: "cx1"}, WithHTTPClient(server.Client()))
	require.NoError(t, err)

	results, err := s.Search(context.Background(), "golang", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "alpha", results[0].Snippet)
	assert.Equal(t, "gamma", results[1].Snippet)
}

func TestSearchGoogleClampsNum(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10", r.URL.Query().Get("num"))
		fmt.Fprint(w, `{"items":[{"link":"https://a.example","title":"A","snippet":"alpha"}]}`)
	}))
	t.Cleanup(server.Close)

	s, err := New(Config{Provider: "google", Endpoint: server.URL, APIKey: "k", EngineID: "cx1"}, WithHTTPClient(server.Client()))
	require.NoError(t, err)

	results, err := s.Search(context.Background(), "golang", 25)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, 1, googleNum(0))
	assert.Equal(t, 7, googleNum(7))
	assert.Equal(t, 10, googleNum(11))
}

func TestSearchUpstreamError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	s, err := New(Config{Endpoint: server.URL}, WithHTTPClient(server.Client()))
	require.NoError(t, err)

	_, err = s.Search(context.Background(), "anything", 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestSearchNoResults(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"AbstractText":"","RelatedTopics":[]}`)
	}))
	t.Cleanup(server.Close)

	s, err := New(Config{Endpoint: server.URL}, WithHTTPClient(server.Client()))
	require.NoError(t, err)

	_, err = s.Search(context.Background(), "zzzz", 3)
	require.ErrorIs(t, err, ErrNoResults)
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := New(Config{Provider: "google"})
	require.Error(t, err)

	_, err = New(Config{Provider: "altavista"})
	require.Error(t, err)

	s, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, ProviderDuckDuckGo, s.provider)
	assert.Equal(t, 3, s.maxResults)

	_, err = s.Search(context.Background(), "  ", 1)
	require.Error(t, err)
}

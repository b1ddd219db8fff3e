package omdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"mediatrack/searchservice/internal/domain"
)

const omdbSearchPayload = `{
	"Search": [
		{"Title": "Blade Runner", "Year": "1982", "imdbID": "tt0083658", "Type": "movie", "Poster": "https://img.example/br.jpg"},
		{"Title": "Blade Runner 2049", "Year": "2017", "imdbID": "tt1856101", "Type": "movie", "Poster": "N/A"},
		{"Title": "Blade Runner: The Game", "Year": "1997", "imdbID": "tt0183367", "Type": "game", "Poster": "N/A"}
	],
	"totalResults": "3",
	"Response": "True"
}`

const omdbDetailPayload = `{
	"Title": "Blade Runner",
	"Year": "1982",
	"Director": "Ridley Scott",
	"Writer": "Hampton Fancher, David Webb Peoples",
	"Plot": "A blade runner must pursue replicants.",
	"imdbRating": "8.1",
	"imdbVotes": "831,293",
	"imdbID": "tt0083658",
	"Type": "movie",
	"Response": "True"
}`

func newOMDbTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Query().Get("s") != "":
			_, _ = w.Write([]byte(omdbSearchPayload))
		case r.URL.Query().Get("i") == "tt0083658":
			_, _ = w.Write([]byte(omdbDetailPayload))
		default:
			_, _ = w.Write([]byte(`{"Response": "False", "Error": "Incorrect IMDb ID."}`))
		}
	}))
}

func TestOMDbSearchEnrichesTopResults(t *testing.T) {
	server := newOMDbTestServer(t)
	defer server.Close()

	source := NewSource(Config{Endpoint: server.URL, APIKey: "k", Client: server.Client()})
	results, err := source.Search(context.Background(), domain.SearchRequest{Query: "blade runner", Limit: 10})
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected the game entry dropped, got %d results", len(results))
	}

	top := results[0]
	if top.ExternalID != "tt0083658" || top.Category != domain.CategoryMovie || top.Year != 1982 {
		t.Errorf("unexpected mapping: %#v", top)
	}
	if top.Rating != 8.1 || top.RatingCount != 831293 {
		t.Errorf("detail lookup must fill rating fields: %#v", top)
	}
	if top.Creator != "Ridley Scott" {
		t.Errorf("expected primary director credit, got %q", top.Creator)
	}
	if top.Description != "A blade runner must pursue replicants." {
		t.Errorf("expected plot carried over, got %q", top.Description)
	}

	// The second detail lookup fails; search-level fields must survive.
	second := results[1]
	if second.Title != "Blade Runner 2049" || second.Rating != 0 {
		t.Errorf("failed enrichment must not clobber the result: %#v", second)
	}
	if second.Image != "" {
		t.Errorf("N/A poster must map to empty, got %q", second.Image)
	}
}

func TestOMDbSearchNotFoundIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"Response": "False", "Error": "Movie not found!"}`))
	}))
	defer server.Close()

	source := NewSource(Config{Endpoint: server.URL, APIKey: "k", Client: server.Client()})
	results, err := source.Search(context.Background(), domain.SearchRequest{Query: "zzzzz"})
	if err != nil {
		t.Fatalf("not-found must not be an error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestOMDbSearchInBandError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"Response": "False", "Error": "Invalid API key!"}`))
	}))
	defer server.Close()

	source := NewSource(Config{Endpoint: server.URL, APIKey: "bad", Client: server.Client()})
	if _, err := source.Search(context.Background(), domain.SearchRequest{Query: "dune"}); err == nil {
		t.Fatalf("expected error for in-band failure")
	}
}

func TestTypeFilter(t *testing.T) {
	if got := typeFilter([]domain.MediaCategory{domain.CategoryMovie}); got != "movie" {
		t.Errorf("movie-only filter = %q", got)
	}
	if got := typeFilter([]domain.MediaCategory{domain.CategoryTV}); got != "series" {
		t.Errorf("tv-only filter = %q", got)
	}
	if got := typeFilter([]domain.MediaCategory{domain.CategoryMovie, domain.CategoryTV}); got != "" {
		t.Errorf("mixed filter must be empty, got %q", got)
	}
	if got := typeFilter(nil); got != "" {
		t.Errorf("no categories must be empty, got %q", got)
	}
}

func TestCleanPerson(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"Ridley Scott", "Ridley Scott"},
		{"Hampton Fancher, David Webb Peoples", "Hampton Fancher"},
		{"N/A", ""},
		{"  ", ""},
	}
	for _, tc := range cases {
		if got := cleanPerson(tc.input); got != tc.want {
			t.Errorf("cleanPerson(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

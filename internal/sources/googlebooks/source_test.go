package googlebooks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"mediatrack/searchservice/internal/domain"
)

const volumesPayload = `{
	"items": [
		{
			"id": "vol1",
			"volumeInfo": {
				"title": "Dune",
				"authors": ["Frank Herbert"],
				"publishedDate": "1965-08-01",
				"description": "<p>Set on the desert planet <b>Arrakis</b>.</p>",
				"averageRating": 4.5,
				"ratingsCount": 12345,
				"imageLinks": {"thumbnail": "https://books.example/dune.jpg"},
				"industryIdentifiers": [
					{"type": "ISBN_10", "identifier": "0441172717"},
					{"type": "ISBN_13", "identifier": "9780441172719"}
				],
				"infoLink": "https://books.example/info/dune"
			}
		},
		{
			"id": "vol2",
			"volumeInfo": {"title": ""}
		}
	]
}`

func TestGoogleBooksSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "dune" {
			t.Errorf("unexpected q param: %q", got)
		}
		if got := r.URL.Query().Get("key"); got != "secret" {
			t.Errorf("expected api key forwarded, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(volumesPayload))
	}))
	defer server.Close()

	source := NewSource(Config{Endpoint: server.URL, APIKey: "secret", Client: server.Client()})
	results, err := source.Search(context.Background(), domain.SearchRequest{Query: "dune", Limit: 10})
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result (untitled volume dropped), got %d", len(results))
	}

	got := results[0]
	if got.ExternalID != "isbn:9780441172719" {
		t.Errorf("expected ISBN-13 preferred, got %q", got.ExternalID)
	}
	if got.Category != domain.CategoryBook || got.Creator != "Frank Herbert" {
		t.Errorf("unexpected mapping: %#v", got)
	}
	if got.Rating != 9 {
		t.Errorf("expected 4.5/5 converted to 9/10, got %v", got.Rating)
	}
	if got.RatingCount != 12345 || got.Year != 1965 {
		t.Errorf("unexpected counts: %#v", got)
	}
	if got.Description != "Set on the desert planet Arrakis." {
		t.Errorf("expected cleaned description, got %q", got.Description)
	}
}

func TestGoogleBooksSearchUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	source := NewSource(Config{Endpoint: server.URL, Client: server.Client()})
	_, err := source.Search(context.Background(), domain.SearchRequest{Query: "dune"})
	if err == nil {
		t.Fatalf("expected explicit error for upstream failure")
	}
}

func TestISBNFallsBackToISBN10(t *testing.T) {
	got := isbn13([]industryIdentifier{
		{Type: "ISBN_10", Identifier: "0441172717"},
		{Type: "OTHER", Identifier: "OCLC:123"},
	})
	if got != "isbn:0441172717" {
		t.Fatalf("unexpected identifier: %q", got)
	}
}

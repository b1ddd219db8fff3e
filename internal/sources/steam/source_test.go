package steam

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"mediatrack/searchservice/internal/domain"
)

const storeSearchPayload = `{
	"total": 2,
	"items": [
		{"id": 620, "name": "Portal 2", "tiny_image": "https://cdn.example/620_tiny.jpg"},
		{"id": 0, "name": "Broken Entry"}
	]
}`

const appDetailsPayload = `{
	"620": {
		"success": true,
		"data": {
			"name": "Portal 2",
			"short_description": "Sequel to the acclaimed puzzle game.",
			"header_image": "https://cdn.example/620_header.jpg",
			"release_date": {"date": "18 Apr, 2011"},
			"metacritic": {"score": 95},
			"recommendations": {"total": 250000},
			"developers": ["Valve"]
		}
	}
}`

func TestSteamSearchEnrichesFromAppDetails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/storesearch/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("term") != "portal" {
			t.Errorf("unexpected term: %q", r.URL.Query().Get("term"))
		}
		_, _ = w.Write([]byte(storeSearchPayload))
	})
	mux.HandleFunc("/appdetails", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("appids") != "620" {
			t.Errorf("unexpected appids: %q", r.URL.Query().Get("appids"))
		}
		_, _ = w.Write([]byte(appDetailsPayload))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	source := NewSource(Config{
		SearchEndpoint:  server.URL + "/storesearch/",
		DetailsEndpoint: server.URL + "/appdetails",
		Client:          server.Client(),
	})
	results, err := source.Search(context.Background(), domain.SearchRequest{Query: "portal", Limit: 10})
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected the id-less entry dropped, got %d results", len(results))
	}

	got := results[0]
	if got.ExternalID != "steam:620" || got.Category != domain.CategoryGame {
		t.Errorf("unexpected mapping: %#v", got)
	}
	if got.Rating != 9.5 {
		t.Errorf("expected metacritic 95 converted to 9.5/10, got %v", got.Rating)
	}
	if got.RatingCount != 250000 || got.Year != 2011 || got.Creator != "Valve" {
		t.Errorf("enrichment incomplete: %#v", got)
	}
	if got.Image != "https://cdn.example/620_header.jpg" {
		t.Errorf("header image must replace the tiny thumbnail: %q", got.Image)
	}
}

func TestSteamSearchNoMetacriticStaysUnrated(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/storesearch/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(storeSearchPayload))
	})
	mux.HandleFunc("/appdetails", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"620": {"success": true, "data": {"name": "Portal 2", "release_date": {"date": "18 Apr, 2011"}, "recommendations": {"total": 250000}, "developers": ["Valve"]}}}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	source := NewSource(Config{
		SearchEndpoint:  server.URL + "/storesearch/",
		DetailsEndpoint: server.URL + "/appdetails",
		Client:          server.Client(),
	})
	results, err := source.Search(context.Background(), domain.SearchRequest{Query: "portal"})
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	got := results[0]
	// Without a Metacritic score the result must stay unrated, not rated
	// zero, or the quality filter's rating floor would drop it.
	if got.Rating != 0 || got.RatingCount != 0 {
		t.Fatalf("recommendations without a score must not become rating votes: %#v", got)
	}
	if got.Popularity <= 0 || got.Popularity > 10 {
		t.Fatalf("recommendations must map to the popularity band: %v", got.Popularity)
	}
	if got.Year != 2011 || got.Creator != "Valve" {
		t.Fatalf("remaining enrichment must still apply: %#v", got)
	}
}

func TestSteamSearchSurvivesUnsuccessfulDetails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/storesearch/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(storeSearchPayload))
	})
	mux.HandleFunc("/appdetails", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"620": {"success": false}}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	source := NewSource(Config{
		SearchEndpoint:  server.URL + "/storesearch/",
		DetailsEndpoint: server.URL + "/appdetails",
		Client:          server.Client(),
	})
	results, err := source.Search(context.Background(), domain.SearchRequest{Query: "portal"})
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(results) != 1 || results[0].Rating != 0 {
		t.Fatalf("unsuccessful details must leave search fields intact: %#v", results)
	}
	if results[0].Image != "https://cdn.example/620_tiny.jpg" {
		t.Fatalf("expected the store thumbnail kept: %q", results[0].Image)
	}
}

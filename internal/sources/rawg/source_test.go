package rawg

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"mediatrack/searchservice/internal/domain"
)

const gamesPayload = `{
	"count": 2,
	"results": [
		{
			"id": 3498,
			"slug": "grand-theft-auto-v",
			"name": "Grand Theft Auto V",
			"released": "2013-09-17",
			"rating": 4.47,
			"ratings_count": 6521,
			"metacritic": 92,
			"background_image": "https://media.example/gta5.jpg"
		},
		{"id": 0, "name": "Broken Entry"}
	]
}`

func TestRAWGSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("search") != "gta" || q.Get("key") != "secret" {
			t.Errorf("unexpected query params: %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(gamesPayload))
	}))
	defer server.Close()

	source := NewSource(Config{Endpoint: server.URL, APIKey: "secret", Client: server.Client()})
	results, err := source.Search(context.Background(), domain.SearchRequest{Query: "gta", Limit: 20})
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected the id-less entry dropped, got %d results", len(results))
	}

	got := results[0]
	if got.ExternalID != "rawg:3498" || got.Category != domain.CategoryGame {
		t.Errorf("unexpected mapping: %#v", got)
	}
	if got.Rating != 8.94 {
		t.Errorf("expected 4.47/5 converted to 8.94/10, got %v", got.Rating)
	}
	if got.RatingCount != 6521 || got.Year != 2013 {
		t.Errorf("unexpected signals: %#v", got)
	}
	if got.Popularity != 9.2 {
		t.Errorf("metacritic 92 must map to 9.2 on the popularity band, got %v", got.Popularity)
	}
	if got.URL != "https://rawg.io/games/grand-theft-auto-v" {
		t.Errorf("unexpected page url: %q", got.URL)
	}
}

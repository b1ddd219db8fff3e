package itunes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"mediatrack/searchservice/internal/domain"
)

const itunesPayload = `{
	"resultCount": 2,
	"results": [
		{
			"trackId": 1440833098,
			"trackName": "Bohemian Rhapsody",
			"artistName": "Queen",
			"collectionName": "A Night at the Opera",
			"releaseDate": "1975-10-31T08:00:00Z",
			"artworkUrl100": "https://itunes.example/art.jpg",
			"trackViewUrl": "https://music.example/track/1440833098",
			"primaryGenreName": "Rock"
		},
		{
			"trackId": 0,
			"trackName": "Broken Entry"
		}
	]
}`

func TestITunesSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("term") != "bohemian rhapsody" || q.Get("media") != "music" || q.Get("entity") != "song" {
			t.Errorf("unexpected query params: %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(itunesPayload))
	}))
	defer server.Close()

	source := NewSource(Config{Endpoint: server.URL, Client: server.Client()})
	results, err := source.Search(context.Background(), domain.SearchRequest{Query: "bohemian rhapsody", Limit: 25})
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected the id-less entry dropped, got %d results", len(results))
	}

	got := results[0]
	if got.ExternalID != "itunes:1440833098" || got.Category != domain.CategoryMusic {
		t.Errorf("unexpected mapping: %#v", got)
	}
	if got.Creator != "Queen" || got.Year != 1975 {
		t.Errorf("unexpected creator/year: %#v", got)
	}
	if got.Description != "A Night at the Opera · Rock" {
		t.Errorf("unexpected description: %q", got.Description)
	}
}

func TestITunesRankPopularity(t *testing.T) {
	source := NewSource(Config{})
	first, _ := source.toResult(track{TrackID: 1, TrackName: "First"}, 0, 4)
	last, _ := source.toResult(track{TrackID: 2, TrackName: "Last"}, 3, 4)
	if first.Popularity != 10 {
		t.Errorf("top ranked track should carry full popularity, got %v", first.Popularity)
	}
	if last.Popularity >= first.Popularity {
		t.Errorf("popularity must decrease with rank: first=%v last=%v", first.Popularity, last.Popularity)
	}
}

package tmdb

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"mediatrack/searchservice/internal/domain"
	"mediatrack/searchservice/internal/sources/common"
)

const (
	defaultEndpoint  = "https://api.themoviedb.org/3"
	defaultImageBase = "https://image.tmdb.org/t/p/w342"
	defaultUserAgent = "mediatrack-search/1.0"
)

type Config struct {
	Endpoint  string
	APIKey    string
	ImageBase string
	UserAgent string
	Client    *http.Client
}

type Source struct {
	client    *http.Client
	endpoint  string
	apiKey    string
	imageBase string
	userAgent string
}

type searchResponse struct {
	Page    int          `json:"page"`
	Results []mediaEntry `json:"results"`
}

type mediaEntry struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int64   `json:"vote_count"`
	Popularity   float64 `json:"popularity"`
}

func NewSource(cfg Config) *Source {
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	imageBase := strings.TrimRight(strings.TrimSpace(cfg.ImageBase), "/")
	if imageBase == "" {
		imageBase = defaultImageBase
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Source{
		client:    client,
		endpoint:  endpoint,
		apiKey:    strings.TrimSpace(cfg.APIKey),
		imageBase: imageBase,
		userAgent: userAgent,
	}
}

func (s *Source) Name() string {
	return "tmdb"
}

func (s *Source) Info() domain.SourceInfo {
	return domain.SourceInfo{
		Name:       s.Name(),
		Label:      "TMDB",
		Categories: s.Categories(),
		Enabled:    true,
	}
}

func (s *Source) Categories() []domain.MediaCategory {
	return []domain.MediaCategory{domain.CategoryMovie, domain.CategoryTV}
}

func (s *Source) Search(ctx context.Context, request domain.SearchRequest) ([]domain.SearchResult, error) {
	wantMovie, wantTV := wantedKinds(request.Categories)

	var results []domain.SearchResult
	if wantMovie {
		movies, err := s.searchKind(ctx, "movie", domain.CategoryMovie, request.Query)
		if err != nil {
			return nil, err
		}
		results = append(results, movies...)
	}
	if wantTV {
		shows, err := s.searchKind(ctx, "tv", domain.CategoryTV, request.Query)
		if err != nil {
			return nil, err
		}
		results = append(results, shows...)
	}

	if request.Limit > 0 && len(results) > request.Limit {
		results = results[:request.Limit]
	}
	return results, nil
}

func (s *Source) searchKind(ctx context.Context, kind string, category domain.MediaCategory, rawQuery string) ([]domain.SearchResult, error) {
	uri, err := url.Parse(s.endpoint + "/search/" + kind)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	query := uri.Query()
	query.Set("query", strings.TrimSpace(rawQuery))
	query.Set("api_key", s.apiKey)
	query.Set("include_adult", "false")
	uri.RawQuery = query.Encode()

	var payload searchResponse
	if err := common.GetJSON(ctx, s.client, uri.String(), s.userAgent, &payload); err != nil {
		return nil, err
	}

	results := make([]domain.SearchResult, 0, len(payload.Results))
	for _, entry := range payload.Results {
		result, ok := s.toResult(entry, kind, category)
		if !ok {
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *Source) toResult(entry mediaEntry, kind string, category domain.MediaCategory) (domain.SearchResult, bool) {
	title := strings.TrimSpace(entry.Title)
	if title == "" {
		title = strings.TrimSpace(entry.Name)
	}
	if title == "" || entry.ID <= 0 {
		return domain.SearchResult{}, false
	}

	releaseDate := entry.ReleaseDate
	if releaseDate == "" {
		releaseDate = entry.FirstAirDate
	}

	image := ""
	if poster := strings.TrimSpace(entry.PosterPath); poster != "" {
		image = s.imageBase + poster
	}

	id := strconv.FormatInt(entry.ID, 10)
	return domain.SearchResult{
		ID:          id,
		ExternalID:  "tmdb:" + kind + ":" + id,
		Title:       title,
		Category:    category,
		Year:        common.YearFromDate(releaseDate),
		Rating:      common.ClampRating(entry.VoteAverage),
		RatingCount: entry.VoteCount,
		Popularity:  common.PopularityFromVolume(entry.Popularity),
		Image:       image,
		Description: strings.TrimSpace(entry.Overview),
		URL:         "https://www.themoviedb.org/" + kind + "/" + id,
		Source:      s.Name(),
	}, true
}

func wantedKinds(categories []domain.MediaCategory) (bool, bool) {
	if len(categories) == 0 {
		return true, true
	}
	wantMovie, wantTV := false, false
	for _, category := range categories {
		switch category {
		case domain.CategoryMovie:
			wantMovie = true
		case domain.CategoryTV:
			wantTV = true
		}
	}
	if !wantMovie && !wantTV {
		return true, true
	}
	return wantMovie, wantTV
}

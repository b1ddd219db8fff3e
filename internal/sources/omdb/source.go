package omdb

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"mediatrack/searchservice/internal/domain"
	"mediatrack/searchservice/internal/sources/common"
)

const (
	defaultEndpoint  = "https://www.omdbapi.com/"
	defaultUserAgent = "mediatrack-search/1.0"

	// The search payload carries no ratings, so the top results get a second
	// lookup by IMDb id. Kept small; every detail fetch is a full round trip.
	maxDetailLookups = 5
)

type Config struct {
	Endpoint  string
	APIKey    string
	UserAgent string
	Client    *http.Client
}

type Source struct {
	client    *http.Client
	endpoint  string
	apiKey    string
	userAgent string
}

type searchResponse struct {
	Search   []searchItem `json:"Search"`
	Response string       `json:"Response"`
	Error    string       `json:"Error"`
}

type searchItem struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	IMDBID string `json:"imdbID"`
	Type   string `json:"Type"`
	Poster string `json:"Poster"`
}

type detailResponse struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Director   string `json:"Director"`
	Writer     string `json:"Writer"`
	Plot       string `json:"Plot"`
	Poster     string `json:"Poster"`
	IMDBRating string `json:"imdbRating"`
	IMDBVotes  string `json:"imdbVotes"`
	IMDBID     string `json:"imdbID"`
	Type       string `json:"Type"`
	Response   string `json:"Response"`
}

func NewSource(cfg Config) *Source {
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Source{
		client:    client,
		endpoint:  endpoint,
		apiKey:    strings.TrimSpace(cfg.APIKey),
		userAgent: userAgent,
	}
}

func (s *Source) Name() string {
	return "omdb"
}

func (s *Source) Info() domain.SourceInfo {
	return domain.SourceInfo{
		Name:       s.Name(),
		Label:      "OMDb",
		Categories: s.Categories(),
		Enabled:    true,
	}
}

func (s *Source) Categories() []domain.MediaCategory {
	return []domain.MediaCategory{domain.CategoryMovie, domain.CategoryTV}
}

func (s *Source) Search(ctx context.Context, request domain.SearchRequest) ([]domain.SearchResult, error) {
	uri, err := url.Parse(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}

	query := uri.Query()
	query.Set("s", strings.TrimSpace(request.Query))
	query.Set("apikey", s.apiKey)
	if omdbType := typeFilter(request.Categories); omdbType != "" {
		query.Set("type", omdbType)
	}
	uri.RawQuery = query.Encode()

	var payload searchResponse
	if err := common.GetJSON(ctx, s.client, uri.String(), s.userAgent, &payload); err != nil {
		return nil, err
	}
	// OMDb reports "not found" as an in-band error field with HTTP 200.
	if !strings.EqualFold(payload.Response, "True") {
		if strings.Contains(strings.ToLower(payload.Error), "not found") {
			return nil, nil
		}
		return nil, fmt.Errorf("omdb error: %s", payload.Error)
	}

	limit := request.Limit
	if limit <= 0 {
		limit = 10
	}

	results := make([]domain.SearchResult, 0, len(payload.Search))
	for _, item := range payload.Search {
		result, ok := s.toResult(item)
		if !ok {
			continue
		}
		results = append(results, result)
		if len(results) >= limit {
			break
		}
	}

	s.enrichTop(ctx, results)
	return results, nil
}

// enrichTop fills rating, vote count, creator and plot for the first few
// results via the detail lookup. Failures leave the search-level fields in
// place; the batch already succeeded.
func (s *Source) enrichTop(ctx context.Context, results []domain.SearchResult) {
	for i := range results {
		if i >= maxDetailLookups {
			return
		}
		detail, err := s.fetchDetail(ctx, results[i].ExternalID)
		if err != nil {
			return
		}
		results[i].Rating = common.ParseRating(detail.IMDBRating)
		results[i].RatingCount = common.ParseCount(detail.IMDBVotes)
		if creator := cleanPerson(detail.Director); creator != "" {
			results[i].Creator = creator
		} else if writer := cleanPerson(detail.Writer); writer != "" {
			results[i].Creator = writer
		}
		if plot := strings.TrimSpace(detail.Plot); plot != "" && plot != "N/A" {
			results[i].Description = plot
		}
	}
}

func (s *Source) fetchDetail(ctx context.Context, imdbID string) (detailResponse, error) {
	uri, err := url.Parse(s.endpoint)
	if err != nil {
		return detailResponse{}, err
	}
	query := uri.Query()
	query.Set("i", strings.TrimSpace(imdbID))
	query.Set("apikey", s.apiKey)
	uri.RawQuery = query.Encode()

	var payload detailResponse
	if err := common.GetJSON(ctx, s.client, uri.String(), s.userAgent, &payload); err != nil {
		return detailResponse{}, err
	}
	if !strings.EqualFold(payload.Response, "True") {
		return detailResponse{}, fmt.Errorf("omdb detail lookup failed for %s", imdbID)
	}
	return payload, nil
}

func (s *Source) toResult(item searchItem) (domain.SearchResult, bool) {
	title := strings.TrimSpace(item.Title)
	imdbID := strings.TrimSpace(item.IMDBID)
	if title == "" || imdbID == "" {
		return domain.SearchResult{}, false
	}

	category := domain.CategoryMovie
	switch strings.ToLower(strings.TrimSpace(item.Type)) {
	case "series":
		category = domain.CategoryTV
	case "movie":
	default:
		// Episodes and games from OMDb are out of scope here.
		return domain.SearchResult{}, false
	}

	poster := strings.TrimSpace(item.Poster)
	if poster == "N/A" {
		poster = ""
	}

	return domain.SearchResult{
		ID:         imdbID,
		ExternalID: imdbID,
		Title:      title,
		Category:   category,
		Year:       common.YearFromRange(item.Year),
		Image:      poster,
		URL:        "https://www.imdb.com/title/" + imdbID + "/",
		Source:     s.Name(),
	}, true
}

func typeFilter(categories []domain.MediaCategory) string {
	wantMovie, wantTV := false, false
	for _, category := range categories {
		switch category {
		case domain.CategoryMovie:
			wantMovie = true
		case domain.CategoryTV:
			wantTV = true
		}
	}
	switch {
	case wantMovie && !wantTV:
		return "movie"
	case wantTV && !wantMovie:
		return "series"
	default:
		return ""
	}
}

func cleanPerson(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" || value == "N/A" {
		return ""
	}
	// Detail payloads list multiple people comma separated; the first one is
	// the primary credit.
	if idx := strings.Index(value, ","); idx > 0 {
		value = strings.TrimSpace(value[:idx])
	}
	return value
}

package rawg

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
	defaultEndpoint  = "https://api.rawg.io/api/games"
	defaultUserAgent = "mediatrack-search/1.0"
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

type gamesResponse struct {
	Count   int    `json:"count"`
	Results []game `json:"results"`
}

type game struct {
	ID              int64   `json:"id"`
	Slug            string  `json:"slug"`
	Name            string  `json:"name"`
	Released        string  `json:"released"`
	Rating          float64 `json:"rating"`
	RatingsCount    int64   `json:"ratings_count"`
	Metacritic      int     `json:"metacritic"`
	BackgroundImage string  `json:"background_image"`
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
	return "rawg"
}

func (s *Source) Info() domain.SourceInfo {
	return domain.SourceInfo{
		Name:       s.Name(),
		Label:      "RAWG",
		Categories: s.Categories(),
		Enabled:    true,
	}
}

func (s *Source) Categories() []domain.MediaCategory {
	return []domain.MediaCategory{domain.CategoryGame}
}

func (s *Source) Search(ctx context.Context, request domain.SearchRequest) ([]domain.SearchResult, error) {
	uri, err := url.Parse(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}

	limit := request.Limit
	if limit <= 0 || limit > 40 {
		limit = 40
	}

	query := uri.Query()
	query.Set("search", strings.TrimSpace(request.Query))
	query.Set("page_size", strconv.Itoa(limit))
	if s.apiKey != "" {
		query.Set("key", s.apiKey)
	}
	uri.RawQuery = query.Encode()

	var payload gamesResponse
	if err := common.GetJSON(ctx, s.client, uri.String(), s.userAgent, &payload); err != nil {
		return nil, err
	}

	results := make([]domain.SearchResult, 0, len(payload.Results))
	for _, item := range payload.Results {
		result, ok := s.toResult(item)
		if !ok {
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *Source) toResult(item game) (domain.SearchResult, bool) {
	title := strings.TrimSpace(item.Name)
	if title == "" || item.ID <= 0 {
		return domain.SearchResult{}, false
	}

	pageURL := ""
	if slug := strings.TrimSpace(item.Slug); slug != "" {
		pageURL = "https://rawg.io/games/" + slug
	}

	return domain.SearchResult{
		ID:          strconv.FormatInt(item.ID, 10),
		ExternalID:  "rawg:" + strconv.FormatInt(item.ID, 10),
		Title:       title,
		Category:    domain.CategoryGame,
		Year:        common.YearFromDate(item.Released),
		Rating:      common.RatingFromFive(item.Rating),
		RatingCount: item.RatingsCount,
		Popularity:  common.PopularityFromScale(float64(item.Metacritic), 100),
		Image:       strings.TrimSpace(item.BackgroundImage),
		URL:         pageURL,
		Source:      s.Name(),
	}, true
}

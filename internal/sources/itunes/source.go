package itunes

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
	defaultEndpoint  = "https://itunes.apple.com/search"
	defaultUserAgent = "mediatrack-search/1.0"
)

type Config struct {
	Endpoint  string
	UserAgent string
	Client    *http.Client
}

type Source struct {
	client    *http.Client
	endpoint  string
	userAgent string
}

type searchResponse struct {
	ResultCount int     `json:"resultCount"`
	Results     []track `json:"results"`
}

type track struct {
	TrackID          int64  `json:"trackId"`
	TrackName        string `json:"trackName"`
	ArtistName       string `json:"artistName"`
	CollectionName   string `json:"collectionName"`
	ReleaseDate      string `json:"releaseDate"`
	ArtworkURL100    string `json:"artworkUrl100"`
	TrackViewURL     string `json:"trackViewUrl"`
	PrimaryGenreName string `json:"primaryGenreName"`
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
	return &Source{client: client, endpoint: endpoint, userAgent: userAgent}
}

func (s *Source) Name() string {
	return "itunes"
}

func (s *Source) Info() domain.SourceInfo {
	return domain.SourceInfo{
		Name:       s.Name(),
		Label:      "iTunes",
		Categories: s.Categories(),
		Enabled:    true,
	}
}

func (s *Source) Categories() []domain.MediaCategory {
	return []domain.MediaCategory{domain.CategoryMusic}
}

func (s *Source) Search(ctx context.Context, request domain.SearchRequest) ([]domain.SearchResult, error) {
	uri, err := url.Parse(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}

	limit := request.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := uri.Query()
	query.Set("term", strings.TrimSpace(request.Query))
	query.Set("media", "music")
	query.Set("entity", "song")
	query.Set("limit", strconv.Itoa(limit))
	uri.RawQuery = query.Encode()

	var payload searchResponse
	if err := common.GetJSON(ctx, s.client, uri.String(), s.userAgent, &payload); err != nil {
		return nil, err
	}

	results := make([]domain.SearchResult, 0, len(payload.Results))
	for rank, item := range payload.Results {
		result, ok := s.toResult(item, rank, len(payload.Results))
		if !ok {
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *Source) toResult(item track, rank, total int) (domain.SearchResult, bool) {
	title := strings.TrimSpace(item.TrackName)
	if title == "" || item.TrackID <= 0 {
		return domain.SearchResult{}, false
	}

	description := strings.TrimSpace(item.CollectionName)
	if genre := strings.TrimSpace(item.PrimaryGenreName); genre != "" {
		if description != "" {
			description += " · " + genre
		} else {
			description = genre
		}
	}

	// No rating signal in the payload; the API orders by its own relevance,
	// so the rank becomes a coarse popularity hint on the canonical band.
	popularity := common.PopularityFromScale(float64(total-rank), float64(total))

	return domain.SearchResult{
		ID:          strconv.FormatInt(item.TrackID, 10),
		ExternalID:  "itunes:" + strconv.FormatInt(item.TrackID, 10),
		Title:       title,
		Category:    domain.CategoryMusic,
		Creator:     strings.TrimSpace(item.ArtistName),
		Year:        common.YearFromDate(item.ReleaseDate),
		Popularity:  popularity,
		Image:       strings.TrimSpace(item.ArtworkURL100),
		Description: description,
		URL:         strings.TrimSpace(item.TrackViewURL),
		Source:      s.Name(),
	}, true
}

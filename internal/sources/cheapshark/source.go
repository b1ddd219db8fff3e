package cheapshark

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"mediatrack/searchservice/internal/domain"
	"mediatrack/searchservice/internal/sources/common"
)

const (
	defaultEndpoint  = "https://www.cheapshark.com/api/1.0/deals"
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

type deal struct {
	Title            string `json:"title"`
	DealID           string `json:"dealID"`
	GameID           string `json:"gameID"`
	SteamAppID       string `json:"steamAppID"`
	SalePrice        string `json:"salePrice"`
	NormalPrice      string `json:"normalPrice"`
	SteamRatingText  string `json:"steamRatingText"`
	SteamRatingPct   string `json:"steamRatingPercent"`
	SteamRatingCount string `json:"steamRatingCount"`
	ReleaseDate      int64  `json:"releaseDate"`
	DealRating       string `json:"dealRating"`
	Thumb            string `json:"thumb"`
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
	return "cheapshark"
}

func (s *Source) Info() domain.SourceInfo {
	return domain.SourceInfo{
		Name:       s.Name(),
		Label:      "CheapShark",
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
	if limit <= 0 || limit > 60 {
		limit = 30
	}

	query := uri.Query()
	query.Set("title", strings.TrimSpace(request.Query))
	query.Set("pageSize", strconv.Itoa(limit))
	uri.RawQuery = query.Encode()

	var payload []deal
	if err := common.GetJSON(ctx, s.client, uri.String(), s.userAgent, &payload); err != nil {
		return nil, err
	}

	results := make([]domain.SearchResult, 0, len(payload))
	seen := make(map[string]struct{}, len(payload))
	for _, item := range payload {
		result, ok := s.toResult(item)
		if !ok {
			continue
		}
		// The deals feed repeats a game once per store; keep the first deal.
		if _, exists := seen[result.ExternalID]; exists {
			continue
		}
		seen[result.ExternalID] = struct{}{}
		results = append(results, result)
	}
	return results, nil
}

func (s *Source) toResult(item deal) (domain.SearchResult, bool) {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		return domain.SearchResult{}, false
	}

	// Sharing the Steam id scheme lets a deal collapse into the storefront
	// entry for the same game.
	externalID := ""
	if appID := strings.TrimSpace(item.SteamAppID); appID != "" && appID != "null" {
		externalID = "steam:" + appID
	} else if gameID := strings.TrimSpace(item.GameID); gameID != "" {
		externalID = "cheapshark:" + gameID
	}

	year := 0
	if item.ReleaseDate > 0 {
		year = time.Unix(item.ReleaseDate, 0).UTC().Year()
	}

	description := ""
	if sale := strings.TrimSpace(item.SalePrice); sale != "" {
		description = "On sale for $" + sale
		if normal := strings.TrimSpace(item.NormalPrice); normal != "" {
			description += " (normally $" + normal + ")"
		}
	}

	pageURL := ""
	if dealID := strings.TrimSpace(item.DealID); dealID != "" {
		pageURL = "https://www.cheapshark.com/redirect?dealID=" + url.QueryEscape(dealID)
	}

	return domain.SearchResult{
		ID:          strings.TrimSpace(item.GameID),
		ExternalID:  externalID,
		Title:       title,
		Category:    domain.CategoryGame,
		Year:        year,
		Rating:      common.RatingFromPercent(parseFloat(item.SteamRatingPct)),
		RatingCount: common.ParseCount(item.SteamRatingCount),
		Popularity:  common.ClampRating(parseFloat(item.DealRating)),
		Image:       strings.TrimSpace(item.Thumb),
		Description: description,
		URL:         pageURL,
		Source:      s.Name(),
	}, true
}

func parseFloat(raw string) float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return value
}

package steam

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
	defaultSearchEndpoint  = "https://store.steampowered.com/api/storesearch/"
	defaultDetailsEndpoint = "https://store.steampowered.com/api/appdetails"
	defaultUserAgent       = "mediatrack-search/1.0"

	// The store search payload has no rating data at all; the top apps get a
	// second appdetails call for metacritic score and recommendation counts.
	maxDetailLookups = 4
)

type Config struct {
	SearchEndpoint  string
	DetailsEndpoint string
	CountryCode     string
	UserAgent       string
	Client          *http.Client
}

type Source struct {
	client          *http.Client
	searchEndpoint  string
	detailsEndpoint string
	countryCode     string
	userAgent       string
}

type storeSearchResponse struct {
	Total int        `json:"total"`
	Items []storeApp `json:"items"`
}

type storeApp struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	TinyImage string `json:"tiny_image"`
}

type appDetailsEntry struct {
	Success bool           `json:"success"`
	Data    appDetailsData `json:"data"`
}

type appDetailsData struct {
	Name             string `json:"name"`
	ShortDescription string `json:"short_description"`
	HeaderImage      string `json:"header_image"`
	ReleaseDate      struct {
		Date string `json:"date"`
	} `json:"release_date"`
	Metacritic struct {
		Score float64 `json:"score"`
	} `json:"metacritic"`
	Recommendations struct {
		Total int64 `json:"total"`
	} `json:"recommendations"`
	Developers []string `json:"developers"`
}

func NewSource(cfg Config) *Source {
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	searchEndpoint := strings.TrimSpace(cfg.SearchEndpoint)
	if searchEndpoint == "" {
		searchEndpoint = defaultSearchEndpoint
	}
	detailsEndpoint := strings.TrimSpace(cfg.DetailsEndpoint)
	if detailsEndpoint == "" {
		detailsEndpoint = defaultDetailsEndpoint
	}
	countryCode := strings.TrimSpace(cfg.CountryCode)
	if countryCode == "" {
		countryCode = "us"
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Source{
		client:          client,
		searchEndpoint:  searchEndpoint,
		detailsEndpoint: detailsEndpoint,
		countryCode:     countryCode,
		userAgent:       userAgent,
	}
}

func (s *Source) Name() string {
	return "steam"
}

func (s *Source) Info() domain.SourceInfo {
	return domain.SourceInfo{
		Name:       s.Name(),
		Label:      "Steam",
		Categories: s.Categories(),
		Enabled:    true,
	}
}

func (s *Source) Categories() []domain.MediaCategory {
	return []domain.MediaCategory{domain.CategoryGame}
}

func (s *Source) Search(ctx context.Context, request domain.SearchRequest) ([]domain.SearchResult, error) {
	uri, err := url.Parse(s.searchEndpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	query := uri.Query()
	query.Set("term", strings.TrimSpace(request.Query))
	query.Set("cc", s.countryCode)
	query.Set("l", "en")
	uri.RawQuery = query.Encode()

	var payload storeSearchResponse
	if err := common.GetJSON(ctx, s.client, uri.String(), s.userAgent, &payload); err != nil {
		return nil, err
	}

	limit := request.Limit
	if limit <= 0 {
		limit = 25
	}

	results := make([]domain.SearchResult, 0, len(payload.Items))
	for _, item := range payload.Items {
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

// enrichTop fills rating, recommendations, release year and developer for
// the first few results. A failed detail call stops enrichment but never
// fails the search.
func (s *Source) enrichTop(ctx context.Context, results []domain.SearchResult) {
	for i := range results {
		if i >= maxDetailLookups {
			return
		}
		data, err := s.fetchDetails(ctx, results[i].ID)
		if err != nil {
			return
		}
		if data == nil {
			continue
		}
		// Most of the catalog has no Metacritic entry. Recommendations only
		// count as rating votes when a score exists to back them; otherwise
		// they stay a popularity signal, so the result remains unrated
		// instead of rated zero.
		if rating := common.RatingFromPercent(data.Metacritic.Score); rating > 0 {
			results[i].Rating = rating
			results[i].RatingCount = data.Recommendations.Total
		} else {
			results[i].Popularity = common.PopularityFromVolume(float64(data.Recommendations.Total))
		}
		results[i].Year = common.YearFromDate(data.ReleaseDate.Date)
		results[i].Creator = strings.Join(data.Developers, ", ")
		if description := strings.TrimSpace(data.ShortDescription); description != "" {
			results[i].Description = description
		}
		if image := strings.TrimSpace(data.HeaderImage); image != "" {
			results[i].Image = image
		}
	}
}

func (s *Source) fetchDetails(ctx context.Context, appID string) (*appDetailsData, error) {
	uri, err := url.Parse(s.detailsEndpoint)
	if err != nil {
		return nil, err
	}
	query := uri.Query()
	query.Set("appids", appID)
	uri.RawQuery = query.Encode()

	// The payload is keyed by the requested appid.
	var payload map[string]appDetailsEntry
	if err := common.GetJSON(ctx, s.client, uri.String(), s.userAgent, &payload); err != nil {
		return nil, err
	}
	entry, ok := payload[appID]
	if !ok || !entry.Success {
		return nil, nil
	}
	return &entry.Data, nil
}

func (s *Source) toResult(item storeApp) (domain.SearchResult, bool) {
	title := strings.TrimSpace(item.Name)
	if title == "" || item.ID <= 0 {
		return domain.SearchResult{}, false
	}
	appID := strconv.FormatInt(item.ID, 10)
	return domain.SearchResult{
		ID:         appID,
		ExternalID: "steam:" + appID,
		Title:      title,
		Category:   domain.CategoryGame,
		Image:      strings.TrimSpace(item.TinyImage),
		URL:        "https://store.steampowered.com/app/" + appID + "/",
		Source:     s.Name(),
	}, true
}

package googlebooks

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
	defaultEndpoint  = "https://www.googleapis.com/books/v1/volumes"
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

type volumesResponse struct {
	Items []volume `json:"items"`
}

type volume struct {
	ID         string     `json:"id"`
	VolumeInfo volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	Title               string               `json:"title"`
	Authors             []string             `json:"authors"`
	PublishedDate       string               `json:"publishedDate"`
	Description         string               `json:"description"`
	AverageRating       float64              `json:"averageRating"`
	RatingsCount        int64                `json:"ratingsCount"`
	ImageLinks          volumeImageLinks     `json:"imageLinks"`
	IndustryIdentifiers []industryIdentifier `json:"industryIdentifiers"`
	InfoLink            string               `json:"infoLink"`
	CanonicalVolumeLink string               `json:"canonicalVolumeLink"`
}

type volumeImageLinks struct {
	Thumbnail      string `json:"thumbnail"`
	SmallThumbnail string `json:"smallThumbnail"`
}

type industryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
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
	return "googlebooks"
}

func (s *Source) Info() domain.SourceInfo {
	return domain.SourceInfo{
		Name:       s.Name(),
		Label:      "Google Books",
		Categories: s.Categories(),
		Enabled:    true,
	}
}

func (s *Source) Categories() []domain.MediaCategory {
	return []domain.MediaCategory{domain.CategoryBook}
}

func (s *Source) Search(ctx context.Context, request domain.SearchRequest) ([]domain.SearchResult, error) {
	uri, err := url.Parse(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}

	limit := request.Limit
	if limit <= 0 || limit > 40 {
		// The volumes API caps maxResults at 40.
		limit = 40
	}

	query := uri.Query()
	query.Set("q", strings.TrimSpace(request.Query))
	query.Set("maxResults", strconv.Itoa(limit))
	query.Set("printType", "books")
	if s.apiKey != "" {
		query.Set("key", s.apiKey)
	}
	uri.RawQuery = query.Encode()

	var payload volumesResponse
	if err := common.GetJSON(ctx, s.client, uri.String(), s.userAgent, &payload); err != nil {
		return nil, err
	}

	results := make([]domain.SearchResult, 0, len(payload.Items))
	for _, item := range payload.Items {
		result, ok := s.toResult(item)
		if !ok {
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *Source) toResult(item volume) (domain.SearchResult, bool) {
	title := strings.TrimSpace(item.VolumeInfo.Title)
	if title == "" {
		return domain.SearchResult{}, false
	}

	pageURL := strings.TrimSpace(item.VolumeInfo.CanonicalVolumeLink)
	if pageURL == "" {
		pageURL = strings.TrimSpace(item.VolumeInfo.InfoLink)
	}
	image := strings.TrimSpace(item.VolumeInfo.ImageLinks.Thumbnail)
	if image == "" {
		image = strings.TrimSpace(item.VolumeInfo.ImageLinks.SmallThumbnail)
	}

	return domain.SearchResult{
		ID:          strings.TrimSpace(item.ID),
		ExternalID:  isbn13(item.VolumeInfo.IndustryIdentifiers),
		Title:       title,
		Category:    domain.CategoryBook,
		Creator:     strings.Join(item.VolumeInfo.Authors, ", "),
		Year:        common.YearFromDate(item.VolumeInfo.PublishedDate),
		Rating:      common.RatingFromFive(item.VolumeInfo.AverageRating),
		RatingCount: item.VolumeInfo.RatingsCount,
		Image:       image,
		Description: common.CleanHTMLText(item.VolumeInfo.Description),
		URL:         pageURL,
		Source:      s.Name(),
	}, true
}

// isbn13 prefers the ISBN-13 identifier and falls back to ISBN-10, prefixed
// so the deduplicator never confuses the two schemes.
func isbn13(identifiers []industryIdentifier) string {
	fallback := ""
	for _, id := range identifiers {
		value := strings.TrimSpace(id.Identifier)
		if value == "" {
			continue
		}
		switch strings.ToUpper(strings.TrimSpace(id.Type)) {
		case "ISBN_13":
			return "isbn:" + value
		case "ISBN_10":
			if fallback == "" {
				fallback = "isbn:" + value
			}
		}
	}
	return fallback
}

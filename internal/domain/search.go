package domain

import (
	"strings"
	"time"
)

type MediaCategory string

const (
	CategoryMovie MediaCategory = "movie"
	CategoryTV    MediaCategory = "tv"
	CategoryBook  MediaCategory = "book"
	CategoryGame  MediaCategory = "game"
	CategoryMusic MediaCategory = "music"
)

// AllCategories lists every supported category in stable order.
func AllCategories() []MediaCategory {
	return []MediaCategory{CategoryMovie, CategoryTV, CategoryBook, CategoryGame, CategoryMusic}
}

func NormalizeCategory(raw string) (MediaCategory, bool) {
	switch MediaCategory(strings.ToLower(strings.TrimSpace(raw))) {
	case CategoryMovie:
		return CategoryMovie, true
	case CategoryTV, "series", "show":
		return CategoryTV, true
	case CategoryBook:
		return CategoryBook, true
	case CategoryGame:
		return CategoryGame, true
	case CategoryMusic, "music-track", "track":
		return CategoryMusic, true
	default:
		return "", false
	}
}

type SearchSortBy string

const (
	SearchSortByRelevance  SearchSortBy = "relevance"
	SearchSortByPopularity SearchSortBy = "popularity"
	SearchSortByDate       SearchSortBy = "date"
	SearchSortByMixed      SearchSortBy = "mixed"
)

func NormalizeSortBy(raw string) SearchSortBy {
	switch SearchSortBy(strings.ToLower(strings.TrimSpace(raw))) {
	case SearchSortByPopularity:
		return SearchSortByPopularity
	case SearchSortByDate:
		return SearchSortByDate
	case SearchSortByMixed:
		return SearchSortByMixed
	default:
		return SearchSortByRelevance
	}
}

type SearchRequest struct {
	Query      string          `json:"query"`
	Categories []MediaCategory `json:"categories,omitempty"`
	Limit      int             `json:"limit,omitempty"`
	Offset     int             `json:"offset,omitempty"`
	SortBy     SearchSortBy    `json:"sortBy,omitempty"`
	NoCache    bool            `json:"-"`
}

// ScoreBreakdown carries the per-signal components behind TotalScore.
// Scores are only comparable between results of the same query.
type ScoreBreakdown struct {
	TitleScore   float64 `json:"titleScore"`
	CreatorScore float64 `json:"creatorScore"`
	QualityScore float64 `json:"qualityScore"`
	TotalScore   float64 `json:"totalScore"`
}

// SearchResult is the canonical normalized entity every adapter maps into.
// Rating and Popularity are always on the 0-10 scale; adapters convert
// vendor scales at the boundary. ExternalID holds a vendor-stable identifier
// (ISBN, IMDb id, Steam appid) when the source supplies one; ID is only
// unique per source.
type SearchResult struct {
	ID          string         `json:"id"`
	ExternalID  string         `json:"externalId,omitempty"`
	Title       string         `json:"title"`
	Category    MediaCategory  `json:"category"`
	Creator     string         `json:"creator,omitempty"`
	Year        int            `json:"year,omitempty"`
	Rating      float64        `json:"rating,omitempty"`
	RatingCount int64          `json:"ratingCount,omitempty"`
	Popularity  float64        `json:"popularity,omitempty"`
	Image       string         `json:"image,omitempty"`
	Description string         `json:"description,omitempty"`
	URL         string         `json:"url,omitempty"`
	Source      string         `json:"source,omitempty"`
	Scores      ScoreBreakdown `json:"scores"`
}

type SourceInfo struct {
	Name       string          `json:"name"`
	Label      string          `json:"label"`
	Categories []MediaCategory `json:"categories"`
	Enabled    bool            `json:"enabled"`
}

type SourceStatus struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Count int    `json:"count"`
	Error string `json:"error,omitempty"`
}

type SourceDiagnostics struct {
	Name                string          `json:"name"`
	Label               string          `json:"label"`
	Categories          []MediaCategory `json:"categories"`
	Enabled             bool            `json:"enabled"`
	ConsecutiveFailures int             `json:"consecutiveFailures"`
	BlockedUntil        *time.Time      `json:"blockedUntil,omitempty"`
	LastError           string          `json:"lastError,omitempty"`
	LastSuccessAt       *time.Time      `json:"lastSuccessAt,omitempty"`
	LastFailureAt       *time.Time      `json:"lastFailureAt,omitempty"`
	LastLatencyMS       int64           `json:"lastLatencyMs,omitempty"`
	LastTimeout         bool            `json:"lastTimeout,omitempty"`
	LastQuery           string          `json:"lastQuery,omitempty"`
	TotalRequests       int64           `json:"totalRequests,omitempty"`
	TotalFailures       int64           `json:"totalFailures,omitempty"`
	TimeoutCount        int64           `json:"timeoutCount,omitempty"`
}

type SearchResponse struct {
	Query      string         `json:"query"`
	Items      []SearchResult `json:"items"`
	Sources    []SourceStatus `json:"sources"`
	ElapsedMS  int64          `json:"elapsedMs"`
	TotalItems int            `json:"totalItems"`
	Limit      int            `json:"limit"`
	Offset     int            `json:"offset"`
	HasMore    bool           `json:"hasMore"`
	SortBy     SearchSortBy   `json:"sortBy"`
	FromCache  bool           `json:"fromCache"`
}

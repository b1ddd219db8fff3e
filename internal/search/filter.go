package search

import (
	"strings"

	"mediatrack/searchservice/internal/domain"
)

// applyQualityFilter drops structurally invalid or policy-excluded results
// before scoring. Pure and side-effect free; survivors keep their fields
// untouched.
func applyQualityFilter(items []domain.SearchResult, policy domain.FilterPolicy) []domain.SearchResult {
	filtered := make([]domain.SearchResult, 0, len(items))
	for _, item := range items {
		if passesQualityFilter(item, policy) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

func passesQualityFilter(item domain.SearchResult, policy domain.FilterPolicy) bool {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		return false
	}
	if policy.CreatorRequired[item.Category] && strings.TrimSpace(item.Creator) == "" {
		return false
	}
	// A zero rating with votes behind it is a real score; a zero rating with
	// zero votes just means the source did not report one.
	if policy.MinRating > 0 && (item.Rating > 0 || item.RatingCount > 0) && item.Rating < policy.MinRating {
		return false
	}
	if denied := policy.TitleDenylist[item.Category]; len(denied) > 0 {
		lower := strings.ToLower(title)
		for _, needle := range denied {
			if needle == "" {
				continue
			}
			if strings.Contains(lower, needle) {
				return false
			}
		}
	}
	return true
}

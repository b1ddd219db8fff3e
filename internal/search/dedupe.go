package search

import (
	"fmt"
	"strings"

	"mediatrack/searchservice/internal/domain"
)

// dedupeKey computes the collapse key for a result: the vendor-stable
// external id when present (ISBN, IMDb id, Steam appid), otherwise a
// composite of normalized title, normalized creator and year. Keys are
// namespaced by category so a game and a movie with the same name never
// collapse into each other.
func dedupeKey(item domain.SearchResult) string {
	category := string(item.Category)
	if externalID := strings.ToLower(strings.TrimSpace(item.ExternalID)); externalID != "" {
		return "id:" + category + ":" + externalID
	}

	meta := parseTitleMeta(item.Title)
	if meta.normalized == "" {
		// Unfilterable garbage; fall back to the raw fields so nothing
		// accidentally collapses.
		return "raw:" + category + ":" + strings.ToLower(strings.TrimSpace(item.Title)) + ":" + item.ID
	}

	parts := []string{"title", category, meta.normalized}
	if creator := parseTitleMeta(item.Creator).normalized; creator != "" {
		parts = append(parts, "c:"+creator)
	}
	year := item.Year
	if year == 0 {
		year = meta.year
	}
	if year > 0 {
		parts = append(parts, fmt.Sprintf("y:%d", year))
	}
	return strings.Join(parts, "|")
}

// shouldReplace decides whether a newcomer displaces the result already held
// under the same key. First-seen wins unless the candidate scores strictly
// higher; on equal scores the candidate only wins by filling gaps the
// existing result has.
func shouldReplace(existing, candidate domain.SearchResult) bool {
	if cmp := compareFloat64(candidate.Scores.TotalScore, existing.Scores.TotalScore); cmp != 0 {
		return cmp > 0
	}
	if candidate.RatingCount != existing.RatingCount {
		return candidate.RatingCount > existing.RatingCount
	}
	if existing.Rating == 0 && candidate.Rating > 0 {
		return true
	}
	if existing.Image == "" && candidate.Image != "" {
		return true
	}
	if existing.ExternalID == "" && candidate.ExternalID != "" {
		return true
	}
	return false
}

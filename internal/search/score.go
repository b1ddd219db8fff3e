package search

import (
	"math"
	"sort"
	"strings"
	"time"

	"mediatrack/searchservice/internal/domain"
)

// Match tier constants. Exact title match dominates, substring containment is
// a clear step below, and partial word overlap scales with coverage. The
// creator signal uses the same three-tier shape at a lower ceiling.
const (
	titleExactScore     = 100.0
	titleSubstringScore = 60.0
	titlePartialScale   = 40.0

	creatorExactScore     = 80.0
	creatorSubstringScore = 48.0
	creatorPartialScale   = 32.0
)

// matchTierScore implements the shared three-tier scheme: exact normalized
// equality, substring containment, then word-overlap ratio scaled into the
// partial band.
func matchTierScore(queryMeta, fieldMeta titleMeta, exact, substring, partialScale float64) float64 {
	if queryMeta.normalized == "" || fieldMeta.normalized == "" {
		return 0
	}
	if fieldMeta.normalized == queryMeta.normalized {
		return exact
	}
	if strings.Contains(fieldMeta.normalized, queryMeta.normalized) {
		return substring
	}
	matches := 0
	for token := range queryMeta.tokenSet {
		if _, ok := fieldMeta.tokenSet[token]; ok {
			matches++
			continue
		}
		if strings.Contains(fieldMeta.normalized, token) {
			matches++
		}
	}
	if matches == 0 || len(queryMeta.tokenSet) == 0 {
		return 0
	}
	coverage := float64(matches) / float64(len(queryMeta.tokenSet))
	return coverage * partialScale
}

// qualityScore combines the rating signal with a logarithmic vote-count bonus
// so a single viral outlier cannot dominate, plus a flat recency bonus for
// releases within the category's recency window.
func qualityScore(item domain.SearchResult, weights domain.ScoringWeights, now time.Time) float64 {
	score := item.Rating * weights.RatingMultiplier
	if item.RatingCount > 0 {
		score += math.Log10(float64(item.RatingCount)+1) * weights.VoteLogFactor
	}
	if item.Year > 0 && weights.RecencyYears > 0 {
		age := now.Year() - item.Year
		if age >= 0 && age <= weights.RecencyYears {
			score += weights.RecencyBonus
		}
	}
	return score
}

// scoreResult computes the full breakdown for one result against the query.
func scoreResult(queryMeta titleMeta, table domain.ScoringTable, item domain.SearchResult, now time.Time) domain.ScoreBreakdown {
	weights := table.WeightsFor(item.Category)

	breakdown := domain.ScoreBreakdown{
		TitleScore:   matchTierScore(queryMeta, parseTitleMeta(item.Title), titleExactScore, titleSubstringScore, titlePartialScale),
		QualityScore: qualityScore(item, weights, now),
	}
	if item.Creator != "" {
		breakdown.CreatorScore = matchTierScore(queryMeta, parseTitleMeta(item.Creator), creatorExactScore, creatorSubstringScore, creatorPartialScale)
	}
	breakdown.TotalScore = weights.Title*breakdown.TitleScore +
		weights.Creator*breakdown.CreatorScore +
		weights.Quality*breakdown.QualityScore
	return breakdown
}

// scoreAll annotates every item with its breakdown. Items are not reordered.
func scoreAll(items []domain.SearchResult, queryMeta titleMeta, table domain.ScoringTable, now time.Time) {
	for i := range items {
		items[i].Scores = scoreResult(queryMeta, table, items[i], now)
	}
}

// sortResults orders items by the requested mode. The sort is stable and the
// final tie-breaks (popularity, then title) are deterministic, so two runs
// over the same inputs produce the same ordering.
func sortResults(items []domain.SearchResult, sortBy domain.SearchSortBy) {
	sort.SliceStable(items, func(i, j int) bool {
		return compareResults(items[i], items[j], sortBy) > 0
	})
}

func compareResults(left, right domain.SearchResult, sortBy domain.SearchSortBy) int {
	switch sortBy {
	case domain.SearchSortByPopularity:
		if cmp := compareFloat64(popularitySignal(left), popularitySignal(right)); cmp != 0 {
			return cmp
		}
		if cmp := compareFloat64(left.Scores.TotalScore, right.Scores.TotalScore); cmp != 0 {
			return cmp
		}
	case domain.SearchSortByDate:
		if left.Year != right.Year {
			if left.Year > right.Year {
				return 1
			}
			return -1
		}
		if cmp := compareFloat64(left.Scores.TotalScore, right.Scores.TotalScore); cmp != 0 {
			return cmp
		}
	case domain.SearchSortByMixed:
		if cmp := compareFloat64(left.Scores.TotalScore, right.Scores.TotalScore); cmp != 0 {
			return cmp
		}
		if cmp := compareFloat64(popularitySignal(left), popularitySignal(right)); cmp != 0 {
			return cmp
		}
	default:
		if cmp := compareFloat64(left.Scores.TotalScore, right.Scores.TotalScore); cmp != 0 {
			return cmp
		}
	}
	if cmp := compareFloat64(popularitySignal(left), popularitySignal(right)); cmp != 0 {
		return cmp
	}
	// Reverse lexical compare so ascending titles win under the > ordering.
	return -strings.Compare(strings.ToLower(left.Title), strings.ToLower(right.Title))
}

func popularitySignal(item domain.SearchResult) float64 {
	signal := item.Popularity
	if item.RatingCount > 0 {
		signal += math.Log10(float64(item.RatingCount) + 1)
	}
	return signal
}

package domain

// ScoringWeights is one row of the per-category scoring table. The ranking
// heuristic is data, not code: signal weights and bonus constants live here
// so they can be tuned and tested independently of the scorer.
type ScoringWeights struct {
	Title            float64 `json:"title"`
	Creator          float64 `json:"creator"`
	Quality          float64 `json:"quality"`
	RatingMultiplier float64 `json:"ratingMultiplier"`
	VoteLogFactor    float64 `json:"voteLogFactor"`
	RecencyBonus     float64 `json:"recencyBonus"`
	RecencyYears     int     `json:"recencyYears"`
}

type ScoringTable map[MediaCategory]ScoringWeights

// DefaultScoringTable returns the tuned per-category weights. Title match
// dominates everywhere; the creator signal matters most for books and music
// where the author/artist disambiguates, and popularity carries more weight
// for games where rating coverage is sparse.
func DefaultScoringTable() ScoringTable {
	return ScoringTable{
		CategoryMovie: {Title: 1.0, Creator: 0.3, Quality: 0.8, RatingMultiplier: 4, VoteLogFactor: 3, RecencyBonus: 8, RecencyYears: 2},
		CategoryTV:    {Title: 1.0, Creator: 0.3, Quality: 0.8, RatingMultiplier: 4, VoteLogFactor: 3, RecencyBonus: 8, RecencyYears: 2},
		CategoryBook:  {Title: 1.0, Creator: 0.8, Quality: 0.6, RatingMultiplier: 3, VoteLogFactor: 4, RecencyBonus: 4, RecencyYears: 3},
		CategoryGame:  {Title: 1.0, Creator: 0.2, Quality: 1.0, RatingMultiplier: 3, VoteLogFactor: 5, RecencyBonus: 10, RecencyYears: 2},
		CategoryMusic: {Title: 1.0, Creator: 0.9, Quality: 0.4, RatingMultiplier: 2, VoteLogFactor: 2, RecencyBonus: 6, RecencyYears: 1},
	}
}

// WeightsFor returns the row for a category, falling back to the movie row
// for unknown categories so scoring never silently zeroes out.
func (t ScoringTable) WeightsFor(category MediaCategory) ScoringWeights {
	if weights, ok := t[category]; ok {
		return weights
	}
	return t[CategoryMovie]
}

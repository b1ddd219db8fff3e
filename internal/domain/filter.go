package domain

// FilterPolicy defines the quality gate applied before scoring. Results that
// fail any rule are dropped; survivors are never mutated.
type FilterPolicy struct {
	// MinRating is the floor on the canonical 0-10 scale. Results without a
	// rating (Rating == 0 and RatingCount == 0) pass; a present rating below
	// the floor rejects.
	MinRating float64 `json:"minRating"`
	// TitleDenylist maps category to lowercase substrings that mark a result
	// as low-quality or irrelevant for that category.
	TitleDenylist map[MediaCategory][]string `json:"titleDenylist,omitempty"`
	// CreatorRequired lists categories where a missing creator field
	// (author, artist) makes a result structurally incomplete.
	CreatorRequired map[MediaCategory]bool `json:"creatorRequired,omitempty"`
}

func DefaultFilterPolicy() FilterPolicy {
	return FilterPolicy{
		MinRating: 4.0,
		TitleDenylist: map[MediaCategory][]string{
			CategoryMovie: {"camrip", "fan edit", "trailer", "bootleg"},
			CategoryTV:    {"camrip", "fan edit", "trailer", "recap"},
			CategoryBook:  {"summary of", "study guide", "workbook for"},
			CategoryGame:  {"dlc", "soundtrack", "artbook", "season pass"},
			CategoryMusic: {"karaoke", "tribute", "ringtone", "8-bit"},
		},
		CreatorRequired: map[MediaCategory]bool{
			CategoryBook:  true,
			CategoryMusic: true,
		},
	}
}

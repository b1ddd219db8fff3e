package search

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)
	yearPattern  = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
)

// Leading articles are dropped so "The Matrix" and "Matrix, The" normalize
// to the same token stream.
var articleTokens = map[string]struct{}{
	"the": {}, "a": {}, "an": {},
}

type titleMeta struct {
	normalized string
	tokens     []string
	tokenSet   map[string]struct{}
	year       int
}

// parseTitleMeta lowercases, folds diacritics and splits into word tokens.
// No stemming and no fuzzy matching; scoring works on exact token overlap.
func parseTitleMeta(raw string) titleMeta {
	input := foldDiacritics(strings.ToLower(strings.TrimSpace(raw)))
	if input == "" {
		return titleMeta{tokenSet: map[string]struct{}{}}
	}

	meta := titleMeta{
		tokenSet: make(map[string]struct{}),
	}
	meta.year = extractYear(input)

	for _, match := range tokenPattern.FindAllString(input, -1) {
		token := strings.TrimSpace(match)
		if token == "" {
			continue
		}
		if _, ok := articleTokens[token]; ok {
			continue
		}
		if numeric, err := strconv.Atoi(token); err == nil && meta.year > 0 && numeric == meta.year {
			continue
		}
		if _, exists := meta.tokenSet[token]; !exists {
			meta.tokens = append(meta.tokens, token)
			meta.tokenSet[token] = struct{}{}
		}
	}

	meta.normalized = strings.Join(meta.tokens, " ")
	return meta
}

var diacriticFolder = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// foldDiacritics strips combining marks so "Amélie" matches "amelie".
func foldDiacritics(input string) string {
	folded, _, err := transform.String(diacriticFolder, input)
	if err != nil {
		return input
	}
	return folded
}

func extractYear(input string) int {
	matches := yearPattern.FindAllStringSubmatch(input, -1)
	if len(matches) == 0 {
		return 0
	}
	year := 0
	for _, match := range matches {
		if len(match) < 2 {
			continue
		}
		value, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		if value > year {
			year = value
		}
	}
	return year
}

func compareFloat64(left, right float64) int {
	switch {
	case left < right:
		return -1
	case left > right:
		return 1
	default:
		return 0
	}
}

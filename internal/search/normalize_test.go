package search

import "testing"

func TestParseTitleMetaBasics(t *testing.T) {
	meta := parseTitleMeta("  The Lord of the Rings  ")
	if meta.normalized != "lord of rings" {
		t.Fatalf("unexpected normalized form: %q", meta.normalized)
	}
	if _, ok := meta.tokenSet["the"]; ok {
		t.Fatalf("articles must be dropped")
	}
}

func TestParseTitleMetaFoldsDiacritics(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"Amélie", "amelie"},
		{"Motörhead", "motorhead"},
		{"Les Misérables", "les miserables"},
	}
	for _, tc := range cases {
		meta := parseTitleMeta(tc.input)
		if meta.normalized != tc.want {
			t.Errorf("parseTitleMeta(%q).normalized = %q, want %q", tc.input, meta.normalized, tc.want)
		}
	}
}

func TestParseTitleMetaExtractsYear(t *testing.T) {
	meta := parseTitleMeta("Dune (2021)")
	if meta.year != 2021 {
		t.Fatalf("expected extracted year, got %d", meta.year)
	}
	if meta.normalized != "dune" {
		t.Fatalf("year token must not pollute the normalized title: %q", meta.normalized)
	}
}

func TestParseTitleMetaEmptyInput(t *testing.T) {
	meta := parseTitleMeta("   ")
	if meta.normalized != "" || len(meta.tokens) != 0 {
		t.Fatalf("blank input must yield empty meta: %#v", meta)
	}
}

func TestParseTitleMetaDedupesTokens(t *testing.T) {
	meta := parseTitleMeta("boom boom boom")
	if len(meta.tokens) != 1 {
		t.Fatalf("repeated tokens must collapse: %v", meta.tokens)
	}
}

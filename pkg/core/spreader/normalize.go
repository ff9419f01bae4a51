package spreader

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun    = regexp.MustCompile(`\s+`)
	trailingFootnote = regexp.MustCompile(`\s*\(\d+\)\s*$`)
	trailingDigits   = regexp.MustCompile(`\s*\d+$`)
	tokenSplit       = regexp.MustCompile(`[\s&/\-_]+`)
	noiseReplacer    = strings.NewReplacer(",", "", ".", "", ":", "", "$", "", "(", "", ")", "")
)

// normalizeLabel flattens a raw label for taxonomy matching: lowercase,
// collapsed whitespace, currency/punctuation noise removed, trailing
// footnote markers stripped.
func normalizeLabel(label string) string {
	normalized := strings.ToLower(strings.TrimSpace(label))
	normalized = whitespaceRun.ReplaceAllString(normalized, " ")
	normalized = noiseReplacer.Replace(normalized)
	normalized = trailingFootnote.ReplaceAllString(normalized, "")
	normalized = trailingDigits.ReplaceAllString(normalized, "")
	normalized = strings.Trim(normalized, "-_ ")
	return strings.TrimSpace(normalized)
}

// NormalizeLabel exposes the normalization step for tooling and tests.
func NormalizeLabel(label string) string {
	return normalizeLabel(label)
}

// Stop words carry no matching signal in financial labels. "net" and
// "total" are included: they flip constantly between label variants.
var stopWords = map[string]struct{}{
	"and": {}, "the": {}, "of": {}, "or": {}, "in": {}, "for": {},
	"to": {}, "from": {}, "at": {}, "on": {}, "by": {}, "net": {}, "total": {},
}

type tokenSet map[string]struct{}

// tokenize splits a label into meaningful tokens for fuzzy matching.
func tokenize(label string) tokenSet {
	set := tokenSet{}
	for _, tok := range tokenSplit.Split(strings.ToLower(label), -1) {
		if tok == "" {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		set[tok] = struct{}{}
	}
	return set
}

// fuzzyScore is the Jaccard overlap between two token sets.
func fuzzyScore(a, b tokenSet) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	intersection := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

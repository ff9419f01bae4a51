// Package spreader normalizes raw financial line-item labels onto a
// canonical taxonomy and partitions them into standardized statements.
// All matching is deterministic; no model calls happen here.
package spreader

import (
	"math"
	"strings"
)

// Match methods, in descending trust order.
const (
	MatchExact   = "exact"
	MatchPrefix  = "prefix"
	MatchXBRLTag = "xbrl_tag"
	MatchFuzzy   = "fuzzy"
	MatchNone    = "none"
)

// fuzzyThreshold is the minimum token-overlap score for a fuzzy match.
// Conservative on purpose: a wrong mapping poisons validation arithmetic,
// a missed one just lands in the unmapped bucket.
const fuzzyThreshold = 0.6

// Mapper resolves raw labels against a taxonomy.
type Mapper struct {
	tax *Taxonomy
}

// NewMapper builds a Mapper over a loaded taxonomy.
func NewMapper(tax *Taxonomy) *Mapper {
	return &Mapper{tax: tax}
}

// MapLabel maps a raw label (free text or XBRL element name) to its
// canonical key. Tiers run in strict priority order, first match wins:
// XBRL tag, exact, prefix, fuzzy. On no match the canonical key is ""
// with statement "unknown", method "none", confidence 0.
func (m *Mapper) MapLabel(label string) (canonical, statementType, method string, confidence float64) {
	// 1. XBRL element name, optional namespace prefix stripped
	// (e.g. "us-gaap:Revenues" -> "Revenues").
	tagName := strings.TrimSpace(label)
	if idx := strings.Index(tagName, ":"); idx >= 0 {
		tagName = tagName[idx+1:]
	}
	if entry, ok := m.tax.xbrlTags[tagName]; ok {
		return entry.Key, entry.Statement, MatchXBRLTag, 1.0
	}

	normalized := normalizeLabel(label)

	// 2. Exact match, income -> balance -> cash flow precedence.
	for _, mapping := range m.tax.mappings {
		if value, ok := mapping.values[normalized]; ok {
			return value, mapping.statement, MatchExact, 1.0
		}
	}

	// 3. Prefix match. First key hit wins, in taxonomy file order,
	// deliberately not longest-key-wins.
	for _, mapping := range m.tax.mappings {
		for _, key := range mapping.keys {
			if strings.HasPrefix(normalized, key) {
				return mapping.values[key], mapping.statement, MatchPrefix, 0.9
			}
		}
	}

	// 4. Fuzzy token overlap across all three mappings.
	labelTokens := tokenize(normalized)
	bestScore := 0.0
	bestValue := ""
	bestStatement := ""
	for _, mapping := range m.tax.mappings {
		for _, key := range mapping.keys {
			score := fuzzyScore(labelTokens, mapping.tokens[key])
			if score > bestScore {
				bestScore = score
				bestValue = mapping.values[key]
				bestStatement = mapping.statement
			}
		}
	}
	if bestScore >= fuzzyThreshold && bestValue != "" {
		return bestValue, bestStatement, MatchFuzzy, round2(bestScore)
	}

	return "", StatementUnknown, MatchNone, 0.0
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

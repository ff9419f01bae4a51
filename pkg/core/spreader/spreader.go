package spreader

import (
	"fmt"
	"strings"
)

// NormalizedLineItem is one mapped statement row. Immutable once built.
type NormalizedLineItem struct {
	OriginalLabel  string              `json:"original_label"`
	CanonicalLabel string              `json:"standardized_label"`
	Values         map[string]*float64 `json:"values"`
	StatementType  string              `json:"statement_type"`
	Confidence     float64             `json:"confidence"`
	MatchMethod    string              `json:"match_method"`
}

// UnmappedItem is a label no taxonomy tier could place.
type UnmappedItem struct {
	Label      string              `json:"label"`
	Values     map[string]*float64 `json:"values"`
	Suggestion string              `json:"suggestion"`
}

// SpreadResult partitions every input label into exactly one statement
// list or the unmapped bucket. MappingStats counts sum to the number of
// non-blank input labels.
type SpreadResult struct {
	IncomeStatement []NormalizedLineItem `json:"income_statement"`
	BalanceSheet    []NormalizedLineItem `json:"balance_sheet"`
	CashFlow        []NormalizedLineItem `json:"cash_flow"`
	UnmappedItems   []UnmappedItem       `json:"unmapped_items"`
	Periods         []string             `json:"periods"`
	MappingStats    map[string]int       `json:"mapping_stats"`
}

const unmappedSuggestion = "Review manually or add to mapping"

// Spreader applies the label mapper across a whole extracted table set.
type Spreader struct {
	mapper *Mapper
}

// NewSpreader builds a Spreader over a taxonomy.
func NewSpreader(tax *Taxonomy) *Spreader {
	return &Spreader{mapper: NewMapper(tax)}
}

// Mapper exposes the underlying label mapper.
func (s *Spreader) Mapper() *Mapper {
	return s.mapper
}

// Spread normalizes labels and their per-period values into standardized
// statements. periods fixes the period order; valuesByPeriod holds one
// value slice per period, aligned with labels by index. Blank labels are
// skipped entirely; out-of-range positions are omitted for that period.
func (s *Spreader) Spread(labels []string, periods []string, valuesByPeriod map[string][]*float64) *SpreadResult {
	result := &SpreadResult{
		Periods: append([]string(nil), periods...),
		MappingStats: map[string]int{
			MatchExact: 0, MatchPrefix: 0, MatchXBRLTag: 0, MatchFuzzy: 0, "unmapped": 0,
		},
	}

	for i, label := range labels {
		if strings.TrimSpace(label) == "" {
			continue
		}

		canonical, statementType, method, confidence := s.mapper.MapLabel(label)

		itemValues := map[string]*float64{}
		for _, period := range periods {
			values, ok := valuesByPeriod[period]
			if !ok || i >= len(values) {
				continue
			}
			itemValues[period] = values[i]
		}

		if canonical == "" {
			result.UnmappedItems = append(result.UnmappedItems, UnmappedItem{
				Label:      label,
				Values:     itemValues,
				Suggestion: unmappedSuggestion,
			})
			result.MappingStats["unmapped"]++
			continue
		}

		item := NormalizedLineItem{
			OriginalLabel:  label,
			CanonicalLabel: canonical,
			Values:         itemValues,
			StatementType:  statementType,
			Confidence:     confidence,
			MatchMethod:    method,
		}
		switch statementType {
		case StatementIncome:
			result.IncomeStatement = append(result.IncomeStatement, item)
		case StatementBalance:
			result.BalanceSheet = append(result.BalanceSheet, item)
		case StatementCashFlow:
			result.CashFlow = append(result.CashFlow, item)
		}
		result.MappingStats[method]++
	}

	mapped := len(result.IncomeStatement) + len(result.BalanceSheet) + len(result.CashFlow)
	fmt.Printf("[SPREADER] Spreading complete: mapped=%d unmapped=%d periods=%v stats=%v\n",
		mapped, len(result.UnmappedItems), result.Periods, result.MappingStats)

	return result
}

// StatementsByLabel flattens a SpreadResult into the canonical form the
// validation engine and metric calculator consume:
// canonical_label -> {period -> value}. Later items win on collision,
// matching the statement append order.
func (r *SpreadResult) StatementsByLabel() map[string]map[string]*float64 {
	statements := map[string]map[string]*float64{}
	for _, list := range [][]NormalizedLineItem{r.IncomeStatement, r.BalanceSheet, r.CashFlow} {
		for _, item := range list {
			statements[item.CanonicalLabel] = item.Values
		}
	}
	return statements
}

// Package validation cross-checks normalized financial statements.
// All checks are deterministic arithmetic over the canonical statements
// map; findings surface as severity-tagged flags and a quality score,
// never as errors.
package validation

import (
	"fmt"
	"math"
)

// Tolerance for float comparison: 0.5% of the reference value, floored
// at an absolute 1.0 for small figures.
const (
	tolerancePercent  = 0.005
	toleranceAbsolute = 1.0
)

// Flag severities.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Statements is the canonical form consumed by validation and metrics:
// canonical_label -> {period -> value}.
type Statements = map[string]map[string]*float64

// Flag is a single validation finding.
type Flag struct {
	Severity string                 `json:"severity"`
	Check    string                 `json:"check"`
	Message  string                 `json:"message"`
	Details  map[string]interface{} `json:"details,omitempty"`
}

// Result is the complete validation outcome for an extraction.
// The statement booleans are three-valued: nil means no period carried
// enough data to judge.
type Result struct {
	BalanceSheetBalanced     *bool   `json:"balance_sheet_balanced"`
	IncomeStatementValid     *bool   `json:"income_statement_valid"`
	CashFlowReconciled       *bool   `json:"cash_flow_reconciled"`
	CrossStatementConsistent *bool   `json:"cross_statement_consistent"`
	ItemsFlaggedForReview    int     `json:"items_flagged_for_review"`
	QualityScore             float64 `json:"quality_score"`
	Flags                    []Flag  `json:"flags"`
}

// valuesMatch compares within relative-or-absolute tolerance. reference
// overrides the default max(|a|,|b|,1) scale, e.g. a reported total.
func valuesMatch(a, b *float64, reference float64) bool {
	if a == nil || b == nil {
		return false
	}
	diff := math.Abs(*a - *b)

	ref := reference
	if ref == 0 {
		ref = math.Max(math.Abs(*a), math.Max(math.Abs(*b), 1.0))
	}
	return diff <= math.Max(ref*tolerancePercent, toleranceAbsolute)
}

func get(statements Statements, label, period string) *float64 {
	if values, ok := statements[label]; ok {
		return values[period]
	}
	return nil
}

// checkBalanceSheet verifies Total Assets = Total Liabilities + Total
// Equity per period. Returns nil when no period had complete data.
func checkBalanceSheet(statements Statements, periods []string) (*bool, []Flag) {
	var flags []Flag
	allBalanced := true
	checked := false

	for _, period := range periods {
		assets := get(statements, "total_assets", period)
		liabilities := get(statements, "total_liabilities", period)
		equity := get(statements, "total_equity", period)

		if assets == nil {
			flags = append(flags, Flag{
				Severity: SeverityWarning, Check: "balance_sheet",
				Message: fmt.Sprintf("Total Assets missing for %s", period),
			})
			continue
		}
		if liabilities == nil || equity == nil {
			flags = append(flags, Flag{
				Severity: SeverityWarning, Check: "balance_sheet",
				Message: fmt.Sprintf("Liabilities or Equity missing for %s", period),
			})
			continue
		}

		checked = true
		expected := *liabilities + *equity
		diff := math.Abs(*assets - expected)
		if valuesMatch(assets, &expected, *assets) {
			flags = append(flags, Flag{
				Severity: SeverityInfo, Check: "balance_sheet",
				Message: fmt.Sprintf("Balance sheet balanced for %s", period),
				Details: map[string]interface{}{"diff": diff},
			})
		} else {
			allBalanced = false
			flags = append(flags, Flag{
				Severity: SeverityError, Check: "balance_sheet",
				Message: fmt.Sprintf(
					"Balance sheet NOT balanced for %s: Assets (%.0f) != Liabilities (%.0f) + Equity (%.0f) = %.0f",
					period, *assets, *liabilities, *equity, expected),
				Details: map[string]interface{}{
					"assets": *assets, "liabilities": *liabilities,
					"equity": *equity, "diff": diff,
				},
			})
		}
	}

	if !checked {
		return nil, flags
	}
	return &allBalanced, flags
}

// checkIncomeStatement verifies Gross Profit = Revenue - COGS per period.
// Periods missing any input are skipped without a flag; mismatches are
// warnings, not errors (gross profit definitions vary by filer).
func checkIncomeStatement(statements Statements, periods []string) (*bool, []Flag) {
	var flags []Flag
	allValid := true
	checked := false

	for _, period := range periods {
		revenue := get(statements, "total_revenue", period)
		cogs := get(statements, "cost_of_revenue", period)
		grossProfit := get(statements, "gross_profit", period)

		if revenue == nil || cogs == nil || grossProfit == nil {
			continue
		}

		checked = true
		expected := *revenue - *cogs
		if !valuesMatch(grossProfit, &expected, *revenue) {
			allValid = false
			flags = append(flags, Flag{
				Severity: SeverityWarning, Check: "income_statement",
				Message: fmt.Sprintf(
					"Gross Profit mismatch for %s: reported %.0f vs calculated %.0f",
					period, *grossProfit, expected),
			})
		}
	}

	if !checked {
		return nil, flags
	}
	return &allValid, flags
}

// checkCashFlow verifies Net Change = Operating + Investing + Financing
// per period. Incomplete periods are skipped silently.
func checkCashFlow(statements Statements, periods []string) (*bool, []Flag) {
	var flags []Flag
	allValid := true
	checked := false

	for _, period := range periods {
		operating := get(statements, "operating_cash_flow", period)
		investing := get(statements, "investing_cash_flow", period)
		financing := get(statements, "financing_cash_flow", period)
		netChange := get(statements, "net_change_in_cash", period)

		if operating == nil || investing == nil || financing == nil || netChange == nil {
			continue
		}

		checked = true
		expected := *operating + *investing + *financing
		ref := math.Abs(*operating)
		if ref == 0 {
			ref = 1
		}
		if !valuesMatch(netChange, &expected, ref) {
			allValid = false
			flags = append(flags, Flag{
				Severity: SeverityWarning, Check: "cash_flow",
				Message: fmt.Sprintf(
					"Cash flow mismatch for %s: reported net change %.0f vs calculated %.0f",
					period, *netChange, expected),
			})
		}
	}

	if !checked {
		return nil, flags
	}
	return &allValid, flags
}

// qualityScore derives the 0-100 composite score from flags and data
// completeness. Errors cost 15, warnings 5; an unresolved statement
// check costs 10/5/3 for balance sheet / income statement / cash flow.
func qualityScore(r *Result) float64 {
	score := 100.0

	for _, flag := range r.Flags {
		switch flag.Severity {
		case SeverityError:
			score -= 15
		case SeverityWarning:
			score -= 5
		}
	}

	if r.BalanceSheetBalanced == nil {
		score -= 10
	}
	if r.IncomeStatementValid == nil {
		score -= 5
	}
	if r.CashFlowReconciled == nil {
		score -= 3
	}

	return math.Max(0.0, math.Min(100.0, score))
}

// Validate runs every check over the canonical statements map. Flags
// accumulate in check order: balance sheet, income statement, cash flow.
func Validate(statements Statements, periods []string) *Result {
	result := &Result{}

	var flags []Flag
	result.BalanceSheetBalanced, flags = checkBalanceSheet(statements, periods)
	result.Flags = append(result.Flags, flags...)

	result.IncomeStatementValid, flags = checkIncomeStatement(statements, periods)
	result.Flags = append(result.Flags, flags...)

	result.CashFlowReconciled, flags = checkCashFlow(statements, periods)
	result.Flags = append(result.Flags, flags...)

	// Cross-statement consistency (e.g. net income agreeing between the
	// income statement and the cash flow statement) is not implemented
	// yet; reported true until it is.
	consistent := true
	result.CrossStatementConsistent = &consistent

	for _, flag := range result.Flags {
		if flag.Severity == SeverityError || flag.Severity == SeverityWarning {
			result.ItemsFlaggedForReview++
		}
	}
	result.QualityScore = qualityScore(result)

	errors, warnings := 0, 0
	for _, flag := range result.Flags {
		switch flag.Severity {
		case SeverityError:
			errors++
		case SeverityWarning:
			warnings++
		}
	}
	fmt.Printf("[VALIDATION] Complete: quality_score=%.1f flags=%d errors=%d warnings=%d\n",
		result.QualityScore, len(result.Flags), errors, warnings)

	return result
}

// Package metrics derives standard financial ratios from normalized
// statement data. Every ratio is optional: a missing input or a zero
// denominator yields an absent entry rather than a zero.
package metrics

import (
	"fmt"
	"math"
)

// Statements mirrors the validation input shape:
// canonical_label -> {period -> value}.
type Statements = map[string]map[string]*float64

// SafeDivide returns a/b, or nil when either input is missing or the
// denominator is zero.
func SafeDivide(a, b *float64) *float64 {
	if a == nil || b == nil || *b == 0 {
		return nil
	}
	v := *a / *b
	return &v
}

// SafeSubtract returns a-b, or nil when either input is missing.
func SafeSubtract(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	v := *a - *b
	return &v
}

func round4(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := math.Round(*v*10000) / 10000
	return &r
}

func get(statements Statements, label, period string) *float64 {
	if values, ok := statements[label]; ok {
		return values[period]
	}
	return nil
}

func getOrZero(statements Statements, label, period string) *float64 {
	if v := get(statements, label, period); v != nil {
		return v
	}
	zero := 0.0
	return &zero
}

// periodMetrics computes the ratio set for one period. Absent inputs
// simply leave the ratio out of the map.
func periodMetrics(statements Statements, period string) map[string]*float64 {
	out := map[string]*float64{}
	put := func(name string, v *float64) {
		if v = round4(v); v != nil {
			out[name] = v
		}
	}

	revenue := get(statements, "total_revenue", period)
	grossProfit := get(statements, "gross_profit", period)
	opIncome := get(statements, "operating_income", period)
	netIncome := get(statements, "net_income", period)

	put("gross_margin", SafeDivide(grossProfit, revenue))
	put("operating_margin", SafeDivide(opIncome, revenue))
	put("net_margin", SafeDivide(netIncome, revenue))

	// A reported EBITDA figure wins; the approximation from operating
	// income plus D&A applies only when both of those are present.
	ebitda := get(statements, "ebitda", period)
	if ebitda == nil && opIncome != nil {
		if da := get(statements, "depreciation_amortization", period); da != nil {
			v := *opIncome + math.Abs(*da)
			ebitda = &v
		}
	}
	put("ebitda_margin", SafeDivide(ebitda, revenue))

	assets := get(statements, "total_assets", period)
	liabilities := get(statements, "total_liabilities", period)
	equity := get(statements, "total_equity", period)
	currentAssets := get(statements, "total_current_assets", period)
	currentLiabilities := get(statements, "total_current_liabilities", period)

	put("current_ratio", SafeDivide(currentAssets, currentLiabilities))

	// Quick ratio needs current assets; inventories default to zero
	// when unreported.
	if currentAssets != nil {
		inventories := getOrZero(statements, "inventories", period)
		quick := *currentAssets - *inventories
		put("quick_ratio", SafeDivide(&quick, currentLiabilities))
	}

	put("debt_to_equity", SafeDivide(liabilities, equity))
	put("debt_to_assets", SafeDivide(liabilities, assets))
	put("return_on_assets", SafeDivide(netIncome, assets))
	put("return_on_equity", SafeDivide(netIncome, equity))

	if interest := get(statements, "interest_expense", period); interest != nil && opIncome != nil {
		abs := math.Abs(*interest)
		put("interest_coverage", SafeDivide(opIncome, &abs))
	}

	return out
}

// growthLabels maps each growth metric to the statement line it tracks.
var growthLabels = map[string]string{
	"revenue_growth":      "total_revenue",
	"net_income_growth":   "net_income",
	"operating_cf_growth": "operating_cash_flow",
}

// growthMetrics computes period-over-period growth rates between
// adjacent periods in the given order, keyed by metric name with the
// growth attributed to the later period. The first period never
// carries growth entries.
func growthMetrics(statements Statements, periods []string) map[string]map[string]*float64 {
	out := map[string]map[string]*float64{}

	for i := 1; i < len(periods); i++ {
		prev, curr := periods[i-1], periods[i]
		for name, label := range growthLabels {
			prevVal := get(statements, label, prev)
			currVal := get(statements, label, curr)
			v := round4(SafeDivide(SafeSubtract(currVal, prevVal), prevVal))
			if v == nil {
				continue
			}
			if out[name] == nil {
				out[name] = map[string]*float64{}
			}
			out[name][curr] = v
		}
	}

	return out
}

// Calculate produces the full metric set keyed by metric name, each
// holding its per-period values. Growth rates merge in under their own
// metric names.
func Calculate(statements Statements, periods []string) map[string]map[string]*float64 {
	out := map[string]map[string]*float64{}

	for _, period := range periods {
		for name, v := range periodMetrics(statements, period) {
			if out[name] == nil {
				out[name] = map[string]*float64{}
			}
			out[name][period] = v
		}
	}

	for name, values := range growthMetrics(statements, periods) {
		out[name] = values
	}

	total := 0
	for _, values := range out {
		total += len(values)
	}
	fmt.Printf("[METRICS] Calculated %d metrics across %d periods\n", total, len(periods))

	return out
}

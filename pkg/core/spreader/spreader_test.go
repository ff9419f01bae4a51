package spreader

import (
	"reflect"
	"testing"
)

func fp(v float64) *float64 { return &v }

func sampleInput() ([]string, []string, map[string][]*float64) {
	labels := []string{
		"Revenue",
		"Cost of Goods Sold",
		"Gross Profit",
		"", // blank rows are dropped by upstream table noise
		"Total Assets",
		"us-gaap:CashAndCashEquivalentsAtCarryingValue",
		"Capital Expenditures",
		"Segment Operating Margin",
	}
	periods := []string{"FY2023", "FY2024"}
	values := map[string][]*float64{
		"FY2023": {fp(1000000), fp(600000), fp(400000), nil, fp(500000), fp(80000), fp(-45000), fp(0.21)},
		"FY2024": {fp(1200000), fp(700000), fp(500000), nil, fp(600000), fp(95000), fp(-52000), fp(0.24)},
	}
	return labels, periods, values
}

func TestSpread_Partitioning(t *testing.T) {
	s := NewSpreader(DefaultTaxonomy())
	labels, periods, values := sampleInput()

	result := s.Spread(labels, periods, values)

	if got := len(result.IncomeStatement); got != 3 {
		t.Errorf("income statement items = %d, want 3", got)
	}
	if got := len(result.BalanceSheet); got != 2 {
		t.Errorf("balance sheet items = %d, want 2", got)
	}
	if got := len(result.CashFlow); got != 1 {
		t.Errorf("cash flow items = %d, want 1", got)
	}
	if got := len(result.UnmappedItems); got != 1 {
		t.Errorf("unmapped items = %d, want 1", got)
	}
	if result.UnmappedItems[0].Label != "Segment Operating Margin" {
		t.Errorf("unmapped label = %q", result.UnmappedItems[0].Label)
	}
	if result.UnmappedItems[0].Suggestion != "Review manually or add to mapping" {
		t.Errorf("unexpected suggestion %q", result.UnmappedItems[0].Suggestion)
	}

	if !reflect.DeepEqual(result.Periods, []string{"FY2023", "FY2024"}) {
		t.Errorf("periods = %v", result.Periods)
	}
}

// Every non-blank label lands in exactly one bucket and the histogram
// counts sum to the non-blank label count.
func TestSpread_HistogramInvariant(t *testing.T) {
	s := NewSpreader(DefaultTaxonomy())
	labels, periods, values := sampleInput()

	result := s.Spread(labels, periods, values)

	nonBlank := 0
	for _, l := range labels {
		if l != "" {
			nonBlank++
		}
	}

	sum := 0
	for _, count := range result.MappingStats {
		sum += count
	}
	if sum != nonBlank {
		t.Errorf("histogram sum = %d, want %d (stats: %v)", sum, nonBlank, result.MappingStats)
	}

	placed := len(result.IncomeStatement) + len(result.BalanceSheet) +
		len(result.CashFlow) + len(result.UnmappedItems)
	if placed != nonBlank {
		t.Errorf("placed items = %d, want %d", placed, nonBlank)
	}

	if result.MappingStats[MatchXBRLTag] != 1 {
		t.Errorf("xbrl_tag count = %d, want 1", result.MappingStats[MatchXBRLTag])
	}
	if result.MappingStats["unmapped"] != 1 {
		t.Errorf("unmapped count = %d, want 1", result.MappingStats["unmapped"])
	}
}

func TestSpread_Idempotent(t *testing.T) {
	s := NewSpreader(DefaultTaxonomy())
	labels, periods, values := sampleInput()

	first := s.Spread(labels, periods, values)
	second := s.Spread(labels, periods, values)

	if !reflect.DeepEqual(first, second) {
		t.Error("Spread is not deterministic for identical inputs")
	}
}

func TestSpread_OutOfRangePositionsOmitted(t *testing.T) {
	s := NewSpreader(DefaultTaxonomy())

	labels := []string{"Revenue", "Net Income"}
	periods := []string{"FY2023", "FY2024"}
	values := map[string][]*float64{
		"FY2023": {fp(100), fp(40)},
		"FY2024": {fp(120)}, // second row missing for FY2024
	}

	result := s.Spread(labels, periods, values)

	if len(result.IncomeStatement) != 2 {
		t.Fatalf("income statement items = %d, want 2", len(result.IncomeStatement))
	}
	netIncome := result.IncomeStatement[1]
	if _, ok := netIncome.Values["FY2024"]; ok {
		t.Error("FY2024 should be omitted for out-of-range row position")
	}
	if v, ok := netIncome.Values["FY2023"]; !ok || v == nil || *v != 40 {
		t.Errorf("FY2023 value = %v", netIncome.Values["FY2023"])
	}
}

func TestStatementsByLabel(t *testing.T) {
	s := NewSpreader(DefaultTaxonomy())
	labels, periods, values := sampleInput()

	statements := s.Spread(labels, periods, values).StatementsByLabel()

	rev, ok := statements["total_revenue"]
	if !ok {
		t.Fatal("total_revenue missing from statements map")
	}
	if v := rev["FY2024"]; v == nil || *v != 1200000 {
		t.Errorf("total_revenue FY2024 = %v", v)
	}
	if _, ok := statements["capex"]; !ok {
		t.Error("capex missing from statements map")
	}
}

func TestLoadTaxonomyWithExtensions(t *testing.T) {
	ext := []byte(`{
  # site-specific label variants
  income_statement: {
    "community revenue": total_revenue
  }
  balance_sheet: {
    "tenant deposits": other_noncurrent_liabilities
  }
}`)

	tax, err := LoadTaxonomyWithExtensions(ext)
	if err != nil {
		t.Fatalf("LoadTaxonomyWithExtensions: %v", err)
	}

	m := NewMapper(tax)
	key, stmt, method, conf := m.MapLabel("Community Revenue")
	if key != "total_revenue" || stmt != StatementIncome || method != MatchExact || conf != 1.0 {
		t.Errorf("extension lookup = (%q, %q, %q, %v)", key, stmt, method, conf)
	}

	// Built-ins unaffected.
	if tax.Size() != DefaultTaxonomy().Size()+2 {
		t.Errorf("extended size = %d, base = %d", tax.Size(), DefaultTaxonomy().Size())
	}
}

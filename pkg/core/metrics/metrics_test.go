package metrics

import (
	"math"
	"testing"
)

func fp(v float64) *float64 { return &v }

func sampleStatements() Statements {
	return Statements{
		"total_revenue":             {"FY2023": fp(1000000), "FY2024": fp(1200000)},
		"cost_of_revenue":           {"FY2023": fp(600000), "FY2024": fp(700000)},
		"gross_profit":              {"FY2023": fp(400000), "FY2024": fp(500000)},
		"operating_income":          {"FY2023": fp(150000), "FY2024": fp(200000)},
		"net_income":                {"FY2023": fp(100000), "FY2024": fp(140000)},
		"depreciation_amortization": {"FY2024": fp(-30000)},
		"interest_expense":          {"FY2024": fp(-20000)},
		"total_assets":              {"FY2024": fp(2000000)},
		"total_liabilities":         {"FY2024": fp(1200000)},
		"total_equity":              {"FY2024": fp(800000)},
		"total_current_assets":      {"FY2024": fp(600000)},
		"total_current_liabilities": {"FY2024": fp(300000)},
		"inventories":               {"FY2024": fp(90000)},
		"operating_cash_flow":       {"FY2023": fp(120000), "FY2024": fp(180000)},
	}
}

func checkMetric(t *testing.T, result map[string]map[string]*float64, name, period string, want float64) {
	t.Helper()
	values, ok := result[name]
	if !ok {
		t.Fatalf("metric %s missing", name)
	}
	got := values[period]
	if got == nil {
		t.Fatalf("metric %s has no value for %s", name, period)
	}
	if math.Abs(*got-want) > 1e-9 {
		t.Errorf("%s[%s] = %v, want %v", name, period, *got, want)
	}
}

func TestCalculate_Ratios(t *testing.T) {
	result := Calculate(sampleStatements(), []string{"FY2023", "FY2024"})

	checkMetric(t, result, "gross_margin", "FY2024", 0.4167)
	checkMetric(t, result, "operating_margin", "FY2024", 0.1667)
	checkMetric(t, result, "net_margin", "FY2024", 0.1167)
	// (200000 + |-30000|) / 1200000
	checkMetric(t, result, "ebitda_margin", "FY2024", 0.1917)
	checkMetric(t, result, "current_ratio", "FY2024", 2.0)
	// (600000 - 90000) / 300000
	checkMetric(t, result, "quick_ratio", "FY2024", 1.7)
	checkMetric(t, result, "debt_to_equity", "FY2024", 1.5)
	checkMetric(t, result, "debt_to_assets", "FY2024", 0.6)
	checkMetric(t, result, "return_on_assets", "FY2024", 0.07)
	checkMetric(t, result, "return_on_equity", "FY2024", 0.175)
	// 200000 / |-20000|
	checkMetric(t, result, "interest_coverage", "FY2024", 10.0)
}

// Results are keyed metric name first, then period, so a single metric
// can be read across every period it was computable for.
func TestCalculate_MetricKeyedShape(t *testing.T) {
	result := Calculate(sampleStatements(), []string{"FY2023", "FY2024"})

	checkMetric(t, result, "gross_margin", "FY2023", 0.4)
	checkMetric(t, result, "gross_margin", "FY2024", 0.4167)

	// Balance sheet figures only exist for FY2024.
	if result["debt_to_assets"]["FY2023"] != nil {
		t.Error("debt_to_assets must have no FY2023 entry")
	}
	if _, ok := result["FY2024"]; ok {
		t.Error("periods must not appear as top-level keys")
	}
}

func TestCalculate_Growth(t *testing.T) {
	result := Calculate(sampleStatements(), []string{"FY2023", "FY2024"})

	checkMetric(t, result, "revenue_growth", "FY2024", 0.2)
	checkMetric(t, result, "net_income_growth", "FY2024", 0.4)
	checkMetric(t, result, "operating_cf_growth", "FY2024", 0.5)

	if result["revenue_growth"]["FY2023"] != nil {
		t.Error("first period must not carry growth metrics")
	}
}

func TestCalculate_DirectEBITDAFigure(t *testing.T) {
	statements := Statements{
		"total_revenue":    {"FY2024": fp(1000000)},
		"ebitda":           {"FY2024": fp(500000)},
		"operating_income": {"FY2024": fp(200000)},
	}
	result := Calculate(statements, []string{"FY2024"})

	// The reported figure wins over any fallback arithmetic.
	checkMetric(t, result, "ebitda_margin", "FY2024", 0.5)
}

func TestCalculate_EBITDAFallbackNeedsBothInputs(t *testing.T) {
	statements := Statements{
		"total_revenue":    {"FY2024": fp(1000000)},
		"operating_income": {"FY2024": fp(200000)},
	}
	result := Calculate(statements, []string{"FY2024"})

	// Operating income alone is not EBITDA; no D&A means no margin.
	if _, ok := result["ebitda_margin"]; ok {
		t.Error("ebitda_margin must be absent without a direct figure or D&A")
	}
}

func TestCalculate_QuickRatioSubtractsInventories(t *testing.T) {
	statements := Statements{
		"total_current_assets":      {"FY2024": fp(600000)},
		"total_current_liabilities": {"FY2024": fp(300000)},
		"inventories":               {"FY2024": fp(90000)},
	}
	result := Calculate(statements, []string{"FY2024"})

	checkMetric(t, result, "current_ratio", "FY2024", 2.0)
	checkMetric(t, result, "quick_ratio", "FY2024", 1.7)
}

func TestCalculate_MissingInputsOmitted(t *testing.T) {
	statements := Statements{
		"total_revenue": {"FY2024": fp(1000000)},
	}
	result := Calculate(statements, []string{"FY2024"})

	for _, name := range []string{"gross_margin", "net_margin", "current_ratio", "quick_ratio", "debt_to_equity", "debt_to_assets"} {
		if _, ok := result[name]; ok {
			t.Errorf("metric %s should be absent without inputs", name)
		}
	}
}

func TestSafeDivide(t *testing.T) {
	if v := SafeDivide(fp(10), fp(4)); v == nil || *v != 2.5 {
		t.Errorf("SafeDivide(10, 4) = %v, want 2.5", v)
	}
	if v := SafeDivide(fp(10), fp(0)); v != nil {
		t.Errorf("SafeDivide by zero = %v, want nil", *v)
	}
	if v := SafeDivide(nil, fp(4)); v != nil {
		t.Errorf("SafeDivide(nil, 4) = %v, want nil", *v)
	}
	if v := SafeSubtract(fp(10), nil); v != nil {
		t.Errorf("SafeSubtract(10, nil) = %v, want nil", *v)
	}
}

func TestCalculate_NegativePriorYearGrowth(t *testing.T) {
	statements := Statements{
		"net_income": {"FY2023": fp(-50000), "FY2024": fp(25000)},
	}
	result := Calculate(statements, []string{"FY2023", "FY2024"})

	// (25000 - (-50000)) / -50000 = -1.5; the sign of the prior period
	// carries through, it is not taken as an absolute value.
	checkMetric(t, result, "net_income_growth", "FY2024", -1.5)
}

func TestCalculate_ZeroPriorYearGrowthOmitted(t *testing.T) {
	statements := Statements{
		"net_income": {"FY2023": fp(0), "FY2024": fp(25000)},
	}
	result := Calculate(statements, []string{"FY2023", "FY2024"})

	if _, ok := result["net_income_growth"]; ok {
		t.Error("growth over a zero prior period must be absent")
	}
}

package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"finspread/pkg/core/agent"
	"finspread/pkg/core/spreader"
	"finspread/pkg/core/tables"
	"finspread/pkg/core/textextract"
	"finspread/pkg/models"
)

func fp(v float64) *float64 { return &v }

// fakeProgress records updates behind a mutex; the orchestrator writes
// from goroutines.
type fakeProgress struct {
	mu      sync.Mutex
	updates map[string]int
}

func newFakeProgress() *fakeProgress {
	return &fakeProgress{updates: map[string]int{}}
}

func (f *fakeProgress) UpdateProgress(ctx context.Context, documentID, stage string, progress int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates[stage] = progress
	return nil
}

func (f *fakeProgress) get(stage string) (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.updates[stage]
	return v, ok
}

type fakeText struct{}

func (fakeText) ExtractText(path string) textextract.DocumentText {
	return textextract.DocumentText{
		FilePath:   path,
		TotalPages: 1,
		Pages:      []textextract.PageText{{PageNumber: 1, Text: "Annual report fiscal 2024.", Method: "native"}},
	}
}

func fixtureTables() []tables.ExtractedTable {
	income := tables.ExtractedTable{
		TableID: 1,
		Title:   "Consolidated Statements of Income",
		Headers: []string{"Item", "FY2023", "FY2024"},
		Rows: [][]string{
			{"Total Revenue", "1,000,000", "1,200,000"},
			{"Cost of Revenue", "600,000", "700,000"},
			{"Gross Profit", "400,000", "500,000"},
			{"Net Income", "100,000", "140,000"},
		},
	}
	balance := tables.ExtractedTable{
		TableID: 2,
		Title:   "Consolidated Balance Sheets",
		Headers: []string{"Item", "FY2024"},
		Rows: [][]string{
			{"Total Assets", "500,000"},
			{"Total Liabilities", "250,000"},
			{"Total Equity", "250,000"},
		},
	}
	cash := tables.ExtractedTable{
		TableID: 3,
		Title:   "Consolidated Statements of Cash Flows",
		Headers: []string{"Item", "FY2024"},
		Rows: [][]string{
			{"Net cash provided by operating activities", "120,000"},
			{"Net cash used in investing activities", "(50,000)"},
			{"Net cash from financing activities", "(30,000)"},
			{"Net change in cash", "40,000"},
		},
	}
	income.NumericRows = tables.ParseNumericRows(income.Rows)
	balance.NumericRows = tables.ParseNumericRows(balance.Rows)
	cash.NumericRows = tables.ParseNumericRows(cash.Rows)
	return []tables.ExtractedTable{income, balance, cash}
}

func testOrchestrator(t *testing.T, progress ProgressSink) *Orchestrator {
	t.Helper()
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("DEEPSEEK_API_KEY", "")

	mgr := agent.NewManager(context.Background(), agent.Config{})
	o := NewOrchestrator(mgr, spreader.NewSpreader(spreader.DefaultTaxonomy()), progress)
	o.SetTextExtractor(fakeText{})
	o.SetTableExtractor(func(path string) tables.TableExtractionResult {
		tbls := fixtureTables()
		return tables.TableExtractionResult{FilePath: path, Tables: tbls, TotalTables: len(tbls)}
	})
	return o
}

func testDocument() *models.DocumentUpload {
	doc := models.NewDocumentUpload("filing.html", models.FileTypePDF, 1024)
	doc.StoragePath = "/tmp/filing.html"
	doc.Metadata.Currency = "USD"
	return &doc
}

func TestRun_EndToEnd(t *testing.T) {
	o := testOrchestrator(t, nil)
	doc := testDocument()

	result, status, err := o.Run(context.Background(), doc, models.AgentGeminiArchivist)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if status.Stage != StageComplete {
		t.Errorf("final stage = %s", status.Stage)
	}
	if result.SelectedAgent != models.AgentGeminiArchivist {
		t.Errorf("selected agent = %s", result.SelectedAgent)
	}
	if result.DocumentType != "Annual Report" {
		t.Errorf("document type = %q", result.DocumentType)
	}

	is := result.Statements["income_statement"]
	if len(is.LineItems) != 4 {
		t.Fatalf("income statement has %d line items, want 4", len(is.LineItems))
	}
	if is.LineItems[0].CanonicalLabel != "total_revenue" {
		t.Errorf("first income item = %q", is.LineItems[0].CanonicalLabel)
	}
	if is.LineItems[0].Currency != "USD" {
		t.Errorf("currency = %q", is.LineItems[0].Currency)
	}
	if v := is.LineItems[0].Values["FY2024"]; v == nil || *v != 1200000 {
		t.Errorf("revenue FY2024 = %v", v)
	}

	bs := result.Statements["balance_sheet"]
	if len(bs.LineItems) != 3 {
		t.Fatalf("balance sheet has %d line items, want 3", len(bs.LineItems))
	}

	// Balanced books and a reconciled cash flow.
	if result.Validation.BalanceSheetBalanced == nil || !*result.Validation.BalanceSheetBalanced {
		t.Error("balance sheet should validate as balanced")
	}
	if result.Validation.CashFlowReconciled == nil || !*result.Validation.CashFlowReconciled {
		t.Error("cash flow should reconcile")
	}
	if result.Status != models.StatusCompleted {
		t.Errorf("status = %s (quality %.1f)", result.Status, result.QualityScore)
	}

	// Metrics keyed by metric name, growth only on the later period.
	growth := result.CalculatedMetrics["revenue_growth"]
	if growth == nil || growth["FY2024"] == nil || *growth["FY2024"] != 0.2 {
		t.Errorf("revenue_growth = %v", growth)
	}
	if growth["FY2023"] != nil {
		t.Error("first period must not carry growth metrics")
	}
}

func TestRun_ProgressReported(t *testing.T) {
	progress := newFakeProgress()
	o := testOrchestrator(t, progress)

	if _, _, err := o.Run(context.Background(), testDocument(), ""); err != nil {
		t.Fatal(err)
	}

	// Progress writes are asynchronous; give them a moment to land.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if v, ok := progress.get(StageComplete); ok && v == 100 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("complete stage never reported")
		}
		time.Sleep(10 * time.Millisecond)
	}

	for stage, want := range stageProgress {
		if got, ok := progress.get(stage); !ok || got != want {
			t.Errorf("stage %s progress = %d (reported %v), want %d", stage, got, ok, want)
		}
	}
}

func TestRun_EmptyDocumentFails(t *testing.T) {
	o := testOrchestrator(t, nil)
	o.SetTextExtractor(textextract.PlainText{})
	o.SetTableExtractor(func(path string) tables.TableExtractionResult {
		return tables.TableExtractionResult{FilePath: path}
	})

	doc := testDocument()
	doc.StoragePath = "/nonexistent/void.html"
	if _, _, err := o.Run(context.Background(), doc, ""); err == nil {
		t.Fatal("expected an error for an empty document")
	}
}

func TestSelectTables(t *testing.T) {
	all := fixtureTables()

	findings := &agent.Findings{}
	findings.IncomeTableIndex = fpInt(0)
	findings.BalanceTableIndex = fpInt(1)
	selected := selectTables(all, findings)
	if len(selected) != 2 {
		t.Fatalf("selected %d tables, want 2", len(selected))
	}
	if selected[0].TableID != 1 || selected[1].TableID != 2 {
		t.Errorf("selected tables %d, %d", selected[0].TableID, selected[1].TableID)
	}

	// Out-of-range nomination falls back to everything.
	findings = &agent.Findings{IncomeTableIndex: fpInt(9)}
	if got := selectTables(all, findings); len(got) != len(all) {
		t.Errorf("out-of-range fallback selected %d tables", len(got))
	}

	// No nominations at all also falls back.
	if got := selectTables(all, &agent.Findings{}); len(got) != len(all) {
		t.Errorf("empty findings selected %d tables", len(got))
	}
}

func TestMergeTables_PeriodOrder(t *testing.T) {
	tbls := fixtureTables()
	labels, periods, valuesByPeriod := mergeTables(tbls)

	if len(labels) != 11 {
		t.Fatalf("merged %d labels, want 11", len(labels))
	}
	if len(periods) != 2 || periods[0] != "FY2023" || periods[1] != "FY2024" {
		t.Fatalf("periods = %v", periods)
	}

	// Every period slice stays aligned with labels.
	for _, period := range periods {
		if len(valuesByPeriod[period]) != len(labels) {
			t.Errorf("period %s has %d values, want %d", period, len(valuesByPeriod[period]), len(labels))
		}
	}

	// Balance sheet rows only exist for FY2024; FY2023 is nil there.
	if valuesByPeriod["FY2023"][4] != nil {
		t.Error("balance sheet rows must not carry FY2023 values")
	}
	if v := valuesByPeriod["FY2024"][4]; v == nil || *v != 500000 {
		t.Errorf("total assets FY2024 = %v", v)
	}
}

func fpInt(v int) *int { return &v }

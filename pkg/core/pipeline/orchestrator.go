// Package pipeline drives a document from raw upload to a persisted
// extraction result: text extraction, table detection, agent analysis,
// label normalization, validation and metrics, in that order. Every
// collaborator arrives by injection so stages can be swapped in tests.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"finspread/pkg/core/agent"
	"finspread/pkg/core/metrics"
	"finspread/pkg/core/spreader"
	"finspread/pkg/core/tables"
	"finspread/pkg/core/textextract"
	"finspread/pkg/core/validation"
	"finspread/pkg/models"
)

// Stage names with their progress percentages. Progress is monotone
// within one run; consumers poll it from the progress endpoint.
const (
	StageOCR           = "ocr"
	StageTables        = "tables"
	StageNER           = "ner"
	StageNormalization = "normalization"
	StageValidation    = "validation"
	StageMetrics       = "metrics"
	StageComplete      = "complete"
)

var stageProgress = map[string]int{
	StageOCR:           15,
	StageTables:        30,
	StageNER:           50,
	StageNormalization: 70,
	StageValidation:    85,
	StageMetrics:       95,
	StageComplete:      100,
}

// ProgressSink receives stage updates. Writes are fire-and-forget: a
// sink failure is logged and never stops the pipeline.
type ProgressSink interface {
	UpdateProgress(ctx context.Context, documentID, stage string, progress int) error
}

// TableExtractor is the table detection stage. The default is
// tables.ExtractTablesFromFile; tests substitute fixtures.
type TableExtractor func(path string) tables.TableExtractionResult

// Status is a snapshot of one pipeline run, kept for the audit trail.
type Status struct {
	DocumentID string                   `json:"document_id"`
	Stage      string                   `json:"stage"`
	Errors     []string                 `json:"errors"`
	StageTimes map[string]time.Duration `json:"stage_times"`
	StartedAt  time.Time                `json:"started_at"`
	FinishedAt time.Time                `json:"finished_at"`
}

// Orchestrator owns the stage sequence.
type Orchestrator struct {
	textExtractor  textextract.Extractor
	tableExtractor TableExtractor
	agents         *agent.Manager
	spreader       *spreader.Spreader
	progress       ProgressSink
}

// NewOrchestrator wires the default stages. progress may be nil when
// no store is attached (CLI runs).
func NewOrchestrator(agents *agent.Manager, spr *spreader.Spreader, progress ProgressSink) *Orchestrator {
	return &Orchestrator{
		textExtractor:  textextract.PlainText{},
		tableExtractor: tables.ExtractTablesFromFile,
		agents:         agents,
		spreader:       spr,
		progress:       progress,
	}
}

// SetTextExtractor substitutes the text extraction stage.
func (o *Orchestrator) SetTextExtractor(e textextract.Extractor) {
	o.textExtractor = e
}

// SetTableExtractor substitutes the table detection stage.
func (o *Orchestrator) SetTableExtractor(e TableExtractor) {
	o.tableExtractor = e
}

// report pushes a progress update without blocking the pipeline.
func (o *Orchestrator) report(documentID, stage string) {
	if o.progress == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := o.progress.UpdateProgress(ctx, documentID, stage, stageProgress[stage]); err != nil {
			fmt.Printf("[PIPELINE] progress write failed at %s: %v\n", stage, err)
		}
	}()
}

// Run executes the full pipeline for one uploaded document. The
// returned result is complete even when individual stages degraded;
// hard failure happens only when the document yields nothing to work
// with.
func (o *Orchestrator) Run(ctx context.Context, doc *models.DocumentUpload, requested models.AgentType) (*models.ExtractionResult, *Status, error) {
	status := &Status{
		DocumentID: doc.DocumentID,
		StageTimes: map[string]time.Duration{},
		StartedAt:  time.Now().UTC(),
	}
	fmt.Printf("[PIPELINE] Starting extraction for %s (%s)\n", doc.DocumentID, doc.Filename)

	// Stage 1: text extraction.
	stageStart := time.Now()
	o.report(doc.DocumentID, StageOCR)
	status.Stage = StageOCR
	docText := o.textExtractor.ExtractText(doc.StoragePath)
	status.Errors = append(status.Errors, docText.Errors...)
	status.StageTimes[StageOCR] = time.Since(stageStart)

	// Stage 2: table detection.
	stageStart = time.Now()
	o.report(doc.DocumentID, StageTables)
	status.Stage = StageTables
	tableResult := o.tableExtractor(doc.StoragePath)
	status.Errors = append(status.Errors, tableResult.Errors...)
	status.StageTimes[StageTables] = time.Since(stageStart)

	if len(tableResult.Tables) == 0 && docText.FullText() == "" {
		status.FinishedAt = time.Now().UTC()
		return nil, status, fmt.Errorf("document %s yielded no text and no tables", doc.DocumentID)
	}

	// Stage 3: agent analysis.
	stageStart = time.Now()
	o.report(doc.DocumentID, StageNER)
	status.Stage = StageNER
	analyzer := o.agents.Resolve(requested)
	findings, err := analyzer.Analyze(ctx, agent.AnalysisInput{
		FileName: doc.Filename,
		Text:     docText.FullText(),
		Tables:   tableResult.Tables,
	})
	if err != nil {
		status.Errors = append(status.Errors, fmt.Sprintf("agent analysis failed: %v", err))
		findings = &agent.Findings{DocumentType: string(models.DocumentTypeOther)}
	}
	status.StageTimes[StageNER] = time.Since(stageStart)

	// Stage 4: normalization.
	stageStart = time.Now()
	o.report(doc.DocumentID, StageNormalization)
	status.Stage = StageNormalization
	selected := selectTables(tableResult.Tables, findings)
	labels, periods, valuesByPeriod := mergeTables(selected)
	spread := o.spreader.Spread(labels, periods, valuesByPeriod)
	status.StageTimes[StageNormalization] = time.Since(stageStart)

	// Stage 5: validation.
	stageStart = time.Now()
	o.report(doc.DocumentID, StageValidation)
	status.Stage = StageValidation
	byLabel := spread.StatementsByLabel()
	valResult := validation.Validate(byLabel, spread.Periods)
	status.StageTimes[StageValidation] = time.Since(stageStart)

	// Stage 6: metrics.
	stageStart = time.Now()
	o.report(doc.DocumentID, StageMetrics)
	status.Stage = StageMetrics
	calculated := metrics.Calculate(byLabel, spread.Periods)
	status.StageTimes[StageMetrics] = time.Since(stageStart)

	result := assembleResult(doc, analyzer.Type(), findings, spread, valResult, calculated)

	o.report(doc.DocumentID, StageComplete)
	status.Stage = StageComplete
	status.FinishedAt = time.Now().UTC()
	fmt.Printf("[PIPELINE] Completed %s: quality=%.1f status=%s in %s\n",
		doc.DocumentID, result.QualityScore, result.Status, status.FinishedAt.Sub(status.StartedAt))

	return result, status, nil
}

// selectTables picks the statement tables the agent nominated. Any
// out-of-range suggestion invalidates the nomination set, falling back
// to every extracted table.
func selectTables(all []tables.ExtractedTable, findings *agent.Findings) []tables.ExtractedTable {
	var indices []int
	for _, idx := range []*int{findings.IncomeTableIndex, findings.BalanceTableIndex, findings.CashFlowTableIndex} {
		if idx == nil {
			continue
		}
		if *idx < 0 || *idx >= len(all) {
			return all
		}
		indices = append(indices, *idx)
	}
	if len(indices) == 0 {
		return all
	}

	seen := map[int]bool{}
	var selected []tables.ExtractedTable
	for _, idx := range indices {
		if !seen[idx] {
			seen[idx] = true
			selected = append(selected, all[idx])
		}
	}
	return selected
}

// mergeTables flattens the selected tables into the spreader's input
// shape. Column 0 is the label; remaining headers name the periods, in
// first-seen order across tables.
func mergeTables(selected []tables.ExtractedTable) (labels []string, periods []string, valuesByPeriod map[string][]*float64) {
	valuesByPeriod = map[string][]*float64{}
	seen := map[string]bool{}

	for _, table := range selected {
		if len(table.Headers) < 2 {
			continue
		}
		colPeriods := table.Headers[1:]
		for _, period := range colPeriods {
			if !seen[period] {
				seen[period] = true
				periods = append(periods, period)
				valuesByPeriod[period] = make([]*float64, len(labels))
			}
		}

		for i, row := range table.Rows {
			if len(row) == 0 {
				continue
			}
			labels = append(labels, row[0])
			for _, period := range periods {
				valuesByPeriod[period] = append(valuesByPeriod[period], nil)
			}
			pos := len(labels) - 1
			for c, period := range colPeriods {
				if i < len(table.NumericRows) && c+1 < len(table.NumericRows[i]) {
					valuesByPeriod[period][pos] = table.NumericRows[i][c+1]
				}
			}
		}
	}
	return labels, periods, valuesByPeriod
}

// Extractions below this quality score are flagged for human review.
const reviewThreshold = 60.0

func assembleResult(doc *models.DocumentUpload, agentType models.AgentType, findings *agent.Findings,
	spread *spreader.SpreadResult, valResult *validation.Result, calculated map[string]map[string]*float64) *models.ExtractionResult {

	result := models.NewExtractionResult(doc.DocumentID, agentType)
	result.DocumentType = findings.DocumentType
	result.QualityScore = valResult.QualityScore
	result.CalculatedMetrics = calculated

	currency := doc.Metadata.Currency
	result.Statements["income_statement"] = toStatement(spread.IncomeStatement, spread.Periods, currency)
	result.Statements["balance_sheet"] = toStatement(spread.BalanceSheet, spread.Periods, currency)
	result.Statements["cash_flow_statement"] = toStatement(spread.CashFlow, spread.Periods, currency)

	var flags []string
	for _, flag := range valResult.Flags {
		flags = append(flags, fmt.Sprintf("%s: %s", flag.Severity, flag.Message))
	}
	result.Validation = models.ValidationSummary{
		BalanceSheetBalanced:     valResult.BalanceSheetBalanced,
		IncomeStatementValid:     valResult.IncomeStatementValid,
		CashFlowReconciled:       valResult.CashFlowReconciled,
		CrossStatementConsistent: valResult.CrossStatementConsistent,
		ItemsFlaggedForReview:    valResult.ItemsFlaggedForReview,
		Flags:                    flags,
	}

	if result.QualityScore < reviewThreshold {
		result.Status = models.StatusNeedsReview
	} else {
		result.Status = models.StatusCompleted
	}
	return &result
}

func toStatement(items []spreader.NormalizedLineItem, periods []string, currency string) models.FinancialStatement {
	statement := models.FinancialStatement{Periods: append([]string(nil), periods...)}
	for _, item := range items {
		statement.LineItems = append(statement.LineItems, models.LineItem{
			Label:          item.OriginalLabel,
			CanonicalLabel: item.CanonicalLabel,
			Values:         item.Values,
			Currency:       currency,
			Confidence:     item.Confidence,
			MatchMethod:    item.MatchMethod,
		})
	}
	return statement
}

// Package agent routes document analysis to specialist model agents.
// Each agent classifies the document and nominates which extracted
// tables hold the three core statements; the pipeline merges from
// there. Agents degrade to deterministic heuristics when their model
// backend is unreachable, so the pipeline never blocks on an API key.
package agent

import (
	"context"
	"strings"

	"finspread/pkg/core/tables"
	"finspread/pkg/models"
)

// AnalysisInput is what an agent gets to look at: the document text
// (possibly truncated) and the tables already extracted from it.
type AnalysisInput struct {
	FileName string
	Text     string
	Tables   []tables.ExtractedTable
}

// Findings is an agent's verdict on a document. Table indices are
// positions in AnalysisInput.Tables; nil means the agent made no call
// for that statement.
type Findings struct {
	DocumentType       string  `json:"document_type"`
	IncomeTableIndex   *int    `json:"income_table_index"`
	BalanceTableIndex  *int    `json:"balance_table_index"`
	CashFlowTableIndex *int    `json:"cash_flow_table_index"`
	Confidence         float64 `json:"confidence"`
	Notes              string  `json:"notes,omitempty"`
}

// Analyzer is the strategy interface every agent implements.
type Analyzer interface {
	Type() models.AgentType
	Analyze(ctx context.Context, input AnalysisInput) (*Findings, error)
}

func intPtr(v int) *int { return &v }

// defaultTableHints assigns the first three tables to income, balance
// and cash flow in document order. Financial filings overwhelmingly
// present the statements in that sequence.
func defaultTableHints(f *Findings, tableCount int) {
	if tableCount > 0 {
		f.IncomeTableIndex = intPtr(0)
	}
	if tableCount > 1 {
		f.BalanceTableIndex = intPtr(1)
	}
	if tableCount > 2 {
		f.CashFlowTableIndex = intPtr(2)
	}
}

// classifyTableHints refines the defaults using table titles when the
// extractor captured any.
func classifyTableHints(f *Findings, tbls []tables.ExtractedTable) {
	defaultTableHints(f, len(tbls))
	for i, table := range tbls {
		title := strings.ToLower(table.Title)
		switch {
		case strings.Contains(title, "income") || strings.Contains(title, "operations"):
			f.IncomeTableIndex = intPtr(i)
		case strings.Contains(title, "balance") || strings.Contains(title, "financial position"):
			f.BalanceTableIndex = intPtr(i)
		case strings.Contains(title, "cash flow"):
			f.CashFlowTableIndex = intPtr(i)
		}
	}
}

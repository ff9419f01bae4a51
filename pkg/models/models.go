package models

import (
	"time"

	"github.com/google/uuid"
)

// FileType identifies the uploaded document format.
type FileType string

const (
	FileTypePDF   FileType = "pdf"
	FileTypeDOCX  FileType = "docx"
	FileTypeXLSX  FileType = "xlsx"
	FileTypeCSV   FileType = "csv"
	FileTypeImage FileType = "image"
)

// DocumentType is the document-level classification produced by the
// routing agent (e.g. "10-K", "annual_report").
type DocumentType string

const (
	DocumentType10K                DocumentType = "10-K"
	DocumentType10Q                DocumentType = "10-Q"
	DocumentTypeAnnualReport       DocumentType = "annual_report"
	DocumentTypeRentRoll           DocumentType = "rent_roll"
	DocumentTypeOfferingMemo       DocumentType = "offering_memorandum"
	DocumentTypeTermSheet          DocumentType = "term_sheet"
	DocumentTypeContract           DocumentType = "contract"
	DocumentTypeFinancialStatement DocumentType = "financial_statement"
	DocumentTypeOther              DocumentType = "other"
)

// AgentType is the closed set of routing/NER agents.
type AgentType string

const (
	AgentClaudeSpecialist AgentType = "claude_specialist" // Anthropic (precision)
	AgentGeminiArchivist  AgentType = "gemini_archivist"  // Google (volume/context)
	AgentDeepSeekMath     AgentType = "deepseek_math"     // DeepSeek (reasoning)
	AgentGPTProphet       AgentType = "gpt_prophet"       // OpenAI (predictive)
)

// AllAgentTypes lists every supported agent in display order.
var AllAgentTypes = []AgentType{
	AgentClaudeSpecialist,
	AgentGeminiArchivist,
	AgentDeepSeekMath,
	AgentGPTProphet,
}

// Valid reports whether t is one of the known agent types.
func (t AgentType) Valid() bool {
	switch t {
	case AgentClaudeSpecialist, AgentGeminiArchivist, AgentDeepSeekMath, AgentGPTProphet:
		return true
	}
	return false
}

// ProcessingStatus tracks a document through the pipeline.
type ProcessingStatus string

const (
	StatusPending     ProcessingStatus = "pending"
	StatusProcessing  ProcessingStatus = "processing"
	StatusCompleted   ProcessingStatus = "completed"
	StatusFailed      ProcessingStatus = "failed"
	StatusNeedsReview ProcessingStatus = "needs_review"
)

// DocumentMetadata is optional caller-supplied context for an upload.
type DocumentMetadata struct {
	CompanyName  string `json:"company_name,omitempty"`
	FiscalPeriod string `json:"fiscal_period,omitempty"`
	Currency     string `json:"currency,omitempty"`
	Language     string `json:"language,omitempty"`
}

// DocumentUpload is the stored record for an uploaded document.
type DocumentUpload struct {
	DocumentID     string           `json:"document_id"`
	UploadedBy     string           `json:"uploaded_by"`
	OrganizationID string           `json:"organization_id"`
	Filename       string           `json:"filename"`
	FileType       FileType         `json:"file_type"`
	FileSizeBytes  int64            `json:"file_size_bytes"`
	StoragePath    string           `json:"storage_path"`
	UploadedAt     time.Time        `json:"upload_timestamp"`
	DocumentType   DocumentType     `json:"document_type,omitempty"`
	Metadata       DocumentMetadata `json:"metadata"`
	Status         ProcessingStatus `json:"status"`
}

// NewDocumentUpload builds a record with a fresh ID and pending status.
func NewDocumentUpload(filename string, fileType FileType, sizeBytes int64) DocumentUpload {
	return DocumentUpload{
		DocumentID:    uuid.NewString(),
		Filename:      filename,
		FileType:      fileType,
		FileSizeBytes: sizeBytes,
		UploadedAt:    time.Now().UTC(),
		Metadata:      DocumentMetadata{Language: "en"},
		Status:        StatusPending,
	}
}

// LineItem is a single normalized statement row in the final result.
type LineItem struct {
	Label          string              `json:"label"`
	CanonicalLabel string              `json:"standardized_label"`
	Values         map[string]*float64 `json:"values"`
	Currency       string              `json:"currency"`
	Confidence     float64             `json:"confidence"`
	MatchMethod    string              `json:"match_method"`
	SourcePage     int                 `json:"source_page,omitempty"`
}

// FinancialStatement groups the line items of one statement category.
type FinancialStatement struct {
	Periods   []string   `json:"periods"`
	LineItems []LineItem `json:"line_items"`
}

// ValidationSummary is the persisted slice of the validation result.
type ValidationSummary struct {
	BalanceSheetBalanced     *bool    `json:"balance_sheet_balanced"`
	IncomeStatementValid     *bool    `json:"income_statement_valid"`
	CashFlowReconciled       *bool    `json:"cash_flow_reconciled"`
	CrossStatementConsistent *bool    `json:"cross_statement_consistent"`
	ItemsFlaggedForReview    int      `json:"items_flagged_for_review"`
	Flags                    []string `json:"flags"`
}

// ExtractionResult is the complete persisted extraction output.
type ExtractionResult struct {
	ExtractionID      string                         `json:"extraction_id"`
	DocumentID        string                         `json:"document_id"`
	Timestamp         time.Time                      `json:"extraction_timestamp"`
	DocumentType      string                         `json:"document_type_detected,omitempty"`
	SelectedAgent     AgentType                      `json:"selected_agent"`
	QualityScore      float64                        `json:"quality_score"`
	Statements        map[string]FinancialStatement  `json:"statements"`
	CalculatedMetrics map[string]map[string]*float64 `json:"calculated_metrics"`
	Validation        ValidationSummary              `json:"validation"`
	Status            ProcessingStatus               `json:"status"`
}

// NewExtractionResult builds an empty result shell for a document.
func NewExtractionResult(documentID string, agent AgentType) ExtractionResult {
	return ExtractionResult{
		ExtractionID:  uuid.NewString(),
		DocumentID:    documentID,
		Timestamp:     time.Now().UTC(),
		SelectedAgent: agent,
		Statements: map[string]FinancialStatement{
			"income_statement":    {},
			"balance_sheet":       {},
			"cash_flow_statement": {},
		},
		CalculatedMetrics: map[string]map[string]*float64{},
		Status:            StatusPending,
	}
}

package agent

import (
	"context"
	"fmt"
	"os"

	"finspread/pkg/core/llm"
	"finspread/pkg/core/utils"
	"finspread/pkg/models"
)

const claudeSystemPrompt = `You are a financial document analysis specialist.
Given the text of a financial document and a numbered list of tables found in it,
respond with a JSON object of this exact shape and nothing else:
{
  "document_type": "<10-K | 10-Q | Annual Report | Financial Statement | Other>",
  "income_table_index": <zero-based index of the income statement table, or null>,
  "balance_table_index": <zero-based index of the balance sheet table, or null>,
  "cash_flow_table_index": <zero-based index of the cash flow statement table, or null>,
  "confidence": <0.0 to 1.0>,
  "notes": "<one short sentence>"
}`

// ClaudeSpecialist analyzes documents through the Anthropic API. When
// no usable key is configured, or the call or parse fails, it answers
// with the title heuristic instead of erroring, so the pipeline keeps
// moving.
type ClaudeSpecialist struct {
	Provider llm.Provider
	Model    string
}

func NewClaudeSpecialist(model string) *ClaudeSpecialist {
	return &ClaudeSpecialist{
		Provider: &llm.AnthropicProvider{Model: model},
		Model:    model,
	}
}

func (a *ClaudeSpecialist) Type() models.AgentType {
	return models.AgentClaudeSpecialist
}

func (a *ClaudeSpecialist) Analyze(ctx context.Context, input AnalysisInput) (*Findings, error) {
	key := os.Getenv("ANTHROPIC_API_KEY")
	if key == "" || key == "dummy" {
		return a.heuristic(input), nil
	}

	findings, err := a.analyzeWithModel(ctx, input)
	if err != nil {
		fmt.Printf("[AGENT] claude_specialist model call failed, using heuristic: %v\n", err)
		return a.heuristic(input), nil
	}
	return findings, nil
}

func (a *ClaudeSpecialist) analyzeWithModel(ctx context.Context, input AnalysisInput) (*Findings, error) {
	prompt := buildAnalysisPrompt(input)

	raw, err := a.Provider.GenerateResponse(ctx, prompt, claudeSystemPrompt, nil)
	if err != nil {
		return nil, err
	}

	var findings Findings
	if err := utils.ParseModelJSON(raw, &findings); err != nil {
		return nil, err
	}
	if findings.DocumentType == "" {
		return nil, fmt.Errorf("model returned no document_type")
	}
	return &findings, nil
}

func (a *ClaudeSpecialist) heuristic(input AnalysisInput) *Findings {
	findings := &Findings{
		DocumentType: "Financial Statement",
		Confidence:   0.5,
		Notes:        "heuristic fallback, no model available",
	}
	classifyTableHints(findings, input.Tables)
	return findings
}

// buildAnalysisPrompt renders the document and its table inventory for
// the model. Text is capped so one oversized filing cannot blow the
// context window.
func buildAnalysisPrompt(input AnalysisInput) string {
	text := input.Text
	if len(text) > 20000 {
		text = text[:20000] + "...(truncated)"
	}

	prompt := fmt.Sprintf("Document: %s\n\nTables found:\n", input.FileName)
	for i, table := range input.Tables {
		title := table.Title
		if title == "" {
			title = "(untitled)"
		}
		firstLabel := ""
		if len(table.Rows) > 0 && len(table.Rows[0]) > 0 {
			firstLabel = table.Rows[0][0]
		}
		prompt += fmt.Sprintf("  [%d] %s, %d rows, first row label: %q\n", i, title, len(table.Rows), firstLabel)
	}
	prompt += "\nDocument text:\n" + text
	return prompt
}

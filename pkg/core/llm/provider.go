// Package llm holds the model provider abstraction used by the
// document analysis agents. Providers share one call shape so agents
// can be re-pointed at a different model through configuration alone.
package llm

import (
	"context"
)

// Provider is the interface all model backends implement.
type Provider interface {
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
	// AdaptInstructions transforms raw instructions into model-specific formats
	AdaptInstructions(rawInstructions string) string
}

// OpenAIProvider backs the gpt_prophet agent. The real API integration
// is pending an account with sufficient quota; until then the agent
// falls back to its heuristic path.
type OpenAIProvider struct{}

func (p *OpenAIProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	return "Not implemented: OpenAI Response", nil
}

func (p *OpenAIProvider) AdaptInstructions(raw string) string {
	return "OpenAI Style: " + raw
}

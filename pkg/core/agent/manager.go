package agent

import (
	"context"
	"fmt"
	"os"

	"finspread/pkg/models"

	yaml "gopkg.in/yaml.v2"
)

// Config selects which agent analyzes uploads and carries per-agent
// model overrides. Loaded from config/agents.yaml.
type Config struct {
	ActiveAgent string                 `yaml:"active_agent"`
	Agents      map[string]AgentConfig `yaml:"agents"`
}

type AgentConfig struct {
	Model       string `yaml:"model"`
	Description string `yaml:"description"`
}

// LoadConfig reads an agents.yaml. A missing file is not an error;
// the zero Config falls back to the Claude specialist.
func LoadConfig(path string) (Config, error) {
	var config Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, fmt.Errorf("failed to read agent config: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse agent config: %w", err)
	}
	return config, nil
}

func (c Config) modelFor(agentType models.AgentType) string {
	if agentConfig, ok := c.Agents[string(agentType)]; ok {
		return agentConfig.Model
	}
	return ""
}

// Manager owns the analyzer registry and dispatches documents to the
// configured agent.
type Manager struct {
	config    Config
	analyzers map[models.AgentType]Analyzer
}

func NewManager(ctx context.Context, config Config) *Manager {
	return &Manager{
		config: config,
		analyzers: map[models.AgentType]Analyzer{
			models.AgentClaudeSpecialist: NewClaudeSpecialist(config.modelFor(models.AgentClaudeSpecialist)),
			models.AgentGeminiArchivist:  NewGeminiArchivist(ctx, config.modelFor(models.AgentGeminiArchivist)),
			models.AgentDeepSeekMath:     NewDeepSeekMath(),
			models.AgentGPTProphet:       NewGPTProphet(),
		},
	}
}

// Get returns the analyzer for an agent type, or nil if unknown.
func (m *Manager) Get(agentType models.AgentType) Analyzer {
	return m.analyzers[agentType]
}

// Resolve picks the analyzer for a request: the explicitly requested
// agent, then the configured active agent, then the Claude specialist.
func (m *Manager) Resolve(requested models.AgentType) Analyzer {
	if requested != "" {
		if analyzer, ok := m.analyzers[requested]; ok {
			return analyzer
		}
	}
	if analyzer, ok := m.analyzers[models.AgentType(m.config.ActiveAgent)]; ok {
		return analyzer
	}
	return m.analyzers[models.AgentClaudeSpecialist]
}

// Catalog describes the registered agents for the API layer.
func (m *Manager) Catalog() []map[string]string {
	var out []map[string]string
	for _, agentType := range models.AllAgentTypes {
		entry := map[string]string{"type": string(agentType)}
		if agentConfig, ok := m.config.Agents[string(agentType)]; ok {
			entry["description"] = agentConfig.Description
			entry["model"] = agentConfig.Model
		}
		out = append(out, entry)
	}
	return out
}

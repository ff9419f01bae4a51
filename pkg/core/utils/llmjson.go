// Package utils carries small helpers for taming LLM output before it
// enters the typed pipeline.
package utils

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// StripCodeFence removes an outer markdown code block from model
// output. Models frequently wrap JSON answers in ```json fences even
// when told not to.
func StripCodeFence(input string) string {
	cleaned := strings.TrimSpace(input)

	for _, fence := range []string{"```json", "```markdown", "```"} {
		if strings.HasPrefix(cleaned, fence) && strings.HasSuffix(cleaned, "```") {
			cleaned = strings.TrimPrefix(cleaned, fence)
			cleaned = strings.TrimSuffix(cleaned, "```")
			return strings.TrimSpace(cleaned)
		}
	}
	return cleaned
}

// RepairJSON fixes common JSON defects in model output: single quotes,
// unquoted keys, trailing commas, unclosed brackets.
func RepairJSON(malformed string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformed)
	if err != nil {
		return "", fmt.Errorf("JSON_REPAIR_FAILED: %v", err)
	}
	return repaired, nil
}

// ParseModelJSON unmarshals model output into schema, escalating
// through increasingly lenient parsers: strict JSON, then repaired
// JSON, then Hjson. The code fence strip runs first.
func ParseModelJSON(input string, schema interface{}) error {
	input = StripCodeFence(input)

	if err := json.Unmarshal([]byte(input), schema); err == nil {
		return nil
	}

	if repaired, err := RepairJSON(input); err == nil {
		if err := json.Unmarshal([]byte(repaired), schema); err == nil {
			return nil
		}
	}

	if err := hjson.Unmarshal([]byte(input), schema); err == nil {
		return nil
	}

	return fmt.Errorf("MODEL_JSON_PARSE_FAILED: no parsing strategy accepted the output")
}

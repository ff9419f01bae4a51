package utils

import "testing"

type findingsPayload struct {
	DocumentType string  `json:"document_type"`
	Confidence   float64 `json:"confidence"`
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"```json\n{\"a\": 1}\n```", "{\"a\": 1}"},
		{"```\nplain\n```", "plain"},
		{"no fence", "no fence"},
	}
	for _, tt := range tests {
		if got := StripCodeFence(tt.input); got != tt.want {
			t.Errorf("StripCodeFence(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParseModelJSON_Strict(t *testing.T) {
	var payload findingsPayload
	if err := ParseModelJSON(`{"document_type": "10-K", "confidence": 0.9}`, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.DocumentType != "10-K" || payload.Confidence != 0.9 {
		t.Errorf("parsed %+v", payload)
	}
}

func TestParseModelJSON_Repair(t *testing.T) {
	var payload findingsPayload
	// Single quotes and trailing comma, wrapped in a fence.
	input := "```json\n{'document_type': 'Annual Report', 'confidence': 0.8,}\n```"
	if err := ParseModelJSON(input, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.DocumentType != "Annual Report" {
		t.Errorf("document_type = %q", payload.DocumentType)
	}
}

func TestParseModelJSON_Garbage(t *testing.T) {
	var payload findingsPayload
	if err := ParseModelJSON("I could not determine the document type.", &payload); err == nil {
		t.Error("expected an error for non-JSON output")
	}
}

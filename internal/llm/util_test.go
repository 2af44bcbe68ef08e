package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"json code block", "```json\n{\"answer\": \"Yes\"}\n```", `{"answer": "Yes"}`},
		{"generic code block", "```\n{\"answer\": \"Yes\"}\n```", `{"answer": "Yes"}`},
		{"plain JSON", `{"answer": "Yes"}`, `{"answer": "Yes"}`},
		{"preamble", "Here is the answer:\n{\"answer\": \"No\"}", `{"answer": "No"}`},
		{"trailing text", "{\"answer\": \"5\"}\n\nHope this helps!", `{"answer": "5"}`},
		{"array", "Items: [\"a\", \"b\"]", `["a", "b"]`},
		{"no JSON", "I cannot answer that", "I cannot answer that"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"nested", `x {"a": {"b": 1}} y`, `{"a": {"b": 1}}`},
		{"braces in strings", `{"answer": "use } and {"}`, `{"answer": "use } and {"}`},
		{"escaped quotes", `{"m": "He said \"hi\" }"}`, `{"m": "He said \"hi\" }"}`},
		{"unbalanced", `{"a": 1`, ""},
		{"none", "plain", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractJSONObject(tt.input))
		})
	}
}

package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestGenerateStudyYAML_BasicDraft(t *testing.T) {
	draft := &StudyDraft{
		Category:      "wireless headphones",
		Brands:        []string{"Acme", "Globex", "Initech"},
		MarketContext: "mid-range consumer market",
		ResearchAreas: []string{"pricing", "reliability"},
		Iterations:    25,
		Language:      "English",
	}

	result, err := GenerateStudyYAML(draft, "study-123")
	require.NoError(t, err)

	assert.Contains(t, result, "id: study-123")
	assert.Contains(t, result, `category: "wireless headphones"`)
	assert.Contains(t, result, `- "Acme"`)
	assert.Contains(t, result, `- "Globex"`)
	assert.Contains(t, result, `market_context: "mid-range consumer market"`)
	assert.Contains(t, result, `- "pricing"`)
	assert.Contains(t, result, "iterations: 25")
	assert.Contains(t, result, `language: "English"`)
}

func TestGenerateStudyYAML_IsValidYAML(t *testing.T) {
	draft := &StudyDraft{
		Category:   `headphones with "quotes"`,
		Brands:     []string{"Acme"},
		Iterations: 10,
		Language:   "English",
	}

	result, err := GenerateStudyYAML(draft, "study-1")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(result), &doc))
	assert.Equal(t, "study-1", doc["id"])

	setup, ok := doc["setup"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, `headphones with "quotes"`, setup["category"])
	assert.Equal(t, 10, setup["iterations"])
}

func TestGenerateStudyYAML_OmitsEmptyOptionals(t *testing.T) {
	draft := &StudyDraft{
		Category:   "laptops",
		Brands:     []string{"Acme", "Globex"},
		Iterations: 10,
		Language:   "English",
	}

	result, err := GenerateStudyYAML(draft, "study-1")
	require.NoError(t, err)

	assert.NotContains(t, result, "market_context")
	assert.NotContains(t, result, "research_areas")
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty", "", nil},
		{"single", "hello", []string{"hello"}},
		{"multiple", "a, b, c", []string{"a", "b", "c"}},
		{"with blanks", "a,, b, ,c", []string{"a", "b", "c"}},
		{"whitespace only", "  ,  ,  ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := splitAndTrim(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

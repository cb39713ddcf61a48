package agent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		result Result
	}{
		{
			name: "code review",
			result: NewCodeReview([]Finding{
				{Severity: SeverityError, Category: "Security", Message: "bad", File: "a.go", Line: 3},
				{Severity: SeverityInfo, Category: "Naming", Message: "meh"},
			}),
		},
		{
			name: "analysis",
			result: NewAnalysis("looks fine", []Detail{
				{Key: "files", Value: "2"},
				{Key: "agent", Value: "review"},
			}),
		},
		{
			name: "suggestions",
			result: NewSuggestions([]Suggestion{
				{Title: "extract helper", Description: "shared logic", CodeChange: "func helper() {}"},
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.result)
			require.NoError(t, err)

			decoded, err := DecodeResult(data)
			require.NoError(t, err)
			assert.Equal(t, tt.result, decoded)
		})
	}
}

func TestResultValidate(t *testing.T) {
	valid := NewAnalysis("ok", nil)
	assert.NoError(t, valid.Validate())

	mismatched := Result{Kind: ResultCodeReview, Analysis: &AnalysisResult{Summary: "x"}}
	assert.Error(t, mismatched.Validate())

	doubled := Result{
		Kind:       ResultAnalysis,
		Analysis:   &AnalysisResult{Summary: "x"},
		CodeReview: &CodeReviewResult{},
	}
	assert.Error(t, doubled.Validate())

	unknown := Result{Kind: "mystery"}
	assert.Error(t, unknown.Validate())
}

func TestDecodeResultRejectsGarbage(t *testing.T) {
	_, err := DecodeResult([]byte(`{"kind":"analysis"}`))
	assert.Error(t, err)

	_, err = DecodeResult([]byte(`not json`))
	assert.Error(t, err)
}

func TestResultSummary(t *testing.T) {
	review := NewCodeReview([]Finding{
		{Severity: SeverityError},
		{Severity: SeverityWarning},
		{Severity: SeverityInfo},
	})
	assert.Contains(t, review.Summary(), "3 findings")
	assert.Contains(t, review.Summary(), "1 errors")

	analysis := NewAnalysis("all clear", nil)
	assert.Equal(t, "analysis: all clear", analysis.Summary())

	suggestions := NewSuggestions([]Suggestion{{Title: "a"}, {Title: "b"}})
	assert.Contains(t, suggestions.Summary(), "2 items")
}

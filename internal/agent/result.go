package agent

import (
	"encoding/json"
	"fmt"
)

// Severity levels for findings.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Finding is a single code review observation.
type Finding struct {
	Severity Severity `json:"severity"`
	Category string   `json:"category"`
	Message  string   `json:"message"`
	File     string   `json:"file,omitempty"`
	Line     int      `json:"line,omitempty"`
}

// Suggestion is a proposed improvement.
type Suggestion struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CodeChange  string `json:"codeChange,omitempty"`
}

// Detail is one ordered key/value pair in an analysis result.
type Detail struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ResultKind discriminates the result union.
type ResultKind string

const (
	ResultCodeReview  ResultKind = "code_review"
	ResultAnalysis    ResultKind = "analysis"
	ResultSuggestions ResultKind = "suggestions"
)

// CodeReviewResult holds ordered review findings.
type CodeReviewResult struct {
	Findings []Finding `json:"findings"`
}

// AnalysisResult holds a summary plus ordered detail pairs.
type AnalysisResult struct {
	Summary string   `json:"summary"`
	Details []Detail `json:"details,omitempty"`
}

// SuggestionsResult holds ordered improvement suggestions.
type SuggestionsResult struct {
	Items []Suggestion `json:"items"`
}

// Result is the tagged union produced by one agent execution. Exactly one
// variant field is set, matching Kind. Results are immutable once produced;
// orchestration combines them into new values, never merges in place.
type Result struct {
	Kind        ResultKind         `json:"kind"`
	CodeReview  *CodeReviewResult  `json:"codeReview,omitempty"`
	Analysis    *AnalysisResult    `json:"analysis,omitempty"`
	Suggestions *SuggestionsResult `json:"suggestions,omitempty"`
}

// NewCodeReview builds a code review result.
func NewCodeReview(findings []Finding) Result {
	return Result{Kind: ResultCodeReview, CodeReview: &CodeReviewResult{Findings: findings}}
}

// NewAnalysis builds an analysis result.
func NewAnalysis(summary string, details []Detail) Result {
	return Result{Kind: ResultAnalysis, Analysis: &AnalysisResult{Summary: summary, Details: details}}
}

// NewSuggestions builds a suggestions result.
func NewSuggestions(items []Suggestion) Result {
	return Result{Kind: ResultSuggestions, Suggestions: &SuggestionsResult{Items: items}}
}

// Validate checks that exactly the variant named by Kind is populated.
func (r Result) Validate() error {
	switch r.Kind {
	case ResultCodeReview:
		if r.CodeReview == nil || r.Analysis != nil || r.Suggestions != nil {
			return fmt.Errorf("result kind %q does not match populated variant", r.Kind)
		}
	case ResultAnalysis:
		if r.Analysis == nil || r.CodeReview != nil || r.Suggestions != nil {
			return fmt.Errorf("result kind %q does not match populated variant", r.Kind)
		}
	case ResultSuggestions:
		if r.Suggestions == nil || r.CodeReview != nil || r.Analysis != nil {
			return fmt.Errorf("result kind %q does not match populated variant", r.Kind)
		}
	default:
		return fmt.Errorf("unknown result kind %q", r.Kind)
	}
	return nil
}

// Summary returns a one-line description of the result, used when a
// sequential orchestration passes one subtask's outcome into the next
// subtask's context.
func (r Result) Summary() string {
	switch r.Kind {
	case ResultCodeReview:
		errs, warns, infos := 0, 0, 0
		for _, f := range r.CodeReview.Findings {
			switch f.Severity {
			case SeverityError:
				errs++
			case SeverityWarning:
				warns++
			default:
				infos++
			}
		}
		return fmt.Sprintf("code review: %d findings (%d errors, %d warnings, %d info)",
			len(r.CodeReview.Findings), errs, warns, infos)
	case ResultAnalysis:
		return "analysis: " + r.Analysis.Summary
	case ResultSuggestions:
		return fmt.Sprintf("suggestions: %d items", len(r.Suggestions.Items))
	}
	return "unknown result"
}

// DecodeResult unmarshals a result and checks the variant invariant.
func DecodeResult(data []byte) (Result, error) {
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return Result{}, fmt.Errorf("decode result: %w", err)
	}
	if err := r.Validate(); err != nil {
		return Result{}, err
	}
	return r, nil
}

package agent

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/agentmux/agentmux/internal/permission"
)

// ReviewAgent analyzes code for quality, maintainability, and best
// practices: long functions, magic numbers, error-handling smells, naming,
// and duplicated lines.
type ReviewAgent struct {
	perms permission.AgentPermissions
}

// NewReviewAgent creates a review agent with read-only permissions.
func NewReviewAgent() *ReviewAgent {
	return &ReviewAgent{
		perms: permission.AgentPermissions{
			FileAccess:    permission.ReadOnly,
			MaxIterations: 5,
		},
	}
}

func (a *ReviewAgent) Identity() Identity {
	return Identity{
		ID:          "review",
		Name:        "Code Review Agent",
		Description: "Performs comprehensive code review focusing on quality, maintainability, and best practices",
		SystemPrompt: "You are an expert code reviewer with deep knowledge of software engineering " +
			"best practices. Analyze code for quality, maintainability, design patterns, " +
			"and potential improvements. Focus on actionable feedback with clear explanations.",
	}
}

var reviewKeywords = []string{"review", "check", "analyze", "quality", "lint"}

func (a *ReviewAgent) CanHandle(ctx TaskContext) ActivationScore {
	score := KeywordScore(ctx.UserIntent, reviewKeywords, 0.25)
	score += FileTypeScore(ctx.FilePaths, []string{"go", "rs", "py", "js", "ts", "java", "c", "cpp"}, 0.1)
	score += GitScore(ctx.Git, 0.1)
	return NewScore(score)
}

func (a *ReviewAgent) Permissions() permission.AgentPermissions {
	return a.perms
}

func (a *ReviewAgent) Execute(ctx context.Context, task Task, tk Toolkit) (Result, error) {
	var findings []Finding

	for _, path := range task.Context.FilePaths {
		if isBinaryFile(path) {
			continue
		}

		content, ok := task.Context.FileContents[path]
		if !ok {
			var err error
			content, err = tk.ReadFile(ctx, path)
			if err != nil {
				if IsBudgetExhausted(err) {
					return Result{}, err
				}
				// Unreadable files are skipped, not fatal: review covers
				// whatever the permission policy exposes.
				continue
			}
		}

		findings = append(findings, a.reviewContent(content, path)...)
	}

	return NewCodeReview(findings), nil
}

// reviewContent applies all heuristic checks to one file.
func (a *ReviewAgent) reviewContent(content, path string) []Finding {
	var findings []Finding
	findings = append(findings, checkLongFunctions(content, path)...)
	findings = append(findings, checkMagicNumbers(content, path)...)
	findings = append(findings, checkErrorHandling(content, path)...)
	findings = append(findings, checkNaming(content, path)...)
	findings = append(findings, checkDuplication(content, path)...)
	return findings
}

const maxFunctionLines = 50

// checkLongFunctions flags function bodies longer than maxFunctionLines.
// Brace counting is a heuristic; it covers Go, Rust, and C-family sources.
func checkLongFunctions(content, path string) []Finding {
	var findings []Finding
	lines := strings.Split(content, "\n")

	inFunction := false
	functionStart := 0
	braceDepth := 0

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if !inFunction && isFunctionStart(trimmed) {
			inFunction = true
			functionStart = i
			braceDepth = 0
		}

		if inFunction {
			braceDepth += strings.Count(trimmed, "{") - strings.Count(trimmed, "}")
			if braceDepth == 0 && strings.Contains(trimmed, "}") {
				length := i - functionStart + 1
				if length > maxFunctionLines {
					findings = append(findings, Finding{
						Severity: SeverityWarning,
						Category: "Code Quality",
						Message:  fmt.Sprintf("Function is %d lines long. Consider breaking it into smaller functions", length),
						File:     path,
						Line:     functionStart + 1,
					})
				}
				inFunction = false
			}
		}
	}

	return findings
}

func isFunctionStart(line string) bool {
	prefixes := []string{"func ", "fn ", "pub fn ", "async fn ", "function ", "def "}
	for _, p := range prefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// checkMagicNumbers flags bare numeric literals outside constant declarations.
func checkMagicNumbers(content, path string) []Finding {
	var findings []Finding

	for i, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if isComment(trimmed) {
			continue
		}
		if strings.Contains(trimmed, "const") || strings.Contains(trimmed, "static") {
			continue
		}
		if strings.Contains(trimmed, "= 2") || strings.Contains(trimmed, "= 3") ||
			strings.Contains(trimmed, ">= 10") || strings.Contains(trimmed, "< 100") {
			findings = append(findings, Finding{
				Severity: SeverityInfo,
				Category: "Maintainability",
				Message:  "Consider extracting magic number into a named constant",
				File:     path,
				Line:     i + 1,
			})
		}
	}

	return findings
}

// checkErrorHandling flags panics, unwraps, and discarded errors.
func checkErrorHandling(content, path string) []Finding {
	var findings []Finding

	for i, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if isComment(trimmed) {
			continue
		}

		if strings.Contains(trimmed, "panic(") || strings.Contains(trimmed, "panic!(") {
			findings = append(findings, Finding{
				Severity: SeverityError,
				Category: "Error Handling",
				Message:  "Avoid panics in library code. Return an error instead",
				File:     path,
				Line:     i + 1,
			})
		}

		if strings.Contains(trimmed, ".unwrap()") {
			findings = append(findings, Finding{
				Severity: SeverityWarning,
				Category: "Error Handling",
				Message:  "Avoid .unwrap(). Propagate the error to the caller",
				File:     path,
				Line:     i + 1,
			})
		}

		if strings.HasPrefix(trimmed, "_ = ") || strings.Contains(trimmed, ", _ = ") {
			findings = append(findings, Finding{
				Severity: SeverityInfo,
				Category: "Error Handling",
				Message:  "Discarded return value may hide an error",
				File:     path,
				Line:     i + 1,
			})
		}
	}

	return findings
}

// checkNaming flags single-letter variable names outside the common set.
func checkNaming(content, path string) []Finding {
	var findings []Finding
	allowed := map[string]bool{"i": true, "j": true, "k": true, "x": true, "y": true, "n": true}

	for i, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		for _, decl := range []string{"var ", "let "} {
			idx := strings.Index(trimmed, decl)
			if idx < 0 {
				continue
			}
			rest := trimmed[idx+len(decl):]
			end := strings.IndexAny(rest, " \t=:")
			if end != 1 {
				continue
			}
			name := rest[:1]
			if !allowed[name] {
				findings = append(findings, Finding{
					Severity: SeverityInfo,
					Category: "Naming",
					Message:  fmt.Sprintf("Variable %q has a single-letter name. Consider a more descriptive name", name),
					File:     path,
					Line:     i + 1,
				})
			}
		}
	}

	return findings
}

// checkDuplication flags non-trivial lines repeated three or more times.
func checkDuplication(content, path string) []Finding {
	var findings []Finding
	occurrences := make(map[string][]int)
	order := []string{}

	for i, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isComment(trimmed) {
			continue
		}
		if _, seen := occurrences[trimmed]; !seen {
			order = append(order, trimmed)
		}
		occurrences[trimmed] = append(occurrences[trimmed], i+1)
	}

	for _, line := range order {
		hits := occurrences[line]
		if len(hits) >= 3 && len(line) > 20 {
			findings = append(findings, Finding{
				Severity: SeverityInfo,
				Category: "Duplication",
				Message:  fmt.Sprintf("Line appears %d times. Consider extracting into a function or constant", len(hits)),
				File:     path,
				Line:     hits[0],
			})
		}
	}

	return findings
}

func isComment(line string) bool {
	return strings.HasPrefix(line, "//") || strings.HasPrefix(line, "#") ||
		strings.HasPrefix(line, "/*") || strings.HasPrefix(line, "*")
}

// isBinaryFile checks if a file is likely binary based on extension.
func isBinaryFile(path string) bool {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "exe", "dll", "so", "dylib", "bin", "jpg", "jpeg", "png", "gif", "pdf", "zip", "tar", "gz":
		return true
	}
	return false
}

package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/agentmux/agentmux/internal/permission"
)

// vulnPattern is one compiled vulnerability signature.
type vulnPattern struct {
	name        string
	pattern     *regexp.Regexp
	severity    Severity
	cwe         string
	description string
	remediation string
}

var vulnPatterns = []vulnPattern{
	{
		name:        "SQL Injection",
		pattern:     regexp.MustCompile(`(?i)(SELECT|INSERT|UPDATE|DELETE).*['"].*\+|execute\(|query.*=.*['"].*\+|WHERE.*=.*['"].*\+`),
		severity:    SeverityError,
		cwe:         "CWE-89",
		description: "Potential SQL injection. String concatenation in SQL queries can allow attackers to inject malicious SQL.",
		remediation: "Use parameterized queries or prepared statements instead of string concatenation.",
	},
	{
		name:        "Cross-Site Scripting (XSS)",
		pattern:     regexp.MustCompile(`(?i)(innerHTML|outerHTML|document\.write|eval)\s*=.*\+|dangerouslySetInnerHTML`),
		severity:    SeverityError,
		cwe:         "CWE-79",
		description: "Potential XSS. Unescaped user input in HTML context can allow script injection.",
		remediation: "Sanitize and escape all user input before inserting into HTML. Use framework-provided safe methods.",
	},
	{
		name:        "Weak Cryptography (MD5)",
		pattern:     regexp.MustCompile(`(?i)md5\s*\(|crypto/md5|hashlib\.md5`),
		severity:    SeverityWarning,
		cwe:         "CWE-327",
		description: "MD5 is cryptographically broken and must not be used for security purposes.",
		remediation: "Use SHA-256 or SHA-3 for hashing. For passwords, use bcrypt, scrypt, or Argon2.",
	},
	{
		name:        "Weak Cryptography (SHA1)",
		pattern:     regexp.MustCompile(`(?i)sha1\s*\(|crypto/sha1|hashlib\.sha1`),
		severity:    SeverityWarning,
		cwe:         "CWE-327",
		description: "SHA1 is deprecated and vulnerable to collision attacks.",
		remediation: "Use SHA-256 or SHA-3 instead.",
	},
	{
		name:        "Hardcoded Secret",
		pattern:     regexp.MustCompile(`(?i)(password|secret|api_key|apikey|private_key|token)\s*=\s*["'][^"']{8,}["']`),
		severity:    SeverityError,
		cwe:         "CWE-798",
		description: "Hardcoded credentials or secrets detected in source code.",
		remediation: "Store secrets in environment variables or secure vaults. Never commit secrets to version control.",
	},
	{
		name:        "Insecure Deserialization",
		pattern:     regexp.MustCompile(`(?i)pickle\.loads|yaml\.load\(|unserialize|ObjectInputStream`),
		severity:    SeverityError,
		cwe:         "CWE-502",
		description: "Insecure deserialization can lead to remote code execution.",
		remediation: "Use safe deserialization methods (yaml.safe_load) or validate input thoroughly.",
	},
	{
		name:        "Command Injection",
		pattern:     regexp.MustCompile("(?i)(os\\.system|subprocess\\.call|shell_exec|system)\\s*\\([^)]*\\+|`.*\\$"),
		severity:    SeverityError,
		cwe:         "CWE-78",
		description: "Potential command injection. User input in shell commands allows arbitrary command execution.",
		remediation: "Avoid shell interpolation. Use argument arrays and validate input.",
	},
	{
		name:        "Path Traversal",
		pattern:     regexp.MustCompile(`(?i)(open|readFile|read_file|fopen)\s*\([^)]*\+|join.*\.\.`),
		severity:    SeverityWarning,
		cwe:         "CWE-22",
		description: "Potential path traversal. User-controlled file paths may access unauthorized files.",
		remediation: "Validate and sanitize file paths. Resolve them and check against allowed directories.",
	},
	{
		name:        "Server-Side Request Forgery (SSRF)",
		pattern:     regexp.MustCompile(`(?i)(requests\.get|urllib\.request|fetch|http\.Get)\s*\([^)]*\+`),
		severity:    SeverityWarning,
		cwe:         "CWE-918",
		description: "Potential SSRF. User-controlled URLs in HTTP requests may reach internal resources.",
		remediation: "Validate and whitelist allowed URLs. Never trust user input for URL construction.",
	},
}

// SecurityAgent scans code for common vulnerability signatures: injection,
// XSS, weak crypto, hardcoded secrets, insecure deserialization, path
// traversal, and SSRF.
type SecurityAgent struct {
	perms permission.AgentPermissions
}

// NewSecurityAgent creates a security agent with read-only permissions.
func NewSecurityAgent() *SecurityAgent {
	return &SecurityAgent{
		perms: permission.AgentPermissions{
			FileAccess:    permission.ReadOnly,
			MaxIterations: 10,
		},
	}
}

func (a *SecurityAgent) Identity() Identity {
	return Identity{
		ID:          "security",
		Name:        "Security Analysis Agent",
		Description: "Scans code for security vulnerabilities including SQL injection, XSS, weak crypto, hardcoded secrets, and more",
		SystemPrompt: "You are a security analyst specializing in static vulnerability detection. " +
			"Examine code for injection flaws, weak cryptography, secret leakage, and unsafe " +
			"input handling. Report findings with severity, CWE references, and remediation steps.",
	}
}

var securityKeywords = []string{
	"security", "vulnerability", "vulnerabilities", "audit",
	"secure", "exploit", "cve", "sql injection", "xss",
}

func (a *SecurityAgent) CanHandle(ctx TaskContext) ActivationScore {
	// Security keywords carry a higher weight than general review terms.
	score := KeywordScore(ctx.UserIntent, securityKeywords, 0.3)
	score += FileTypeScore(ctx.FilePaths, []string{"go", "rs", "py", "js", "ts", "java", "php", "rb"}, 0.1)
	return NewScore(score)
}

func (a *SecurityAgent) Permissions() permission.AgentPermissions {
	return a.perms
}

func (a *SecurityAgent) Execute(ctx context.Context, task Task, tk Toolkit) (Result, error) {
	var findings []Finding

	for _, path := range task.Context.FilePaths {
		if !isCodeFile(path) {
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
				continue
			}
		}

		findings = append(findings, scanContent(content, path)...)
	}

	return NewCodeReview(findings), nil
}

// scanContent matches every vulnerability pattern against each line.
func scanContent(content, path string) []Finding {
	var findings []Finding

	for i, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if isComment(trimmed) {
			continue
		}

		for _, p := range vulnPatterns {
			if p.pattern.MatchString(line) {
				findings = append(findings, Finding{
					Severity: p.severity,
					Category: "Security - " + p.name,
					Message:  fmt.Sprintf("%s\n\nRemediation: %s\n\nReference: %s", p.description, p.remediation, p.cwe),
					File:     path,
					Line:     i + 1,
				})
			}
		}
	}

	return findings
}

// isCodeFile checks if a file is worth scanning based on extension.
func isCodeFile(path string) bool {
	switch {
	case strings.HasSuffix(path, ".go"), strings.HasSuffix(path, ".rs"),
		strings.HasSuffix(path, ".py"), strings.HasSuffix(path, ".js"),
		strings.HasSuffix(path, ".ts"), strings.HasSuffix(path, ".java"),
		strings.HasSuffix(path, ".php"), strings.HasSuffix(path, ".rb"),
		strings.HasSuffix(path, ".c"), strings.HasSuffix(path, ".cpp"),
		strings.HasSuffix(path, ".sh"):
		return true
	}
	return false
}

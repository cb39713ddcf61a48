// Package permission provides the declarative capability model attached to agents.
package permission

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FileAccessMode controls what file operations an agent may perform.
type FileAccessMode string

const (
	// NoAccess forbids all file operations.
	NoAccess FileAccessMode = "none"
	// ReadOnly permits reads that pass the pattern gates.
	ReadOnly FileAccessMode = "read"
	// ReadWrite permits reads and writes that pass the pattern gates.
	ReadWrite FileAccessMode = "read_write"
)

// AgentPermissions declares what an agent is allowed to do. It is attached
// to an agent at construction and treated as immutable policy for the
// agent's lifetime. Enforcement happens at the toolkit boundary; agent
// implementations honoring their own permissions is defense in depth only.
type AgentPermissions struct {
	FileAccess     FileAccessMode `json:"fileAccess" yaml:"file_access"`
	AllowPatterns  []string       `json:"allowPatterns,omitempty" yaml:"allow_patterns"`
	DenyPatterns   []string       `json:"denyPatterns,omitempty" yaml:"deny_patterns"`
	ShellExecution bool           `json:"shellExecution" yaml:"shell_execution"`
	NetworkAccess  bool           `json:"networkAccess" yaml:"network_access"`
	AllowedTools   []string       `json:"allowedTools,omitempty" yaml:"allowed_tools"`
	MaxIterations  int            `json:"maxIterations" yaml:"max_iterations"`
	CanDelegate    bool           `json:"canDelegate" yaml:"can_delegate"`
}

// Default returns the most restrictive useful permission set.
func Default() AgentPermissions {
	return AgentPermissions{
		FileAccess:    NoAccess,
		MaxIterations: 5,
	}
}

// CanReadFile reports whether the agent may read the given path.
// Deny patterns are checked before allow patterns. An empty allow list
// permits any path not denied.
func (p AgentPermissions) CanReadFile(path string) bool {
	if p.FileAccess != ReadOnly && p.FileAccess != ReadWrite {
		return false
	}
	return p.pathPermitted(path)
}

// CanWriteFile reports whether the agent may write the given path.
func (p AgentPermissions) CanWriteFile(path string) bool {
	if p.FileAccess != ReadWrite {
		return false
	}
	return p.pathPermitted(path)
}

func (p AgentPermissions) pathPermitted(path string) bool {
	for _, pattern := range p.DenyPatterns {
		if matchPath(pattern, path) {
			return false
		}
	}
	if len(p.AllowPatterns) == 0 {
		return true
	}
	for _, pattern := range p.AllowPatterns {
		if matchPath(pattern, path) {
			return true
		}
	}
	return false
}

// ToolAllowed reports whether the named external tool is on the allow-list.
// The list supports wildcard entries the same way tool maps do elsewhere.
func (p AgentPermissions) ToolAllowed(name string) bool {
	for _, entry := range p.AllowedTools {
		if entry == name || matchWildcard(entry, name) {
			return true
		}
	}
	return false
}

// Intersect returns the effective permissions for work delegated under a
// ceiling: the result never grants anything either side withholds.
//
// Pattern gates cannot be intersected symbolically, so the rules are
// conservative: deny lists are unioned, an empty (allow-all) list defers to
// the other side, and two non-empty allow lists keep only their common
// entries. If that leaves no common allow entry, file access collapses to
// NoAccess rather than guessing.
func (p AgentPermissions) Intersect(ceiling AgentPermissions) AgentPermissions {
	out := AgentPermissions{
		FileAccess:     minAccess(p.FileAccess, ceiling.FileAccess),
		ShellExecution: p.ShellExecution && ceiling.ShellExecution,
		NetworkAccess:  p.NetworkAccess && ceiling.NetworkAccess,
		CanDelegate:    p.CanDelegate && ceiling.CanDelegate,
		MaxIterations:  minInt(p.MaxIterations, ceiling.MaxIterations),
		AllowedTools:   intersectStrings(p.AllowedTools, ceiling.AllowedTools),
	}

	out.DenyPatterns = append(append([]string{}, p.DenyPatterns...), ceiling.DenyPatterns...)

	switch {
	case len(p.AllowPatterns) == 0:
		out.AllowPatterns = append([]string{}, ceiling.AllowPatterns...)
	case len(ceiling.AllowPatterns) == 0:
		out.AllowPatterns = append([]string{}, p.AllowPatterns...)
	default:
		out.AllowPatterns = intersectStrings(p.AllowPatterns, ceiling.AllowPatterns)
		if len(out.AllowPatterns) == 0 {
			out.FileAccess = NoAccess
		}
	}

	return out
}

func minAccess(a, b FileAccessMode) FileAccessMode {
	rank := func(m FileAccessMode) int {
		switch m {
		case ReadWrite:
			return 2
		case ReadOnly:
			return 1
		default:
			return 0
		}
	}
	if rank(a) <= rank(b) {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a <= b {
		return a
	}
	return b
}

func intersectStrings(a, b []string) []string {
	inB := make(map[string]bool, len(b))
	for _, s := range b {
		inB[s] = true
	}
	var out []string
	for _, s := range a {
		if inB[s] {
			out = append(out, s)
		}
	}
	return out
}

// matchPath matches a path against a glob pattern using doublestar.
// Paths are normalized to forward slashes before matching.
func matchPath(pattern, path string) bool {
	normalized := strings.ReplaceAll(path, "\\", "/")
	if matched, err := doublestar.Match(pattern, normalized); err == nil && matched {
		return true
	}
	// Patterns like "**/*.go" should also match bare names like "main.go".
	if strings.HasPrefix(pattern, "**/") {
		if matched, err := doublestar.Match(strings.TrimPrefix(pattern, "**/"), normalized); err == nil && matched {
			return true
		}
	}
	return false
}

// matchWildcard checks a name against a simple wildcard pattern.
func matchWildcard(pattern, s string) bool {
	if pattern == "*" {
		return true
	}
	if strings.HasSuffix(pattern, "*") && !strings.HasPrefix(pattern, "*") {
		return strings.HasPrefix(s, strings.TrimSuffix(pattern, "*"))
	}
	if strings.HasPrefix(pattern, "*") && !strings.HasSuffix(pattern, "*") {
		return strings.HasSuffix(s, strings.TrimPrefix(pattern, "*"))
	}
	if strings.Contains(pattern, "*") {
		matched, _ := doublestar.Match(pattern, s)
		return matched
	}
	return pattern == s
}

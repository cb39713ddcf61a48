// Package vcs collects git context for task routing.
package vcs

import (
	"os/exec"
	"strings"

	"github.com/agentmux/agentmux/internal/agent"
	"github.com/agentmux/agentmux/internal/logging"
)

// diff output attached to a task context is capped so a large refactor does
// not dominate scoring input.
const maxDiffBytes = 64 * 1024

// Snapshot captures the repository state of a work directory: current
// branch, uncommitted diff, and changed files. It returns nil when the
// directory is not inside a git repository, which callers treat as "no git
// context" rather than an error.
func Snapshot(workDir string) *agent.GitContext {
	if !isRepository(workDir) {
		logging.Debug().Str("workDir", workDir).Msg("not a git repository, no git context")
		return nil
	}

	gc := &agent.GitContext{
		Branch:       currentBranch(workDir),
		ChangedFiles: changedFiles(workDir),
		Diff:         diff(workDir),
	}
	logging.Debug().
		Str("branch", gc.Branch).
		Int("changedFiles", len(gc.ChangedFiles)).
		Msg("git context collected")
	return gc
}

func isRepository(workDir string) bool {
	return git(workDir, "rev-parse", "--git-dir") != ""
}

// currentBranch returns the current branch name, or the short commit hash
// when HEAD is detached.
func currentBranch(workDir string) string {
	branch := git(workDir, "rev-parse", "--abbrev-ref", "HEAD")
	if branch == "HEAD" {
		return git(workDir, "rev-parse", "--short", "HEAD")
	}
	return branch
}

// changedFiles lists files with uncommitted changes, staged or not.
func changedFiles(workDir string) []string {
	out := git(workDir, "status", "--porcelain")
	if out == "" {
		return nil
	}

	var files []string
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		name := strings.TrimSpace(line[3:])
		// Renames are reported as "old -> new"; keep the new path.
		if idx := strings.Index(name, " -> "); idx >= 0 {
			name = name[idx+4:]
		}
		files = append(files, name)
	}
	return files
}

func diff(workDir string) string {
	out := git(workDir, "diff", "HEAD")
	if len(out) > maxDiffBytes {
		out = out[:maxDiffBytes]
	}
	return out
}

func git(workDir string, args ...string) string {
	cmd := exec.Command("git", args...)
	cmd.Dir = workDir
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

package toolkit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const grepMaxResults = 100

// GrepTool searches workspace file contents with a regular expression.
type GrepTool struct{}

// NewGrepTool creates the built-in grep tool.
func NewGrepTool() *GrepTool { return &GrepTool{} }

func (g *GrepTool) Name() string { return "grep" }

func (g *GrepTool) Description() string {
	return "Search file contents for a regular expression"
}

type grepArgs struct {
	Pattern string `json:"pattern"`
	// Include optionally restricts the search to files matching a glob.
	Include string `json:"include,omitempty"`
}

// Run implements Tool.
func (g *GrepTool) Run(ctx context.Context, env ToolEnv, args json.RawMessage) (string, error) {
	var a grepArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return "", fmt.Errorf("invalid grep arguments: %w", err)
	}
	if a.Pattern == "" {
		return "", fmt.Errorf("grep pattern is required")
	}

	re, err := regexp.Compile(a.Pattern)
	if err != nil {
		return "", fmt.Errorf("invalid pattern %s: %w", a.Pattern, err)
	}

	var sb strings.Builder
	count := 0

	err = filepath.WalkDir(env.WorkspaceRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" || d.Name() == "node_modules" {
				return filepath.SkipDir
			}
			return nil
		}
		if count >= grepMaxResults {
			return filepath.SkipAll
		}

		rel, relErr := filepath.Rel(env.WorkspaceRoot, path)
		if relErr != nil {
			return nil
		}
		if a.Include != "" {
			if matched, _ := doublestar.Match(a.Include, filepath.ToSlash(rel)); !matched {
				return nil
			}
		}

		count += grepFile(re, path, rel, &sb, grepMaxResults-count)
		return nil
	})
	if err != nil {
		return "", err
	}

	if count == 0 {
		return "no matches", nil
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

// grepFile appends up to limit matches from one file and returns how many
// it found. Binary and unreadable files are skipped.
func grepFile(re *regexp.Regexp, path, rel string, sb *strings.Builder, limit int) int {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	found := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 512*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if strings.ContainsRune(text, 0) {
			return found
		}
		if re.MatchString(text) {
			fmt.Fprintf(sb, "%s:%d: %s\n", rel, line, text)
			found++
			if found >= limit {
				return found
			}
		}
	}
	return found
}

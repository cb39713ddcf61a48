package toolkit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const globMaxResults = 200

// GlobTool finds workspace files matching a doublestar pattern.
type GlobTool struct{}

// NewGlobTool creates the built-in glob tool.
func NewGlobTool() *GlobTool { return &GlobTool{} }

func (g *GlobTool) Name() string { return "glob" }

func (g *GlobTool) Description() string {
	return "Find files matching a glob pattern, e.g. **/*.go"
}

type globArgs struct {
	Pattern string `json:"pattern"`
}

// Run implements Tool.
func (g *GlobTool) Run(ctx context.Context, env ToolEnv, args json.RawMessage) (string, error) {
	var a globArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return "", fmt.Errorf("invalid glob arguments: %w", err)
	}
	if a.Pattern == "" {
		return "", fmt.Errorf("glob pattern is required")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	matches, err := doublestar.Glob(os.DirFS(env.WorkspaceRoot), a.Pattern)
	if err != nil {
		return "", fmt.Errorf("glob %s: %w", a.Pattern, err)
	}

	sort.Strings(matches)
	if len(matches) > globMaxResults {
		matches = matches[:globMaxResults]
	}
	if len(matches) == 0 {
		return "no files matched", nil
	}
	return strings.Join(matches, "\n"), nil
}

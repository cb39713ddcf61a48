package toolkit

import (
	"context"
	"encoding/json"
)

// ToolEnv is what a tool sees of its caller: where it may operate and
// whether the calling agent can reach the network. Tools must honor both.
type ToolEnv struct {
	WorkspaceRoot string
	NetworkAccess bool
}

// Tool is a named capability agents invoke through the toolkit. Arguments
// arrive as raw JSON so each tool owns its own schema.
type Tool interface {
	// Name is the identifier agents use, and the one checked against the
	// agent's tool allow-list.
	Name() string

	// Description is a short human-readable summary.
	Description() string

	// Run executes the tool and returns its textual output.
	Run(ctx context.Context, env ToolEnv, args json.RawMessage) (string, error)
}

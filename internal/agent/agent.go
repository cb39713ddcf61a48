package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/agentmux/agentmux/internal/permission"
)

// Identity identifies an agent. Created once at registration, never mutated.
type Identity struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	SystemPrompt string `json:"systemPrompt,omitempty"`
}

// ActivationScore is an agent's confidence that it should handle a context,
// clamped to [0, 1]. Scores are computed fresh on every routing decision.
type ActivationScore float64

// NewScore clamps a raw value into the valid score range.
func NewScore(v float64) ActivationScore {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return ActivationScore(v)
}

// ExecutionMode tags how a task is being run.
type ExecutionMode string

const (
	ModeInteractive ExecutionMode = "interactive"
	ModeAutomated   ExecutionMode = "automated"
)

// GitContext carries version-control context for a task.
type GitContext struct {
	Diff         string   `json:"diff"`
	Branch       string   `json:"branch"`
	ChangedFiles []string `json:"changedFiles"`
}

// TaskContext is the read-only input to scoring and execution. Built by the
// caller once per task and immutable for that task's lifetime.
type TaskContext struct {
	FilePaths    []string          `json:"filePaths,omitempty"`
	FileContents map[string]string `json:"fileContents,omitempty"`
	Git          *GitContext       `json:"git,omitempty"`
	Mode         ExecutionMode     `json:"mode,omitempty"`
	UserIntent   string            `json:"userIntent"`
}

// Validate checks the context invariants: every FileContents key must also
// appear in FilePaths.
func (c TaskContext) Validate() error {
	if len(c.FileContents) == 0 {
		return nil
	}
	known := make(map[string]bool, len(c.FilePaths))
	for _, p := range c.FilePaths {
		known[p] = true
	}
	for p := range c.FileContents {
		if !known[p] {
			return fmt.Errorf("file contents key %q is not listed in file paths", p)
		}
	}
	return nil
}

// Task is the unit submitted to Agent.Execute.
type Task struct {
	Context                TaskContext `json:"context"`
	AdditionalInstructions string      `json:"additionalInstructions,omitempty"`
}

// MessageKind classifies an inter-agent message.
type MessageKind string

const (
	MessageFinding    MessageKind = "finding"
	MessageQuestion   MessageKind = "question"
	MessageSuggestion MessageKind = "suggestion"
	MessageResult     MessageKind = "result"
)

// Message is an ephemeral inter-agent message. An empty To means broadcast.
// Messages exist only for the duration of one orchestration run.
type Message struct {
	From    string      `json:"from"`
	To      string      `json:"to,omitempty"`
	Kind    MessageKind `json:"kind"`
	Payload string      `json:"payload"`
	At      time.Time   `json:"at"`
}

// CommandOutput is the result of a shell command run through the toolkit.
type CommandOutput struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exitCode"`
}

// Toolkit is the only channel through which an agent touches the outside
// world. Every operation is permission-checked against the owning agent's
// permissions before it executes.
type Toolkit interface {
	// ReadFile reads a file, subject to the file-access policy.
	ReadFile(ctx context.Context, path string) (string, error)

	// WriteFile writes a file, subject to the file-access policy.
	WriteFile(ctx context.Context, path, content string) error

	// ExecuteCommand runs a shell command after the exec-policy check.
	ExecuteCommand(ctx context.Context, cmd string, args []string) (CommandOutput, error)

	// InvokeTool runs a named external tool from the agent's allow-list.
	InvokeTool(ctx context.Context, name string, args json.RawMessage) (string, error)

	// Delegate hands a task to another agent. The sub-agent runs under the
	// intersection of its own permissions and the delegator's.
	Delegate(ctx context.Context, target string, task Task) (Result, error)

	// Publish sends a message to peers during a collaborative run. Outside
	// collaborative runs it is a no-op.
	Publish(msg Message) error

	// Messages streams messages addressed to this agent during a
	// collaborative run: broadcasts plus messages naming it directly.
	// Outside collaborative runs the channel is already closed. Receivers
	// should select against their execution context.
	Messages() <-chan Message

	// WorkspaceRoot returns the root directory executions are scoped to.
	WorkspaceRoot() string
}

// budgetExhausted matches the toolkit's iteration-budget error by behavior,
// since importing the toolkit package here would form a cycle.
type budgetExhausted interface {
	error
	IterationBudgetExceeded() bool
}

// IsBudgetExhausted reports whether err means the execution spent its whole
// iteration budget. Agents must surface this class instead of degrading to a
// partial result.
func IsBudgetExhausted(err error) bool {
	var be budgetExhausted
	return errors.As(err, &be) && be.IterationBudgetExceeded()
}

// Agent is a polymorphic unit of capability. Concrete agents are leaf
// implementers of this one flat interface.
type Agent interface {
	// Identity returns the agent's immutable identity.
	Identity() Identity

	// CanHandle scores the agent's suitability for a context. It must be
	// pure, side-effect free, and fast: the router calls it for every
	// registered agent on every routing decision.
	CanHandle(ctx TaskContext) ActivationScore

	// Execute performs the task. All I/O goes through the toolkit.
	// Failures are surfaced, never retried by the agent itself.
	Execute(ctx context.Context, task Task, tk Toolkit) (Result, error)

	// Permissions returns the agent's declared capability set.
	Permissions() permission.AgentPermissions
}

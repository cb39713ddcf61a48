package toolkit

import "fmt"

// BudgetExceededError is the runaway-loop guard: the execution issued more
// suspending toolkit calls than its permissions allow.
type BudgetExceededError struct {
	AgentID string
	Budget  int
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("iteration budget exceeded: agent %q used its %d toolkit calls", e.AgentID, e.Budget)
}

// IterationBudgetExceeded marks the error class for agents, which cannot
// import this package.
func (e *BudgetExceededError) IterationBudgetExceeded() bool { return true }

// ToolUnavailableError is returned when a permitted tool is not registered.
type ToolUnavailableError struct {
	Name string
}

func (e *ToolUnavailableError) Error() string {
	return fmt.Sprintf("tool unavailable: %q is not registered", e.Name)
}

// RequiresApprovalError is returned when the exec policy could not clear a
// command on its own. No approval workflow runs at this layer, so the
// execution fails for this agent.
type RequiresApprovalError struct {
	Command string
	Reason  string
}

func (e *RequiresApprovalError) Error() string {
	return fmt.Sprintf("command requires approval: %s: %s", e.Command, e.Reason)
}

// ForbiddenCommandError carries the exec policy's rejection reason.
type ForbiddenCommandError struct {
	Command string
	Reason  string
}

func (e *ForbiddenCommandError) Error() string {
	return fmt.Sprintf("command forbidden by policy: %s: %s", e.Command, e.Reason)
}

// FileReadError wraps an environment failure while reading a permitted file.
type FileReadError struct {
	Path string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Path, e.Err)
}

func (e *FileReadError) Unwrap() error { return e.Err }

// CommandExecutionError wraps an environment failure while running a
// cleared command.
type CommandExecutionError struct {
	Command string
	Err     error
}

func (e *CommandExecutionError) Error() string {
	return fmt.Sprintf("failed to execute %s: %v", e.Command, e.Err)
}

func (e *CommandExecutionError) Unwrap() error { return e.Err }

package toolkit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentmux/agentmux/internal/agent"
	"github.com/agentmux/agentmux/internal/execpolicy"
	"github.com/agentmux/agentmux/internal/logging"
	"github.com/agentmux/agentmux/internal/permission"
)

// defaultIterationBudget applies when an agent's permissions carry no
// positive budget of their own.
const defaultIterationBudget = 5

// Delegator hands delegated tasks to another agent. The orchestrator
// implements it; the indirection keeps this package free of a dependency on
// agent registration and routing.
type Delegator interface {
	Delegate(ctx context.Context, target string, task agent.Task, ceiling permission.AgentPermissions) (agent.Result, error)
}

// Publisher accepts inter-agent messages during a collaborative run.
type Publisher interface {
	Publish(msg agent.Message) error
}

// Config assembles a toolkit for one agent execution.
type Config struct {
	// AgentID names the agent the toolkit is bound to. Required.
	AgentID string

	// Permissions is the capability set every operation is checked against.
	Permissions permission.AgentPermissions

	// WorkspaceRoot scopes all file and command operations. Required.
	WorkspaceRoot string

	// Policy classifies shell invocations. Required when the agent has
	// shell execution rights.
	Policy execpolicy.Policy

	// Tools resolves InvokeTool names. Optional; without it every
	// invocation fails as unavailable.
	Tools *Registry

	// Delegator serves Delegate calls. Optional; without it delegation
	// fails even for agents permitted to delegate.
	Delegator Delegator

	// Hub serves Publish calls. Optional; without it Publish is a no-op.
	Hub Publisher

	// Inbox delivers messages addressed to this agent. Optional; without
	// it Messages returns a closed channel. The orchestrator subscribes
	// the agent to the run's hub before execution starts so no message is
	// missed.
	Inbox <-chan agent.Message
}

// Toolkit is the permission-checked gateway one agent execution uses for all
// I/O. Each execution gets its own instance so the iteration budget and
// audit attribution are per-run.
type Toolkit struct {
	agentID   string
	perms     permission.AgentPermissions
	root      string
	policy    execpolicy.Policy
	tools     *Registry
	delegator Delegator
	hub       Publisher
	inbox     <-chan agent.Message
	log       zerolog.Logger

	mu     sync.Mutex
	used   int
	budget int
}

// New builds a toolkit bound to one agent's permissions.
func New(cfg Config) *Toolkit {
	budget := cfg.Permissions.MaxIterations
	if budget <= 0 {
		budget = defaultIterationBudget
	}
	return &Toolkit{
		agentID:   cfg.AgentID,
		perms:     cfg.Permissions,
		root:      cfg.WorkspaceRoot,
		policy:    cfg.Policy,
		tools:     cfg.Tools,
		delegator: cfg.Delegator,
		hub:       cfg.Hub,
		inbox:     cfg.Inbox,
		log:       logging.Component("toolkit").With().Str("agent", cfg.AgentID).Logger(),
		budget:    budget,
	}
}

// WorkspaceRoot implements agent.Toolkit.
func (t *Toolkit) WorkspaceRoot() string { return t.root }

// Remaining returns how many toolkit calls the execution has left.
func (t *Toolkit) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.budget - t.used
}

// spend consumes one unit of the iteration budget. Called only after the
// operation has passed its permission check, so denied calls cost nothing.
func (t *Toolkit) spend() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.used >= t.budget {
		return &BudgetExceededError{AgentID: t.agentID, Budget: t.budget}
	}
	t.used++
	return nil
}

// resolve maps a caller path into the workspace and rejects escapes. It
// returns the absolute path for I/O and the workspace-relative path the
// pattern gates are checked against.
func (t *Toolkit) resolve(path string) (abs, rel string, err error) {
	if filepath.IsAbs(path) {
		abs = filepath.Clean(path)
	} else {
		abs = filepath.Clean(filepath.Join(t.root, path))
	}

	rel, err = filepath.Rel(t.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", "", fmt.Errorf("path %s is outside the workspace", path)
	}
	return abs, rel, nil
}

// ReadFile implements agent.Toolkit.
func (t *Toolkit) ReadFile(ctx context.Context, path string) (string, error) {
	abs, rel, err := t.resolve(path)
	if err != nil {
		return "", &permission.DeniedError{AgentID: t.agentID, Operation: "read " + path, Detail: err.Error()}
	}
	if !t.perms.CanReadFile(rel) {
		t.log.Warn().Str("path", rel).Msg("file read denied")
		return "", &permission.DeniedError{AgentID: t.agentID, Operation: "read " + rel}
	}
	if err := t.spend(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return "", &FileReadError{Path: rel, Err: err}
	}
	t.log.Debug().Str("path", rel).Int("bytes", len(data)).Msg("file read")
	return string(data), nil
}

// WriteFile implements agent.Toolkit.
func (t *Toolkit) WriteFile(ctx context.Context, path, content string) error {
	abs, rel, err := t.resolve(path)
	if err != nil {
		return &permission.DeniedError{AgentID: t.agentID, Operation: "write " + path, Detail: err.Error()}
	}
	if !t.perms.CanWriteFile(rel) {
		t.log.Warn().Str("path", rel).Msg("file write denied")
		return &permission.DeniedError{AgentID: t.agentID, Operation: "write " + rel}
	}
	if err := t.spend(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", rel, err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}
	t.log.Debug().Str("path", rel).Int("bytes", len(content)).Msg("file written")
	return nil
}

// ExecuteCommand implements agent.Toolkit. The exec policy classifies the
// invocation first; only cleared commands reach the shell.
func (t *Toolkit) ExecuteCommand(ctx context.Context, cmd string, args []string) (agent.CommandOutput, error) {
	display := cmd
	if len(args) > 0 {
		display += " " + strings.Join(args, " ")
	}

	if !t.perms.ShellExecution {
		t.log.Warn().Str("cmd", display).Msg("shell execution denied")
		return agent.CommandOutput{}, &permission.DeniedError{AgentID: t.agentID, Operation: "execute commands"}
	}
	if t.policy == nil {
		return agent.CommandOutput{}, &RequiresApprovalError{Command: display, Reason: "no exec policy configured"}
	}

	decision := t.policy.Classify(ctx, cmd, args)
	switch decision.Kind {
	case execpolicy.Safe:
	case execpolicy.MatchWithWriteTargets:
		for _, target := range decision.WriteTargets {
			_, rel, err := t.resolve(target)
			if err != nil || !t.perms.CanWriteFile(rel) {
				t.log.Warn().Str("cmd", display).Str("target", target).Msg("write target denied")
				return agent.CommandOutput{}, &RequiresApprovalError{
					Command: display,
					Reason:  fmt.Sprintf("write target %s is not covered by the agent's file policy", target),
				}
			}
		}
	case execpolicy.Forbidden:
		t.log.Warn().Str("cmd", display).Str("reason", decision.Reason).Msg("command forbidden")
		return agent.CommandOutput{}, &ForbiddenCommandError{Command: display, Reason: decision.Reason}
	default:
		return agent.CommandOutput{}, &RequiresApprovalError{Command: display, Reason: decision.Reason}
	}

	if err := t.spend(); err != nil {
		return agent.CommandOutput{}, err
	}

	c := exec.CommandContext(ctx, cmd, args...)
	c.Dir = t.root

	var stdout, stderr strings.Builder
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	out := agent.CommandOutput{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return agent.CommandOutput{}, &CommandExecutionError{Command: display, Err: err}
		}
		out.ExitCode = exitErr.ExitCode()
	}

	t.log.Debug().Str("cmd", display).Int("exit", out.ExitCode).Msg("command executed")
	return out, nil
}

// InvokeTool implements agent.Toolkit.
func (t *Toolkit) InvokeTool(ctx context.Context, name string, args json.RawMessage) (string, error) {
	if !t.perms.ToolAllowed(name) {
		t.log.Warn().Str("tool", name).Msg("tool invocation denied")
		return "", &permission.DeniedError{AgentID: t.agentID, Operation: "invoke tool " + name}
	}

	var tool Tool
	if t.tools != nil {
		tool, _ = t.tools.Lookup(name)
	}
	if tool == nil {
		return "", &ToolUnavailableError{Name: name}
	}

	if err := t.spend(); err != nil {
		return "", err
	}

	env := ToolEnv{
		WorkspaceRoot: t.root,
		NetworkAccess: t.perms.NetworkAccess,
	}
	out, err := tool.Run(ctx, env, args)
	if err != nil {
		return "", fmt.Errorf("tool %s failed: %w", name, err)
	}
	t.log.Debug().Str("tool", name).Msg("tool invoked")
	return out, nil
}

// Delegate implements agent.Toolkit. The sub-agent runs under the
// intersection of its own permissions and this agent's, so delegation never
// escalates capability.
func (t *Toolkit) Delegate(ctx context.Context, target string, task agent.Task) (agent.Result, error) {
	if !t.perms.CanDelegate {
		t.log.Warn().Str("target", target).Msg("delegation denied")
		return agent.Result{}, &permission.DelegationError{AgentID: t.agentID, Target: target}
	}
	if t.delegator == nil {
		return agent.Result{}, fmt.Errorf("delegation unavailable: agent %q has no orchestrator", t.agentID)
	}

	if err := t.spend(); err != nil {
		return agent.Result{}, err
	}

	t.log.Info().Str("target", target).Msg("delegating task")
	return t.delegator.Delegate(ctx, target, task, t.perms)
}

// Publish implements agent.Toolkit. Messaging is free: it does not count
// against the iteration budget, and outside a collaborative run it silently
// drops the message.
func (t *Toolkit) Publish(msg agent.Message) error {
	if t.hub == nil {
		return nil
	}
	if msg.From == "" {
		msg.From = t.agentID
	}
	return t.hub.Publish(msg)
}

// closedInbox serves Messages for toolkits without a hub subscription.
var closedInbox = func() chan agent.Message {
	ch := make(chan agent.Message)
	close(ch)
	return ch
}()

// Messages implements agent.Toolkit. Receiving is free, like Publish.
func (t *Toolkit) Messages() <-chan agent.Message {
	if t.inbox == nil {
		return closedInbox
	}
	return t.inbox
}

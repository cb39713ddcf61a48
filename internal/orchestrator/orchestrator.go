package orchestrator

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/agentmux/agentmux/internal/agent"
	"github.com/agentmux/agentmux/internal/execpolicy"
	"github.com/agentmux/agentmux/internal/logging"
	"github.com/agentmux/agentmux/internal/permission"
	"github.com/agentmux/agentmux/internal/router"
	"github.com/agentmux/agentmux/internal/toolkit"
)

// Strategy selects how subtasks are coordinated.
type Strategy string

const (
	// StrategyParallel runs independent subtasks concurrently. One
	// subtask's failure does not stop the others.
	StrategyParallel Strategy = "parallel"
	// StrategySequential runs subtasks in order, feeding each result into
	// the next subtask's context. A failure aborts the chain.
	StrategySequential Strategy = "sequential"
	// StrategyCollaborative runs subtasks concurrently with a shared
	// message hub so agents can exchange findings mid-run.
	StrategyCollaborative Strategy = "collaborative"
)

// State is the phase of an orchestration run. Transitions are linear:
// Decomposing, Executing, Synthesizing, Done. Aborted is terminal from any
// phase.
type State string

const (
	StateDecomposing  State = "decomposing"
	StateExecuting    State = "executing"
	StateSynthesizing State = "synthesizing"
	StateDone         State = "done"
	StateAborted      State = "aborted"
)

// DefaultMaxParallel bounds concurrent subtask execution.
const DefaultMaxParallel = 4

// Outcome is the terminal record of one subtask. Exactly one of Result and
// Err is meaningful.
type Outcome struct {
	Subtask Subtask       `json:"subtask"`
	Result  *agent.Result `json:"result,omitempty"`
	Err     string        `json:"error,omitempty"`
}

// RunResult is the synthesized outcome of a whole orchestration run.
// Subtask outcomes keep decomposition order regardless of completion order.
type RunResult struct {
	ID          string          `json:"id"`
	Strategy    Strategy        `json:"strategy"`
	State       State           `json:"state"`
	Outcomes    []Outcome       `json:"outcomes"`
	Failed      int             `json:"failed"`
	AbortReason string          `json:"abortReason,omitempty"`
	Messages    []agent.Message `json:"messages,omitempty"`
}

// Config assembles an orchestrator.
type Config struct {
	Router        *router.Router
	WorkspaceRoot string
	Policy        execpolicy.Policy
	Tools         *toolkit.Registry
	// MaxParallel bounds concurrent subtasks; non-positive values fall
	// back to DefaultMaxParallel.
	MaxParallel int
}

// Orchestrator coordinates multi-agent runs. It also serves as the
// Delegator behind every toolkit it hands out, so agent-to-agent delegation
// flows back through the same routing table and permission ceilings.
type Orchestrator struct {
	router      *router.Router
	root        string
	policy      execpolicy.Policy
	tools       *toolkit.Registry
	maxParallel int
	log         zerolog.Logger
}

// New creates an orchestrator.
func New(cfg Config) *Orchestrator {
	maxParallel := cfg.MaxParallel
	if maxParallel <= 0 {
		maxParallel = DefaultMaxParallel
	}
	return &Orchestrator{
		router:      cfg.Router,
		root:        cfg.WorkspaceRoot,
		policy:      cfg.Policy,
		tools:       cfg.Tools,
		maxParallel: maxParallel,
		log:         logging.Component("orchestrator"),
	}
}

// Run decomposes the task, executes the subtasks under the given strategy,
// and synthesizes the outcomes. The error return covers run-level failures
// only; individual subtask failures live in the outcomes.
func (o *Orchestrator) Run(ctx context.Context, task agent.Task, strategy Strategy) (*RunResult, error) {
	if err := task.Context.Validate(); err != nil {
		return nil, fmt.Errorf("invalid task context: %w", err)
	}

	run := &RunResult{
		ID:       ulid.Make().String(),
		Strategy: strategy,
		State:    StateDecomposing,
	}
	log := o.log.With().Str("run", run.ID).Str("strategy", string(strategy)).Logger()

	subtasks := decompose(task, run.ID)
	o.assign(subtasks)
	log.Info().Int("subtasks", len(subtasks)).Msg("task decomposed")

	assignable := 0
	for _, st := range subtasks {
		if st.AgentID != "" {
			assignable++
		}
	}
	if assignable == 0 {
		run.State = StateAborted
		run.AbortReason = "no agent met the activation threshold for any subtask"
		for _, st := range subtasks {
			run.Outcomes = append(run.Outcomes, Outcome{Subtask: st, Err: "no qualifying agent"})
		}
		run.Failed = len(run.Outcomes)
		log.Warn().Msg(run.AbortReason)
		return run, nil
	}

	run.State = StateExecuting
	var err error
	switch strategy {
	case StrategySequential:
		err = o.runSequential(ctx, run, subtasks)
	case StrategyCollaborative:
		err = o.runCollaborative(ctx, run, subtasks)
	case StrategyParallel, "":
		err = o.runParallel(ctx, run, subtasks, nil)
	default:
		return nil, fmt.Errorf("unknown coordination strategy %q", strategy)
	}
	if err != nil {
		run.State = StateAborted
		run.AbortReason = err.Error()
		o.synthesize(run)
		return run, nil
	}

	if run.State == StateAborted {
		o.synthesize(run)
	} else {
		run.State = StateSynthesizing
		o.synthesize(run)
		run.State = StateDone
	}

	log.Info().
		Str("state", string(run.State)).
		Int("failed", run.Failed).
		Msg("run finished")
	return run, nil
}

// assign routes each subtask to its best agent. Subtasks nothing qualifies
// for keep an empty AgentID and are recorded as failures at execution time.
func (o *Orchestrator) assign(subtasks []Subtask) {
	for i := range subtasks {
		if a, _ := o.router.SelectAgent(subtasks[i].Task.Context); a != nil {
			subtasks[i].AgentID = a.Identity().ID
		}
	}
}

// runParallel executes assignable subtasks concurrently under the worker
// cap. Subtask failures are tolerated and recorded; only context
// cancellation aborts the run.
func (o *Orchestrator) runParallel(ctx context.Context, run *RunResult, subtasks []Subtask, hub *MessageHub) error {
	outcomes := make([]Outcome, len(subtasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.maxParallel)

	// With a hub, every agent is subscribed before any subtask launches
	// so messages published early still reach agents scheduled later.
	inboxes := make([]<-chan agent.Message, len(subtasks))
	if hub != nil {
		for i, st := range subtasks {
			if st.AgentID == "" {
				continue
			}
			inbox, err := hub.Subscribe(gctx, st.AgentID)
			if err != nil {
				return fmt.Errorf("failed to subscribe agent %q: %w", st.AgentID, err)
			}
			inboxes[i] = inbox
		}
	}

	for i, st := range subtasks {
		outcomes[i] = Outcome{Subtask: st}
		if st.AgentID == "" {
			outcomes[i].Err = "no qualifying agent"
			continue
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				outcomes[i].Err = err.Error()
				return err
			}
			result, err := o.execute(gctx, st, hub, inboxes[i])
			if err != nil {
				outcomes[i].Err = err.Error()
				return nil
			}
			outcomes[i].Result = &result
			return nil
		})
	}

	err := g.Wait()
	run.Outcomes = outcomes
	if err != nil {
		return fmt.Errorf("run cancelled: %w", err)
	}
	return nil
}

// runSequential executes subtasks in decomposition order, feeding each
// result summary into the next subtask. The first failure aborts the chain
// and the remaining subtasks are recorded as skipped.
func (o *Orchestrator) runSequential(ctx context.Context, run *RunResult, subtasks []Subtask) error {
	var prior string

	for i, st := range subtasks {
		outcome := Outcome{Subtask: st}

		if run.State == StateAborted {
			outcome.Err = "skipped: run aborted"
			run.Outcomes = append(run.Outcomes, outcome)
			continue
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run cancelled: %w", err)
		}

		if st.AgentID == "" {
			run.State = StateAborted
			run.AbortReason = fmt.Sprintf("no qualifying agent for subtask %d: %s", i+1, st.Description)
			outcome.Err = "no qualifying agent"
			run.Outcomes = append(run.Outcomes, outcome)
			continue
		}

		if prior != "" {
			st.Task.AdditionalInstructions = appendInstruction(
				st.Task.AdditionalInstructions,
				"Result of the previous step: "+prior,
			)
		}

		result, err := o.execute(ctx, st, nil, nil)
		if err != nil {
			run.State = StateAborted
			run.AbortReason = fmt.Sprintf("subtask %d failed: %v", i+1, err)
			outcome.Err = err.Error()
			run.Outcomes = append(run.Outcomes, outcome)
			continue
		}

		outcome.Result = &result
		run.Outcomes = append(run.Outcomes, outcome)
		prior = result.Summary()
	}
	return nil
}

// runCollaborative is parallel execution with a shared message hub wired
// into every toolkit: agents publish through it and receive from their own
// subscription. The hub's log is attached to the run for synthesis.
func (o *Orchestrator) runCollaborative(ctx context.Context, run *RunResult, subtasks []Subtask) error {
	hub := NewMessageHub()
	defer hub.Close()

	if err := o.runParallel(ctx, run, subtasks, hub); err != nil {
		return err
	}
	run.Messages = hub.Log()
	return nil
}

// execute runs one subtask through its agent with a fresh toolkit.
func (o *Orchestrator) execute(ctx context.Context, st Subtask, hub *MessageHub, inbox <-chan agent.Message) (agent.Result, error) {
	a, ok := o.router.Get(st.AgentID)
	if !ok {
		return agent.Result{}, fmt.Errorf("agent %q is not registered", st.AgentID)
	}

	tk := o.newToolkit(st.AgentID, a.Permissions(), hub, inbox)
	o.log.Debug().Str("agent", st.AgentID).Str("subtask", st.ID).Msg("executing subtask")

	result, err := a.Execute(ctx, st.Task, tk)
	if err != nil {
		return agent.Result{}, err
	}
	if err := result.Validate(); err != nil {
		return agent.Result{}, fmt.Errorf("agent %q returned a malformed result: %w", st.AgentID, err)
	}
	return result, nil
}

func (o *Orchestrator) newToolkit(agentID string, perms permission.AgentPermissions, hub *MessageHub, inbox <-chan agent.Message) *toolkit.Toolkit {
	cfg := toolkit.Config{
		AgentID:       agentID,
		Permissions:   perms,
		WorkspaceRoot: o.root,
		Policy:        o.policy,
		Tools:         o.tools,
		Delegator:     o,
		Inbox:         inbox,
	}
	if hub != nil {
		cfg.Hub = hub
	}
	return toolkit.New(cfg)
}

// Delegate implements toolkit.Delegator. The target runs under the
// intersection of its own permissions and the delegating agent's, so a
// delegation chain can only shed capability.
func (o *Orchestrator) Delegate(ctx context.Context, target string, task agent.Task, ceiling permission.AgentPermissions) (agent.Result, error) {
	a, ok := o.router.Get(target)
	if !ok {
		if hint := o.router.ClosestID(target); hint != "" {
			return agent.Result{}, fmt.Errorf("unknown agent %q (did you mean %q?)", target, hint)
		}
		return agent.Result{}, fmt.Errorf("unknown agent %q", target)
	}

	effective := a.Permissions().Intersect(ceiling)
	tk := o.newToolkit(target, effective, nil, nil)

	o.log.Info().Str("target", target).Msg("delegated execution")
	result, err := a.Execute(ctx, task, tk)
	if err != nil {
		return agent.Result{}, err
	}
	if err := result.Validate(); err != nil {
		return agent.Result{}, fmt.Errorf("agent %q returned a malformed result: %w", target, err)
	}
	return result, nil
}

// synthesize finalizes run-level tallies from the subtask outcomes.
func (o *Orchestrator) synthesize(run *RunResult) {
	failed := 0
	for _, out := range run.Outcomes {
		if out.Err != "" {
			failed++
		}
	}
	run.Failed = failed
}

func appendInstruction(existing, extra string) string {
	if existing == "" {
		return extra
	}
	return existing + "\n" + extra
}

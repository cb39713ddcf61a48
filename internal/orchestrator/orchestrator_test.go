package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentmux/agentmux/internal/agent"
	"github.com/agentmux/agentmux/internal/execpolicy"
	"github.com/agentmux/agentmux/internal/permission"
	"github.com/agentmux/agentmux/internal/router"
	"github.com/agentmux/agentmux/internal/toolkit"
)

// scriptedAgent activates on a keyword and executes a canned behavior.
type scriptedAgent struct {
	id      string
	keyword string
	perms   permission.AgentPermissions

	fail      bool
	publish   bool
	publishTo string
	listen    bool

	mu    sync.Mutex
	tasks []agent.Task
}

func (s *scriptedAgent) Identity() agent.Identity {
	return agent.Identity{ID: s.id, Name: s.id}
}

func (s *scriptedAgent) CanHandle(ctx agent.TaskContext) agent.ActivationScore {
	if strings.Contains(strings.ToLower(ctx.UserIntent), s.keyword) {
		return 0.9
	}
	return 0
}

func (s *scriptedAgent) Execute(ctx context.Context, task agent.Task, tk agent.Toolkit) (agent.Result, error) {
	s.mu.Lock()
	s.tasks = append(s.tasks, task)
	s.mu.Unlock()

	if s.fail {
		return agent.Result{}, errors.New(s.id + " failed")
	}
	if s.publish {
		msg := agent.Message{Kind: agent.MessageFinding, To: s.publishTo, Payload: s.id + " finding"}
		if err := tk.Publish(msg); err != nil {
			return agent.Result{}, err
		}
	}
	if s.listen {
		select {
		case msg, ok := <-tk.Messages():
			if !ok {
				return agent.Result{}, errors.New(s.id + ": message stream closed")
			}
			return agent.NewAnalysis(s.id+" acted on "+msg.From+": "+msg.Payload, nil), nil
		case <-ctx.Done():
			return agent.Result{}, ctx.Err()
		}
	}
	return agent.NewAnalysis(s.id+" completed", nil), nil
}

func (s *scriptedAgent) Permissions() permission.AgentPermissions {
	if s.perms.FileAccess == "" {
		return permission.Default()
	}
	return s.perms
}

func (s *scriptedAgent) taskCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func newTestOrchestrator(t *testing.T, agents ...agent.Agent) *Orchestrator {
	t.Helper()
	r := router.New(0.6)
	for _, a := range agents {
		require.NoError(t, r.Register(a))
	}
	return New(Config{
		Router:        r,
		WorkspaceRoot: t.TempDir(),
		Policy:        execpolicy.NewClassifier(),
		Tools:         toolkit.DefaultRegistry(),
	})
}

func TestSplitIntent(t *testing.T) {
	tests := []struct {
		name   string
		intent string
		want   []string
	}{
		{"single clause", "review the code", []string{"review the code"}},
		{"semicolons", "review auth; audit deps", []string{"review auth", "audit deps"}},
		{"and then", "lint it and then run an audit", []string{"lint it", "run an audit"}},
		{"mixed", "check style; fix naming and then verify", []string{"check style", "fix naming", "verify"}},
		{"whitespace only clause dropped", "review; ; audit", []string{"review", "audit"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitIntent(tt.intent))
		})
	}
}

func TestDecomposeInheritsContext(t *testing.T) {
	task := agent.Task{Context: agent.TaskContext{
		FilePaths:  []string{"main.go"},
		UserIntent: "review style; audit security",
	}}

	subtasks := decompose(task, "01RUN")
	require.Len(t, subtasks, 2)
	assert.Equal(t, "review style", subtasks[0].Task.Context.UserIntent)
	assert.Equal(t, "audit security", subtasks[1].Task.Context.UserIntent)
	for _, st := range subtasks {
		assert.NotEmpty(t, st.ID)
		assert.Equal(t, []string{"main.go"}, st.Task.Context.FilePaths)
	}
}

func TestDecomposeIsDeterministic(t *testing.T) {
	task := agent.Task{Context: agent.TaskContext{
		UserIntent: "review style; audit security",
	}}

	first := decompose(task, "01RUN")
	second := decompose(task, "01RUN")
	assert.Equal(t, first, second)
	assert.Equal(t, "01RUN.1", first[0].ID)
	assert.Equal(t, "01RUN.2", first[1].ID)
}

func TestParallelRunToleratesPartialFailure(t *testing.T) {
	review := &scriptedAgent{id: "review", keyword: "review"}
	audit := &scriptedAgent{id: "audit", keyword: "audit"}
	broken := &scriptedAgent{id: "lint", keyword: "lint", fail: true}
	o := newTestOrchestrator(t, review, audit, broken)

	task := agent.Task{Context: agent.TaskContext{
		UserIntent: "review the handlers; audit the deps; lint everything",
	}}

	run, err := o.Run(context.Background(), task, StrategyParallel)
	require.NoError(t, err)
	assert.Equal(t, StateDone, run.State)
	require.Len(t, run.Outcomes, 3)
	assert.Equal(t, 1, run.Failed)

	assert.NotNil(t, run.Outcomes[0].Result)
	assert.NotNil(t, run.Outcomes[1].Result)
	assert.Nil(t, run.Outcomes[2].Result)
	assert.Contains(t, run.Outcomes[2].Err, "lint failed")
}

func TestParallelRunKeepsDecompositionOrder(t *testing.T) {
	a := &scriptedAgent{id: "a", keyword: "alpha"}
	b := &scriptedAgent{id: "b", keyword: "beta"}
	o := newTestOrchestrator(t, a, b)

	task := agent.Task{Context: agent.TaskContext{UserIntent: "alpha work; beta work"}}
	run, err := o.Run(context.Background(), task, StrategyParallel)
	require.NoError(t, err)
	require.Len(t, run.Outcomes, 2)
	assert.Equal(t, "alpha work", run.Outcomes[0].Subtask.Description)
	assert.Equal(t, "beta work", run.Outcomes[1].Subtask.Description)
}

func TestSequentialRunPassesResultsForward(t *testing.T) {
	first := &scriptedAgent{id: "first", keyword: "inspect"}
	second := &scriptedAgent{id: "second", keyword: "summarize"}
	o := newTestOrchestrator(t, first, second)

	task := agent.Task{Context: agent.TaskContext{
		UserIntent: "inspect the module and then summarize findings",
	}}

	run, err := o.Run(context.Background(), task, StrategySequential)
	require.NoError(t, err)
	assert.Equal(t, StateDone, run.State)
	require.Len(t, run.Outcomes, 2)

	require.Equal(t, 1, second.taskCount())
	second.mu.Lock()
	instructions := second.tasks[0].AdditionalInstructions
	second.mu.Unlock()
	assert.Contains(t, instructions, "first completed")
}

func TestSequentialRunAbortsOnFailure(t *testing.T) {
	first := &scriptedAgent{id: "first", keyword: "inspect", fail: true}
	second := &scriptedAgent{id: "second", keyword: "summarize"}
	o := newTestOrchestrator(t, first, second)

	task := agent.Task{Context: agent.TaskContext{
		UserIntent: "inspect the module and then summarize findings",
	}}

	run, err := o.Run(context.Background(), task, StrategySequential)
	require.NoError(t, err)
	assert.Equal(t, StateAborted, run.State)
	assert.Contains(t, run.AbortReason, "subtask 1 failed")
	require.Len(t, run.Outcomes, 2)
	assert.Contains(t, run.Outcomes[1].Err, "skipped")
	assert.Equal(t, 0, second.taskCount())
	assert.Equal(t, 2, run.Failed)
}

func TestCollaborativeRunCollectsMessages(t *testing.T) {
	review := &scriptedAgent{id: "review", keyword: "review", publish: true}
	audit := &scriptedAgent{id: "audit", keyword: "audit", publish: true}
	o := newTestOrchestrator(t, review, audit)

	task := agent.Task{Context: agent.TaskContext{
		UserIntent: "review the code; audit the code",
	}}

	run, err := o.Run(context.Background(), task, StrategyCollaborative)
	require.NoError(t, err)
	assert.Equal(t, StateDone, run.State)
	require.Len(t, run.Messages, 2)

	senders := []string{run.Messages[0].From, run.Messages[1].From}
	assert.ElementsMatch(t, []string{"review", "audit"}, senders)
}

func TestCollaborativeRunDeliversDirectedMessages(t *testing.T) {
	sender := &scriptedAgent{id: "scanner", keyword: "scan", publish: true, publishTo: "triage"}
	receiver := &scriptedAgent{id: "triage", keyword: "triage", listen: true}
	o := newTestOrchestrator(t, sender, receiver)

	task := agent.Task{Context: agent.TaskContext{
		UserIntent: "scan the ports; triage the findings",
	}}

	run, err := o.Run(context.Background(), task, StrategyCollaborative)
	require.NoError(t, err)
	assert.Equal(t, StateDone, run.State)
	require.Len(t, run.Outcomes, 2)

	require.NotNil(t, run.Outcomes[1].Result)
	assert.Contains(t, run.Outcomes[1].Result.Summary(), "scanner finding")

	require.Len(t, run.Messages, 1)
	assert.Equal(t, "triage", run.Messages[0].To)
}

func TestRunAbortsWhenNoAgentQualifies(t *testing.T) {
	o := newTestOrchestrator(t, &scriptedAgent{id: "review", keyword: "review"})

	task := agent.Task{Context: agent.TaskContext{UserIntent: "bake a cake"}}
	run, err := o.Run(context.Background(), task, StrategyParallel)
	require.NoError(t, err)
	assert.Equal(t, StateAborted, run.State)
	assert.Contains(t, run.AbortReason, "activation threshold")
	assert.Equal(t, 1, run.Failed)
}

func TestRunRejectsUnknownStrategy(t *testing.T) {
	o := newTestOrchestrator(t, &scriptedAgent{id: "review", keyword: "review"})

	_, err := o.Run(context.Background(), agent.Task{
		Context: agent.TaskContext{UserIntent: "review this"},
	}, Strategy("bogus"))
	assert.Error(t, err)
}

func TestRunRejectsInvalidContext(t *testing.T) {
	o := newTestOrchestrator(t, &scriptedAgent{id: "review", keyword: "review"})

	task := agent.Task{Context: agent.TaskContext{
		UserIntent:   "review",
		FileContents: map[string]string{"ghost.go": "package ghost"},
	}}
	_, err := o.Run(context.Background(), task, StrategyParallel)
	assert.Error(t, err)
}

func TestDelegateIntersectsPermissions(t *testing.T) {
	target := &scriptedAgent{
		id:      "writer",
		keyword: "write",
		perms: permission.AgentPermissions{
			FileAccess:    permission.ReadWrite,
			MaxIterations: 10,
		},
	}
	o := newTestOrchestrator(t, target)

	ceiling := permission.AgentPermissions{
		FileAccess:    permission.ReadOnly,
		MaxIterations: 3,
		CanDelegate:   true,
	}
	result, err := o.Delegate(context.Background(), "writer", agent.Task{}, ceiling)
	require.NoError(t, err)
	assert.Equal(t, agent.ResultAnalysis, result.Kind)
}

func TestDelegateUnknownAgentSuggestsClosest(t *testing.T) {
	o := newTestOrchestrator(t, &scriptedAgent{id: "review", keyword: "review"})

	_, err := o.Delegate(context.Background(), "reveiw", agent.Task{}, permission.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "review"`)
}

func TestRunCancelledContext(t *testing.T) {
	o := newTestOrchestrator(t, &scriptedAgent{id: "review", keyword: "review"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, err := o.Run(ctx, agent.Task{
		Context: agent.TaskContext{UserIntent: "review this"},
	}, StrategySequential)
	require.NoError(t, err)
	assert.Equal(t, StateAborted, run.State)
	assert.Contains(t, run.AbortReason, "cancelled")
}

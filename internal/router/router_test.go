package router

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentmux/agentmux/internal/agent"
	"github.com/agentmux/agentmux/internal/permission"
)

// fixedAgent scores every context the same.
type fixedAgent struct {
	id    string
	score agent.ActivationScore
}

func (f *fixedAgent) Identity() agent.Identity { return agent.Identity{ID: f.id, Name: f.id} }

func (f *fixedAgent) CanHandle(agent.TaskContext) agent.ActivationScore { return f.score }

func (f *fixedAgent) Execute(context.Context, agent.Task, agent.Toolkit) (agent.Result, error) {
	return agent.NewAnalysis("done by "+f.id, nil), nil
}

func (f *fixedAgent) Permissions() permission.AgentPermissions { return permission.Default() }

func TestRegisterRejectsDuplicateID(t *testing.T) {
	r := New(0.6)
	require.NoError(t, r.Register(&fixedAgent{id: "review"}))
	assert.Error(t, r.Register(&fixedAgent{id: "review"}))
}

func TestSelectAgentPicksHighestScorer(t *testing.T) {
	r := New(0.6)
	require.NoError(t, r.Register(&fixedAgent{id: "low", score: 0.3}))
	require.NoError(t, r.Register(&fixedAgent{id: "high", score: 0.9}))
	require.NoError(t, r.Register(&fixedAgent{id: "mid", score: 0.7}))

	selected, score := r.SelectAgent(agent.TaskContext{UserIntent: "anything"})
	require.NotNil(t, selected)
	assert.Equal(t, "high", selected.Identity().ID)
	assert.InDelta(t, 0.9, float64(score), 1e-9)
}

func TestSelectAgentReturnsNilBelowThreshold(t *testing.T) {
	r := New(0.6)
	require.NoError(t, r.Register(&fixedAgent{id: "weak", score: 0.5}))

	selected, _ := r.SelectAgent(agent.TaskContext{})
	assert.Nil(t, selected)
}

func TestSelectAgentTieBreaksByRegistrationOrder(t *testing.T) {
	r := New(0.6)
	require.NoError(t, r.Register(&fixedAgent{id: "first", score: 0.8}))
	require.NoError(t, r.Register(&fixedAgent{id: "second", score: 0.8}))

	for i := 0; i < 10; i++ {
		selected, _ := r.SelectAgent(agent.TaskContext{})
		require.NotNil(t, selected)
		assert.Equal(t, "first", selected.Identity().ID)
	}
}

func TestSelectAgentWithRealAgents(t *testing.T) {
	r := New(0.6)
	require.NoError(t, r.Register(agent.NewReviewAgent()))
	require.NoError(t, r.Register(agent.NewSecurityAgent()))

	ctx := agent.TaskContext{
		FilePaths:  []string{"auth.go"},
		UserIntent: "audit this code for security vulnerabilities",
	}
	selected, _ := r.SelectAgent(ctx)
	require.NotNil(t, selected)
	assert.Equal(t, "security", selected.Identity().ID)
}

func TestSuggestAgents(t *testing.T) {
	r := New(0.6)
	require.NoError(t, r.Register(&fixedAgent{id: "a", score: 0.4}))
	require.NoError(t, r.Register(&fixedAgent{id: "b", score: 0.9}))
	require.NoError(t, r.Register(&fixedAgent{id: "c", score: 0}))
	require.NoError(t, r.Register(&fixedAgent{id: "d", score: 0.7}))

	got := r.SuggestAgents(agent.TaskContext{}, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Agent.Identity().ID)
	assert.Equal(t, "d", got[1].Agent.Identity().ID)
}

func TestSuggestAgentsOmitsZeroScores(t *testing.T) {
	r := New(0.6)
	require.NoError(t, r.Register(&fixedAgent{id: "silent", score: 0}))

	assert.Empty(t, r.SuggestAgents(agent.TaskContext{}, 5))
}

func TestClosestID(t *testing.T) {
	r := New(0.6)
	require.NoError(t, r.Register(&fixedAgent{id: "review"}))
	require.NoError(t, r.Register(&fixedAgent{id: "security"}))

	assert.Equal(t, "review", r.ClosestID("reveiw"))
	assert.Equal(t, "security", r.ClosestID("securty"))
	assert.Equal(t, "", r.ClosestID("completely-unrelated"))
}

func TestNonPositiveThresholdUsesDefault(t *testing.T) {
	r := New(0)
	assert.Equal(t, DefaultThreshold, r.Threshold())
}

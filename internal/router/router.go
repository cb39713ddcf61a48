// Package router selects agents for tasks using activation scores.
package router

import (
	"fmt"
	"sort"

	"github.com/agnivade/levenshtein"
	"github.com/rs/zerolog"

	"github.com/agentmux/agentmux/internal/agent"
	"github.com/agentmux/agentmux/internal/logging"
)

// DefaultThreshold is the minimum activation score an agent needs to be
// selected for a task.
const DefaultThreshold = 0.6

// Candidate pairs an agent with its score for one routing decision.
type Candidate struct {
	Agent agent.Agent
	Score agent.ActivationScore
}

// Router scores registered agents against task contexts and picks the best
// match. Registration order is preserved: when scores tie, the agent
// registered first wins, so routing is deterministic for a fixed context and
// registration sequence.
type Router struct {
	agents    []agent.Agent
	byID      map[string]agent.Agent
	threshold float64
	log       zerolog.Logger
}

// New creates a router with the given activation threshold. A non-positive
// threshold falls back to DefaultThreshold.
func New(threshold float64) *Router {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Router{
		byID:      make(map[string]agent.Agent),
		threshold: threshold,
		log:       logging.Component("router"),
	}
}

// Register adds an agent. Agent IDs must be unique.
func (r *Router) Register(a agent.Agent) error {
	id := a.Identity().ID
	if id == "" {
		return fmt.Errorf("agent has no id")
	}
	if _, exists := r.byID[id]; exists {
		return fmt.Errorf("agent %q is already registered", id)
	}
	r.agents = append(r.agents, a)
	r.byID[id] = a
	r.log.Debug().Str("agent", id).Msg("agent registered")
	return nil
}

// Get returns the agent with the given ID.
func (r *Router) Get(id string) (agent.Agent, bool) {
	a, ok := r.byID[id]
	return a, ok
}

// Agents returns the registered agents in registration order.
func (r *Router) Agents() []agent.Agent {
	out := make([]agent.Agent, len(r.agents))
	copy(out, r.agents)
	return out
}

// Threshold returns the activation threshold in effect.
func (r *Router) Threshold() float64 { return r.threshold }

// SelectAgent scores every registered agent against the context and returns
// the highest scorer at or above the threshold. It returns nil when no agent
// qualifies; the caller decides the fallback.
func (r *Router) SelectAgent(ctx agent.TaskContext) (agent.Agent, agent.ActivationScore) {
	var best agent.Agent
	var bestScore agent.ActivationScore

	for _, a := range r.agents {
		score := a.CanHandle(ctx)
		r.log.Debug().
			Str("agent", a.Identity().ID).
			Float64("score", float64(score)).
			Msg("agent scored")
		if best == nil || score > bestScore {
			best, bestScore = a, score
		}
	}

	if best == nil || float64(bestScore) < r.threshold {
		r.log.Info().Float64("threshold", r.threshold).Msg("no agent met the threshold")
		return nil, 0
	}

	r.log.Info().
		Str("agent", best.Identity().ID).
		Float64("score", float64(bestScore)).
		Msg("agent selected")
	return best, bestScore
}

// SuggestAgents returns up to n candidates ordered by descending score.
// Agents scoring zero are omitted. Ties keep registration order.
func (r *Router) SuggestAgents(ctx agent.TaskContext, n int) []Candidate {
	var candidates []Candidate
	for _, a := range r.agents {
		if score := a.CanHandle(ctx); score > 0 {
			candidates = append(candidates, Candidate{Agent: a, Score: score})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if n > 0 && len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}

// ClosestID returns the registered agent ID nearest to the given name, for
// "did you mean" hints when a lookup fails. It returns "" when nothing is
// reasonably close.
func (r *Router) ClosestID(name string) string {
	const maxDistance = 3

	best := ""
	bestDist := maxDistance + 1
	for _, a := range r.agents {
		id := a.Identity().ID
		if d := levenshtein.ComputeDistance(name, id); d < bestDist {
			best, bestDist = id, d
		}
	}
	return best
}

package orchestrator

import (
	"fmt"
	"strings"

	"github.com/agentmux/agentmux/internal/agent"
)

// Subtask is one unit of a decomposed task, bound to the agent that will
// execute it. AgentID is empty when no agent met the activation threshold.
// IDs derive from the run ID plus the clause ordinal, so decomposing the
// same task within a run is fully reproducible.
type Subtask struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	AgentID     string     `json:"agentId,omitempty"`
	Task        agent.Task `json:"task"`
}

// clauseSeparators split a compound intent into independently routable
// clauses. Splitting is purely lexical so decomposition is deterministic.
var clauseSeparators = []string{";", " and then ", ", then ", " then "}

// splitIntent breaks a user intent into clauses. An intent with no
// separators yields itself as the single clause.
func splitIntent(intent string) []string {
	clauses := []string{intent}
	for _, sep := range clauseSeparators {
		var next []string
		for _, c := range clauses {
			next = append(next, strings.Split(c, sep)...)
		}
		clauses = next
	}

	var out []string
	for _, c := range clauses {
		if trimmed := strings.TrimSpace(c); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		out = []string{strings.TrimSpace(intent)}
	}
	return out
}

// decompose splits a task into subtasks, one per intent clause. Every
// subtask inherits the parent's files, git context, and mode; only the
// intent narrows.
func decompose(task agent.Task, runID string) []Subtask {
	clauses := splitIntent(task.Context.UserIntent)

	subtasks := make([]Subtask, 0, len(clauses))
	for i, clause := range clauses {
		sub := task
		sub.Context.UserIntent = clause
		subtasks = append(subtasks, Subtask{
			ID:          fmt.Sprintf("%s.%d", runID, i+1),
			Description: clause,
			Task:        sub,
		})
	}
	return subtasks
}

// Package toolkit is the permission-checked gateway between agents and the
// outside world. Every file read, file write, shell command, tool
// invocation, and delegation an agent performs goes through a Toolkit bound
// to that agent's permissions, so enforcement lives in one place regardless
// of how the agent is implemented.
//
// Each agent execution gets its own Toolkit instance carrying an iteration
// budget. The budget counts suspending operations; once exhausted, further
// calls fail with BudgetExceededError. Denied operations never consume
// budget, and Publish is always free.
package toolkit

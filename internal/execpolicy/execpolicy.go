// Package execpolicy defines the contract with the external authority that
// classifies shell invocations before the toolkit permits them.
package execpolicy

import "context"

// Kind is the classification of a shell invocation.
type Kind string

const (
	// Safe invocations proceed without further checks.
	Safe Kind = "safe"
	// MatchWithWriteTargets invocations write to the listed paths; they
	// proceed only if every target passes the agent's file-access policy.
	MatchWithWriteTargets Kind = "match_with_write_targets"
	// Forbidden invocations never run; Reason says why.
	Forbidden Kind = "forbidden"
	// Unverified invocations could not be classified and require approval.
	Unverified Kind = "unverified"
)

// Decision is the policy's answer for one invocation.
type Decision struct {
	Kind         Kind
	WriteTargets []string
	Reason       string
}

// Policy classifies shell invocations. The toolkit treats it as
// authoritative and never bypasses it.
type Policy interface {
	Classify(ctx context.Context, cmd string, args []string) Decision
}

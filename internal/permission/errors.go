package permission

import "fmt"

// DeniedError is returned when the toolkit blocks an operation the agent's
// permissions do not cover. It names the agent and the operation so every
// denial is attributable.
type DeniedError struct {
	AgentID   string
	Operation string
	Detail    string
}

func (e *DeniedError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("permission denied: agent %q may not %s", e.AgentID, e.Operation)
	}
	return fmt.Sprintf("permission denied: agent %q may not %s: %s", e.AgentID, e.Operation, e.Detail)
}

// IsDenied reports whether an error is a permission denial.
func IsDenied(err error) bool {
	_, ok := err.(*DeniedError)
	return ok
}

// DelegationError is returned when an agent without delegation rights
// attempts to hand work to another agent.
type DelegationError struct {
	AgentID string
	Target  string
}

func (e *DelegationError) Error() string {
	return fmt.Sprintf("delegation not allowed: agent %q may not delegate to %q", e.AgentID, e.Target)
}

// IsDelegationDenied reports whether an error is a delegation rejection.
func IsDelegationDenied(err error) bool {
	_, ok := err.(*DelegationError)
	return ok
}

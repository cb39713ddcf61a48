// Package permission implements the capability model that bounds what an
// agent may do during execution.
//
// # Overview
//
// Every agent carries one AgentPermissions value, fixed at construction.
// The toolkit consults it before performing any operation on the agent's
// behalf; a conforming agent respecting its own permissions is defense in
// depth, never the sole guard.
//
// # File access
//
// File operations are gated by a mode (NoAccess, ReadOnly, ReadWrite) and
// two glob pattern lists matched with doublestar. Deny patterns are always
// checked first; an empty allow list means any path not denied. Writes
// additionally require ReadWrite mode.
//
// # Delegation ceilings
//
// When one agent delegates work to another, the sub-agent runs under
// Intersect(sub, delegator): the conjunction of both permission sets.
// Delegation can narrow what a sub-agent may do but never widen it.
package permission

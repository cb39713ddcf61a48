// Package agent defines the core agent abstraction: identities, activation
// scoring, the task model, the result union, and the toolkit contract every
// agent executes through.
//
// # Agents
//
// All agents implement one flat interface. Concrete agents are leaf
// implementers; there is no hierarchy. The package ships two built-in
// agents:
//
//   - review: code quality, maintainability, and best-practice findings
//   - security: static vulnerability signatures with CWE references
//
// plus CustomAgent, which turns a config-loaded Definition into a
// keyword-scored agent.
//
// # Activation scoring
//
// CanHandle combines independent signals additively (keywords in the user
// intent, file types in the context, presence of git context) and clamps
// the sum to [0, 1]. Scoring is pure and never cached: context changes on
// every call.
//
// # Results
//
// Result is a tagged union with three variants (code review, analysis,
// suggestions). Values are immutable once produced and round-trip through
// JSON; orchestration combines them into new values rather than merging in
// place.
package agent

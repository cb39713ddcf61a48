// Package orchestrator coordinates multi-agent task execution. A run moves
// through a linear lifecycle: the task is decomposed into subtasks, each
// subtask is routed to the best-scoring agent, the subtasks execute under a
// coordination strategy, and the outcomes are synthesized into one result.
//
// Three strategies are supported. Parallel runs independent subtasks
// concurrently under a worker cap and tolerates individual failures.
// Sequential runs subtasks in order, feeds each result into the next
// subtask's context, and aborts the chain on the first failure.
// Collaborative is parallel plus a shared message hub agents publish
// findings to while they run.
//
// The orchestrator is also the delegation backend: when an agent delegates
// through its toolkit, the call lands here, and the target executes under
// the intersection of its own permissions and the delegator's.
package orchestrator

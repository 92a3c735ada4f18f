// Package lambda provides error values shared across the reduction machine.
// This file declares the sentinel errors returned by the substrate, the
// compiler, the machine and the runner. All errors propagate synchronously
// to the caller; nothing in the package retries or recovers internally.
package lambda

import "errors"

// Sentinel errors. Callers distinguish failure modes with errors.Is; the
// package wraps each sentinel with context via fmt.Errorf("...: %w", ...).
var (
	// ErrUnknownNode reports a node id that does not resolve in the graph.
	ErrUnknownNode = errors.New("unknown node")

	// ErrInvalidPairShape reports a pair with a missing or dangling child.
	ErrInvalidPairShape = errors.New("invalid pair shape")

	// ErrUnboundSlot reports a variable reference that cannot be resolved
	// against the binder stack at compile time. Unresolved references fail
	// the compile; they never become silent free-variable placeholders.
	ErrUnboundSlot = errors.New("unbound slot")

	// ErrUnsupportedNodeKind reports a traversal that met a node outside
	// the closed kind set. With exhaustive switches in place this is an
	// internal assertion failure, not a user-facing condition.
	ErrUnsupportedNodeKind = errors.New("unsupported node kind")

	// ErrNonTerminating reports that the runner exceeded its step bound.
	// Many encodable terms legitimately diverge; this distinguishes
	// "gave up" from "reached normal form".
	ErrNonTerminating = errors.New("reduction did not terminate within step bound")

	// ErrInvalidEvent reports an event that no longer matches the graph it
	// is being applied to, typically a replay against a stale snapshot.
	ErrInvalidEvent = errors.New("event does not match current graph")
)

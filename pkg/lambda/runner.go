// Package lambda provides the reduction driver.
// This file implements the observe/apply loop that carries a term to a
// fixed point, and the two-phase schedule the calculus intends: a weak
// phase that treats lambdas as normal forms, then a full phase that also
// normalizes lambda bodies.
package lambda

import (
	"context"
	"fmt"
)

// defaultMaxSteps bounds a run when RunOptions.MaxSteps is unset.
const defaultMaxSteps = 10000

// StepObserver receives each applied event for external tracing. The
// callback never influences subsequent event selection.
type StepObserver func(step int, g *Graph, root NodeID, ev *Event)

// RunOptions configures a reduction run.
type RunOptions struct {
	// MaxSteps bounds the number of applied events before the run fails
	// with ErrNonTerminating. Zero or negative selects a default of
	// 10000. Fixpoint-style terms legitimately diverge; the bound
	// distinguishes "reached normal form" from "gave up".
	MaxSteps int

	// ReduceUnderLambdas selects the full phase for RunUntilStuck.
	// Evaluate manages this flag itself.
	ReduceUnderLambdas bool

	// CloneArguments clones argument subtrees on Apply. DefaultRunOptions
	// enables it; disabling trades aliasing risk for sharing.
	CloneArguments bool

	// Resolver recognizes and materializes expandable symbols. May be
	// nil.
	Resolver Resolver

	// Observer, when set, is invoked after every applied event.
	Observer StepObserver
}

// DefaultRunOptions returns the standard configuration: default step
// bound, argument cloning on, no resolver.
func DefaultRunOptions() RunOptions {
	return RunOptions{MaxSteps: defaultMaxSteps, CloneArguments: true}
}

// RunUntilStuck repeatedly observes and applies events until no event is
// enabled, returning the resulting (graph, root). The context is checked
// between steps; no suspension point exists inside a step. Exceeding the
// step bound fails with ErrNonTerminating.
func RunUntilStuck(ctx context.Context, g *Graph, root NodeID, opts RunOptions) (*Graph, NodeID, error) {
	maxSteps := opts.MaxSteps
	if maxSteps <= 0 {
		maxSteps = defaultMaxSteps
	}
	observe := ObserveOptions{ReduceUnderLambdas: opts.ReduceUnderLambdas, Resolver: opts.Resolver}
	apply := ApplyOptions{Resolver: opts.Resolver, CloneArguments: opts.CloneArguments}

	for step := 0; ; step++ {
		select {
		case <-ctx.Done():
			return nil, NoNode, fmt.Errorf("run: %w", ctx.Err())
		default:
		}

		ev, err := ObserveEvent(g, root, observe)
		if err != nil {
			return nil, NoNode, fmt.Errorf("run: %w", err)
		}
		if ev == nil {
			return g, root, nil
		}
		if step >= maxSteps {
			return nil, NoNode, fmt.Errorf("run: %d steps: %w", maxSteps, ErrNonTerminating)
		}

		g, root, err = ApplyEvent(g, root, ev, apply)
		if err != nil {
			return nil, NoNode, fmt.Errorf("run step %d: %w", step, err)
		}
		if opts.Observer != nil {
			opts.Observer(step+1, g, root, ev)
		}
	}
}

// Evaluate runs the two-phase schedule: first to a weak fixed point
// without descending under binders, then on from that result with lambda
// bodies reducible too. opts.ReduceUnderLambdas is ignored; both phases
// share the remaining options.
func Evaluate(ctx context.Context, g *Graph, root NodeID, opts RunOptions) (*Graph, NodeID, error) {
	weak := opts
	weak.ReduceUnderLambdas = false
	g, root, err := RunUntilStuck(ctx, g, root, weak)
	if err != nil {
		return nil, NoNode, fmt.Errorf("weak phase: %w", err)
	}

	full := opts
	full.ReduceUnderLambdas = true
	g, root, err = RunUntilStuck(ctx, g, root, full)
	if err != nil {
		return nil, NoNode, fmt.Errorf("full phase: %w", err)
	}
	return g, root, nil
}

// EvaluateString compiles input against res and evaluates it through the
// two-phase schedule, returning the final (graph, root).
func EvaluateString(ctx context.Context, input string, res Resolver, opts RunOptions) (*Graph, NodeID, error) {
	g, root, err := CompileString(NewGraph(), input, res)
	if err != nil {
		return nil, NoNode, err
	}
	if opts.Resolver == nil {
		// A deferred resolver is compile-time only: it materializes
		// Symbols, which would make Expand a no-op loop. Run against the
		// library behind it instead.
		if d, ok := res.(deferredResolver); ok {
			opts.Resolver = d.lib
		} else {
			opts.Resolver = res
		}
	}
	return Evaluate(ctx, g, root, opts)
}

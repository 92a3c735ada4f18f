// Package lambda provides pluggable scheduling.
// This file separates candidate generation from choice: the machine's
// CollectEnabledEvents generates, a Chooser selects, and RunWithChooser
// drives the loop. The rewrite logic in machine.go is untouched by the
// scheduling policy, so deterministic and seeded-random schedules share
// every invariant.
package lambda

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/gitrdm/golambda/internal/parallel"
)

// Chooser selects one event among all simultaneously enabled ones.
type Chooser interface {
	// Choose picks an element of events, which is never empty. events is
	// in deterministic schedule order.
	Choose(events []Event) Event
}

// FirstChooser picks the first enabled event, reproducing the
// deterministic leftmost-outermost schedule of ObserveEvent.
type FirstChooser struct{}

// Choose returns events[0].
func (FirstChooser) Choose(events []Event) Event { return events[0] }

// RandomChooser picks uniformly among enabled events with a seeded source,
// so a given seed replays the same reduction line.
type RandomChooser struct {
	rng *rand.Rand
}

// NewRandomChooser returns a chooser seeded with seed.
func NewRandomChooser(seed int64) *RandomChooser {
	return &RandomChooser{rng: rand.New(rand.NewSource(seed))}
}

// Choose picks a uniformly random enabled event.
func (c *RandomChooser) Choose(events []Event) Event {
	return events[c.rng.Intn(len(events))]
}

// RunWithChooser reduces to a fixed point, selecting each step's event
// with the chooser instead of the deterministic schedule. Semantics
// otherwise match RunUntilStuck, including the step bound and the
// per-step observer callback.
func RunWithChooser(ctx context.Context, g *Graph, root NodeID, chooser Chooser, opts RunOptions) (*Graph, NodeID, error) {
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

		events, err := CollectEnabledEvents(g, root, observe)
		if err != nil {
			return nil, NoNode, fmt.Errorf("run: %w", err)
		}
		if len(events) == 0 {
			return g, root, nil
		}
		if step >= maxSteps {
			return nil, NoNode, fmt.Errorf("run: %d steps: %w", maxSteps, ErrNonTerminating)
		}

		ev := chooser.Choose(events)
		g, root, err = ApplyEvent(g, root, &ev, apply)
		if err != nil {
			return nil, NoNode, fmt.Errorf("run step %d: %w", step, err)
		}
		if opts.Observer != nil {
			opts.Observer(step+1, g, root, &ev)
		}
	}
}

// SampleResult is the outcome of one seeded reduction line.
type SampleResult struct {
	Seed       int64
	Graph      *Graph
	Root       NodeID
	Serialized string
	Err        error
}

// SampleNormalForms reduces the same (graph, root) once per seed, each
// line choosing uniformly among enabled redexes, and returns the results
// in seed order. Lines run concurrently on a worker pool; this is safe
// without copying because graphs are persistent values, every line
// deriving its own chain from the shared input.
func SampleNormalForms(ctx context.Context, g *Graph, root NodeID, seeds []int64, opts RunOptions) ([]SampleResult, error) {
	pool := parallel.New(0)
	defer pool.Close()

	results := make([]SampleResult, len(seeds))
	for i, seed := range seeds {
		i, seed := i, seed
		err := pool.Go(ctx, func() {
			res := SampleResult{Seed: seed}
			res.Graph, res.Root, res.Err = RunWithChooser(ctx, g, root, NewRandomChooser(seed), opts)
			if res.Err == nil {
				res.Serialized, res.Err = Serialize(res.Graph, res.Root)
			}
			results[i] = res
		})
		if err != nil {
			pool.Wait()
			return nil, fmt.Errorf("sample: %w", err)
		}
	}
	pool.Wait()
	return results, nil
}

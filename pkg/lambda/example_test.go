package lambda_test

import (
	"context"
	"fmt"

	"github.com/gitrdm/golambda/pkg/lambda"
)

// Reduce an application of the K combinator to its normal form.
func ExampleEvaluateString() {
	lib, err := lambda.ParseDefinitions(`
(def I (() #0))
(def K (() (() #1)))
`)
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	g, root, err := lambda.EvaluateString(ctx, "((K a) b)", lib, lambda.DefaultRunOptions())
	if err != nil {
		panic(err)
	}

	out, err := lambda.Serialize(g, root)
	if err != nil {
		panic(err)
	}
	fmt.Println(out)
	// Output: a
}

// Compile a term and inspect the first enabled event without applying it.
func ExampleObserveEvent() {
	g, root, err := lambda.CompileString(lambda.NewGraph(), "((() #0) z)", nil)
	if err != nil {
		panic(err)
	}

	ev, err := lambda.ObserveEvent(g, root, lambda.ObserveOptions{})
	if err != nil {
		panic(err)
	}
	fmt.Println(ev.Kind)
	// Output: apply
}

// Step a reduction by hand with the observe/apply pair. The input graph
// stays valid after each step.
func ExampleApplyEvent() {
	g, root, err := lambda.CompileString(lambda.NewGraph(), "((() #0) z)", nil)
	if err != nil {
		panic(err)
	}

	ev, err := lambda.ObserveEvent(g, root, lambda.ObserveOptions{})
	if err != nil {
		panic(err)
	}
	g2, root2, err := lambda.ApplyEvent(g, root, ev, lambda.ApplyOptions{CloneArguments: true})
	if err != nil {
		panic(err)
	}

	before, _ := lambda.Serialize(g, root)
	after, _ := lambda.Serialize(g2, root2)
	fmt.Println(before)
	fmt.Println(after)
	// Output:
	// ((() #0) z)
	// z
}

// Reclaim the garbage a reduction leaves behind. Compaction never changes
// what the term means.
func ExampleCompact() {
	lib, err := lambda.ParseDefinitions("(def K (() (() #1)))")
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	g, root, err := lambda.EvaluateString(ctx, "((K a) b)", lib, lambda.DefaultRunOptions())
	if err != nil {
		panic(err)
	}

	cg, croot, err := lambda.Compact(g, root, lambda.CompactOptions{Mode: lambda.CompactIntern})
	if err != nil {
		panic(err)
	}

	out, _ := lambda.Serialize(cg, croot)
	fmt.Println(out)
	fmt.Println(cg.Size() < g.Size())
	// Output:
	// a
	// true
}

// Command golambda evaluates terms of the minimal lambda language with
// the graph reduction machine. It offers one-shot evaluation, definition
// files and an interactive REPL.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/gitrdm/golambda/pkg/lambda"
)

const historyFile = ".golambda_history"

var (
	flagDefs     string
	flagMaxSteps int
	flagWeak     bool
	flagNoClone  bool
	flagCompact  string
	flagTrace    string
)

func main() {
	root := &cobra.Command{
		Use:           "golambda",
		Short:         "Graph reduction machine for a minimal lambda language",
		Version:       lambda.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagDefs, "defs", "", "definition file of (def ...) / (defn ...) forms")
	root.PersistentFlags().IntVar(&flagMaxSteps, "max-steps", 0, "step bound per phase (0 = default)")
	root.PersistentFlags().BoolVar(&flagWeak, "weak", false, "weak phase only: do not reduce under lambdas")
	root.PersistentFlags().BoolVar(&flagNoClone, "no-clone-args", false, "share argument subgraphs instead of cloning on apply")
	root.PersistentFlags().StringVar(&flagCompact, "compact", "", "compact the result: none, intern or full")
	root.PersistentFlags().StringVar(&flagTrace, "trace", "", "write per-step snapshots as JSON to this file")

	root.AddCommand(evalCommand(), runCommand(), replCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "golambda:", err)
		os.Exit(1)
	}
}

func evalCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "eval <term>",
		Short: "Evaluate a single term and print its normal form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := loadDefs()
			if err != nil {
				return err
			}
			out, err := evalTerm(cmd.Context(), args[0], lib)
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
}

func runCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run <file>",
		Short: "Evaluate every top-level term in a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := loadDefs()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			forms, err := lambda.ParseForms(string(data))
			if err != nil {
				return err
			}
			for _, form := range forms {
				out, err := evalTerm(cmd.Context(), form.String(), lib)
				if err != nil {
					return fmt.Errorf("%s: %w", form, err)
				}
				fmt.Println(out)
			}
			return nil
		},
	}
}

func replCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactive evaluation loop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := loadDefs()
			if err != nil {
				return err
			}
			return repl(cmd.Context(), lib)
		},
	}
}

func loadDefs() (*lambda.Library, error) {
	if flagDefs == "" {
		return lambda.NewLibrary(), nil
	}
	data, err := os.ReadFile(flagDefs)
	if err != nil {
		return nil, err
	}
	return lambda.ParseDefinitions(string(data))
}

func runOptions(lib *lambda.Library) lambda.RunOptions {
	opts := lambda.DefaultRunOptions()
	opts.MaxSteps = flagMaxSteps
	opts.Resolver = lib
	opts.CloneArguments = !flagNoClone
	return opts
}

func evalTerm(ctx context.Context, input string, lib *lambda.Library) (string, error) {
	g, root, err := lambda.CompileString(lambda.NewGraph(), input, lib)
	if err != nil {
		return "", err
	}

	opts := runOptions(lib)
	var tracer lambda.Tracer
	if flagTrace != "" {
		opts.Observer = tracer.StepObserver()
	}

	if flagWeak {
		g, root, err = lambda.RunUntilStuck(ctx, g, root, opts)
	} else {
		g, root, err = lambda.Evaluate(ctx, g, root, opts)
	}
	if err != nil {
		return "", err
	}

	if flagCompact != "" {
		mode, err := parseCompactMode(flagCompact)
		if err != nil {
			return "", err
		}
		g, root, err = lambda.Compact(g, root, lambda.CompactOptions{Mode: mode})
		if err != nil {
			return "", err
		}
	}

	if flagTrace != "" {
		f, err := os.Create(flagTrace)
		if err != nil {
			return "", err
		}
		defer f.Close()
		if err := tracer.WriteJSON(f); err != nil {
			return "", err
		}
	}

	return lambda.Serialize(g, root)
}

func parseCompactMode(s string) (lambda.CompactMode, error) {
	switch s {
	case "none":
		return lambda.CompactNone, nil
	case "intern":
		return lambda.CompactIntern, nil
	case "full":
		return lambda.CompactFull, nil
	default:
		return 0, fmt.Errorf("unknown compact mode %q (want none, intern or full)", s)
	}
}

func repl(ctx context.Context, lib *lambda.Library) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	histPath := ""
	if home, err := os.UserHomeDir(); err == nil {
		histPath = filepath.Join(home, historyFile)
		if f, err := os.Open(histPath); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}

	fmt.Printf("golambda %s (:quit exits, :names lists definitions)\n", lambda.Version)

	for {
		input, err := line.Prompt("> ")
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if strings.HasPrefix(input, ":") {
			if done := replCommandLine(input, lib); done {
				break
			}
			continue
		}

		out, err := evalTerm(ctx, input, lib)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			continue
		}
		fmt.Println(out)
	}

	if histPath != "" {
		if f, err := os.Create(histPath); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}
	return nil
}

// replCommandLine handles ':' commands, returning true to exit the loop.
func replCommandLine(input string, lib *lambda.Library) bool {
	fields := strings.Fields(input)
	switch fields[0] {
	case ":quit", ":q":
		return true
	case ":names":
		for _, name := range lib.Names() {
			fmt.Println(name)
		}
	case ":def":
		if len(fields) < 3 {
			fmt.Fprintln(os.Stderr, "usage: :def name (body)")
			return false
		}
		body := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(input, fields[0]), " "+fields[1]))
		form, err := lambda.ParseForm(body)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return false
		}
		if err := lib.Define(fields[1], form); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
	default:
		fmt.Fprintln(os.Stderr, "commands: :quit, :names, :def name (body)")
	}
	return false
}

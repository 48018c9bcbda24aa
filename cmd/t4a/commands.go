package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tools4ai/internal/detect"
	"tools4ai/internal/perception"
	"tools4ai/internal/pipeline"
	"tools4ai/internal/script"
)

var (
	confirm   bool
	explain   bool
	count     int
	reference string
)

var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "List registered actions",
	Args:  cobra.NoArgs,
	RunE:  runActions,
}

var runCmd = &cobra.Command{
	Use:   "run [instruction]",
	Short: "Predict one action for an instruction and run it",
	Example: `  t4a run "search google for the best dal makhani recipe"
  t4a run --confirm "delete yesterday's backups"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInstruction,
}

var multiCmd = &cobra.Command{
	Use:   "multi [instruction]",
	Short: "Predict several independent actions and run each",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMultiple,
}

var stepsCmd = &cobra.Command{
	Use:   "steps [instruction]",
	Short: "Break an instruction into sub-steps and run each",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSteps,
}

var scriptCmd = &cobra.Command{
	Use:   "script [name]",
	Short: "Run a script from the script directory and summarize it",
	Args:  cobra.ExactArgs(1),
	RunE:  runScript,
}

var detectCmd = &cobra.Command{
	Use:   "detect [answer]",
	Short: "Check a model answer for likely hallucination",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDetect,
}

func runActions(cmd *cobra.Command, args []string) error {
	registry, err := loadRegistry(cfg)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tRISK\tGROUP\tDESCRIPTION")
	for _, d := range registry.All() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", d.Name, d.Kind, d.Risk, d.Group, d.Description)
	}
	return w.Flush()
}

func runInstruction(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	var opts []pipeline.Option
	if confirm {
		opts = append(opts, pipeline.WithHumanDecision(&pipeline.ConsoleHumanDecision{
			In:  cmd.InOrStdin(),
			Out: cmd.OutOrStdout(),
		}))
	}
	if explain {
		cfg.Pipeline.Explain = true
	}
	rt, err := newRuntime(ctx, cfg, opts...)
	if err != nil {
		return err
	}

	instruction := joinArgs(args)
	logger.Info("Processing instruction", zap.String("input", instruction))
	o, err := rt.processor.Process(ctx, instruction)
	if errors.Is(err, pipeline.ErrNotApproved) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s was not approved\n", o.Action)
		return nil
	}
	if err != nil {
		return err
	}
	printOutcome(cmd.OutOrStdout(), o)
	return nil
}

func runMultiple(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	outcomes, err := rt.processor.ProcessMultiple(ctx, joinArgs(args), count)
	if err != nil {
		return err
	}
	for _, o := range outcomes {
		printOutcome(cmd.OutOrStdout(), o)
	}
	return nil
}

func runSteps(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	outcomes, err := rt.processor.ProcessSteps(ctx, joinArgs(args))
	if err != nil {
		return err
	}
	for _, o := range outcomes {
		printOutcome(cmd.OutOrStdout(), o)
	}
	return nil
}

func runScript(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	orch := script.New(os.DirFS(cfg.Script.Dir), rt.processor, rt.engine)

	result, runErr := orch.Run(ctx, args[0], nil)
	out := cmd.OutOrStdout()
	for _, e := range result.Entries {
		fmt.Fprintf(out, "%s\n  => %s\n", e.Line, e.Result)
	}
	if runErr != nil {
		if errors.Is(runErr, script.ErrScriptNotFound) {
			logger.Warn("Script ended early", zap.Error(runErr))
		} else {
			return runErr
		}
	}
	if len(result.Entries) == 0 {
		return runErr
	}

	summary, err := orch.Summarize(ctx, result)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nSummary: %s\n", summary)
	return nil
}

func runDetect(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	client := perception.NewTracingClient(rt.client, "detect")
	opts := []detect.Option{
		detect.WithQuestions(cfg.Detect.Questions),
		detect.WithThreshold(cfg.Detect.Threshold),
	}
	if cfg.Detect.Scorer == "model" {
		opts = append(opts, detect.WithScorer(detect.ModelScorer{Client: client}))
	}

	a, err := detect.New(client, opts...).Detect(ctx, joinArgs(args), reference)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(a)
}

func printOutcome(w io.Writer, o *pipeline.Outcome) {
	switch {
	case o.Err != nil:
		fmt.Fprintf(w, "[%s] error: %v\n", o.Action, o.Err)
	case o.NoOp:
		fmt.Fprintf(w, "[%s] no matching action for %q\n", o.Action, o.Prompt)
	default:
		fmt.Fprintf(w, "[%s] %s\n", o.Action, o.Result)
	}
}

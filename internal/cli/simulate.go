package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seatwatch/seatwatch/internal/harness"
)

// SimulateOptions holds flags for the simulate command.
type SimulateOptions struct {
	*RootOptions
	Trace  bool
	Filter string
}

// ScenarioResult holds the outcome of one scenario.
type ScenarioResult struct {
	Name     string               `json:"name"`
	Pass     bool                 `json:"pass"`
	Failures []string             `json:"failures,omitempty"`
	Trace    []harness.TraceEvent `json:"trace,omitempty"`
}

// SimulateResult holds the overall outcome.
type SimulateResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimulateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "simulate <scenario.yaml|scenarios-dir>",
		Short: "Run scenario files against the engine",
		Long: `Run one scenario file, or every scenario in a directory, against a
fresh engine on a simulated clock, and check the scenario assertions.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, unreadable scenarios)

Examples:
  seatwatch simulate ./scenarios/no_show.yaml
  seatwatch simulate ./scenarios --filter "reserved-*"
  seatwatch simulate ./scenarios --trace --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "include the event trace in the output")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runSimulate(opts *SimulateOptions, path string, cmd *cobra.Command) error {
	info, err := os.Stat(path)
	if err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenario path not found: %s", path))
	}

	var files []string
	if info.IsDir() {
		files, err = findScenarioFiles(path, opts.Filter)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to find scenarios", err)
		}
	} else {
		files = []string{path}
	}

	if len(files) == 0 {
		if opts.Format == "json" {
			return outputSimulateJSON(opts, cmd, SimulateResult{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	result := SimulateResult{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}
	for _, file := range files {
		sr := runOneScenario(file, opts, cmd)
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		return outputSimulateJSON(opts, cmd, result)
	}
	return outputSimulateText(cmd, result)
}

func runOneScenario(file string, opts *SimulateOptions, cmd *cobra.Command) ScenarioResult {
	w := cmd.OutOrStdout()

	sc, err := harness.LoadScenario(file)
	if err != nil {
		if opts.Format != "json" {
			fmt.Fprintf(w, "✗ %s\n  Load error: %v\n", filepath.Base(file), err)
		}
		return ScenarioResult{
			Name:     filepath.Base(file),
			Failures: []string{fmt.Sprintf("failed to load scenario: %v", err)},
		}
	}

	res, err := harness.Run(sc)
	if err != nil {
		if opts.Format != "json" {
			fmt.Fprintf(w, "✗ %s\n  Execution error: %v\n", sc.Name, err)
		}
		return ScenarioResult{
			Name:     sc.Name,
			Failures: []string{fmt.Sprintf("execution failed: %v", err)},
		}
	}

	sr := ScenarioResult{Name: sc.Name, Pass: res.Passed(), Failures: res.Failures}
	if opts.Trace {
		sr.Trace = res.Trace
	}

	if opts.Format != "json" {
		if sr.Pass {
			fmt.Fprintf(w, "✓ %s\n", sc.Name)
		} else {
			fmt.Fprintf(w, "✗ %s\n", sc.Name)
			for _, failure := range sr.Failures {
				fmt.Fprintf(w, "  %s\n", failure)
			}
		}
		if opts.Trace {
			for _, ev := range res.Trace {
				fmt.Fprintf(w, "  [%d] %s %s %s\n", ev.Seq, ev.At, ev.Type, traceDetail(ev))
			}
		}
	}
	return sr
}

func traceDetail(ev harness.TraceEvent) string {
	parts := make([]string, 0, 3)
	if ev.Seat != "" {
		parts = append(parts, ev.Seat)
	}
	if ev.State != "" {
		s := ev.State
		if ev.Pending != "" {
			s += " (pending " + ev.Pending + ")"
		}
		parts = append(parts, s)
	}
	if ev.AlertKind != "" {
		parts = append(parts, ev.AlertKind)
	}
	return strings.Join(parts, " ")
}

// findScenarioFiles finds all YAML scenario files in a directory.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})

	return files, err
}

func outputSimulateJSON(opts *SimulateOptions, cmd *cobra.Command, result SimulateResult) error {
	formatter := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
	if err := formatter.Success(result); err != nil {
		return err
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

func outputSimulateText(cmd *cobra.Command, result SimulateResult) error {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

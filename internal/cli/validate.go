package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/seatwatch/seatwatch/internal/deploy"
)

// ValidationResult holds the outcome of validating a deployment file.
type ValidationResult struct {
	Valid      bool              `json:"valid"`
	Seats      []string          `json:"seats,omitempty"`
	Thresholds map[string]string `json:"thresholds,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <deployment.cue>",
		Short: "Validate a deployment file",
		Long: `Validate a CUE deployment file without starting the service.

Checks the seat map, label categories and thresholds against the
deployment schema and reports the effective configuration.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		_ = formatter.Error("E_NOT_FOUND", fmt.Sprintf("deployment file not found: %s", path), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("deployment file not found: %s", path))
	}

	formatter.VerboseLog("validating %s", path)

	dep, err := deploy.Load(path)
	if err != nil {
		if formatter.Format == "json" {
			_ = formatter.Error("E_INVALID_DEPLOYMENT", err.Error(), nil)
		} else {
			fmt.Fprintf(formatter.Writer, "✗ %s\n  %v\n", path, err)
		}
		return NewExitError(ExitFailure, fmt.Sprintf("invalid deployment: %v", err))
	}

	result := ValidationResult{
		Valid:      true,
		Seats:      dep.Seats,
		Thresholds: thresholdSummary(dep),
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ %s\n", path)
	fmt.Fprintf(formatter.Writer, "  seats: %d\n", len(dep.Seats))
	fmt.Fprintf(formatter.Writer, "  stability window: %s\n", dep.Config.StabilityWindow)
	fmt.Fprintf(formatter.Writer, "  camping threshold: %s\n", dep.Config.CampingThreshold)
	fmt.Fprintf(formatter.Writer, "  no-show threshold: %s\n", dep.Config.NoShowThreshold)
	fmt.Fprintf(formatter.Writer, "  return grace: %s\n", dep.Config.ReturnGrace)
	fmt.Fprintf(formatter.Writer, "  empty release: %s\n", dep.Config.EmptyRelease)
	fmt.Fprintf(formatter.Writer, "  camped release: %s\n", dep.Config.CampedRelease)
	return nil
}

func thresholdSummary(dep *deploy.Deployment) map[string]string {
	fmtDur := func(d time.Duration) string { return d.String() }
	return map[string]string{
		"stability_window":  fmtDur(dep.Config.StabilityWindow),
		"camping_threshold": fmtDur(dep.Config.CampingThreshold),
		"no_show_threshold": fmtDur(dep.Config.NoShowThreshold),
		"return_grace":      fmtDur(dep.Config.ReturnGrace),
		"empty_release":     fmtDur(dep.Config.EmptyRelease),
		"camped_release":    fmtDur(dep.Config.CampedRelease),
	}
}

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/provtmpl/internal/ir"
	"github.com/roach88/provtmpl/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	EngineFlags
	Database string
	RunID    string // optional - defaults to the run the inputs identify
	Template string
	Bindings string
}

// ReplayResult holds the outcome of re-expanding a recorded run.
type ReplayResult struct {
	RunID         string `json:"run_id"`
	RecordedHash  string `json:"recorded_hash"`
	ReplayedHash  string `json:"replayed_hash"`
	Statements    int    `json:"statements"`
	Deterministic bool   `json:"deterministic"`

	// FirstDifference is the index of the first statement that differs,
	// or -1 when the outputs match.
	FirstDifference int    `json:"first_difference"`
	Recorded        string `json:"recorded,omitempty"`
	Replayed        string `json:"replayed,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-expand a recorded run and verify determinism",
		Long: `Re-expand a template with its bindings and compare the output with
the run recorded in the database.

The run is looked up by the identity of the inputs (template, bindings
and vocabulary hashes). --run names the expected run; it must match the
inputs. The replay is deterministic when the output hash equals the
recorded one.

Exit codes:
  0 - Output identical to the recorded run
  1 - Output differs, or the inputs do not identify the run
  2 - Command error (database not found, run not recorded, etc.)

Examples:
  provtmpl replay --db ./runs.db -t template.ttl -b bindings.ttl
  provtmpl replay --db ./runs.db --run 5c1e... -t template.ttl -b bindings.ttl --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "expected run identifier")
	cmd.Flags().StringVarP(&opts.Template, "template", "t", "", "template file (required)")
	_ = cmd.MarkFlagRequired("template")
	cmd.Flags().StringVarP(&opts.Bindings, "bindings", "b", "", "bindings file")
	cmd.Flags().StringVar(&opts.BindingsFormat, "bindings-format", BindingsAuto, "bindings format (auto|rdf|v3)")
	cmd.Flags().StringVar(&opts.Config, "config", "", "CUE configuration file")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "concurrent batch rewriters")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := commandContext(cmd)

	if err := checkFile(opts.Database); err != nil {
		return reportError(formatter, err)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("failed to open database: %v", err), nil)
	}
	defer st.Close()

	expandOpts := &ExpandOptions{
		RootOptions: opts.RootOptions,
		EngineFlags: opts.EngineFlags,
		Template:    opts.Template,
		Bindings:    opts.Bindings,
	}
	res, _, err := expandFiles(expandOpts, opts.logger(cmd))
	if err != nil {
		return reportError(formatter, err)
	}

	if opts.RunID != "" && opts.RunID != res.RunID {
		return formatter.Fail(ExitFailure, ErrCodeReplayMismatch,
			fmt.Sprintf("inputs identify run %s, not %s", res.RunID, opts.RunID), nil)
	}

	run, err := st.ReadRun(ctx, res.RunID)
	if errors.Is(err, store.ErrRunNotFound) {
		return formatter.Fail(ExitCommandError, ErrCodeRunNotFound, fmt.Sprintf("run %s not recorded in %s", res.RunID, opts.Database), nil)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, err.Error(), nil)
	}
	recorded, err := st.ReadStatements(ctx, run.ID)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, err.Error(), nil)
	}

	result := compareReplay(run, recorded, res.OutputHash, res.Output.Quads())
	formatter.VerboseLog("replayed run %s: %d recorded, %d replayed statement(s)", run.ID, len(recorded), res.Output.Len())

	if formatter.JSON() {
		var cliErr *CLIError
		if !result.Deterministic {
			cliErr = &CLIError{Code: ErrCodeReplayMismatch, Message: "replay output differs from the recorded run"}
		}
		if err := formatter.Response(result, cliErr); err != nil {
			return err
		}
	} else {
		outputReplayText(cmd, result)
	}

	if !result.Deterministic {
		// Determinism failure = exit code 1
		return &ExitError{Code: ExitFailure, Message: "replay output differs from the recorded run", Reported: true}
	}
	return nil
}

// compareReplay compares the recorded output of run with a replayed one.
func compareReplay(run store.Run, recorded []ir.Statement, replayedHash string, replayed []ir.Statement) ReplayResult {
	result := ReplayResult{
		RunID:           run.ID,
		RecordedHash:    run.OutputHash,
		ReplayedHash:    replayedHash,
		Statements:      len(replayed),
		FirstDifference: -1,
	}

	n := min(len(recorded), len(replayed))
	for i := 0; i < n; i++ {
		if recorded[i] != replayed[i] {
			result.FirstDifference = i
			result.Recorded = recorded[i].String()
			result.Replayed = replayed[i].String()
			break
		}
	}
	if result.FirstDifference == -1 && len(recorded) != len(replayed) {
		result.FirstDifference = n
		if n < len(recorded) {
			result.Recorded = recorded[n].String()
		}
		if n < len(replayed) {
			result.Replayed = replayed[n].String()
		}
	}

	result.Deterministic = result.FirstDifference == -1 && run.OutputHash == replayedHash
	return result
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult) {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay: run %s, %d statement(s)\n", result.RunID, result.Statements)
	fmt.Fprintf(w, "  recorded output %s\n", result.RecordedHash)
	fmt.Fprintf(w, "  replayed output %s\n", result.ReplayedHash)

	if result.Deterministic {
		fmt.Fprintln(w, "✓ Replay matches the recorded run")
		return
	}

	fmt.Fprintln(w, "✗ Replay differs from the recorded run")
	if result.FirstDifference >= 0 {
		fmt.Fprintf(w, "  first difference at statement %d\n", result.FirstDifference+1)
		fmt.Fprintf(w, "  - %s\n", result.Recorded)
		fmt.Fprintf(w, "  + %s\n", result.Replayed)
	}
}

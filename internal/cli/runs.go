package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/provtmpl/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database   string
	OutputHash string // optional - runs with this output only
}

// RunsResult holds the listed runs.
type RunsResult struct {
	Runs  []store.Run `json:"runs"`
	Total int         `json:"total"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded expansion runs",
		Long: `List the expansion runs recorded in a run database, oldest first.

A run is identified by the hashes of its template, bindings and
vocabulary; expanding the same inputs again does not add a run.

Examples:
  provtmpl runs --db ./runs.db
  provtmpl runs --db ./runs.db --output-hash 3f2a...
  provtmpl runs --db ./runs.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.OutputHash, "output-hash", "", "only runs that produced this output")

	return cmd
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
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

	var runs []store.Run
	if opts.OutputHash != "" {
		runs, err = st.FindRunsByOutput(ctx, opts.OutputHash)
	} else {
		runs, err = st.ListRuns(ctx)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("failed to list runs: %v", err), nil)
	}

	result := RunsResult{Runs: runs, Total: len(runs)}
	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return nil
	}
	fmt.Fprintf(w, "%d run(s)\n\n", len(runs))
	for _, r := range runs {
		fmt.Fprintf(w, "%d  %s  %d statement(s)  output %s\n", r.Seq, shortID(r.ID), r.Statements, shortID(r.OutputHash))
		formatter.VerboseLog("run %s: template %s bindings %s vocabulary %s engine %s format %s",
			r.ID, r.TemplateHash, r.BindingsHash, r.VocabularyHash, r.EngineVersion, r.FormatVersion)
	}
	return nil
}

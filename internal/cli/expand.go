package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/provtmpl/internal/engine"
	"github.com/roach88/provtmpl/internal/metrics"
	"github.com/roach88/provtmpl/internal/rdfio"
	"github.com/roach88/provtmpl/internal/store"
)

// ExpandOptions holds flags for the expand command.
type ExpandOptions struct {
	*RootOptions
	EngineFlags
	Template    string
	Bindings    string
	Output      string // file path; empty writes to stdout
	OutFormat   string // stdout format
	Database    string // optional run log
	MetricsFile string // optional Prometheus textfile
}

// ExpandResult summarizes one expansion.
type ExpandResult struct {
	RunID      string `json:"run_id"`
	OutputHash string `json:"output_hash"`
	Statements int    `json:"statements"`
	Bundles    int    `json:"bundles"`
	Batches    int    `json:"batches"`
	Output     string `json:"output,omitempty"`   // written file
	Document   string `json:"document,omitempty"` // serialized output when no file was given
	Recorded   bool   `json:"recorded"`          // newly written to the run log
}

// NewExpandCommand creates the expand command.
func NewExpandCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExpandOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "expand",
		Short: "Expand a template with bindings",
		Long: `Expand a PROV template with a bindings document.

The template format is chosen by file extension (.ttl, .trig, .nt, .nq).
Bindings are RDF (tmpl:value_N, tmpl:2dvalue_N_M, tmpl:values lists) or
JSON v3 documents; .json files are read as v3 unless --bindings-format
says otherwise.

Expansion is all-or-nothing: on error no output is written.

Exit codes:
  0 - Expansion succeeded
  1 - Expansion failed (unbound variable, inconsistent binding, etc.)
  2 - Command error (missing files, syntax errors, etc.)

Examples:
  provtmpl expand -t template.ttl -b bindings.ttl
  provtmpl expand -t template.trig -b bindings.json -o out.trig
  provtmpl expand -t template.ttl -b bindings.ttl --db runs.db --metrics-file expand.prom
  provtmpl expand -t template.ttl -b bindings.ttl --ids random`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpand(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Template, "template", "t", "", "template file (required)")
	_ = cmd.MarkFlagRequired("template")
	cmd.Flags().StringVarP(&opts.Bindings, "bindings", "b", "", "bindings file")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file, format by extension (default stdout)")
	cmd.Flags().StringVar(&opts.OutFormat, "out-format", string(rdfio.TriG), "stdout format (trig|nquads|turtle|ntriples)")
	cmd.Flags().StringVar(&opts.BindingsFormat, "bindings-format", BindingsAuto, "bindings format (auto|rdf|v3)")
	cmd.Flags().StringVar(&opts.Config, "config", "", "CUE configuration file")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "concurrent batch rewriters (default from config)")
	cmd.Flags().StringVar(&opts.IDs, "ids", IDsSeeded, "vargen identifiers (seeded|random)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics in textfile format")

	return cmd
}

func runExpand(opts *ExpandOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger(cmd)

	if opts.IDs == IDsRandom && opts.Database != "" {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "runs with random identifiers cannot be recorded for replay", nil)
	}

	var m *metrics.Metrics
	if opts.MetricsFile != "" {
		m = metrics.New()
	}
	start := time.Now()

	res, doc, err := expandFiles(opts, logger)
	if err != nil {
		if code := engine.Code(err); code != "" {
			m.ObserveFailure(string(code), time.Since(start))
			writeMetrics(m, opts.MetricsFile, logger)
		}
		return reportError(formatter, err)
	}

	summary := engine.Summarize(res.Plan)
	m.ObserveSuccess(res.Output.Len(), summary.Batches, len(summary.Groups), time.Since(start))
	writeMetrics(m, opts.MetricsFile, logger)

	result := ExpandResult{
		RunID:      res.RunID,
		OutputHash: res.OutputHash,
		Statements: res.Output.Len(),
		Bundles:    len(res.Output.Bundles),
		Batches:    summary.Batches,
	}

	if opts.Database != "" {
		inserted, err := recordRun(commandContext(cmd), opts.Database, res)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeDatabase, err.Error(), nil)
		}
		result.Recorded = inserted
		logger.Info("run recorded", "run_id", res.RunID, "db", opts.Database, "new", inserted)
	}

	prefixes := mergedPrefixes(doc)
	if opts.Output != "" {
		if err := rdfio.WriteFile(opts.Output, res.Output, prefixes); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, err.Error(), nil)
		}
		result.Output = opts.Output
		if formatter.JSON() {
			return formatter.Success(result)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d statements to %s (run %s)\n", result.Statements, opts.Output, shortID(result.RunID))
		return nil
	}

	format, err := rdfio.ParseFormat(opts.OutFormat)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeFormat, err.Error(), nil)
	}
	data, err := rdfio.Marshal(res.Output, format, prefixes)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeFormat, err.Error(), nil)
	}
	if formatter.JSON() {
		result.Document = string(data)
		return formatter.Success(result)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

// expandFiles loads the inputs named by opts and expands them.
func expandFiles(opts *ExpandOptions, logger *slog.Logger) (*engine.Result, *rdfio.Document, error) {
	eng, err := opts.EngineFlags.NewEngine(logger)
	if err != nil {
		return nil, nil, err
	}
	doc, err := LoadDocument(opts.Template)
	if err != nil {
		return nil, nil, err
	}
	if ns, ok := doc.UUIDNamespace(); ok {
		eng = eng.With(engine.WithUUIDNamespace(ns))
	}
	table, err := LoadBindings(eng, opts.Bindings, opts.BindingsFormat)
	if err != nil {
		return nil, nil, err
	}
	res, err := eng.ExpandTable(doc.Graph, table)
	if err != nil {
		return nil, nil, err
	}
	return res, doc, nil
}

func recordRun(ctx context.Context, path string, res *engine.Result) (bool, error) {
	st, err := store.Open(path)
	if err != nil {
		return false, fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	run := store.NewRun(res.TemplateHash, res.BindingsHash, res.VocabularyHash, res.Output)
	return st.WriteRun(ctx, run, res.Output)
}

func writeMetrics(m *metrics.Metrics, path string, logger *slog.Logger) {
	if m == nil {
		return
	}
	if err := m.WriteFile(path); err != nil {
		logger.Error("failed to write metrics", "path", path, "error", err)
	}
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

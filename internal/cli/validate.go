package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/provtmpl/internal/compiler"
	"github.com/roach88/provtmpl/internal/engine"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	EngineFlags
	Template string
	Bindings string
	Plan     bool
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool                       `json:"valid"`
	Errors    []compiler.ValidationError `json:"errors,omitempty"`
	Warnings  []compiler.Warning         `json:"warnings,omitempty"`
	Variables int                        `json:"variables"`
	Groups    int                        `json:"groups"`
	Plan      *engine.Summary            `json:"plan,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a template without expanding it",
		Long: `Validate a PROV template and optionally its bindings.

Checks term positions and linking directives, and reports link cycles and
variables that appear only in links. With bindings, also checks that
linked variables agree in length and that every required variable is
bound. --plan prints the groups, multiplicities and batch count the
expansion would use.

Exit codes:
  0 - Template (and bindings) valid
  1 - Validation failed
  2 - Command error (missing files, syntax errors, etc.)

Examples:
  provtmpl validate -t template.ttl
  provtmpl validate -t template.ttl -b bindings.ttl --plan`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Template, "template", "t", "", "template file (required)")
	_ = cmd.MarkFlagRequired("template")
	cmd.Flags().StringVarP(&opts.Bindings, "bindings", "b", "", "bindings file")
	cmd.Flags().BoolVar(&opts.Plan, "plan", false, "print the expansion plan")
	cmd.Flags().StringVar(&opts.BindingsFormat, "bindings-format", BindingsAuto, "bindings format (auto|rdf|v3)")
	cmd.Flags().StringVar(&opts.Config, "config", "", "CUE configuration file")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	eng, err := opts.EngineFlags.NewEngine(opts.logger(cmd))
	if err != nil {
		return reportError(formatter, err)
	}
	doc, err := LoadDocument(opts.Template)
	if err != nil {
		return reportError(formatter, err)
	}
	formatter.VerboseLog("Loaded %d statement(s) from %s", doc.Graph.Len(), opts.Template)

	vocab := eng.Vocabulary()
	if errs := compiler.Validate(doc.Graph, vocab); len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}
	tmpl, err := compiler.Classify(doc.Graph, vocab)
	if err != nil {
		return reportError(formatter, err)
	}

	result := ValidationResult{
		Valid:     true,
		Warnings:  tmpl.Warnings,
		Variables: len(tmpl.Variables()),
		Groups:    len(tmpl.Groups),
	}

	if opts.Bindings != "" || opts.Plan {
		table, err := LoadBindings(eng, opts.Bindings, opts.BindingsFormat)
		if err != nil {
			return reportError(formatter, err)
		}
		plan, err := eng.Plan(doc.Graph, table)
		if err != nil {
			return reportError(formatter, err)
		}
		if opts.Plan {
			summary := engine.Summarize(plan)
			result.Plan = &summary
		}
	}

	return outputValidateSuccess(formatter, result)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Template valid: %d variable(s) in %d group(s)\n", result.Variables, result.Groups)
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "  %s %s: %s\n", warn.Level, warn.Code, warn.Message)
	}

	if p := result.Plan; p != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Plan: %d batch(es), %d instantiation(s), %d verbatim statement(s)\n", p.Batches, p.Instantiations, p.Verbatim)
		for _, g := range p.Groups {
			var flags []string
			if g.Bound {
				flags = append(flags, "bound")
			}
			if g.Empty {
				flags = append(flags, "empty")
			}
			if g.BundleVariable {
				flags = append(flags, "bundle")
			}
			if g.Generated > 0 {
				flags = append(flags, fmt.Sprintf("%d generated", g.Generated))
			}
			fmt.Fprintf(w, "  group %d [%s] length %d", g.Index, strings.Join(g.Members, ", "), g.Length)
			if len(flags) > 0 {
				fmt.Fprintf(w, " (%s)", strings.Join(flags, ", "))
			}
			fmt.Fprintln(w)
		}
	}
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	if formatter.JSON() {
		result := ValidationResult{
			Valid:  false,
			Errors: errs,
		}
		if err := formatter.Response(result, &CLIError{
			Code:    errs[0].Code,
			Message: errs[0].Message,
		}); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("validation failed with %d error(s)", len(errs)), Reported: true}
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s %s: %s\n", err.Code, err.Field, err.Message)
		if err.Statement != "" {
			fmt.Fprintf(formatter.Writer, "    in %s\n", err.Statement)
		}
	}

	// Validation failures = exit code 1 (test/validation failure)
	return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("validation failed with %d error(s)", len(errs)), Reported: true}
}

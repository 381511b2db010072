package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/provtmpl/internal/ir"
)

// rootSeq marks rows that belong to the root graph rather than a bundle.
const rootSeq = -1

// WriteRun records a run and its output graph in one transaction.
// Returns whether a new run was inserted.
//
// Uses ON CONFLICT(run_id) DO NOTHING for idempotency: writing a run whose
// ID is already stored leaves the stored record and statements untouched
// and returns inserted=false.
//
// run.Statements and run.Seq are set by the store.
func (s *Store) WriteRun(ctx context.Context, run Run, output *ir.Graph) (inserted bool, err error) {
	if run.ID == "" {
		return false, fmt.Errorf("write run: empty run ID")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(run_id, template_hash, bindings_hash, vocabulary_hash, output_hash,
		 engine_version, format_version, statement_count, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM runs))
		ON CONFLICT(run_id) DO NOTHING
	`,
		run.ID,
		run.TemplateHash,
		run.BindingsHash,
		run.VocabularyHash,
		run.OutputHash,
		run.EngineVersion,
		run.FormatVersion,
		output.Len(),
	)
	if err != nil {
		return false, fmt.Errorf("write run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write run: rows affected: %w", err)
	}
	if rows == 0 {
		return false, nil
	}

	w := &graphWriter{ctx: ctx, tx: tx, runID: run.ID}
	if err := w.graph(output, rootSeq); err != nil {
		return false, fmt.Errorf("write run %s: %w", run.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("write run: commit: %w", err)
	}
	return true, nil
}

// graphWriter numbers bundles and statements depth-first so ReadGraph can
// rebuild the nesting.
type graphWriter struct {
	ctx        context.Context
	tx         *sql.Tx
	runID      string
	bundleSeq  int64
	statements int64
}

func (w *graphWriter) graph(g *ir.Graph, bundle int64) error {
	for _, st := range g.Statements {
		w.statements++
		_, err := w.tx.ExecContext(w.ctx, `
			INSERT INTO statements (run_id, seq, bundle_seq, quad)
			VALUES (?, ?, ?, ?)
		`, w.runID, w.statements, bundle, st.String())
		if err != nil {
			return fmt.Errorf("insert statement %d: %w", w.statements, err)
		}
	}
	for _, b := range g.Bundles {
		w.bundleSeq++
		seq := w.bundleSeq
		_, err := w.tx.ExecContext(w.ctx, `
			INSERT INTO bundles (run_id, seq, parent_seq, bundle_id)
			VALUES (?, ?, ?, ?)
		`, w.runID, seq, bundle, b.ID.String())
		if err != nil {
			return fmt.Errorf("insert bundle %s: %w", b.ID, err)
		}
		if err := w.graph(&b.Graph, seq); err != nil {
			return err
		}
	}
	return nil
}

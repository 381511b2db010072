package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/provtmpl/internal/ir"
	"github.com/roach88/provtmpl/internal/rdfio"
)

const runColumns = `run_id, template_hash, bindings_hash, vocabulary_hash, output_hash,
	engine_version, format_version, statement_count, seq`

// ReadRun returns the run with the given ID.
// Returns an error wrapping ErrRunNotFound if no such run exists.
func (s *Store) ReadRun(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE run_id = ?
	`, runID)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", runID, err)
	}
	return run, nil
}

// ListRuns returns all runs in insertion order.
// Returns an empty slice (not nil) if the store holds no runs.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	return s.queryRuns(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY seq ASC
	`)
}

// FindRunsByOutput returns the runs whose output hash equals outputHash,
// in insertion order.
func (s *Store) FindRunsByOutput(ctx context.Context, outputHash string) ([]Run, error) {
	return s.queryRuns(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE output_hash = ?
		ORDER BY seq ASC
	`, outputHash)
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	err := row.Scan(
		&run.ID,
		&run.TemplateHash,
		&run.BindingsHash,
		&run.VocabularyHash,
		&run.OutputHash,
		&run.EngineVersion,
		&run.FormatVersion,
		&run.Statements,
		&run.Seq,
	)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// ReadStatements returns the statements emitted by a run in output order.
// Statements inside bundles carry the bundle identifier as their graph.
func (s *Store) ReadStatements(ctx context.Context, runID string) ([]ir.Statement, error) {
	g, err := s.ReadGraph(ctx, runID)
	if err != nil {
		return nil, err
	}
	return g.Quads(), nil
}

// ReadGraph rebuilds the output graph of a run, including empty and
// nested bundles.
func (s *Store) ReadGraph(ctx context.Context, runID string) (*ir.Graph, error) {
	if _, err := s.ReadRun(ctx, runID); err != nil {
		return nil, err
	}

	root := ir.NewGraph()
	bundles := map[int64]*ir.Bundle{}
	if err := s.readBundles(ctx, runID, root, bundles); err != nil {
		return nil, fmt.Errorf("read graph %s: %w", runID, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, bundle_seq, quad
		FROM statements
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query statements: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			seq, bundleSeq int64
			quad           string
		)
		if err := rows.Scan(&seq, &bundleSeq, &quad); err != nil {
			return nil, fmt.Errorf("scan statement: %w", err)
		}
		st, err := rdfio.ParseQuad(quad)
		if err != nil {
			return nil, fmt.Errorf("statement %d of run %s: %w", seq, runID, err)
		}
		if bundleSeq == rootSeq {
			root.Add(st)
			continue
		}
		b, ok := bundles[bundleSeq]
		if !ok {
			return nil, fmt.Errorf("statement %d of run %s: unknown bundle %d", seq, runID, bundleSeq)
		}
		b.Add(st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate statements: %w", err)
	}
	return root, nil
}

// readBundles recreates the bundle tree under root. Bundles are stored
// depth-first, so a parent always precedes its children.
func (s *Store) readBundles(ctx context.Context, runID string, root *ir.Graph, bundles map[int64]*ir.Bundle) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, parent_seq, bundle_id
		FROM bundles
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return fmt.Errorf("query bundles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			seq, parent int64
			id          string
		)
		if err := rows.Scan(&seq, &parent, &id); err != nil {
			return fmt.Errorf("scan bundle: %w", err)
		}
		term, err := rdfio.ParseTerm(id)
		if err != nil {
			return fmt.Errorf("bundle %d: %w", seq, err)
		}

		owner := root
		if parent != rootSeq {
			p, ok := bundles[parent]
			if !ok {
				return fmt.Errorf("bundle %d: unknown parent %d", seq, parent)
			}
			owner = &p.Graph
		}
		b := &ir.Bundle{ID: term}
		owner.Bundles = append(owner.Bundles, b)
		bundles[seq] = b
	}
	return rows.Err()
}

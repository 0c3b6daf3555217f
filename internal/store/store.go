// Package store persists cleaning runs to PostgreSQL.
//
// A run is stored as one clean_runs row holding the rules and full result as
// JSONB, plus one clean_corrections row per correction so reports can be
// listed without decoding the whole result.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/csvclean/internal/core"
)

// DBTX is the subset of pgxpool.Pool the store needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore implements core.RunStore.
type PostgresStore struct {
	db DBTX
}

// New returns a store backed by db.
func New(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the run tables if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaSQL {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// SaveRun writes the run and its corrections in one transaction.
func (s *PostgresStore) SaveRun(ctx context.Context, rec *core.RunRecord) error {
	if rec.Result == nil {
		return fmt.Errorf("save run %s: no result", rec.ID)
	}

	id, err := toPgUUID(rec.ID)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	rules, err := json.Marshal(rec.Rules)
	if err != nil {
		return fmt.Errorf("encode rules: %w", err)
	}
	result, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if committed

	_, err = tx.Exec(ctx, insertRunSQL,
		id,
		rec.FileName,
		pgtype.Timestamptz{Time: rec.CreatedAt, Valid: true},
		rec.Result.RowsIn,
		rec.Result.RowsOut,
		rules,
		result,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	rows := correctionRows(id, rec.Result.Report)
	if len(rows) > 0 {
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"clean_corrections"}, correctionColumns, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("copy corrections: %w", err)
		}
		if n != int64(len(rows)) {
			return fmt.Errorf("copy corrections: wrote %d of %d rows", n, len(rows))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func correctionRows(id pgtype.UUID, report *core.CorrectionReport) [][]any {
	if report == nil {
		return nil
	}
	var rows [][]any
	for _, row := range report.Rows() {
		for _, c := range report.Corrections[row] {
			rows = append(rows, []any{id, len(rows), int(row), c.Column, c.Kind.String()})
		}
	}
	return rows
}

// GetRun loads a stored run. Unknown or malformed IDs yield core.ErrRunNotFound.
func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*core.RunRecord, error) {
	id, err := toPgUUID(runID)
	if err != nil {
		return nil, core.ErrRunNotFound
	}

	var (
		fileName  string
		createdAt pgtype.Timestamptz
		rules     []byte
		result    []byte
	)
	err = s.db.QueryRow(ctx, selectRunSQL, id).Scan(&fileName, &createdAt, &rules, &result)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}

	rec := &core.RunRecord{
		ID:        runID,
		FileName:  fileName,
		CreatedAt: createdAt.Time,
		Persisted: true,
	}
	if err := json.Unmarshal(rules, &rec.Rules); err != nil {
		return nil, fmt.Errorf("decode rules of run %s: %w", runID, err)
	}
	if err := json.Unmarshal(result, &rec.Result); err != nil {
		return nil, fmt.Errorf("decode result of run %s: %w", runID, err)
	}
	return rec, nil
}

// ListCorrections returns a run's corrections grouped by row, in the order
// they were recorded.
func (s *PostgresStore) ListCorrections(ctx context.Context, runID string) ([]core.RowCorrections, error) {
	id, err := toPgUUID(runID)
	if err != nil {
		return nil, core.ErrRunNotFound
	}

	var exists bool
	if err := s.db.QueryRow(ctx, runExistsSQL, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check run %s: %w", runID, err)
	}
	if !exists {
		return nil, core.ErrRunNotFound
	}

	rows, err := s.db.Query(ctx, selectCorrectionsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("list corrections: %w", err)
	}
	defer rows.Close()

	var out []core.RowCorrections
	for rows.Next() {
		var (
			rowID  int32
			column string
			kind   string
		)
		if err := rows.Scan(&rowID, &column, &kind); err != nil {
			return nil, fmt.Errorf("scan correction: %w", err)
		}
		k, err := core.ParseCorrectionKind(kind)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", runID, err)
		}

		c := core.Correction{Column: column, Kind: k}
		if n := len(out); n > 0 && out[n-1].Row == core.RowID(rowID) {
			out[n-1].Corrections = append(out[n-1].Corrections, c)
			continue
		}
		out = append(out, core.RowCorrections{Row: core.RowID(rowID), Corrections: []core.Correction{c}})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list corrections: %w", err)
	}
	return out, nil
}

func toPgUUID(s string) (pgtype.UUID, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{}, fmt.Errorf("invalid run id %q: %w", s, err)
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}, nil
}

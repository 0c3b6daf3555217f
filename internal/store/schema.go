package store

// schemaSQL creates the run tables. Every statement is idempotent so
// EnsureSchema can run on each start.
var schemaSQL = []string{
	`CREATE TABLE IF NOT EXISTS clean_runs (
		id          UUID PRIMARY KEY,
		file_name   TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL,
		rows_in     INTEGER NOT NULL,
		rows_out    INTEGER NOT NULL,
		rules       JSONB NOT NULL,
		result      JSONB NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS clean_corrections (
		run_id       UUID NOT NULL REFERENCES clean_runs(id) ON DELETE CASCADE,
		seq          INTEGER NOT NULL,
		row_id       INTEGER NOT NULL,
		column_name  TEXT NOT NULL,
		kind         TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	)`,
	`CREATE INDEX IF NOT EXISTS clean_corrections_row_idx ON clean_corrections (run_id, row_id)`,
}

var correctionColumns = []string{"run_id", "seq", "row_id", "column_name", "kind"}

const (
	insertRunSQL = `INSERT INTO clean_runs (id, file_name, created_at, rows_in, rows_out, rules, result)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	selectRunSQL = `SELECT file_name, created_at, rules, result FROM clean_runs WHERE id = $1`

	runExistsSQL = `SELECT EXISTS (SELECT 1 FROM clean_runs WHERE id = $1)`

	selectCorrectionsSQL = `SELECT row_id, column_name, kind FROM clean_corrections
		WHERE run_id = $1 ORDER BY seq`
)

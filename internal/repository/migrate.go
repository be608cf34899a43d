package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/receipts-eval/internal/common"
)

// {{ts}} is replaced with the dialect's timestamp type.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS evaluation_runs (
		id               TEXT PRIMARY KEY,
		dataset          TEXT NOT NULL,
		split            TEXT NOT NULL,
		strategy         TEXT NOT NULL,
		model            TEXT NOT NULL DEFAULT '',
		status           TEXT NOT NULL,
		seed             BIGINT NOT NULL,
		run_limit        INTEGER,
		documents        INTEGER NOT NULL,
		datapoints       TEXT NOT NULL,
		failures         TEXT NOT NULL,
		f1_score         DOUBLE PRECISION NOT NULL,
		recall_score     DOUBLE PRECISION NOT NULL,
		precision_score  DOUBLE PRECISION NOT NULL,
		true_positives   INTEGER NOT NULL,
		false_positives  INTEGER NOT NULL,
		false_negatives  INTEGER NOT NULL,
		created_at       {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS evaluation_runs_created_at_idx ON evaluation_runs (created_at)`,
	`CREATE TABLE IF NOT EXISTS evaluation_label_metrics (
		run_id           TEXT NOT NULL REFERENCES evaluation_runs (id) ON DELETE CASCADE,
		label            TEXT NOT NULL,
		position         INTEGER NOT NULL,
		f1_score         DOUBLE PRECISION NOT NULL,
		recall_score     DOUBLE PRECISION NOT NULL,
		precision_score  DOUBLE PRECISION NOT NULL,
		true_positives   INTEGER NOT NULL,
		false_positives  INTEGER NOT NULL,
		false_negatives  INTEGER NOT NULL,
		PRIMARY KEY (run_id, label)
	)`,
	`CREATE TABLE IF NOT EXISTS evaluation_misses (
		run_id        TEXT NOT NULL REFERENCES evaluation_runs (id) ON DELETE CASCADE,
		position      INTEGER NOT NULL,
		document_id   TEXT NOT NULL,
		label         TEXT NOT NULL,
		ground_truth  TEXT,
		predicted     TEXT,
		PRIMARY KEY (run_id, position)
	)`,
}

// Migrate creates the evaluation tables when they do not exist.
func Migrate(ctx context.Context, db *DB) error {
	ts := "TIMESTAMP"
	if db.Dialect == DialectPostgres {
		ts = "TIMESTAMPTZ"
	}
	for i, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, strings.ReplaceAll(stmt, "{{ts}}", ts)); err != nil {
			return common.NewAppError(common.CodeStorage, fmt.Sprintf("migration step %d", i+1), fmt.Errorf("%w: %v", common.ErrDatabase, err))
		}
	}
	db.logger.Info("database migrated", "statements", len(schemaStatements))
	return nil
}

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/receipts-eval/constants"
	"github.com/joseph-ayodele/receipts-eval/internal/common"
	"github.com/joseph-ayodele/receipts-eval/internal/eval"
	"github.com/joseph-ayodele/receipts-eval/internal/score"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, common.DatabaseConfig{DSN: ":memory:", MaxOpenConns: 1}, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, Migrate(ctx, db))
	return db
}

func strPtr(s string) *string { return &s }

func testReport(runID string, ts time.Time) eval.Report {
	limit := 5
	return eval.Report{
		Meta: eval.Meta{
			RunID:      runID,
			Datapoints: []string{"a", "b"},
			Dataset:    "custom",
			Split:      "eval",
			Limit:      &limit,
			Seed:       7,
			Strategy:   "simple",
			Model:      "gpt-4o-mini",
			Status:     constants.RunStatusPartial,
			Timestamp:  ts,
		},
		Aggregated: score.Metrics{F1: 0.5, Recall: 0.5, Precision: 0.5},
		Counts:     score.Score{TruePositive: 1, FalsePositive: 1, FalseNegative: 1},
		ByLabel: []score.LabelMetrics{
			{Label: constants.LabelTotal, Metrics: score.Metrics{F1: 0.5, Recall: 0.5, Precision: 0.5}, Score: score.Score{TruePositive: 1, FalsePositive: 1, FalseNegative: 1}},
			{Label: constants.LabelDate, Metrics: score.Metrics{}},
		},
		Missed: []score.MissedEntry{
			{DocumentID: "b", Label: constants.LabelTotal, GroundTruth: strPtr("5,00"), Predicted: strPtr("6,00")},
			{DocumentID: "b", Label: constants.LabelCompany, Predicted: strPtr("X")},
		},
		Failures: []eval.Failure{{ID: "c", Error: "timeout"}},
	}
}

func TestDialectOf(t *testing.T) {
	assert.Equal(t, DialectPostgres, DialectOf("postgres://u:p@localhost:5432/db?sslmode=disable"))
	assert.Equal(t, DialectPostgres, DialectOf("postgresql://localhost/db"))
	assert.Equal(t, DialectSQLite, DialectOf("evaluations.db"))
	assert.Equal(t, DialectSQLite, DialectOf(":memory:"))
}

func TestOpen_RequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), common.DatabaseConfig{}, nil)
	require.Error(t, err)
	assert.Equal(t, common.CodeConfig, common.CodeOf(err))
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, Migrate(context.Background(), db))
	require.NoError(t, db.HealthCheck(context.Background(), time.Second))
}

func TestEvaluationRepository_SaveGet(t *testing.T) {
	ctx := context.Background()
	repo := NewEvaluationRepository(newTestDB(t), nil)

	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	report := testReport("", ts)
	require.NoError(t, repo.Save(ctx, &report))
	require.NotEmpty(t, report.Meta.RunID)

	got, err := repo.Get(ctx, report.Meta.RunID)
	require.NoError(t, err)
	assert.True(t, got.Meta.Timestamp.Equal(ts))
	got.Meta.Timestamp = report.Meta.Timestamp
	assert.Equal(t, report, *got)
}

func TestEvaluationRepository_Errors(t *testing.T) {
	ctx := context.Background()
	repo := NewEvaluationRepository(newTestDB(t), nil)

	_, err := repo.Get(ctx, "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNotFound))

	report := testReport("run-1", time.Now())
	require.NoError(t, repo.Save(ctx, &report))
	err = repo.Save(ctx, &report)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}

func TestEvaluationRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewEvaluationRepository(newTestDB(t), nil)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "new", "mid"} {
		offset := map[int]time.Duration{0: 0, 1: 2 * time.Hour, 2: time.Hour}[i]
		r := testReport(id, base.Add(offset))
		require.NoError(t, repo.Save(ctx, &r))
	}

	runs, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "new", runs[0].ID)
	assert.Equal(t, "mid", runs[1].ID)
	assert.Equal(t, 2, runs[0].Documents)
	assert.Equal(t, constants.RunStatusPartial, runs[0].Status)
	assert.InDelta(t, 0.5, runs[0].F1, 1e-9)
}

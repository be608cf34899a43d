package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/receipts-eval/constants"
	"github.com/joseph-ayodele/receipts-eval/internal/common"
	"github.com/joseph-ayodele/receipts-eval/internal/eval"
	"github.com/joseph-ayodele/receipts-eval/internal/score"
)

type EvaluationRepository interface {
	// Save stores the report, assigning Meta.RunID when it is empty.
	Save(ctx context.Context, report *eval.Report) error
	Get(ctx context.Context, runID string) (*eval.Report, error)
	// List returns the most recent runs first.
	List(ctx context.Context, limit int) ([]RunSummary, error)
}

// RunSummary is one evaluation_runs row without its breakdown.
type RunSummary struct {
	ID        string              `db:"id"`
	Dataset   string              `db:"dataset"`
	Split     string              `db:"split"`
	Strategy  string              `db:"strategy"`
	Model     string              `db:"model"`
	Status    constants.RunStatus `db:"status"`
	Documents int                 `db:"documents"`
	F1        float64             `db:"f1_score"`
	Recall    float64             `db:"recall_score"`
	Precision float64             `db:"precision_score"`
	CreatedAt time.Time           `db:"created_at"`
}

type runRow struct {
	RunSummary
	Seed           int64  `db:"seed"`
	Limit          *int64 `db:"run_limit"`
	Datapoints     string `db:"datapoints"`
	Failures       string `db:"failures"`
	TruePositives  int    `db:"true_positives"`
	FalsePositives int    `db:"false_positives"`
	FalseNegatives int    `db:"false_negatives"`
}

type labelRow struct {
	RunID          string  `db:"run_id"`
	Label          string  `db:"label"`
	Position       int     `db:"position"`
	F1             float64 `db:"f1_score"`
	Recall         float64 `db:"recall_score"`
	Precision      float64 `db:"precision_score"`
	TruePositives  int     `db:"true_positives"`
	FalsePositives int     `db:"false_positives"`
	FalseNegatives int     `db:"false_negatives"`
}

type missRow struct {
	RunID       string  `db:"run_id"`
	Position    int     `db:"position"`
	DocumentID  string  `db:"document_id"`
	Label       string  `db:"label"`
	GroundTruth *string `db:"ground_truth"`
	Predicted   *string `db:"predicted"`
}

const (
	insertRun = `INSERT INTO evaluation_runs (id, dataset, split, strategy, model, status, seed, run_limit,
		documents, datapoints, failures, f1_score, recall_score, precision_score,
		true_positives, false_positives, false_negatives, created_at)
		VALUES (:id, :dataset, :split, :strategy, :model, :status, :seed, :run_limit,
		:documents, :datapoints, :failures, :f1_score, :recall_score, :precision_score,
		:true_positives, :false_positives, :false_negatives, :created_at)`
	insertLabel = `INSERT INTO evaluation_label_metrics (run_id, label, position, f1_score, recall_score,
		precision_score, true_positives, false_positives, false_negatives)
		VALUES (:run_id, :label, :position, :f1_score, :recall_score,
		:precision_score, :true_positives, :false_positives, :false_negatives)`
	insertMiss = `INSERT INTO evaluation_misses (run_id, position, document_id, label, ground_truth, predicted)
		VALUES (:run_id, :position, :document_id, :label, :ground_truth, :predicted)`

	summaryColumns = `id, dataset, split, strategy, model, status, documents,
		f1_score, recall_score, precision_score, created_at`
)

type evaluationRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewEvaluationRepository(db *DB, logger *slog.Logger) EvaluationRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &evaluationRepo{db: db, logger: logger}
}

func (r *evaluationRepo) Save(ctx context.Context, report *eval.Report) error {
	start := time.Now()
	if report.Meta.RunID == "" {
		report.Meta.RunID = uuid.NewString()
	}
	row, err := toRunRow(report)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return dbError("begin save", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.NamedExecContext(ctx, insertRun, row); err != nil {
		if isDuplicate(err) {
			return common.NewAppError(common.CodeStorage, fmt.Sprintf("run %s already stored", row.ID), common.ErrInvalidInput)
		}
		return dbError("insert run", err)
	}
	for i, l := range report.ByLabel {
		if _, err := tx.NamedExecContext(ctx, insertLabel, labelRow{
			RunID:          row.ID,
			Label:          string(l.Label),
			Position:       i,
			F1:             l.F1,
			Recall:         l.Recall,
			Precision:      l.Precision,
			TruePositives:  l.Score.TruePositive,
			FalsePositives: l.Score.FalsePositive,
			FalseNegatives: l.Score.FalseNegative,
		}); err != nil {
			return dbError("insert label metrics", err)
		}
	}
	for i, m := range report.Missed {
		if _, err := tx.NamedExecContext(ctx, insertMiss, missRow{
			RunID:       row.ID,
			Position:    i,
			DocumentID:  m.DocumentID,
			Label:       string(m.Label),
			GroundTruth: m.GroundTruth,
			Predicted:   m.Predicted,
		}); err != nil {
			return dbError("insert miss", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return dbError("commit save", err)
	}

	r.logger.Info("evaluation.saved",
		"run_id", row.ID,
		"labels", len(report.ByLabel),
		"missed", len(report.Missed),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (r *evaluationRepo) Get(ctx context.Context, runID string) (*eval.Report, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT `+summaryColumns+`, seed, run_limit, datapoints, failures,
		true_positives, false_positives, false_negatives FROM evaluation_runs WHERE id = ?`), runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewAppError(common.CodeStorage, fmt.Sprintf("run %s", runID), common.ErrNotFound)
		}
		return nil, dbError("get run", err)
	}

	var labels []labelRow
	if err := r.db.SelectContext(ctx, &labels, r.db.Rebind(
		`SELECT * FROM evaluation_label_metrics WHERE run_id = ? ORDER BY position`), runID); err != nil {
		return nil, dbError("get label metrics", err)
	}
	var misses []missRow
	if err := r.db.SelectContext(ctx, &misses, r.db.Rebind(
		`SELECT * FROM evaluation_misses WHERE run_id = ? ORDER BY position`), runID); err != nil {
		return nil, dbError("get misses", err)
	}
	return fromRows(row, labels, misses)
}

func (r *evaluationRepo) List(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	out := make([]RunSummary, 0, limit)
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(
		`SELECT `+summaryColumns+` FROM evaluation_runs ORDER BY created_at DESC, id LIMIT ?`), limit); err != nil {
		return nil, dbError("list runs", err)
	}
	return out, nil
}

func toRunRow(report *eval.Report) (runRow, error) {
	datapoints, err := json.Marshal(report.Meta.Datapoints)
	if err != nil {
		return runRow{}, common.WrapError(err, "encode datapoints")
	}
	failures, err := json.Marshal(report.Failures)
	if err != nil {
		return runRow{}, common.WrapError(err, "encode failures")
	}
	var limit *int64
	if report.Meta.Limit != nil {
		l := int64(*report.Meta.Limit)
		limit = &l
	}
	ts := report.Meta.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return runRow{
		RunSummary: RunSummary{
			ID:        report.Meta.RunID,
			Dataset:   report.Meta.Dataset,
			Split:     report.Meta.Split,
			Strategy:  report.Meta.Strategy,
			Model:     report.Meta.Model,
			Status:    report.Meta.Status,
			Documents: len(report.Meta.Datapoints),
			F1:        report.Aggregated.F1,
			Recall:    report.Aggregated.Recall,
			Precision: report.Aggregated.Precision,
			CreatedAt: ts.UTC(),
		},
		Seed:           report.Meta.Seed,
		Limit:          limit,
		Datapoints:     string(datapoints),
		Failures:       string(failures),
		TruePositives:  report.Counts.TruePositive,
		FalsePositives: report.Counts.FalsePositive,
		FalseNegatives: report.Counts.FalseNegative,
	}, nil
}

func fromRows(row runRow, labels []labelRow, misses []missRow) (*eval.Report, error) {
	report := &eval.Report{
		Meta: eval.Meta{
			RunID:     row.ID,
			Dataset:   row.Dataset,
			Split:     row.Split,
			Seed:      row.Seed,
			Strategy:  row.Strategy,
			Model:     row.Model,
			Status:    row.Status,
			Timestamp: row.CreatedAt.UTC(),
		},
		Aggregated: score.Metrics{F1: row.F1, Recall: row.Recall, Precision: row.Precision},
		Counts: score.Score{
			TruePositive:  row.TruePositives,
			FalsePositive: row.FalsePositives,
			FalseNegative: row.FalseNegatives,
		},
		ByLabel: make([]score.LabelMetrics, 0, len(labels)),
		Missed:  make([]score.MissedEntry, 0, len(misses)),
	}
	if row.Limit != nil {
		l := int(*row.Limit)
		report.Meta.Limit = &l
	}
	if err := json.Unmarshal([]byte(row.Datapoints), &report.Meta.Datapoints); err != nil {
		return nil, common.WrapError(err, "decode datapoints")
	}
	if err := json.Unmarshal([]byte(row.Failures), &report.Failures); err != nil {
		return nil, common.WrapError(err, "decode failures")
	}
	for _, l := range labels {
		report.ByLabel = append(report.ByLabel, score.LabelMetrics{
			Label:   constants.Label(l.Label),
			Metrics: score.Metrics{F1: l.F1, Recall: l.Recall, Precision: l.Precision},
			Score: score.Score{
				TruePositive:  l.TruePositives,
				FalsePositive: l.FalsePositives,
				FalseNegative: l.FalseNegatives,
			},
		})
	}
	for _, m := range misses {
		report.Missed = append(report.Missed, score.MissedEntry{
			DocumentID:  m.DocumentID,
			Label:       constants.Label(m.Label),
			GroundTruth: m.GroundTruth,
			Predicted:   m.Predicted,
		})
	}
	return report, nil
}

func dbError(op string, err error) error {
	return common.NewAppError(common.CodeStorage, op, fmt.Errorf("%w: %v", common.ErrDatabase, err))
}

func isDuplicate(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/receipts-eval/internal/common"
	"github.com/joseph-ayodele/receipts-eval/internal/compare"
	"github.com/joseph-ayodele/receipts-eval/internal/dataset"
	"github.com/joseph-ayodele/receipts-eval/internal/eval"
	"github.com/joseph-ayodele/receipts-eval/internal/export"
	"github.com/joseph-ayodele/receipts-eval/internal/llm"
	"github.com/joseph-ayodele/receipts-eval/internal/llm/anthropic"
	"github.com/joseph-ayodele/receipts-eval/internal/llm/openai"
	"github.com/joseph-ayodele/receipts-eval/internal/ocr"
	"github.com/joseph-ayodele/receipts-eval/internal/prompt"
	repo "github.com/joseph-ayodele/receipts-eval/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		configPath  = flag.String("config", "", "path to a YAML/JSON config file (optional)")
		datasetName = flag.String("dataset", "", "dataset name (overrides dataset.name)")
		split       = flag.String("split", "", "dataset split (overrides dataset.split)")
		limit       = flag.Int("limit", 0, "evaluate a seeded random sample of this many data points (0 = all)")
		seed        = flag.Int64("seed", 0, "sampling seed (overrides eval.seed)")
		strategy    = flag.String("strategy", "", fmt.Sprintf("prompt strategy %v (overrides eval.strategy)", prompt.Names()))
		out         = flag.String("out", "", "report directory (overrides eval.output_dir)")
		concurrency = flag.Int("concurrency", 0, "documents evaluated at once (overrides eval.concurrency)")
		provider    = flag.String("provider", "", "completion provider openai|anthropic (overrides llm.provider)")
		model       = flag.String("model", "", "completion model (overrides llm.model)")
		xlsx        = flag.Bool("xlsx", false, "also write an XLSX workbook")
		persist     = flag.Bool("persist", false, "store the report in database.dsn")
	)
	flag.Parse()

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dataset":
			cfg.Dataset.Name = *datasetName
		case "split":
			cfg.Dataset.Split = *split
		case "limit":
			cfg.Eval.Limit = *limit
		case "seed":
			cfg.Eval.Seed = *seed
		case "strategy":
			cfg.Eval.Strategy = *strategy
		case "out":
			cfg.Eval.OutputDir = *out
		case "concurrency":
			cfg.Eval.Concurrency = *concurrency
		case "provider":
			if cfg.LLM.Model == common.DefaultModel(cfg.LLM.Provider) {
				cfg.LLM.Model = common.DefaultModel(*provider)
			}
			cfg.LLM.Provider = *provider
		case "model":
			cfg.LLM.Model = *model
		}
	})
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.LLM.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if *persist && cfg.Database.DSN == "" {
		printError("Error: --persist requires database.dsn (RECEIPTS_EVAL_DATABASE_DSN)\n")
		os.Exit(1)
	}

	// logs go to stderr so the summary table stays readable
	logger := common.NewLogger(cfg.Log, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runID := uuid.NewString()
	ctx = common.WithRunID(ctx, runID)
	log := common.LoggerFrom(ctx, logger)

	store, err := dataset.OpenStore(ctx, cfg.Dataset, cfg.S3)
	if err != nil {
		log.Error("open dataset store", "error", err)
		os.Exit(1)
	}

	strat, err := prompt.New(cfg.Eval.Strategy, prompt.DemonstrationsFrom(cfg.Prompt.Demonstrations))
	if err != nil {
		log.Error("select strategy", "error", err)
		os.Exit(1)
	}
	if err := strat.Init(ctx, store, cfg.Dataset.Name); err != nil {
		log.Error("init strategy", "strategy", strat.Name(), "error", err)
		os.Exit(1)
	}

	points, err := store.List(ctx, cfg.Dataset.Name, cfg.Dataset.Split)
	if err != nil {
		log.Error("list data points", "error", err)
		os.Exit(1)
	}
	log.Info("read data points", "dataset", cfg.Dataset.Name, "split", cfg.Dataset.Split, "count", len(points))
	points = dataset.Sample(points, cfg.Eval.Limit, cfg.Eval.Seed)

	segments := &eval.SegmentSource{
		Store:  store,
		OCR:    ocr.NewExtractor(ocr.ConfigFrom(cfg.OCR), logger),
		Logger: logger,
	}
	completer := llm.WithRateLimit(newCompleter(cfg.LLM, logger), cfg.LLM.RequestsPerSecond, cfg.LLM.Burst)
	proc := eval.NewProcessor(segments, strat, completer, logger)
	evaluator := eval.NewEvaluator(proc, logger,
		eval.WithConcurrency(cfg.Eval.Concurrency),
		eval.WithDocumentTimeout(cfg.Eval.DocumentTimeout),
		eval.WithFailFast(cfg.Eval.FailFast),
	)

	start := time.Now()
	predictions, err := evaluator.Run(ctx, points)
	if err != nil {
		log.Error("evaluation failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		os.Exit(1)
	}

	meta := eval.Meta{
		RunID:    runID,
		Dataset:  cfg.Dataset.Name,
		Split:    cfg.Dataset.Split,
		Seed:     cfg.Eval.Seed,
		Strategy: strat.Name(),
		Model:    cfg.LLM.Model,
	}
	if cfg.Eval.Limit > 0 {
		meta.Limit = &cfg.Eval.Limit
	}
	report, err := eval.BuildReport(meta, predictions, compare.ForLabel)
	if err != nil {
		log.Error("build report", "error", err)
		os.Exit(1)
	}

	export.PrintSummary(os.Stdout, report)

	exporter := export.NewExporter(cfg.Eval.OutputDir, logger)
	path, err := exporter.WriteJSON(report)
	if err != nil {
		log.Error("write report", "error", err)
		os.Exit(1)
	}
	fmt.Printf("report written to %s\n", path)
	if *xlsx {
		path, err := exporter.WriteXLSX(report)
		if err != nil {
			log.Error("write workbook", "error", err)
			os.Exit(1)
		}
		fmt.Printf("workbook written to %s\n", path)
	}

	if *persist {
		if err := persistReport(ctx, cfg.Database, &report, log); err != nil {
			log.Error("persist report", "error", err)
			os.Exit(1)
		}
	}
}

func newCompleter(cfg common.LLMConfig, logger *slog.Logger) llm.Completer {
	if cfg.Provider == "anthropic" {
		return anthropic.NewClient(anthropic.ConfigFrom(cfg), logger)
	}
	return openai.NewClient(openai.ConfigFrom(cfg), logger)
}

func persistReport(ctx context.Context, cfg common.DatabaseConfig, report *eval.Report, log *slog.Logger) error {
	db, err := repo.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := repo.Migrate(ctx, db); err != nil {
		return err
	}
	if err := repo.NewEvaluationRepository(db, log).Save(ctx, report); err != nil {
		return err
	}
	log.Info("report persisted", "run_id", report.Meta.RunID)
	return nil
}

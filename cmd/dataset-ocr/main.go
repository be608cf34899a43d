package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/joseph-ayodele/receipts-eval/internal/async"
	"github.com/joseph-ayodele/receipts-eval/internal/common"
	"github.com/joseph-ayodele/receipts-eval/internal/dataset"
	"github.com/joseph-ayodele/receipts-eval/internal/eval"
	"github.com/joseph-ayodele/receipts-eval/internal/ocr"
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
		force       = flag.Bool("force", false, "re-run OCR even when segments.json exists")
	)
	flag.Parse()

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if *datasetName != "" {
		cfg.Dataset.Name = *datasetName
	}
	if *split != "" {
		cfg.Dataset.Split = *split
	}
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	logger := common.NewLogger(cfg.Log, os.Stdout)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, err := dataset.OpenStore(ctx, cfg.Dataset, cfg.S3)
	if err != nil {
		logger.Error("open dataset store", "error", err)
		os.Exit(1)
	}
	points, err := store.List(ctx, cfg.Dataset.Name, cfg.Dataset.Split)
	if err != nil {
		logger.Error("list data points", "error", err)
		os.Exit(1)
	}

	source := &eval.SegmentSource{
		Store:  store,
		OCR:    ocr.NewExtractor(ocr.ConfigFrom(cfg.OCR), logger),
		Logger: logger,
	}
	handle := func(ctx context.Context, dp dataset.DataPoint) error {
		if *force {
			_, err := source.Extract(ctx, dp)
			return err
		}
		_, err := source.Load(ctx, dp)
		return err
	}

	queue := async.New[dataset.DataPoint](handle, dataset.DataPoint.String, logger,
		async.WithWorkers(cfg.OCR.Concurrency),
		async.WithQueueSize(len(points)),
		async.WithProcessTimeout(cfg.Eval.DocumentTimeout),
	)

	start := time.Now()
	for _, dp := range points {
		if !queue.Enqueue(ctx, dp) {
			break
		}
	}
	queue.Shutdown(ctx)

	ok, failed := queue.Counts()
	logger.Info("dataset ocr finished",
		"dataset", cfg.Dataset.Name,
		"split", cfg.Dataset.Split,
		"data_points", len(points),
		"ok", ok,
		"failed", failed,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	if failed > 0 {
		os.Exit(1)
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/joseph-ayodele/receipts-eval/internal/common"
	"github.com/joseph-ayodele/receipts-eval/internal/dataset"
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
		bucket      = flag.String("bucket", "", "directory holding original/ and annotated/ (required)")
		datasetName = flag.String("dataset", "", "target dataset name (overrides dataset.name)")
	)
	flag.Parse()

	if *bucket == "" {
		printError("Error: --bucket is required\n")
		os.Exit(1)
	}

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if *datasetName != "" {
		cfg.Dataset.Name = *datasetName
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

	importer := &dataset.Importer{Store: store, Dataset: cfg.Dataset.Name, Logger: logger}
	res, err := importer.ImportAnnotated(ctx, *bucket)
	if err != nil {
		logger.Error("import failed", "imported", res.Imported, "error", err)
		os.Exit(1)
	}
	logger.Info("import finished", "dataset", cfg.Dataset.Name, "imported", res.Imported, "skipped", res.Skipped)
}

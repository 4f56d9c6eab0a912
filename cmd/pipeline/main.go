package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"fleet_attendance/internal/config"
	"fleet_attendance/internal/logger"
	"fleet_attendance/internal/pipeline"
)

// One-shot batch entry: ingest the configured source directories, classify
// every driver, write results and audit log under the output directory.
func main() {
	configPath := flag.String("config", "config.yml", "path to config.yml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Setup(cfg.LogFile, cfg.LogLevel)
	db := config.InitDB()

	pipe := pipeline.New(cfg.Pipeline, db)
	result, runErr := pipe.Run(context.Background())

	fmt.Printf("run %s: %s\n", result.Run.ID, result.Run.Status)
	fmt.Printf("  drivers: %d  classifications: %d  files: %d ok / %d failed\n",
		result.Run.DriversProcessed, len(result.Classifications),
		result.Run.FilesProcessed, result.Run.FilesFailed)
	for status, n := range result.Stats.CountsByStatus {
		fmt.Printf("  %-10s %d\n", status, n)
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "run failed: %v\n", runErr)
		os.Exit(1)
	}
}

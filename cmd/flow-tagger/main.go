package main

import (
	"FlowTagger/internal/config"
	"FlowTagger/internal/engine/aggregator"
	"FlowTagger/internal/engine/manager"
	"FlowTagger/internal/factory"
	"FlowTagger/internal/lookup"
	"FlowTagger/internal/model"
	"FlowTagger/internal/report"
	"FlowTagger/pkg/pcap"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

const writerTimeout = 30 * time.Second

func main() {
	// --- Command-Line Flag Parsing ---
	configPath := flag.String("config", "", "Optional YAML config file with defaults and extra writers.")
	workers := flag.Int("workers", 0, "Number of aggregation workers (overrides the config file).")
	flag.Usage = func() {
		config.Usage(os.Stderr, filepath.Base(os.Args[0]), config.Default())
		fmt.Fprintln(os.Stderr, "\nFlags:")
		flag.PrintDefaults()
	}
	flag.Parse()

	// 1. Load configuration
	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		log.Println("Configuration loaded successfully.")
	}
	if *workers > 0 {
		cfg.Aggregator.NumWorkers = *workers
	}

	// 2. Resolve and check paths
	paths, err := config.ResolvePaths(cfg, flag.Args())
	if errors.Is(err, config.ErrUsage) {
		config.Usage(os.Stderr, filepath.Base(os.Args[0]), cfg)
		os.Exit(1)
	} else if err != nil {
		log.Fatalf("Failed to resolve paths: %v", err)
	}
	if err := paths.CheckInputs(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// 3. Process the files
	if err := run(context.Background(), cfg, paths); err != nil {
		log.Fatalf("%v", err)
	}
	fmt.Printf("Results written to '%s'\n", paths.Output)
}

// run loads the lookup table, aggregates the flow source and writes the report
// followed by any configured extra writers.
func run(ctx context.Context, cfg *config.Config, paths config.Paths) error {
	table, err := lookup.LoadFile(paths.Lookup)
	if err != nil {
		return err
	}
	log.Printf("Loaded %d lookup entries from '%s'.", table.Len(), paths.Lookup)

	var counts *model.Counts
	var stats model.Stats
	switch cfg.Input.Format {
	case config.FormatPcap:
		counts, stats, err = aggregatePcap(paths.FlowLog, table)
	default:
		counts, stats, err = aggregateFlowLog(cfg, paths.FlowLog, table)
	}
	if err != nil {
		return err
	}

	rep := &model.Report{
		Timestamp:   time.Now(),
		FlowLogPath: paths.FlowLog,
		LookupPath:  paths.Lookup,
		OutputPath:  paths.Output,
		Counts:      counts,
		Stats:       stats,
	}
	if err := report.NewTextWriter(paths.Output).Write(ctx, rep); err != nil {
		return err
	}

	writers, err := factory.Create(cfg.Writers)
	if err != nil {
		return err
	}
	for _, w := range writers {
		writeExtra(ctx, w, rep)
	}
	return nil
}

func aggregateFlowLog(cfg *config.Config, path string, table *model.LookupTable) (*model.Counts, model.Stats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, model.Stats{}, fmt.Errorf("failed to open flow log: %w", err)
	}
	defer file.Close()
	log.Printf("Reading flow records from '%s'...", path)

	return manager.Feed(manager.NewManager(cfg, table), file)
}

func aggregatePcap(path string, table *model.LookupTable) (*model.Counts, model.Stats, error) {
	reader, err := pcap.NewReader(path)
	if err != nil {
		return nil, model.Stats{}, fmt.Errorf("failed to open pcap file: %w", err)
	}
	defer reader.Close()
	log.Printf("Reading packets from '%s'...", path)

	agg := aggregator.New(table)
	out := make(chan model.FlowRecord, 1024)
	go reader.ReadRecords(out)
	for rec := range out {
		agg.ProcessRecord(rec)
	}
	agg.Skip(model.SkipNotIP, reader.Skipped())
	log.Println("Finished reading all packets from pcap file.")
	return agg.Counts(), agg.Stats(), nil
}

// writeExtra runs a single optional writer. Failures are logged, not returned.
func writeExtra(ctx context.Context, w model.Writer, rep *model.Report) {
	defer func() {
		if err := w.Close(); err != nil {
			log.Printf("Error closing writer '%s': %v", w.Name(), err)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, writerTimeout)
	defer cancel()
	if err := w.Write(ctx, rep); err != nil {
		log.Printf("Error writing report with writer '%s': %v", w.Name(), err)
	}
}

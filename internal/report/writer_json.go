package report

import (
	"FlowTagger/internal/config"
	"FlowTagger/internal/factory"
	"FlowTagger/internal/model"
	"context"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

func init() {
	factory.RegisterWriter("json", func(def config.WriterDef) (model.Writer, error) {
		if def.JSON.RootPath == "" {
			return nil, fmt.Errorf("json writer requires json.root_path")
		}
		return NewJSONWriter(def.JSON.RootPath), nil
	})
}

// TimestampLayout names the per-run snapshot directories.
const TimestampLayout = "2006-01-02_15-04-05"

// SummaryData holds the metadata for a run, written as summary.json.
type SummaryData struct {
	Timestamp             string            `json:"timestamp"`
	FlowLog               string            `json:"flow_log"`
	LookupTable           string            `json:"lookup_table"`
	TotalLines            uint64            `json:"total_lines"`
	TotalRecords          uint64            `json:"total_records"`
	DistinctTags          int               `json:"distinct_tags"`
	DistinctPortProtocols int               `json:"distinct_port_protocols"`
	Skipped               map[string]uint64 `json:"skipped"`
}

// CountsData is the gob payload written as counts.gob.
type CountsData struct {
	Tags          []model.TagCount
	PortProtocols []model.PortProtocolCount
}

// JSONWriter writes a JSON summary and a gob dump of the sorted counts into
// a timestamped directory below its root path.
// It implements the model.Writer interface.
type JSONWriter struct {
	rootPath string
}

// NewJSONWriter creates a new writer rooted at rootPath.
func NewJSONWriter(rootPath string) *JSONWriter {
	return &JSONWriter{rootPath: rootPath}
}

func (w *JSONWriter) Name() string {
	return "json"
}

// Write serializes the report into <root>/<timestamp>/.
func (w *JSONWriter) Write(_ context.Context, report *model.Report) error {
	// 1. Create timestamped directory
	snapshotDir := filepath.Join(w.rootPath, report.Timestamp.Format(TimestampLayout))
	if err := os.MkdirAll(snapshotDir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	// 2. Write the sorted rows in gob format
	gobPath := filepath.Join(snapshotDir, "counts.gob")
	gobFile, err := os.Create(gobPath)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file '%s': %w", gobPath, err)
	}
	defer gobFile.Close()

	data := CountsData{
		Tags:          report.Counts.SortedTags(),
		PortProtocols: report.Counts.SortedPortProtocols(),
	}
	if err := gob.NewEncoder(gobFile).Encode(data); err != nil {
		return fmt.Errorf("failed to encode counts to gob for file '%s': %w", gobPath, err)
	}
	if err := gobFile.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot file '%s': %w", gobPath, err)
	}

	// 3. Write summary file
	summary := SummaryData{
		Timestamp:             report.Timestamp.UTC().Format(time.RFC3339),
		FlowLog:               report.FlowLogPath,
		LookupTable:           report.LookupPath,
		TotalLines:            report.Stats.Lines,
		TotalRecords:          report.Counts.Total(),
		DistinctTags:          len(report.Counts.Tags),
		DistinctPortProtocols: len(report.Counts.PortProtocols),
		Skipped:               make(map[string]uint64, len(report.Stats.Skipped)),
	}
	for reason, n := range report.Stats.Skipped {
		summary.Skipped[reason.String()] = n
	}

	summaryPath := filepath.Join(snapshotDir, "summary.json")
	summaryFile, err := os.Create(summaryPath)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer summaryFile.Close()

	jsonEncoder := json.NewEncoder(summaryFile)
	jsonEncoder.SetIndent("", "  ")
	if err := jsonEncoder.Encode(summary); err != nil {
		return fmt.Errorf("failed to encode summary to json: %w", err)
	}
	if err := summaryFile.Close(); err != nil {
		return fmt.Errorf("failed to close summary file: %w", err)
	}

	return nil
}

func (w *JSONWriter) Close() error {
	return nil
}

package report

import (
	"FlowTagger/internal/model"
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

const (
	tagHeader        = "Tag Counts:"
	tagColumns       = "Tag,Count"
	portProtoHeader  = "Port/Protocol Combination Counts:"
	portProtoColumns = "Port,Protocol,Count"
)

// WriteText renders counts in the two-section report format: tag rows sorted
// by tag, a blank line, then port/protocol rows sorted by port and protocol.
func WriteText(w io.Writer, counts *model.Counts) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, tagHeader)
	fmt.Fprintln(bw, tagColumns)
	for _, row := range counts.SortedTags() {
		fmt.Fprintf(bw, "%s,%d\n", row.Tag, row.Count)
	}

	fmt.Fprintln(bw)
	fmt.Fprintln(bw, portProtoHeader)
	fmt.Fprintln(bw, portProtoColumns)
	for _, row := range counts.SortedPortProtocols() {
		fmt.Fprintf(bw, "%d,%s,%d\n", row.Port, row.Protocol, row.Count)
	}

	return bw.Flush()
}

// TextWriter writes the text report to a file.
// It implements the model.Writer interface.
type TextWriter struct {
	path string
}

// NewTextWriter creates a text writer for the file at path.
func NewTextWriter(path string) *TextWriter {
	return &TextWriter{path: path}
}

func (w *TextWriter) Name() string {
	return "text"
}

// Write creates (or truncates) the output file and renders the report into it.
func (w *TextWriter) Write(_ context.Context, report *model.Report) error {
	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("failed to create output file '%s': %w", w.path, err)
	}
	defer file.Close()

	if err := WriteText(file, report.Counts); err != nil {
		return fmt.Errorf("failed to write report to '%s': %w", w.path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close output file '%s': %w", w.path, err)
	}

	log.Printf("Wrote %d tags and %d port/protocol combinations to %s", len(report.Counts.Tags), len(report.Counts.PortProtocols), w.path)
	return nil
}

func (w *TextWriter) Close() error {
	return nil
}

package model

import "context"

// Writer defines a generic interface for persisting a finished report.
type Writer interface {
	// Name returns the writer type, used in log lines.
	Name() string

	// Write persists the report.
	Write(ctx context.Context, report *Report) error

	// Close releases any connection or handle held by the writer.
	Close() error
}

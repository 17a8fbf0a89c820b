package report

import (
	"FlowTagger/internal/config"
	"FlowTagger/internal/factory"
	"FlowTagger/internal/model"
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

func init() {
	factory.RegisterWriter("sqlite", func(def config.WriterDef) (model.Writer, error) {
		return NewSQLiteWriter(def.SQLite.Path)
	})
}

const defaultSQLitePath = "data/flowtagger.db"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp INTEGER,
    flow_log TEXT,
    lookup_table TEXT,
    total_lines INTEGER,
    total_records INTEGER
);
CREATE TABLE IF NOT EXISTS tag_counts (
    run_id INTEGER REFERENCES runs(id),
    tag TEXT,
    count INTEGER
);
CREATE TABLE IF NOT EXISTS port_protocol_counts (
    run_id INTEGER REFERENCES runs(id),
    port INTEGER,
    protocol TEXT,
    count INTEGER
);
`

// SQLiteWriter stores each run and its frequency tables in a SQLite database.
// It implements the model.Writer interface.
type SQLiteWriter struct {
	db *sql.DB
}

// NewSQLiteWriter opens (or creates) the database at path and ensures the schema.
func NewSQLiteWriter(path string) (*SQLiteWriter, error) {
	if path == "" {
		path = defaultSQLitePath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &SQLiteWriter{db: db}, nil
}

func (w *SQLiteWriter) Name() string {
	return "sqlite"
}

// Write inserts the run and all of its rows in a single transaction.
func (w *SQLiteWriter) Write(ctx context.Context, report *model.Report) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (timestamp, flow_log, lookup_table, total_lines, total_records) VALUES (?, ?, ?, ?, ?)`,
		report.Timestamp.Unix(), report.FlowLogPath, report.LookupPath,
		int64(report.Stats.Lines), int64(report.Counts.Total()),
	)
	if err != nil {
		return fmt.Errorf("sqlite insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite run id: %w", err)
	}

	tagStmt, err := tx.PrepareContext(ctx, `INSERT INTO tag_counts (run_id, tag, count) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite prepare: %w", err)
	}
	defer tagStmt.Close()
	for _, row := range report.Counts.SortedTags() {
		if _, err := tagStmt.ExecContext(ctx, runID, row.Tag, int64(row.Count)); err != nil {
			return fmt.Errorf("sqlite insert tag: %w", err)
		}
	}

	pairStmt, err := tx.PrepareContext(ctx, `INSERT INTO port_protocol_counts (run_id, port, protocol, count) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite prepare: %w", err)
	}
	defer pairStmt.Close()
	for _, row := range report.Counts.SortedPortProtocols() {
		if _, err := pairStmt.ExecContext(ctx, runID, int64(row.Port), row.Protocol, int64(row.Count)); err != nil {
			return fmt.Errorf("sqlite insert port/protocol: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite commit: %w", err)
	}
	log.Printf("Stored run %d in SQLite", runID)
	return nil
}

func (w *SQLiteWriter) Close() error {
	return w.db.Close()
}

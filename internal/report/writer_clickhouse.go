package report

import (
	"FlowTagger/internal/config"
	"FlowTagger/internal/factory"
	"FlowTagger/internal/model"
	"context"
	"fmt"
	"log"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

func init() {
	factory.RegisterWriter("clickhouse", func(def config.WriterDef) (model.Writer, error) {
		return NewClickHouseWriter(def.ClickHouse)
	})
}

const createTagTableStatement = `
CREATE TABLE IF NOT EXISTS tag_counts (
    Timestamp DateTime,
    FlowLog   String,
    Tag       String,
    Count     UInt64
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(Timestamp)
ORDER BY (Timestamp, Tag);
`

const createPortProtocolTableStatement = `
CREATE TABLE IF NOT EXISTS port_protocol_counts (
    Timestamp DateTime,
    FlowLog   String,
    Port      UInt64,
    Protocol  String,
    Count     UInt64
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(Timestamp)
ORDER BY (Timestamp, Port, Protocol);
`

// ClickHouseWriter inserts both frequency tables into ClickHouse.
// It implements the model.Writer interface.
type ClickHouseWriter struct {
	conn driver.Conn
}

// NewClickHouseWriter connects to ClickHouse and ensures the tables exist.
func NewClickHouseWriter(cfg config.ClickHouseConfig) (*ClickHouseWriter, error) {
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	for _, stmt := range []string{createTagTableStatement, createPortProtocolTableStatement} {
		if err := conn.Exec(context.Background(), stmt); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create table: %w", err)
		}
	}
	log.Println("Successfully connected to ClickHouse and ensured tables exist.")

	return &ClickHouseWriter{conn: conn}, nil
}

func connect(cfg config.ClickHouseConfig) (driver.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	return conn, nil
}

func (w *ClickHouseWriter) Name() string {
	return "clickhouse"
}

// Write sends one batch per table.
func (w *ClickHouseWriter) Write(ctx context.Context, report *model.Report) error {
	ts := report.Timestamp.UTC()

	tagBatch, err := w.conn.PrepareBatch(ctx, "INSERT INTO tag_counts")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}
	for _, row := range report.Counts.SortedTags() {
		if err := tagBatch.Append(ts, report.FlowLogPath, row.Tag, row.Count); err != nil {
			return fmt.Errorf("failed to append tag to batch: %w", err)
		}
	}
	if err := tagBatch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}

	pairBatch, err := w.conn.PrepareBatch(ctx, "INSERT INTO port_protocol_counts")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}
	for _, row := range report.Counts.SortedPortProtocols() {
		if err := pairBatch.Append(ts, report.FlowLogPath, row.Port, row.Protocol, row.Count); err != nil {
			return fmt.Errorf("failed to append port/protocol to batch: %w", err)
		}
	}
	if err := pairBatch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}

	log.Printf("Wrote %d tags and %d port/protocol combinations to ClickHouse", len(report.Counts.Tags), len(report.Counts.PortProtocols))
	return nil
}

func (w *ClickHouseWriter) Close() error {
	return w.conn.Close()
}

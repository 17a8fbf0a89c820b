package report

import (
	"FlowTagger/internal/config"
	"FlowTagger/internal/factory"
	"FlowTagger/internal/model"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func init() {
	factory.RegisterWriter("nats", func(def config.WriterDef) (model.Writer, error) {
		return NewNATSWriter(def.NATS)
	})
}

const defaultNATSSubject = "flowtagger.reports"

// NATSWriter publishes the report as a protobuf Struct to a NATS subject.
// It implements the model.Writer interface.
type NATSWriter struct {
	nc      *nats.Conn
	subject string
}

// NewNATSWriter connects to the configured NATS server.
func NewNATSWriter(cfg config.NATSConfig) (*NATSWriter, error) {
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}
	subject := cfg.Subject
	if subject == "" {
		subject = defaultNATSSubject
	}

	nc, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s", url)
	return &NATSWriter{nc: nc, subject: subject}, nil
}

func (w *NATSWriter) Name() string {
	return "nats"
}

// Write serializes the report to Protobuf and publishes it.
func (w *NATSWriter) Write(ctx context.Context, report *model.Report) error {
	data, err := EncodeReport(report)
	if err != nil {
		return err
	}
	if err := w.nc.Publish(w.subject, data); err != nil {
		return fmt.Errorf("failed to publish report: %w", err)
	}
	return w.nc.FlushWithContext(ctx)
}

// Close drains and closes the NATS connection.
func (w *NATSWriter) Close() error {
	if w.nc == nil {
		return nil
	}
	err := w.nc.Drain()
	log.Println("NATS connection drained and closed.")
	return err
}

// EncodeReport converts a report into a marshalled structpb.Struct with the
// fields timestamp, flow_log, lookup_table, tag_counts and port_protocol_counts.
func EncodeReport(report *model.Report) ([]byte, error) {
	tags := make(map[string]interface{}, len(report.Counts.Tags))
	for tag, n := range report.Counts.Tags {
		tags[tag] = n
	}

	pairs := make([]interface{}, 0, len(report.Counts.PortProtocols))
	for _, row := range report.Counts.SortedPortProtocols() {
		pairs = append(pairs, map[string]interface{}{
			"port":     row.Port,
			"protocol": row.Protocol,
			"count":    row.Count,
		})
	}

	msg, err := structpb.NewStruct(map[string]interface{}{
		"timestamp":            report.Timestamp.UTC().Format(time.RFC3339),
		"flow_log":             report.FlowLogPath,
		"lookup_table":         report.LookupPath,
		"tag_counts":           tags,
		"port_protocol_counts": pairs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build report message: %w", err)
	}

	data, err := proto.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report message: %w", err)
	}
	return data, nil
}

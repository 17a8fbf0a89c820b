package report

import (
	"FlowTagger/internal/model"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sampleCounts() *model.Counts {
	counts := model.NewCounts()
	counts.Tags["web"] = 2
	counts.Tags["dns"] = 1
	counts.Tags[model.Untagged] = 2
	counts.PortProtocols[model.LookupKey{Port: 8080, Protocol: "tcp"}] = 1
	counts.PortProtocols[model.LookupKey{Port: 443, Protocol: "tcp"}] = 1
	counts.PortProtocols[model.LookupKey{Port: 80, Protocol: "unknown"}] = 1
	counts.PortProtocols[model.LookupKey{Port: 80, Protocol: "tcp"}] = 1
	counts.PortProtocols[model.LookupKey{Port: 53, Protocol: "udp"}] = 1
	return counts
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, sampleCounts()); err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}

	expected := `Tag Counts:
Tag,Count
Untagged,2
dns,1
web,2

Port/Protocol Combination Counts:
Port,Protocol,Count
53,udp,1
80,tcp,1
80,unknown,1
443,tcp,1
8080,tcp,1
`
	if buf.String() != expected {
		t.Errorf("Unexpected report.\nGot:\n%s\nWant:\n%s", buf.String(), expected)
	}
}

func TestWriteText_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, model.NewCounts()); err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}

	expected := "Tag Counts:\nTag,Count\n\nPort/Protocol Combination Counts:\nPort,Protocol,Count\n"
	if buf.String() != expected {
		t.Errorf("Unexpected empty report: %q", buf.String())
	}

	blank := 0
	for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
		if line == "" {
			blank++
		}
	}
	if blank != 1 {
		t.Errorf("Expected exactly one blank line, got %d", blank)
	}
}

func TestTextWriter_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "results.csv")
	writer := NewTextWriter(path)
	defer writer.Close()

	if err := writer.Write(context.Background(), &model.Report{Counts: sampleCounts()}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read report: %v", err)
	}
	lines := strings.Split(string(data), "\n")
	if lines[0] != "Tag Counts:" || lines[1] != "Tag,Count" {
		t.Errorf("Unexpected report header: %q", lines[:2])
	}
	if writer.Name() != "text" {
		t.Errorf("Expected writer name 'text', got '%s'", writer.Name())
	}
}

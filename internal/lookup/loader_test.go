package lookup

import (
	"FlowTagger/internal/model"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleTable = `dstport,protocol,tag
80,tcp,web
443,tcp,web
53,udp,dns
22,tcp,ssh
 25 , tcp , mail 
invalid,tcp,error
80,TCP,web
80,tcp,Web
`

func TestLoad(t *testing.T) {
	table, err := Load(strings.NewReader(sampleTable))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	expected := map[model.LookupKey]string{
		{Port: 80, Protocol: "tcp"}:  "web",
		{Port: 443, Protocol: "tcp"}: "web",
		{Port: 53, Protocol: "udp"}:  "dns",
		{Port: 22, Protocol: "tcp"}:  "ssh",
		{Port: 25, Protocol: "tcp"}:  "mail",
	}
	if table.Len() != len(expected) {
		t.Errorf("Expected %d entries, got %d", len(expected), table.Len())
	}
	for key, want := range expected {
		got, ok := table.Get(key)
		if !ok {
			t.Errorf("Expected key %+v to be present", key)
			continue
		}
		if got != want {
			t.Errorf("Key %+v: expected tag '%s', got '%s'", key, want, got)
		}
	}
}

func TestLoad_SkipsMalformedRows(t *testing.T) {
	input := "dstport,protocol,tag\n" +
		"abc,tcp,bad\n" +
		"-1,tcp,negative\n" +
		"8080,tcp\n" +
		"9090,udp,ok\n"
	table, err := Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if table.Len() != 1 {
		t.Fatalf("Expected only the valid row to be loaded, got %d entries", table.Len())
	}
	if _, ok := table.Get(model.LookupKey{Port: 8080, Protocol: "tcp"}); ok {
		t.Error("Row with a missing tag column should be skipped")
	}
	if tag, _ := table.Get(model.LookupKey{Port: 9090, Protocol: "udp"}); tag != "ok" {
		t.Errorf("Expected tag 'ok', got '%s'", tag)
	}
}

func TestLoad_LastWriteWins(t *testing.T) {
	input := "dstport,protocol,tag\n80,tcp,first\n80, TCP ,SECOND\n"
	table, err := Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if tag, _ := table.Get(model.NewLookupKey(80, "tcp")); tag != "second" {
		t.Errorf("Expected later row to win with tag 'second', got '%s'", tag)
	}
}

func TestLoad_ColumnOrderAndExtraColumns(t *testing.T) {
	input := "tag,comment,protocol,dstport\nsmtp,legacy,tcp,25\n"
	table, err := Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if tag, ok := table.Get(model.LookupKey{Port: 25, Protocol: "tcp"}); !ok || tag != "smtp" {
		t.Errorf("Expected (25, tcp) -> smtp, got '%s' (present=%v)", tag, ok)
	}
}

func TestLoad_ArbitraryProtocol(t *testing.T) {
	input := "dstport,protocol,tag\n0,GRE,tunnel\n"
	table, err := Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if tag, _ := table.Get(model.LookupKey{Port: 0, Protocol: "gre"}); tag != "tunnel" {
		t.Errorf("Expected arbitrary protocol to be kept, got '%s'", tag)
	}
}

func TestLoad_PlusSignedPort(t *testing.T) {
	table, err := Load(strings.NewReader("dstport,protocol,tag\n+80,tcp,web\n-22,tcp,ssh\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if tag, ok := table.Get(model.LookupKey{Port: 80, Protocol: "tcp"}); !ok || tag != "web" {
		t.Errorf("Expected '+80' to load as port 80, got '%s' (found=%v)", tag, ok)
	}
	if table.Len() != 1 {
		t.Errorf("Expected the negative port row to be skipped, got %d entries", table.Len())
	}
}

func TestLoad_HeaderOnlyAndEmpty(t *testing.T) {
	table, err := Load(strings.NewReader("dstport,protocol,tag\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if table.Len() != 0 {
		t.Errorf("Expected empty table, got %d entries", table.Len())
	}

	table, err = Load(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Load of empty input failed: %v", err)
	}
	if table.Len() != 0 {
		t.Errorf("Expected empty table, got %d entries", table.Len())
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lookup.csv")
	if err := os.WriteFile(path, []byte(sampleTable), 0644); err != nil {
		t.Fatalf("Failed to write lookup table: %v", err)
	}
	table, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if table.Len() != 5 {
		t.Errorf("Expected 5 entries, got %d", table.Len())
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("Expected an error for a missing lookup table")
	}
}

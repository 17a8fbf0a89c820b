package protocol

import (
	"FlowTagger/internal/model"
	"testing"
)

const validLine = "2 123456789012 eni-1234567890 10.0.1.1 10.0.1.2 443 12346 6 10 100 1234567890 1234567891 ACCEPT OK"

func TestName(t *testing.T) {
	cases := map[uint64]string{
		1:   "icmp",
		6:   "tcp",
		17:  "udp",
		0:   "unknown",
		47:  "unknown",
		99:  "unknown",
		256: "unknown",
	}
	for number, want := range cases {
		if got := Name(number); got != want {
			t.Errorf("Name(%d): expected '%s', got '%s'", number, want, got)
		}
	}
}

func TestParseFlowRecord(t *testing.T) {
	rec, reason := ParseFlowRecord("  " + validLine + "\t\n")
	if reason != model.SkipNone {
		t.Fatalf("Expected valid record, got skip reason %s", reason)
	}
	if rec.DstPort != 443 || rec.ProtocolNumber != 6 {
		t.Errorf("Unexpected record: %+v", rec)
	}
	if key := Key(rec); key != (model.LookupKey{Port: 443, Protocol: "tcp"}) {
		t.Errorf("Unexpected key: %+v", key)
	}
}

func TestParseFlowRecord_CollapsesWhitespaceAndIgnoresTrailingFields(t *testing.T) {
	line := "2  123456789012\teni-1 10.0.1.1   10.0.1.2 53 12347 17 10 100 1 2 ACCEPT OK extra fields here"
	rec, reason := ParseFlowRecord(line)
	if reason != model.SkipNone {
		t.Fatalf("Expected valid record, got skip reason %s", reason)
	}
	if rec.DstPort != 53 || rec.ProtocolNumber != 17 {
		t.Errorf("Unexpected record: %+v", rec)
	}
}

func TestParseFlowRecord_PlusSignedNumbers(t *testing.T) {
	line := "2 123456789012 eni-1 10.0.1.1 10.0.1.2 +443 12346 +6 10 100 1 2 ACCEPT OK"
	rec, reason := ParseFlowRecord(line)
	if reason != model.SkipNone {
		t.Fatalf("Expected valid record, got skip reason %s", reason)
	}
	if rec.DstPort != 443 || rec.ProtocolNumber != 6 {
		t.Errorf("Unexpected record: %+v", rec)
	}
}

func TestParseFlowRecord_Skips(t *testing.T) {
	cases := []struct {
		name   string
		line   string
		reason model.SkipReason
	}{
		{"empty", "", model.SkipEmpty},
		{"blank", "   \t ", model.SkipEmpty},
		{"too few fields", "invalid line", model.SkipTooFewFields},
		{"thirteen fields", "2 1 eni 10.0.1.1 10.0.1.2 80 12345 6 10 100 1 2 ACCEPT", model.SkipTooFewFields},
		{"bad port", "2 1 eni 10.0.1.1 10.0.1.2 not_a_port 12348 6 10 100 1 2 ACCEPT OK", model.SkipBadPort},
		{"negative port", "2 1 eni 10.0.1.1 10.0.1.2 -80 12348 6 10 100 1 2 ACCEPT OK", model.SkipBadPort},
		{"bad protocol", "2 1 eni 10.0.1.1 10.0.1.2 80 12348 tcp 10 100 1 2 ACCEPT OK", model.SkipBadProtocol},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, reason := ParseFlowRecord(tc.line)
			if reason != tc.reason {
				t.Errorf("Expected skip reason %s, got %s", tc.reason, reason)
			}
			if rec != (model.FlowRecord{}) {
				t.Errorf("Skipped line should yield a zero record, got %+v", rec)
			}
		})
	}
}

package protocol

import (
	"FlowTagger/internal/model"
	"strings"

	"github.com/google/gopacket/layers"
)

const (
	// MinFields is the number of whitespace separated fields of a flow log record.
	MinFields = 14

	dstPortField  = 5
	protocolField = 7
)

// Protocol names used as lookup keys.
const (
	NameICMP    = "icmp"
	NameTCP     = "tcp"
	NameUDP     = "udp"
	NameUnknown = "unknown"
)

// Name maps an IP protocol number to its lookup name. Numbers other than
// ICMP, TCP and UDP all map to "unknown".
func Name(number uint64) string {
	switch number {
	case uint64(layers.IPProtocolICMPv4):
		return NameICMP
	case uint64(layers.IPProtocolTCP):
		return NameTCP
	case uint64(layers.IPProtocolUDP):
		return NameUDP
	default:
		return NameUnknown
	}
}

// ParseFlowRecord extracts the destination port and protocol number from a
// flow log line. A reason other than model.SkipNone means the line must not
// be counted at all.
func ParseFlowRecord(line string) (model.FlowRecord, model.SkipReason) {
	line = strings.TrimSpace(line)
	if line == "" {
		return model.FlowRecord{}, model.SkipEmpty
	}

	fields := strings.Fields(line)
	if len(fields) < MinFields {
		return model.FlowRecord{}, model.SkipTooFewFields
	}

	port, err := model.ParseNonNegative(fields[dstPortField])
	if err != nil {
		return model.FlowRecord{}, model.SkipBadPort
	}
	proto, err := model.ParseNonNegative(fields[protocolField])
	if err != nil {
		return model.FlowRecord{}, model.SkipBadProtocol
	}

	return model.FlowRecord{DstPort: port, ProtocolNumber: proto}, model.SkipNone
}

// Key returns the port/protocol pair a record is counted and looked up under.
func Key(rec model.FlowRecord) model.LookupKey {
	return model.LookupKey{Port: rec.DstPort, Protocol: Name(rec.ProtocolNumber)}
}

package model

// SkipReason tells why a flow log line was not counted.
type SkipReason int

const (
	SkipNone SkipReason = iota
	SkipEmpty
	SkipTooFewFields
	SkipBadPort
	SkipBadProtocol
	SkipNotIP
)

func (r SkipReason) String() string {
	switch r {
	case SkipNone:
		return "none"
	case SkipEmpty:
		return "empty"
	case SkipTooFewFields:
		return "too_few_fields"
	case SkipBadPort:
		return "bad_port"
	case SkipBadProtocol:
		return "bad_protocol"
	case SkipNotIP:
		return "not_ip"
	default:
		return "unknown"
	}
}

// Stats summarizes how many input lines were counted or skipped.
type Stats struct {
	Lines   uint64
	Counted uint64
	Skipped map[SkipReason]uint64
}

// Skip records a skipped line.
func (s *Stats) Skip(reason SkipReason) {
	if s.Skipped == nil {
		s.Skipped = make(map[SkipReason]uint64)
	}
	s.Skipped[reason]++
}

// TotalSkipped returns the number of lines skipped for any reason.
func (s Stats) TotalSkipped() uint64 {
	var total uint64
	for _, n := range s.Skipped {
		total += n
	}
	return total
}

// Merge adds other into s.
func (s *Stats) Merge(other Stats) {
	s.Lines += other.Lines
	s.Counted += other.Counted
	for reason, n := range other.Skipped {
		if s.Skipped == nil {
			s.Skipped = make(map[SkipReason]uint64)
		}
		s.Skipped[reason] += n
	}
}

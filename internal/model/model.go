package model

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Untagged is the tag counted for flows with no lookup table match.
// It is deliberately not lowercased, unlike the tags loaded from the table.
const Untagged = "Untagged"

// ParseNonNegative parses a base-10 non-negative integer. A single leading
// '+' is accepted; other signs, spaces and underscores are not.
func ParseNonNegative(s string) (uint64, error) {
	return strconv.ParseUint(strings.TrimPrefix(s, "+"), 10, 64)
}

// LookupKey identifies a destination port and protocol pair.
// The protocol is always stored trimmed and lowercased.
type LookupKey struct {
	Port     uint64
	Protocol string
}

// NewLookupKey builds a key with a normalized protocol.
func NewLookupKey(port uint64, protocol string) LookupKey {
	return LookupKey{Port: port, Protocol: strings.ToLower(strings.TrimSpace(protocol))}
}

// Less orders keys by numeric port, then protocol.
func (k LookupKey) Less(o LookupKey) bool {
	if k.Port != o.Port {
		return k.Port < o.Port
	}
	return k.Protocol < o.Protocol
}

// LookupTable maps port/protocol pairs to tags. It is read-only once built.
type LookupTable struct {
	entries map[LookupKey]string
}

// NewLookupTable wraps entries. The caller must not modify entries afterwards.
func NewLookupTable(entries map[LookupKey]string) *LookupTable {
	if entries == nil {
		entries = make(map[LookupKey]string)
	}
	return &LookupTable{entries: entries}
}

// Get returns the tag for key, if any.
func (t *LookupTable) Get(key LookupKey) (string, bool) {
	if t == nil {
		return "", false
	}
	tag, ok := t.entries[key]
	return tag, ok
}

// Len returns the number of entries in the table.
func (t *LookupTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// FlowRecord holds the fields of a single flow log line that matter for tagging.
type FlowRecord struct {
	DstPort        uint64
	ProtocolNumber uint64
}

// TagCounts counts flow records per tag.
type TagCounts map[string]uint64

// PortProtocolCounts counts flow records per destination port and protocol name.
type PortProtocolCounts map[LookupKey]uint64

// TagCount is a single row of the tag section of a report.
type TagCount struct {
	Tag   string
	Count uint64
}

// PortProtocolCount is a single row of the port/protocol section of a report.
type PortProtocolCount struct {
	Port     uint64
	Protocol string
	Count    uint64
}

// Counts holds both frequency tables produced by one aggregation pass.
type Counts struct {
	Tags          TagCounts
	PortProtocols PortProtocolCounts
}

// NewCounts returns empty frequency tables.
func NewCounts() *Counts {
	return &Counts{
		Tags:          make(TagCounts),
		PortProtocols: make(PortProtocolCounts),
	}
}

// Merge adds the counts of other into c.
func (c *Counts) Merge(other *Counts) {
	if other == nil {
		return
	}
	for tag, n := range other.Tags {
		c.Tags[tag] += n
	}
	for key, n := range other.PortProtocols {
		c.PortProtocols[key] += n
	}
}

// Total returns the number of flow records counted.
func (c *Counts) Total() uint64 {
	var total uint64
	for _, n := range c.Tags {
		total += n
	}
	return total
}

// SortedTags returns the tag rows in ascending lexicographic order of the tag.
func (c *Counts) SortedTags() []TagCount {
	rows := make([]TagCount, 0, len(c.Tags))
	for tag, n := range c.Tags {
		rows = append(rows, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Tag < rows[j].Tag })
	return rows
}

// SortedPortProtocols returns the port/protocol rows ordered by port, then protocol.
func (c *Counts) SortedPortProtocols() []PortProtocolCount {
	keys := make([]LookupKey, 0, len(c.PortProtocols))
	for key := range c.PortProtocols {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	rows := make([]PortProtocolCount, len(keys))
	for i, key := range keys {
		rows[i] = PortProtocolCount{Port: key.Port, Protocol: key.Protocol, Count: c.PortProtocols[key]}
	}
	return rows
}

// Report is everything a writer needs to persist the result of one run.
type Report struct {
	Timestamp   time.Time
	FlowLogPath string
	LookupPath  string
	OutputPath  string
	Counts      *Counts
	Stats       Stats
}

package aggregator

import (
	"FlowTagger/internal/engine/protocol"
	"FlowTagger/internal/model"
	"bufio"
	"fmt"
	"io"
)

// maxLineSize bounds a single flow log line read by ProcessReader.
const maxLineSize = 1 << 20

// Aggregator counts flow records per tag and per port/protocol pair.
// It is not safe for concurrent use; the manager gives each worker its own.
type Aggregator struct {
	table  *model.LookupTable
	counts *model.Counts
	stats  model.Stats
}

// New creates an aggregator matching records against table.
func New(table *model.LookupTable) *Aggregator {
	return &Aggregator{
		table:  table,
		counts: model.NewCounts(),
	}
}

// ProcessLine parses and counts a single flow log line. Lines that cannot be
// parsed leave every counter untouched and return the reason.
func (a *Aggregator) ProcessLine(line string) model.SkipReason {
	a.stats.Lines++
	rec, reason := protocol.ParseFlowRecord(line)
	if reason != model.SkipNone {
		a.stats.Skip(reason)
		return reason
	}
	a.count(rec)
	return model.SkipNone
}

// ProcessRecord counts an already parsed record as one input line.
func (a *Aggregator) ProcessRecord(rec model.FlowRecord) {
	a.stats.Lines++
	a.count(rec)
}

// Skip records n input units that were dropped before parsing, such as
// non-IP packets of a capture.
func (a *Aggregator) Skip(reason model.SkipReason, n uint64) {
	if n == 0 {
		return
	}
	a.stats.Merge(model.Stats{Lines: n, Skipped: map[model.SkipReason]uint64{reason: n}})
}

func (a *Aggregator) count(rec model.FlowRecord) {
	key := protocol.Key(rec)
	a.counts.PortProtocols[key]++

	tag, ok := a.table.Get(key)
	if !ok {
		tag = model.Untagged
	}
	a.counts.Tags[tag]++
	a.stats.Counted++
}

// ProcessReader counts every line of r.
func (a *Aggregator) ProcessReader(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		a.ProcessLine(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read flow log: %w", err)
	}
	return nil
}

// Counts returns the accumulated frequency tables.
func (a *Aggregator) Counts() *model.Counts {
	return a.counts
}

// Stats returns how many lines were counted and skipped.
func (a *Aggregator) Stats() model.Stats {
	return a.stats
}

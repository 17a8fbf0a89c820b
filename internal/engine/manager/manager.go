package manager

import (
	"FlowTagger/internal/config"
	"FlowTagger/internal/engine/aggregator"
	"FlowTagger/internal/model"
	"bufio"
	"fmt"
	"io"
	"log"
	"sync"
)

const maxLineSize = 1 << 20

var _ model.Aggregator = (*Manager)(nil)

// Manager fans flow log lines out to a pool of workers, each owning a private
// aggregator, and merges the per-worker tables once the input is drained.
// It implements the model.Aggregator interface.
type Manager struct {
	workers []*aggregator.Aggregator

	lineChannel chan string
	workerWg    sync.WaitGroup
	stopOnce    sync.Once
	counts      *model.Counts
	stats       model.Stats
}

// NewManager creates a manager with the worker count and channel size from cfg.
func NewManager(cfg *config.Config, table *model.LookupTable) *Manager {
	numWorkers := cfg.Aggregator.NumWorkers
	if numWorkers <= 0 {
		numWorkers = 1
	}

	workers := make([]*aggregator.Aggregator, numWorkers)
	for i := range workers {
		workers[i] = aggregator.New(table)
	}

	return &Manager{
		workers:     workers,
		lineChannel: make(chan string, cfg.Aggregator.SizeOfLineChannel),
	}
}

// Start launches one goroutine per worker.
func (m *Manager) Start() {
	m.workerWg.Add(len(m.workers))
	for _, w := range m.workers {
		go m.worker(w)
	}
	log.Printf("Manager started with %d workers.", len(m.workers))
}

// Input returns the channel to which flow log lines should be sent.
func (m *Manager) Input() chan<- string {
	return m.lineChannel
}

// Stop closes the input, waits for the workers and merges their results.
// Calling Stop again returns the same result.
func (m *Manager) Stop() (*model.Counts, model.Stats) {
	m.stopOnce.Do(func() {
		close(m.lineChannel)
		m.workerWg.Wait()

		m.counts = model.NewCounts()
		for _, w := range m.workers {
			m.counts.Merge(w.Counts())
			m.stats.Merge(w.Stats())
		}
		log.Printf("Manager stopped: %d lines, %d counted, %d skipped.", m.stats.Lines, m.stats.Counted, m.stats.TotalSkipped())
	})
	return m.counts, m.stats
}

// Feed starts agg, sends it every line of r and returns the merged result
// after stopping it.
func Feed(agg model.Aggregator, r io.Reader) (*model.Counts, model.Stats, error) {
	agg.Start()

	input := agg.Input()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		input <- scanner.Text()
	}

	counts, stats := agg.Stop()
	if err := scanner.Err(); err != nil {
		return nil, stats, fmt.Errorf("failed to read flow log: %w", err)
	}
	return counts, stats, nil
}

func (m *Manager) worker(agg *aggregator.Aggregator) {
	defer m.workerWg.Done()
	for line := range m.lineChannel {
		agg.ProcessLine(line)
	}
}

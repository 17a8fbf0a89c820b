package model

// Aggregator defines the common interface for an aggregation engine that
// consumes raw flow log lines from a channel.
type Aggregator interface {
	// Start launches the aggregator's processing workers.
	Start()

	// Stop closes the input, waits for buffered lines to be processed and
	// returns the merged result.
	Stop() (*Counts, Stats)

	// Input returns the channel to which lines should be sent for processing.
	Input() chan<- string
}

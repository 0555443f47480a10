package types

import "time"

// Candidate is one generated keypair under evaluation. Only the winning
// candidate ever leaves the worker that produced it.
type Candidate struct {
	PrivateKey [32]byte
	Address    string // EIP-55 checksummed, "0x" + 40 hex chars
}

// FoundResult is the terminal outcome of a successful search.
type FoundResult struct {
	Address     string
	PrivateKey  string // 0x-prefixed hex
	Attempts    uint64
	Elapsed     time.Duration
	Description string
}

// PerformanceSnapshot captures throughput at one reporting tick.
type PerformanceSnapshot struct {
	TotalAttempts uint64
	Elapsed       time.Duration
	AverageRate   float64 // attempts/sec since start
	InstantRate   float64 // attempts/sec since the previous snapshot
}

// WorkerEventKind discriminates WorkerEvent.
type WorkerEventKind int

const (
	EventProgress WorkerEventKind = iota
	EventFound
	EventError
)

// WorkerEvent is a one-way message from a worker to the generator.
// Attempts carries the attempt delta since the worker's last report:
// the batch size for progress events, the unreported remainder for
// found and error events.
type WorkerEvent struct {
	Kind      WorkerEventKind
	Candidate Candidate
	Attempts  uint64
	Err       string
}

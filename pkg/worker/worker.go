package worker

import (
	"github.com/microchipgnu/v4n1ty/pkg/matcher"
	"github.com/microchipgnu/v4n1ty/pkg/types"
)

// BatchSize is how many non-matching attempts a worker accumulates
// before reporting progress. Per-attempt signaling would dominate
// runtime at tens of thousands of attempts per second per worker.
const BatchSize = 1000

// Source produces fresh keypair candidates. Implementations need not
// be safe for concurrent use; every worker owns its own Source.
type Source interface {
	Next() (types.Candidate, error)
}

// Worker runs one search loop: draw a candidate, evaluate the matcher,
// report batched progress or a find. It owns no shared state; all
// communication goes through the events channel.
type Worker struct {
	source  Source
	matcher *matcher.Matcher
	events  chan<- types.WorkerEvent
	stop    <-chan struct{}
}

// New creates a worker. The stop channel is polled at the top of every
// iteration; once it is closed the worker exits without emitting
// further events.
func New(source Source, m *matcher.Matcher, events chan<- types.WorkerEvent, stop <-chan struct{}) *Worker {
	return &Worker{
		source:  source,
		matcher: m,
		events:  events,
		stop:    stop,
	}
}

// Run loops until a find, a fatal error, or a stop signal. A worker
// that finds a match stops itself permanently; whether a failing
// sibling stops the rest is the generator's decision, not ours.
func (w *Worker) Run() {
	var local uint64
	for {
		select {
		case <-w.stop:
			return
		default:
		}

		candidate, err := w.source.Next()
		if err != nil {
			w.send(types.WorkerEvent{Kind: types.EventError, Attempts: local, Err: err.Error()})
			return
		}

		ok, err := w.matcher.Matches(candidate.Address)
		if err != nil {
			w.send(types.WorkerEvent{Kind: types.EventError, Attempts: local, Err: err.Error()})
			return
		}
		if ok {
			w.send(types.WorkerEvent{Kind: types.EventFound, Candidate: candidate, Attempts: local + 1})
			return
		}

		local++
		if local >= BatchSize {
			w.send(types.WorkerEvent{Kind: types.EventProgress, Attempts: local})
			local = 0
		}
	}
}

// send delivers an event unless the worker has been stopped, so a
// stopping generator is never blocked on by a racing worker.
func (w *Worker) send(ev types.WorkerEvent) {
	select {
	case w.events <- ev:
	case <-w.stop:
	}
}

package generator

import (
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/microchipgnu/v4n1ty/internal/config"
	"github.com/microchipgnu/v4n1ty/pkg/matcher"
	"github.com/microchipgnu/v4n1ty/pkg/types"
	"github.com/microchipgnu/v4n1ty/pkg/worker"
)

// ErrAlreadyRunning is returned by Start while a search is active.
var ErrAlreadyRunning = errors.New("a search is already running")

// EventKind discriminates Event.
type EventKind int

const (
	EventStarted EventKind = iota
	EventProgress
	EventFound
	EventError
	EventStopped
)

// Event is what the generator publishes to its subscriber (the
// reporter). Snapshot is set for progress and stopped events, Result
// for found, Err for error.
type Event struct {
	Kind     EventKind
	Snapshot types.PerformanceSnapshot
	Result   *types.FoundResult
	Err      string
}

// SourceFactory builds one keypair source per worker, so no source is
// ever shared across goroutines.
type SourceFactory func() worker.Source

// Generator coordinates the worker pool: it spawns workers, serially
// consumes their events, keeps the attempt counters, detects the first
// find, and tears everything down exactly once. Workers never touch
// shared counters; the generator's event loop is the only writer.
type Generator struct {
	cfg       *config.SearchConfig
	matcher   *matcher.Matcher
	newSource SourceFactory
	tick      time.Duration
	events    chan Event

	mu        sync.RWMutex
	running   bool
	start     time.Time
	end       time.Time
	total     uint64
	lastTotal uint64
	lastTick  time.Time
	result    *types.FoundResult
	stopCh    chan struct{}
	stopOnce  *sync.Once
	done      chan struct{}
}

// New validates the configuration and builds a generator. A rejected
// config fails here, before any worker exists.
func New(cfg *config.SearchConfig, newSource SourceFactory) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m, err := matcher.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Generator{
		cfg:       cfg,
		matcher:   m,
		newSource: newSource,
		tick:      time.Second,
		events:    make(chan Event, 64),
	}, nil
}

// Events returns the generator's event stream. The channel is never
// closed; a stopped event marks the end of a run. Emission never
// blocks, so a slow subscriber drops events instead of stalling the
// search.
func (g *Generator) Events() <-chan Event {
	return g.events
}

// Start resets the counters and launches the worker pool.
func (g *Generator) Start() error {
	g.mu.Lock()
	if g.running {
		g.mu.Unlock()
		return ErrAlreadyRunning
	}
	g.running = true
	g.start = time.Now()
	g.end = time.Time{}
	g.total = 0
	g.lastTotal = 0
	g.lastTick = g.start
	g.result = nil
	g.stopCh = make(chan struct{})
	g.stopOnce = new(sync.Once)
	g.done = make(chan struct{})
	stop, done := g.stopCh, g.done
	// A fresh event channel per run: anything a stale worker from a
	// previous run still sends lands on the old channel and can never
	// reach this run's loop.
	workerEvents := make(chan types.WorkerEvent, g.cfg.Workers*4)
	g.mu.Unlock()

	for i := 0; i < g.cfg.Workers; i++ {
		w := worker.New(g.newSource(), g.matcher, workerEvents, stop)
		go w.Run()
	}
	go g.loop(workerEvents, stop, done)

	g.emit(Event{Kind: EventStarted})
	return nil
}

// Stop signals every worker to stop and ends the run. It is idempotent
// and returns promptly without waiting for worker acknowledgment. The
// stopped event is published by the event loop on its way out, so it is
// always the last event of the run.
func (g *Generator) Stop() {
	g.mu.Lock()
	if !g.running {
		g.mu.Unlock()
		return
	}
	g.running = false
	g.end = time.Now()
	once, stop := g.stopOnce, g.stopCh
	g.mu.Unlock()

	once.Do(func() { close(stop) })
}

// Stats returns the current performance snapshot. Callable at any
// time; before the first start it is all zeros.
func (g *Generator) Stats() types.PerformanceSnapshot {
	return g.snapshot(false)
}

// Done returns a channel closed when the current run's event loop has
// exited. Before any run it returns an already-closed channel.
func (g *Generator) Done() <-chan struct{} {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return g.done
}

// Result returns the found result of the last run, or nil.
func (g *Generator) Result() *types.FoundResult {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.result
}

// loop serially applies worker events and drives the reporting tick.
// Serialization is the whole concurrency story: total, result, and the
// running flag only change here or under the same mutex.
func (g *Generator) loop(events <-chan types.WorkerEvent, stop <-chan struct{}, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(g.tick)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			g.emit(Event{Kind: EventStopped, Snapshot: g.snapshot(false)})
			return
		case ev := <-events:
			g.apply(ev)
		case <-ticker.C:
			g.emit(Event{Kind: EventProgress, Snapshot: g.snapshot(true)})
		}
	}
}

// apply folds one worker event into the run state. Events arriving
// after the run stopped are dropped, never applied.
func (g *Generator) apply(ev types.WorkerEvent) {
	g.mu.Lock()
	if !g.running {
		g.mu.Unlock()
		return
	}
	g.total += ev.Attempts

	switch ev.Kind {
	case types.EventFound:
		result := &types.FoundResult{
			Address:     ev.Candidate.Address,
			PrivateKey:  "0x" + hex.EncodeToString(ev.Candidate.PrivateKey[:]),
			Attempts:    g.total,
			Elapsed:     time.Since(g.start),
			Description: g.cfg.Description(),
		}
		g.result = result
		g.mu.Unlock()
		g.emit(Event{Kind: EventFound, Result: result})
		// First find wins; Stop flips running before any later Found
		// can be applied, so racing winners are discarded.
		g.Stop()
	case types.EventError:
		g.mu.Unlock()
		g.emit(Event{Kind: EventError, Err: ev.Err})
	default:
		g.mu.Unlock()
	}
}

func (g *Generator) snapshot(advance bool) types.PerformanceSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.start.IsZero() {
		return types.PerformanceSnapshot{}
	}
	now := time.Now()
	if !g.end.IsZero() {
		now = g.end
	}
	snap := types.PerformanceSnapshot{
		TotalAttempts: g.total,
		Elapsed:       now.Sub(g.start),
	}
	if secs := snap.Elapsed.Seconds(); secs > 0 {
		snap.AverageRate = float64(g.total) / secs
	}
	if dt := now.Sub(g.lastTick).Seconds(); dt > 0 {
		snap.InstantRate = float64(g.total-g.lastTotal) / dt
	}
	if advance {
		g.lastTick = now
		g.lastTotal = g.total
	}
	return snap
}

// emit publishes an event without ever blocking the search. Started,
// progress, and error events are droppable: a full buffer loses them.
// Found and stopped events mark run boundaries and must reach the
// subscriber, so they evict queued events until they fit. Only the
// event loop emits them, so an eviction can never swallow another
// run-boundary event.
func (g *Generator) emit(ev Event) {
	if ev.Kind != EventFound && ev.Kind != EventStopped {
		select {
		case g.events <- ev:
		default:
		}
		return
	}
	for {
		select {
		case g.events <- ev:
			return
		default:
		}
		select {
		case <-g.events:
		default:
		}
	}
}

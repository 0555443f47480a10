package worker

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/microchipgnu/v4n1ty/internal/config"
	"github.com/microchipgnu/v4n1ty/pkg/matcher"
	"github.com/microchipgnu/v4n1ty/pkg/types"
)

var (
	missAddr = "0x" + strings.Repeat("ff", 20)
	hitAddr  = "0xab" + strings.Repeat("34", 19)
)

// scriptedSource replays a fixed address sequence, then repeats the
// last entry. A non-nil err is returned once the script runs out.
type scriptedSource struct {
	addrs []string
	err   error
	i     int
}

func (s *scriptedSource) Next() (types.Candidate, error) {
	if s.i >= len(s.addrs) {
		if s.err != nil {
			return types.Candidate{}, s.err
		}
		return types.Candidate{Address: s.addrs[len(s.addrs)-1]}, nil
	}
	addr := s.addrs[s.i]
	s.i++
	return types.Candidate{Address: addr}, nil
}

func newTestMatcher(t *testing.T, target string) *matcher.Matcher {
	t.Helper()
	cfg := config.NewSearchConfig()
	cfg.Target = target
	m, err := matcher.New(cfg)
	if err != nil {
		t.Fatalf("matcher.New() err = %v", err)
	}
	return m
}

func TestRunFindsMatchAndStops(t *testing.T) {
	source := &scriptedSource{addrs: []string{missAddr, missAddr, hitAddr}}
	events := make(chan types.WorkerEvent, 4)
	stop := make(chan struct{})

	New(source, newTestMatcher(t, "ab"), events, stop).Run()

	ev := <-events
	if ev.Kind != types.EventFound {
		t.Fatalf("event kind = %v, want EventFound", ev.Kind)
	}
	if ev.Attempts != 3 {
		t.Errorf("found attempts = %d, want 3", ev.Attempts)
	}
	if ev.Candidate.Address != hitAddr {
		t.Errorf("found address = %q, want %q", ev.Candidate.Address, hitAddr)
	}
	select {
	case extra := <-events:
		t.Errorf("unexpected extra event after find: %+v", extra)
	default:
	}
}

func TestRunBatchesProgress(t *testing.T) {
	source := &scriptedSource{addrs: []string{missAddr}}
	events := make(chan types.WorkerEvent, 4)
	stop := make(chan struct{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		New(source, newTestMatcher(t, "ab"), events, stop).Run()
	}()

	for i := 0; i < 2; i++ {
		select {
		case ev := <-events:
			if ev.Kind != types.EventProgress {
				t.Fatalf("event kind = %v, want EventProgress", ev.Kind)
			}
			if ev.Attempts != BatchSize {
				t.Errorf("progress delta = %d, want %d", ev.Attempts, BatchSize)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for progress event")
		}
	}

	close(stop)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestRunReportsSourceError(t *testing.T) {
	sourceErr := errors.New("entropy pool on fire")
	// Three misses, then the source fails.
	source := &scriptedSource{addrs: []string{missAddr, missAddr, missAddr}, err: sourceErr}
	events := make(chan types.WorkerEvent, 4)
	stop := make(chan struct{})

	New(source, newTestMatcher(t, "ab"), events, stop).Run()

	ev := <-events
	if ev.Kind != types.EventError {
		t.Fatalf("event kind = %v, want EventError", ev.Kind)
	}
	if ev.Attempts != 3 {
		t.Errorf("error event attempts = %d, want 3 unreported", ev.Attempts)
	}
	if !strings.Contains(ev.Err, "entropy pool") {
		t.Errorf("error message = %q, want it to carry the source error", ev.Err)
	}
}

func TestRunObservesStopImmediately(t *testing.T) {
	source := &scriptedSource{addrs: []string{hitAddr}}
	events := make(chan types.WorkerEvent, 4)
	stop := make(chan struct{})
	close(stop)

	New(source, newTestMatcher(t, "ab"), events, stop).Run()

	select {
	case ev := <-events:
		t.Errorf("worker emitted %+v after stop", ev)
	default:
	}
}

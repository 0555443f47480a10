package reporter

import (
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"

	"github.com/microchipgnu/v4n1ty/internal/config"
	"github.com/microchipgnu/v4n1ty/internal/estimate"
	"github.com/microchipgnu/v4n1ty/internal/logger"
	"github.com/microchipgnu/v4n1ty/pkg/generator"
	"github.com/microchipgnu/v4n1ty/pkg/types"
)

var (
	green  = color.New(color.FgGreen, color.Bold)
	yellow = color.New(color.FgYellow, color.Bold)
	cyan   = color.New(color.FgCyan)
	red    = color.New(color.FgRed)
	bold   = color.New(color.Bold)
)

// Reporter renders generator events on the terminal: difficulty banner
// before the search, a spinner with live rates while it runs, and the
// colored result when a key is found. It optionally mirrors progress
// to a file logger for long unattended runs.
type Reporter struct {
	cfg      *config.SearchConfig
	est      estimate.Estimate
	log      *logger.Logger
	logEvery time.Duration
	lastLog  time.Time
	spin     *spinner.Spinner

	deadWorkers int
	failed      bool
}

// New creates a reporter. fileLog may be nil.
func New(cfg *config.SearchConfig, fileLog *logger.Logger) *Reporter {
	return &Reporter{
		cfg:      cfg,
		est:      estimate.ForConfig(cfg),
		log:      fileLog,
		logEvery: time.Duration(cfg.LogInterval) * time.Second,
	}
}

// Banner prints the search description and difficulty estimate.
func (r *Reporter) Banner() {
	bold.Printf("v4n1ty  •  %d workers\n", r.cfg.Workers)
	yellow.Printf("searching for %s\n", r.cfg.Description())
	cyan.Printf("difficulty: ~1 in %s addresses\n", FormatBigInt(r.est.Difficulty))
	cyan.Printf("50%% chance of a match within %s attempts\n",
		FormatBigInt(r.est.AttemptsForProbability(0.5)))
	fmt.Println()
}

// Run consumes events until the run stops, watching done so a lost
// stopped event can never strand it. stopAll is invoked when every
// worker has reported a fatal error, since a search with no surviving
// workers can only spin forever.
func (r *Reporter) Run(events <-chan generator.Event, done <-chan struct{}, stopAll func()) {
	for {
		select {
		case ev := <-events:
			if r.handle(ev, stopAll) {
				return
			}
		case <-done:
			// The run is over; render whatever is still queued
			// (the found result, usually) before leaving.
			for {
				select {
				case ev := <-events:
					if r.handle(ev, stopAll) {
						return
					}
				default:
					r.stopSpinner()
					return
				}
			}
		}
	}
}

// handle renders one event, reporting whether the run has ended.
func (r *Reporter) handle(ev generator.Event, stopAll func()) bool {
	switch ev.Kind {
	case generator.EventStarted:
		r.startSpinner()
	case generator.EventProgress:
		r.progress(ev.Snapshot)
	case generator.EventFound:
		r.stopSpinner()
		r.found(ev.Result)
	case generator.EventError:
		r.stopSpinner()
		red.Printf("worker error: %s\n", ev.Err)
		if r.log != nil {
			r.log.Printf("worker error: %s", ev.Err)
		}
		r.deadWorkers++
		if r.deadWorkers >= r.cfg.Workers {
			red.Println("all workers failed, stopping search")
			r.failed = true
			stopAll()
		} else {
			r.startSpinner()
		}
	case generator.EventStopped:
		r.stopSpinner()
		return true
	}
	return false
}

// Failed reports whether the run ended because every worker died.
// Only meaningful after Run has returned.
func (r *Reporter) Failed() bool {
	return r.failed
}

func (r *Reporter) startSpinner() {
	if r.spin != nil {
		return
	}
	r.spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond,
		spinner.WithWriter(os.Stderr))
	r.spin.Suffix = "  searching..."
	r.spin.Start()
}

func (r *Reporter) stopSpinner() {
	if r.spin == nil {
		return
	}
	r.spin.Stop()
	r.spin = nil
}

func (r *Reporter) progress(snap types.PerformanceSnapshot) {
	if r.spin != nil {
		eta := ""
		if snap.AverageRate > 0 {
			total := estimate.ETAAtRate(r.est.AttemptsForProbability(0.5), snap.AverageRate)
			if remaining := total - snap.Elapsed; remaining > 0 {
				eta = "  •  ~" + FormatDuration(remaining) + " to 50%"
			}
		}
		r.spin.Suffix = fmt.Sprintf("  %s tried  •  %.0f addr/s%s",
			FormatCount(snap.TotalAttempts), snap.InstantRate, eta)
	}
	if r.log != nil && time.Since(r.lastLog) >= r.logEvery {
		r.lastLog = time.Now()
		r.log.Printf("progress: %d attempts, %.2f addr/s avg, %.2f addr/s now",
			snap.TotalAttempts, snap.AverageRate, snap.InstantRate)
	}
}

func (r *Reporter) found(result *types.FoundResult) {
	rate := 0.0
	if secs := result.Elapsed.Seconds(); secs > 0 {
		rate = float64(result.Attempts) / secs
	}
	fmt.Printf("\n%s  found after %s attempts in %s (%.0f addr/s)\n",
		green.Sprint("✓"), FormatCount(result.Attempts),
		result.Elapsed.Round(time.Millisecond), rate)
	bold.Printf("  Address:     ")
	r.highlightAddress(result.Address)
	fmt.Println()
	bold.Printf("  Private key: ")
	red.Println(result.PrivateKey)
	fmt.Println()

	if r.log != nil {
		r.log.Printf("found %s after %d attempts in %v",
			result.Address, result.Attempts, result.Elapsed)
	}
}

// highlightAddress prints the address with the matched span in green.
func (r *Reporter) highlightAddress(address string) {
	body := strings.TrimPrefix(address, "0x")
	start, end := MatchSpan(r.cfg, body)
	fmt.Print("0x")
	for i := 0; i < len(body); i++ {
		if i >= start && i < end {
			green.Printf("%c", body[i])
		} else {
			fmt.Printf("%c", body[i])
		}
	}
}

// MatchSpan returns the half-open [start, end) range of the body that
// satisfied the search, or (0, 0) when it cannot be located.
func MatchSpan(cfg *config.SearchConfig, body string) (int, int) {
	length := len(cfg.Target)
	if length == 0 || length > len(body) {
		return 0, 0
	}
	switch cfg.Mode {
	case config.ModeStart:
		return 0, length
	case config.ModeEnd:
		return len(body) - length, len(body)
	case config.ModePosition:
		if cfg.Position < 0 || cfg.Position+length > len(body) {
			return 0, 0
		}
		return cfg.Position, cfg.Position + length
	case config.ModeAnywhere:
		haystack, needle := body, cfg.Target
		if !cfg.CaseSensitive {
			haystack = strings.ToLower(body)
			needle = strings.ToLower(needle)
		}
		if i := strings.Index(haystack, needle); i >= 0 {
			return i, i + length
		}
	}
	return 0, 0
}

// FormatCount renders an attempt count compactly (12.3K, 4.56M, ...).
func FormatCount(n uint64) string {
	switch {
	case n < 1_000:
		return fmt.Sprintf("%d", n)
	case n < 1_000_000:
		return fmt.Sprintf("%.1fK", float64(n)/1e3)
	case n < 1_000_000_000:
		return fmt.Sprintf("%.2fM", float64(n)/1e6)
	default:
		return fmt.Sprintf("%.3fB", float64(n)/1e9)
	}
}

// FormatBigInt renders a difficulty figure, falling back to scientific
// notation once it stops fitting in a uint64.
func FormatBigInt(n *big.Int) string {
	if n.IsUint64() {
		return FormatCount(n.Uint64())
	}
	f, _ := new(big.Float).SetInt(n).Float64()
	return fmt.Sprintf("%.2e", f)
}

// FormatDuration renders a duration as d hh:mm:ss.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	days := h / 24
	h = h % 24
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %02d:%02d:%02d", days, h, m, s)
	case h > 0:
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	default:
		return fmt.Sprintf("%02d:%02d", m, s)
	}
}

package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// BodyLen is the number of hex characters in an Ethereum address after
// the 0x marker.
const BodyLen = 40

// Errors
var (
	ErrEmptyTarget        = errors.New("target pattern is required")
	ErrTargetNotHex       = errors.New("target must contain only hex characters (0-9, a-f)")
	ErrTargetTooLong      = fmt.Errorf("target longer than %d characters can never match", BodyLen)
	ErrPositionRequired   = errors.New("position mode requires --position")
	ErrPositionOutOfRange = errors.New("position plus target length exceeds the address body")
	ErrNoWorkers          = errors.New("worker count must be at least 1")
	ErrUnknownMode        = errors.New("unknown search mode")
)

// Mode selects where in the address body the target must appear.
type Mode int

const (
	ModeStart Mode = iota
	ModeEnd
	ModeAnywhere
	ModePosition
)

func (m Mode) String() string {
	switch m {
	case ModeStart:
		return "start"
	case ModeEnd:
		return "end"
	case ModeAnywhere:
		return "anywhere"
	case ModePosition:
		return "position"
	}
	return "unknown"
}

// ParseMode parses a mode name as given on the command line.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "start", "prefix":
		return ModeStart, nil
	case "end", "suffix":
		return ModeEnd, nil
	case "anywhere", "contains":
		return ModeAnywhere, nil
	case "position", "at":
		return ModePosition, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// SearchConfig holds one search's immutable parameters. Validate must
// pass before the config is handed to a generator.
type SearchConfig struct {
	Target        string
	Mode          Mode
	Position      int // hex offset into the body; -1 when not set
	CaseSensitive bool
	Workers       int
	LogFile       string
	LogInterval   int // seconds between file-log progress lines
}

// NewSearchConfig creates a configuration with default values.
func NewSearchConfig() *SearchConfig {
	return &SearchConfig{
		Position:    -1,
		Workers:     runtime.NumCPU(),
		LogInterval: 5,
	}
}

// Validate checks every invariant the search engine relies on. It is
// called once, before any worker is created.
func (c *SearchConfig) Validate() error {
	if c.Target == "" {
		return ErrEmptyTarget
	}
	if !isHex(c.Target) {
		return fmt.Errorf("%w: %q", ErrTargetNotHex, c.Target)
	}
	if len(c.Target) > BodyLen {
		return fmt.Errorf("%w: %q has %d", ErrTargetTooLong, c.Target, len(c.Target))
	}
	switch c.Mode {
	case ModeStart, ModeEnd, ModeAnywhere:
	case ModePosition:
		if c.Position < 0 {
			return ErrPositionRequired
		}
		if c.Position+len(c.Target) > BodyLen {
			return fmt.Errorf("%w: %d+%d > %d", ErrPositionOutOfRange, c.Position, len(c.Target), BodyLen)
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnknownMode, c.Mode)
	}
	if c.Workers < 1 {
		return ErrNoWorkers
	}
	return nil
}

// Description returns a human-readable description of the search.
func (c *SearchConfig) Description() string {
	var where string
	switch c.Mode {
	case ModeStart:
		where = "starting with"
	case ModeEnd:
		where = "ending with"
	case ModeAnywhere:
		where = "containing"
	case ModePosition:
		where = fmt.Sprintf("matching at offset %d:", c.Position)
	default:
		where = "matching"
	}
	sensitivity := "case-insensitive"
	if c.CaseSensitive {
		sensitivity = "case-sensitive"
	}
	return fmt.Sprintf("address %s %q (%s)", where, c.Target, sensitivity)
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return len(s) > 0
}

package matcher

import (
	"fmt"
	"strings"

	"github.com/microchipgnu/v4n1ty/internal/config"
)

// Matcher decides whether a candidate address satisfies a search
// configuration. It is pure: no side effects, no allocation on the
// match path beyond the optional case fold.
type Matcher struct {
	mode          config.Mode
	target        string // pre-folded when case-insensitive
	position      int
	caseSensitive bool
}

// New builds a matcher for the given configuration. The configuration
// is assumed validated; an unknown mode is still rejected here so a
// contract violation fails loudly instead of matching nothing.
func New(cfg *config.SearchConfig) (*Matcher, error) {
	switch cfg.Mode {
	case config.ModeStart, config.ModeEnd, config.ModeAnywhere, config.ModePosition:
	default:
		return nil, fmt.Errorf("%w: %d", config.ErrUnknownMode, cfg.Mode)
	}
	target := cfg.Target
	if !cfg.CaseSensitive {
		target = strings.ToLower(target)
	}
	return &Matcher{
		mode:          cfg.Mode,
		target:        target,
		position:      cfg.Position,
		caseSensitive: cfg.CaseSensitive,
	}, nil
}

// Matches reports whether the address satisfies the search. The address
// is expected in "0x..." form; matching operates on the 40-char body.
func (m *Matcher) Matches(address string) (bool, error) {
	body := stripPrefix(address)
	if !m.caseSensitive {
		body = strings.ToLower(body)
	}
	if len(m.target) > len(body) {
		return false, nil
	}
	switch m.mode {
	case config.ModeStart:
		return body[:len(m.target)] == m.target, nil
	case config.ModeEnd:
		return body[len(body)-len(m.target):] == m.target, nil
	case config.ModeAnywhere:
		return strings.Contains(body, m.target), nil
	case config.ModePosition:
		if m.position < 0 || m.position+len(m.target) > len(body) {
			return false, nil
		}
		return body[m.position:m.position+len(m.target)] == m.target, nil
	}
	return false, fmt.Errorf("%w: %d", config.ErrUnknownMode, m.mode)
}

// Matches is a convenience wrapper for one-off checks.
func Matches(address string, cfg *config.SearchConfig) (bool, error) {
	m, err := New(cfg)
	if err != nil {
		return false, err
	}
	return m.Matches(address)
}

func stripPrefix(address string) string {
	if len(address) >= 2 && (address[:2] == "0x" || address[:2] == "0X") {
		return address[2:]
	}
	return address
}

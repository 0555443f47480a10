package estimate

import (
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/microchipgnu/v4n1ty/internal/config"
)

func estimateFor(target string, mode config.Mode, caseSensitive bool) Estimate {
	cfg := config.NewSearchConfig()
	cfg.Target = target
	cfg.Mode = mode
	cfg.CaseSensitive = caseSensitive
	return ForConfig(cfg)
}

func TestDifficulty(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		mode     config.Mode
		caseSens bool
		want     int64
	}{
		{
			name:   "dead at start",
			target: "dead",
			mode:   config.ModeStart,
			want:   65536, // 16^4
		},
		{
			name:   "dead at end",
			target: "dead",
			mode:   config.ModeEnd,
			want:   65536,
		},
		{
			name:   "dead at fixed position",
			target: "dead",
			mode:   config.ModePosition,
			want:   65536,
		},
		{
			name:   "dead anywhere gets the window discount",
			target: "dead",
			mode:   config.ModeAnywhere,
			want:   65536 / 37, // 40-4+1 possible offsets
		},
		{
			name:     "case-sensitive doubles per letter",
			target:   "dead",
			mode:     config.ModeStart,
			caseSens: true,
			want:     65536 * 16, // 4 letters -> 2^4
		},
		{
			name:     "digits are case-free",
			target:   "1234",
			mode:     config.ModeStart,
			caseSens: true,
			want:     65536,
		},
		{
			name:   "single char",
			target: "a",
			mode:   config.ModeStart,
			want:   16,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est := estimateFor(tt.target, tt.mode, tt.caseSens)
			if est.Difficulty.Cmp(big.NewInt(tt.want)) != 0 {
				t.Errorf("Difficulty = %s, want %d", est.Difficulty, tt.want)
			}
		})
	}
}

func TestProbability(t *testing.T) {
	est := estimateFor("dead", config.ModeStart, false)

	if p := est.Probability(0); p != 0 {
		t.Errorf("Probability(0) = %f, want 0", p)
	}
	// After one difficulty's worth of attempts: 1 - 1/e.
	p := est.Probability(65536)
	if math.Abs(p-0.6321) > 0.001 {
		t.Errorf("Probability(d) = %f, want ~0.632", p)
	}
	if a, b := est.Probability(1000), est.Probability(100000); a >= b {
		t.Errorf("probability not increasing: %f >= %f", a, b)
	}
}

func TestAttemptsForProbability(t *testing.T) {
	est := estimateFor("dead", config.ModeStart, false)

	p50 := est.AttemptsForProbability(0.5)
	difficulty := float64(65536)
	want := int64(difficulty * math.Ln2) // ~45426
	got := p50.Int64()
	if got < want-2 || got > want+2 {
		t.Errorf("AttemptsForProbability(0.5) = %d, want ~%d", got, want)
	}

	if n := est.AttemptsForProbability(0); n.Sign() != 0 {
		t.Errorf("AttemptsForProbability(0) = %s, want 0", n)
	}
}

func TestETAAtRate(t *testing.T) {
	attempts := big.NewInt(100000)

	if eta := ETAAtRate(attempts, 1000); eta != 100*time.Second {
		t.Errorf("ETAAtRate = %v, want 100s", eta)
	}
	if eta := ETAAtRate(attempts, 0); eta != 0 {
		t.Errorf("ETAAtRate with zero rate = %v, want 0", eta)
	}
}

func TestCountLetters(t *testing.T) {
	tests := []struct {
		target string
		want   int
	}{
		{target: "dead", want: 4},
		{target: "1234", want: 0},
		{target: "1a2B", want: 2},
		{target: "DeAdBeEf", want: 8},
	}
	for _, tt := range tests {
		if got := countLetters(tt.target); got != tt.want {
			t.Errorf("countLetters(%q) = %d, want %d", tt.target, got, tt.want)
		}
	}
}

package estimate

import (
	"math"
	"math/big"
	"time"

	"github.com/microchipgnu/v4n1ty/internal/config"
)

// Estimate holds the difficulty arithmetic for one search
// configuration. Difficulty is the expected number of attempts until
// the first match (1/p for per-attempt probability p).
type Estimate struct {
	Difficulty    *big.Int
	Target        string
	Mode          config.Mode
	CaseSensitive bool
}

// ForConfig computes the difficulty of a validated configuration.
//
// Start, End, and Position fix the target's offset, so p = 16^-L and
// difficulty is 16^L. Anywhere may match at any of the 40-L+1 offsets,
// which divides the difficulty by roughly that window (a slight
// underestimate for self-overlapping targets; good enough for an ETA).
// Case-sensitive matching against the EIP-55 checksum halves the
// per-character odds for every letter, since each a-f character also
// has to land on the right casing.
func ForConfig(cfg *config.SearchConfig) Estimate {
	length := int64(len(cfg.Target))
	d := new(big.Int).Exp(big.NewInt(16), big.NewInt(length), nil)

	if cfg.Mode == config.ModeAnywhere {
		if window := int64(config.BodyLen) - length + 1; window > 1 {
			d.Div(d, big.NewInt(window))
			if d.Sign() == 0 {
				d.SetInt64(1)
			}
		}
	}
	if cfg.CaseSensitive {
		if letters := countLetters(cfg.Target); letters > 0 {
			d.Lsh(d, uint(letters))
		}
	}

	return Estimate{
		Difficulty:    d,
		Target:        cfg.Target,
		Mode:          cfg.Mode,
		CaseSensitive: cfg.CaseSensitive,
	}
}

// Probability returns the chance that at least one of n attempts has
// matched: 1 - (1-1/d)^n, computed as 1 - exp(-n/d) which is exact
// enough for every d this tool can express.
func (e Estimate) Probability(attempts uint64) float64 {
	d, _ := new(big.Float).SetInt(e.Difficulty).Float64()
	if d <= 0 {
		return 1
	}
	return 1 - math.Exp(-float64(attempts)/d)
}

// AttemptsForProbability returns how many attempts give probability p
// of at least one match: d * ln(1/(1-p)). The 50% point is ~0.693*d.
func (e Estimate) AttemptsForProbability(p float64) *big.Int {
	if p <= 0 {
		return big.NewInt(0)
	}
	if p >= 1 {
		p = 0.999999
	}
	factor := math.Log(1 / (1 - p))
	attempts := new(big.Float).SetInt(e.Difficulty)
	attempts.Mul(attempts, big.NewFloat(factor))
	out, _ := attempts.Int(nil)
	return out
}

// ETAAtRate converts expected attempts into wall time at the given
// attempts/sec rate. Returns 0 for a non-positive rate.
func ETAAtRate(attempts *big.Int, rate float64) time.Duration {
	if rate <= 0 {
		return 0
	}
	secs, _ := new(big.Float).Quo(
		new(big.Float).SetInt(attempts),
		big.NewFloat(rate),
	).Float64()
	if secs > math.MaxInt64/float64(time.Second) {
		return math.MaxInt64
	}
	return time.Duration(secs * float64(time.Second))
}

func countLetters(target string) int {
	n := 0
	for _, c := range target {
		if (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') {
			n++
		}
	}
	return n
}

// Package stream builds the deterministic state sequence consumed by the
// windowed signature extractor. The sequence is regime-switched: a pre-shift
// transition rule applies while t < ShiftN, the post-shift rule afterwards.
package stream

import (
	"fmt"
	"math/bits"
)

// #region modes

// Mode selects the per-step transition rule.
type Mode string

const (
	ModeLCG     Mode = "lcg"     // x' = (a*x + c) mod M
	ModePlateau Mode = "plateau" // x' = x
	ModeRamp    Mode = "ramp"    // x' = (x + t + 1) mod M
)

// ParseMode validates a mode tag. Unknown tags are a configuration error.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeLCG, ModePlateau, ModeRamp:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown stream mode %q", s)
}

// #endregion modes

// #region config

// Params holds the multiplier/increment pair for one regime.
type Params struct {
	A uint64 `yaml:"a" json:"a"`
	C uint64 `yaml:"c" json:"c"`
}

// Config describes one deterministic state sequence. Immutable after Validate.
type Config struct {
	N        int    // number of signature windows
	H        int    // window width; the sequence carries N+H+1 states
	M        uint64 // modulus, states live in [0, M)
	Seed     uint64
	Pre      Params
	Post     Params
	PreMode  Mode
	PostMode Mode
	ShiftN   int // regime boundary: pre while t < ShiftN
}

// Validate rejects malformed configurations before any state is produced.
func (c Config) Validate() error {
	if c.N <= 0 {
		return fmt.Errorf("stream: N must be positive, got %d", c.N)
	}
	if c.H <= 0 {
		return fmt.Errorf("stream: H must be positive, got %d", c.H)
	}
	if c.M < 1 {
		return fmt.Errorf("stream: M must be >= 1, got %d", c.M)
	}
	if c.ShiftN < 0 || c.ShiftN > c.N {
		return fmt.Errorf("stream: shift_n %d out of [0, %d]", c.ShiftN, c.N)
	}
	if _, err := ParseMode(string(c.PreMode)); err != nil {
		return fmt.Errorf("stream: pre mode: %w", err)
	}
	if _, err := ParseMode(string(c.PostMode)); err != nil {
		return fmt.Errorf("stream: post mode: %w", err)
	}
	return nil
}

// #endregion config

// #region build

// Build constructs the full state sequence left to right: N+H+1 states,
// xs[0] = seed mod M, each later state a pure function of its predecessor,
// the absolute step index, and the active regime.
func Build(cfg Config) ([]uint64, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	total := cfg.N + cfg.H + 1
	xs := make([]uint64, total)
	xs[0] = cfg.Seed % cfg.M
	for t := 0; t < total-1; t++ {
		if t < cfg.ShiftN {
			xs[t+1] = step(xs[t], t, cfg.PreMode, cfg.Pre, cfg.M)
		} else {
			xs[t+1] = step(xs[t], t, cfg.PostMode, cfg.Post, cfg.M)
		}
	}
	return xs, nil
}

func step(x uint64, t int, mode Mode, p Params, m uint64) uint64 {
	switch mode {
	case ModeLCG:
		return addMod(mulMod(p.A, x, m), p.C%m, m)
	case ModePlateau:
		return x
	case ModeRamp:
		return addMod(x, uint64(t+1)%m, m)
	}
	// Unreachable: modes are validated before Build runs.
	panic("stream: unvalidated mode " + string(mode))
}

// #endregion build

// #region modarith

// mulMod computes (a*x) mod m without overflow for any m up to 2^64-1.
func mulMod(a, x, m uint64) uint64 {
	hi, lo := bits.Mul64(a%m, x%m)
	// hi < m because both factors are < m, so Div64 cannot panic.
	_, rem := bits.Div64(hi, lo, m)
	return rem
}

// addMod computes (a+b) mod m for a, b already reduced below m.
func addMod(a, b, m uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry == 1 {
		_, rem := bits.Div64(1, sum, m)
		return rem
	}
	if sum >= m {
		sum -= m
	}
	return sum
}

// #endregion modarith

// Package signature defines the hashable signature value tracked by the
// alphabet, plus the windowed extractor used by the state-sequence variant.
package signature

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// #region signature

// Signature is an immutable observation key. Equality is exact and
// structural: two signatures are the same symbol iff their keys match.
type Signature struct {
	key string
}

// FromTrace builds a signature from an ordered trace of small integers,
// e.g. the H parity bits of a window or the H residues of an operator run.
func FromTrace(vals []uint8) Signature {
	var b strings.Builder
	b.Grow(2 * len(vals))
	for i, v := range vals {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(int(v)))
	}
	return Signature{key: b.String()}
}

// FromBand builds a (band, bucket) signature for the banded operator.
func FromBand(band string, bucket int) Signature {
	return Signature{key: band + ":" + strconv.Itoa(bucket)}
}

// Key returns the stable string form, used both as the alphabet map key
// and as the signature column in the results CSV.
func (s Signature) Key() string { return s.key }

// #endregion signature

// #region obs

// Obs selects the per-pair observation bit of the windowed extractor.
type Obs string

const (
	ObsDeltaParity  Obs = "delta_parity"  // low bit of (x1 - x0) mod M
	ObsXorParity    Obs = "xor_parity"    // low bit of (x0 ^ x1) & 0xFFFFFFFF
	ObsXLSB         Obs = "x_lsb"         // low bit of x0
	ObsPopcntParity Obs = "popcnt_parity" // parity of popcount((x0 ^ x1) & 0xFFFFFFFF)
)

// ParseObs validates an observation tag.
func ParseObs(s string) (Obs, error) {
	switch Obs(s) {
	case ObsDeltaParity, ObsXorParity, ObsXLSB, ObsPopcntParity:
		return Obs(s), nil
	}
	return "", fmt.Errorf("unknown observation mode %q", s)
}

// #endregion obs

// #region window

// Window derives the signature at index n from the H consecutive state
// pairs (xs[n+k], xs[n+k+1]), k in [0, H). xs must hold at least n+H+1
// states; the observation mode must already be validated.
func Window(xs []uint64, n, h int, m uint64, obs Obs) Signature {
	trace := make([]uint8, h)
	for k := 0; k < h; k++ {
		trace[k] = obsBit(xs[n+k], xs[n+k+1], m, obs)
	}
	return FromTrace(trace)
}

func obsBit(x0, x1, m uint64, obs Obs) uint8 {
	switch obs {
	case ObsDeltaParity:
		var d uint64
		if x1 >= x0 {
			d = x1 - x0
		} else {
			d = m - (x0-x1)%m
		}
		return uint8(d & 1)
	case ObsXorParity:
		return uint8((x0 ^ x1) & 0xFFFFFFFF & 1)
	case ObsXLSB:
		return uint8(x0 & 1)
	case ObsPopcntParity:
		return uint8(bits.OnesCount32(uint32(x0^x1)) & 1)
	}
	panic("signature: unvalidated observation mode " + string(obs))
}

// #endregion window

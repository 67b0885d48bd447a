// Package sigop implements the index-operator family: pure, stateless maps
// from an integer index n >= 2 to a signature. Four operators record an
// H-step trace; the banded closure operator reduces n to a (band, bucket)
// pair derived from its minimal divisor.
package sigop

import (
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/danielpatrickdp/sbm-monitor/internal/signature"
)

// #region ops

// Op names one index operator.
type Op string

const (
	OpSSNTClosure    Op = "ssnt_closure"
	OpCollatzParity  Op = "collatz_parity"
	OpXorshiftParity Op = "xorshift_parity"
	OpDigitsumMod9   Op = "digitsum_mod9"
	OpSHA1Parity     Op = "sha1_parity"
)

// ParseOp validates an operator name.
func ParseOp(s string) (Op, error) {
	switch Op(s) {
	case OpSSNTClosure, OpCollatzParity, OpXorshiftParity, OpDigitsumMod9, OpSHA1Parity:
		return Op(s), nil
	}
	return "", fmt.Errorf("unknown operator %q", s)
}

// Bands holds the four ascending thresholds that split minimal divisors
// into the ordered bands A < B < C < D < E. Divisor 0 (prime) maps to P.
type Bands struct {
	T1 uint64 `yaml:"t1" json:"t1"`
	T2 uint64 `yaml:"t2" json:"t2"`
	T3 uint64 `yaml:"t3" json:"t3"`
	T4 uint64 `yaml:"t4" json:"t4"`
}

// Validate rejects non-ascending thresholds.
func (b Bands) Validate() error {
	if !(b.T1 < b.T2 && b.T2 < b.T3 && b.T3 < b.T4) {
		return fmt.Errorf("band thresholds must be strictly ascending, got %d/%d/%d/%d", b.T1, b.T2, b.T3, b.T4)
	}
	return nil
}

// #endregion ops

// #region signature

// Signature maps index n through the named operator. The operator must
// already be validated; n is expected to be >= 2.
func Signature(n uint64, op Op, h int, bands Bands) signature.Signature {
	switch op {
	case OpSSNTClosure:
		return ssntSignature(n, h, bands)
	case OpCollatzParity:
		return collatzSignature(n, h)
	case OpXorshiftParity:
		return xorshiftSignature(n, h)
	case OpDigitsumMod9:
		return digitsumSignature(n, h)
	case OpSHA1Parity:
		return sha1Signature(n, h)
	}
	panic("sigop: unvalidated operator " + string(op))
}

// #endregion signature

// #region ssnt

// MinDivisor returns the minimal divisor of n found by trial division up
// to isqrt(n), or 0 when n is prime. 2 and 3 are treated as divisor-less.
func MinDivisor(n uint64) uint64 {
	if n <= 3 {
		if n == 2 || n == 3 {
			return 0
		}
		return 2
	}
	r := isqrt(n)
	for d := uint64(2); d <= r; d++ {
		if n%d == 0 {
			return d
		}
	}
	return 0
}

func isqrt(n uint64) uint64 {
	r := uint64(math.Sqrt(float64(n)))
	if r >= 1<<32 {
		r = 1<<32 - 1
	}
	// float64 rounding can land one off in either direction near squares.
	for r > 0 && r*r > n {
		r--
	}
	for r < 1<<32-1 && (r+1)*(r+1) <= n {
		r++
	}
	return r
}

// BandOf maps a minimal divisor to its band letter.
func BandOf(d uint64, b Bands) string {
	switch {
	case d == 0:
		return "P"
	case d <= b.T1:
		return "A"
	case d <= b.T2:
		return "B"
	case d <= b.T3:
		return "C"
	case d <= b.T4:
		return "D"
	}
	return "E"
}

// Bucket01 buckets x in [0,1] into k equal-width bins. A small epsilon is
// subtracted before scaling so that exact multiples of 1/k round down; the
// clamp happens before the epsilon adjustment, and x == 0 forces bucket 0.
func Bucket01(x float64, k int) int {
	if k <= 1 {
		return 0
	}
	if x < 0 {
		x = 0
	}
	if x > 1 {
		x = 1
	}
	if x <= 0 {
		return 0
	}
	const eps = 1e-12
	return int((x - eps) * float64(k))
}

func ssntSignature(n uint64, h int, bands Bands) signature.Signature {
	d := MinDivisor(n)
	band := BandOf(d, bands)
	if d == 0 {
		return signature.FromBand(band, 0)
	}
	hardness := float64(d) / math.Sqrt(float64(n))
	return signature.FromBand(band, Bucket01(hardness, h))
}

// #endregion ssnt

// #region traces

// collatzSignature assumes the trajectory stays inside uint64: the odd
// branch can grow x by at most 3^h over h steps, so n below 2^63/3^h is
// safe. Sweep domains are far below that bound.
func collatzSignature(n uint64, h int) signature.Signature {
	x := n
	trace := make([]uint8, h)
	for i := 0; i < h; i++ {
		trace[i] = uint8(x & 1)
		if x&1 == 1 {
			x = 3*x + 1
		} else {
			x /= 2
		}
	}
	return signature.FromTrace(trace)
}

func xorshiftSignature(n uint64, h int) signature.Signature {
	x := uint32(n)
	trace := make([]uint8, h)
	for i := 0; i < h; i++ {
		trace[i] = uint8(x & 1)
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
	}
	return signature.FromTrace(trace)
}

func digitsumSignature(n uint64, h int) signature.Signature {
	x := n
	trace := make([]uint8, h)
	for i := 0; i < h; i++ {
		trace[i] = uint8(x % 9)
		x = digitSum(x)
	}
	return signature.FromTrace(trace)
}

func digitSum(x uint64) uint64 {
	var s uint64
	for x > 0 {
		s += x % 10
		x /= 10
	}
	return s
}

func sha1Signature(n uint64, h int) signature.Signature {
	x := uint32(n)
	trace := make([]uint8, h)
	var buf [4]byte
	for i := 0; i < h; i++ {
		trace[i] = uint8(x & 1)
		binary.BigEndian.PutUint32(buf[:], x)
		sum := sha1.Sum(buf[:])
		x = binary.BigEndian.Uint32(sum[:4])
	}
	return signature.FromTrace(trace)
}

// #endregion traces

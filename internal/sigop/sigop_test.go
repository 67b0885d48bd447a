package sigop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultBands() Bands {
	return Bands{T1: 3, T2: 11, T3: 31, T4: 101}
}

func TestParseOp(t *testing.T) {
	for _, name := range []string{
		"ssnt_closure", "collatz_parity", "xorshift_parity", "digitsum_mod9", "sha1_parity",
	} {
		op, err := ParseOp(name)
		require.NoError(t, err)
		assert.Equal(t, Op(name), op)
	}
	_, err := ParseOp("fibonacci")
	assert.Error(t, err)
}

func TestBandsValidate(t *testing.T) {
	assert.NoError(t, defaultBands().Validate())
	assert.Error(t, Bands{T1: 3, T2: 3, T3: 31, T4: 101}.Validate())
	assert.Error(t, Bands{T1: 11, T2: 3, T3: 31, T4: 101}.Validate())
}

func TestMinDivisor(t *testing.T) {
	cases := []struct {
		n, want uint64
	}{
		{2, 0}, {3, 0}, {4, 2}, {5, 0}, {6, 2}, {9, 3},
		{15, 3}, {25, 5}, {49, 7}, {97, 0}, {121, 11},
		{143, 11}, // 11 * 13
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, MinDivisor(tc.n), "n=%d", tc.n)
	}
}

func TestIsqrt(t *testing.T) {
	cases := []struct{ n, want uint64 }{
		{0, 0}, {1, 1}, {2, 1}, {3, 1}, {4, 2},
		{8, 2}, {9, 3}, {10, 3}, {99, 9}, {100, 10},
		{1<<62 - 1, 2147483647},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, isqrt(tc.n), "n=%d", tc.n)
	}
}

func TestBandOf(t *testing.T) {
	b := defaultBands()
	assert.Equal(t, "P", BandOf(0, b))
	assert.Equal(t, "A", BandOf(2, b))
	assert.Equal(t, "A", BandOf(3, b))
	assert.Equal(t, "B", BandOf(4, b))
	assert.Equal(t, "B", BandOf(11, b))
	assert.Equal(t, "C", BandOf(31, b))
	assert.Equal(t, "D", BandOf(101, b))
	assert.Equal(t, "E", BandOf(102, b))
}

func TestBucket01(t *testing.T) {
	assert.Equal(t, 0, Bucket01(0.5, 1))
	assert.Equal(t, 0, Bucket01(0.5, 0))
	assert.Equal(t, 0, Bucket01(0, 10))
	assert.Equal(t, 0, Bucket01(-1, 10))
	assert.Equal(t, 9, Bucket01(2, 10))
	// Exact bin edges round down.
	assert.Equal(t, 4, Bucket01(0.5, 10))
	assert.Equal(t, 9, Bucket01(1.0, 10))
	assert.Equal(t, 0, Bucket01(0.05, 10))
}

func TestSSNTSignature(t *testing.T) {
	b := defaultBands()
	// Primes and 2/3 carry no divisor: bucket pinned to 0.
	assert.Equal(t, "P:0", Signature(2, OpSSNTClosure, 10, b).Key())
	assert.Equal(t, "P:0", Signature(97, OpSSNTClosure, 10, b).Key())
	// 4 = 2*2: hardness 2/sqrt(4) = 1.0 -> top bucket.
	assert.Equal(t, "A:9", Signature(4, OpSSNTClosure, 10, b).Key())
	// 121 = 11*11: band B, hardness 11/11 = 1.0.
	assert.Equal(t, "B:9", Signature(121, OpSSNTClosure, 10, b).Key())
	// 10000 = 2*5000: hardness 2/100 = 0.02 -> bucket 0.
	assert.Equal(t, "A:0", Signature(10000, OpSSNTClosure, 10, b).Key())
}

func TestCollatzSignature(t *testing.T) {
	// 6 -> 3 -> 10 -> 5: parities 0,1,0,1.
	assert.Equal(t, "0,1,0,1", Signature(6, OpCollatzParity, 4, defaultBands()).Key())
	// 2 -> 1 -> 4 -> 2: parities 0,1,0,0.
	assert.Equal(t, "0,1,0,0", Signature(2, OpCollatzParity, 4, defaultBands()).Key())
}

func TestDigitsumSignature(t *testing.T) {
	// Single digits are digit-sum fixed points.
	assert.Equal(t, "2,2", Signature(2, OpDigitsumMod9, 2, defaultBands()).Key())
	assert.Equal(t, "3,3", Signature(3, OpDigitsumMod9, 2, defaultBands()).Key())
	assert.Equal(t, "4,4", Signature(4, OpDigitsumMod9, 2, defaultBands()).Key())
	// 29 -> 11 -> 2: residues 2,2,2.
	assert.Equal(t, "2,2,2", Signature(29, OpDigitsumMod9, 3, defaultBands()).Key())
	// 9 mod 9 = 0 even though the digit sum stays 9.
	assert.Equal(t, "0,0", Signature(9, OpDigitsumMod9, 2, defaultBands()).Key())
}

func TestXorshiftSignature(t *testing.T) {
	// First recorded bit is the parity of n itself.
	sig := Signature(3, OpXorshiftParity, 6, defaultBands()).Key()
	assert.Equal(t, byte('1'), sig[0])
	sig = Signature(4, OpXorshiftParity, 6, defaultBands()).Key()
	assert.Equal(t, byte('0'), sig[0])

	// Same index, same trace.
	assert.Equal(t,
		Signature(3, OpXorshiftParity, 16, defaultBands()),
		Signature(3, OpXorshiftParity, 16, defaultBands()))
}

func TestSHA1SignatureDeterministic(t *testing.T) {
	a := Signature(42, OpSHA1Parity, 8, defaultBands())
	b := Signature(42, OpSHA1Parity, 8, defaultBands())
	assert.Equal(t, a, b)
	assert.Equal(t, byte('0'), a.Key()[0])
	assert.Equal(t, byte('1'), Signature(43, OpSHA1Parity, 8, defaultBands()).Key()[0])
}

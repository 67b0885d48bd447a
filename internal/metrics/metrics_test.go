package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/danielpatrickdp/sbm-monitor/internal/alphabet"
)

// seriesFromAlphas builds an alpha series with indices 0..len-1.
func seriesFromAlphas(alphas ...int) []alphabet.AlphaPoint {
	out := make([]alphabet.AlphaPoint, len(alphas))
	prev := 0
	for i, a := range alphas {
		out[i] = alphabet.AlphaPoint{Index: i, Alpha: a, IsNew: a > prev}
		prev = a
	}
	return out
}

func TestComputeGrowthBasic(t *testing.T) {
	// Two symbols emerge at indices 0 and 1, then the curve is flat.
	g := ComputeGrowth(seriesFromAlphas(1, 2, 2, 2, 2), 5)

	assert.Equal(t, 2, g.AlphaN)
	assert.Equal(t, 2, g.EmergenceCount)
	assert.Equal(t, 1, g.LastEmergenceN)
	assert.InDelta(t, 0.4, g.EN, 1e-15)
	assert.InDelta(t, math.Log(3), g.HsN, 1e-15)
	assert.InDelta(t, math.Log(3)/math.Log(5), g.CN, 1e-15)
	assert.InDelta(t, 1.0, g.MeanGap, 1e-15) // one gap of 1
	assert.Zero(t, g.VarGap)
}

func TestComputeGrowthGapStats(t *testing.T) {
	// Emergences at 0, 2, 6: gaps 2 and 4.
	series := []alphabet.AlphaPoint{
		{Index: 0, Alpha: 1, IsNew: true},
		{Index: 1, Alpha: 1},
		{Index: 2, Alpha: 2, IsNew: true},
		{Index: 3, Alpha: 2},
		{Index: 4, Alpha: 2},
		{Index: 5, Alpha: 2},
		{Index: 6, Alpha: 3, IsNew: true},
	}
	g := ComputeGrowth(series, 7)
	assert.InDelta(t, 3.0, g.MeanGap, 1e-15)
	assert.InDelta(t, 1.0, g.VarGap, 1e-15) // population variance of {2,4}
	assert.Equal(t, 6, g.LastEmergenceN)
}

func TestComputeGrowthGuards(t *testing.T) {
	// N=1 pins C_N to 0; a single emergence leaves gap stats at 0.
	g := ComputeGrowth(seriesFromAlphas(1), 1)
	assert.Equal(t, 1, g.AlphaN)
	assert.Zero(t, g.CN)
	assert.InDelta(t, 1.0, g.EN, 1e-15)
	assert.Zero(t, g.MeanGap)
	assert.Zero(t, g.VarGap)

	// Empty series: everything at its zero value except Hs_N = ln(1) = 0.
	g = ComputeGrowth(nil, 0)
	assert.Zero(t, g.AlphaN)
	assert.Zero(t, g.EN)
	assert.Zero(t, g.HsN)
	assert.Zero(t, g.CN)
	assert.Zero(t, g.LastEmergenceN)
}

func TestComputeFractureMarkers(t *testing.T) {
	f := ComputeFracture(seriesFromAlphas(1, 2, 2, 2, 2), 5, 2, 2)

	assert.Equal(t, 2, f.AlphaBeforeShift) // alpha at index 1
	assert.Equal(t, 2, f.AlphaAtShift)
	assert.Equal(t, 2, f.AlphaAfter)
	assert.Equal(t, 3, f.MaxStableRun)
	assert.Equal(t, 1, f.MaxSpike)
	assert.Equal(t, 0, f.SpikeAtN)
	assert.Zero(t, f.FractureCount)
	assert.Equal(t, 2, f.LongStableL)
}

func TestComputeFractureZeroShift(t *testing.T) {
	f := ComputeFracture(seriesFromAlphas(1, 1, 2), 3, 0, 10)
	assert.Zero(t, f.AlphaBeforeShift)
	assert.Equal(t, 1, f.AlphaAtShift)
}

func TestComputeFractureCandidate(t *testing.T) {
	// Flat for five indices, then a jump: one fracture candidate at the
	// jump, none at the very first diff.
	f := ComputeFracture(seriesFromAlphas(1, 1, 1, 1, 1, 1, 2, 2, 2, 2), 10, 6, 3)

	assert.Equal(t, 1, f.FractureCount)
	assert.Equal(t, 6, f.FractureFirstAtN)
	assert.Equal(t, 5, f.MaxStableRun)
	assert.Equal(t, 1, f.MaxSpike)
	assert.Equal(t, 0, f.SpikeAtN)
	assert.Equal(t, 1, f.AlphaBeforeShift)
	assert.Equal(t, 2, f.AlphaAtShift)
	assert.Equal(t, 2, f.AlphaAfter)
}

func TestComputeFractureShortStableRunNotCounted(t *testing.T) {
	// The stable run before the jump is below L: no candidate.
	f := ComputeFracture(seriesFromAlphas(1, 1, 1, 2), 4, 2, 5)
	assert.Zero(t, f.FractureCount)
	assert.Zero(t, f.FractureFirstAtN)
}

func TestScanStateMaxSpike(t *testing.T) {
	s := scanState{}
	for _, step := range []struct{ n, da int }{
		{0, 1}, {1, 0}, {2, 0}, {3, 3}, {4, 2},
	} {
		s = s.step(step.n, step.da, 100)
	}
	assert.Equal(t, 3, s.maxSpike)
	assert.Equal(t, 3, s.spikeAtN)
	assert.Equal(t, 2, s.maxStableRun)
}

// Package metrics derives the reproducibility-critical statistics from a
// completed alpha series: growth/entropy proxies, emergence gap stats, and
// the stability scan that flags fracture candidates.
package metrics

import (
	"math"

	"github.com/danielpatrickdp/sbm-monitor/internal/alphabet"
)

// #region growth

// Growth summarizes how the distinct-signature alphabet grew over the run.
// All fields are pure functions of the alpha series and N.
type Growth struct {
	AlphaN         int     // alphabet size at the last processed index
	EN             float64 // emergence density: emergence_count / N
	HsN            float64 // ln(alpha_N + 1)
	CN             float64 // Hs_N / ln(N); 0 when N <= 1
	EmergenceCount int
	LastEmergenceN int // 0 if no emergence
	MeanGap        float64
	VarGap         float64 // population variance; 0 with fewer than two gaps
}

// ComputeGrowth folds the alpha series into the growth summary.
func ComputeGrowth(series []alphabet.AlphaPoint, n int) Growth {
	var g Growth
	if len(series) > 0 {
		g.AlphaN = series[len(series)-1].Alpha
	}

	var emergence []int
	for _, p := range series {
		if p.IsNew {
			emergence = append(emergence, p.Index)
		}
	}
	g.EmergenceCount = len(emergence)
	if g.EmergenceCount > 0 {
		g.LastEmergenceN = emergence[g.EmergenceCount-1]
	}

	if n > 0 {
		g.EN = float64(g.EmergenceCount) / float64(n)
	}
	g.HsN = math.Log(float64(g.AlphaN) + 1)
	if n > 1 {
		g.CN = g.HsN / math.Log(float64(n))
	}

	g.MeanGap, g.VarGap = gapStats(emergence)
	return g
}

// gapStats computes mean and population variance of consecutive emergence
// gaps. Both are 0 with fewer than two emergences; variance is 0 with
// exactly one gap.
func gapStats(emergence []int) (mean, variance float64) {
	if len(emergence) < 2 {
		return 0, 0
	}
	gaps := make([]float64, len(emergence)-1)
	var sum float64
	for i := 1; i < len(emergence); i++ {
		gaps[i-1] = float64(emergence[i] - emergence[i-1])
		sum += gaps[i-1]
	}
	mean = sum / float64(len(gaps))
	if len(gaps) == 1 {
		return mean, 0
	}
	var sq float64
	for _, g := range gaps {
		d := g - mean
		sq += d * d
	}
	return mean, sq / float64(len(gaps))
}

// #endregion growth

// #region fracture

// Fracture holds the regime markers and the stability-scan outputs of the
// state-sequence variant.
type Fracture struct {
	AlphaBeforeShift int // alpha at shift_n-1; 0 when shift_n = 0
	AlphaAtShift     int
	AlphaAfter       int // alpha at N-1
	MaxStableRun     int
	MaxSpike         int
	SpikeAtN         int
	FractureCount    int // stable runs >= L ended by a nonzero diff
	FractureFirstAtN int
	LongStableL      int
}

// ComputeFracture derives regime markers and runs the stability scan over
// the first difference of alpha (the value before the first index is 0).
func ComputeFracture(series []alphabet.AlphaPoint, n, shiftN, longStableL int) Fracture {
	f := Fracture{LongStableL: longStableL}

	for _, p := range series {
		if p.Index == shiftN-1 {
			f.AlphaBeforeShift = p.Alpha
		}
		if p.Index == shiftN {
			f.AlphaAtShift = p.Alpha
		}
		if p.Index == n-1 {
			f.AlphaAfter = p.Alpha
		}
	}
	if shiftN == 0 {
		f.AlphaBeforeShift = 0
	}

	s := scanState{}
	prev := 0
	for _, p := range series {
		s = s.step(p.Index, p.Alpha-prev, longStableL)
		prev = p.Alpha
	}

	f.MaxStableRun = s.maxStableRun
	f.MaxSpike = s.maxSpike
	f.SpikeAtN = s.spikeAtN
	f.FractureCount = s.fractures
	f.FractureFirstAtN = s.firstFracture
	return f
}

// scanState is the explicit accumulator threaded through the stability
// scan, kept as a value so each step is a pure fold.
type scanState struct {
	stableRun     int
	maxStableRun  int
	maxSpike      int
	spikeAtN      int
	fractures     int
	firstFracture int
}

// step consumes one first-difference value. A nonzero diff immediately
// after a stable run of at least l records a fracture candidate and resets
// the run counter.
func (s scanState) step(n, da, l int) scanState {
	if da == 0 {
		s.stableRun++
		if s.stableRun > s.maxStableRun {
			s.maxStableRun = s.stableRun
		}
		return s
	}
	if da > s.maxSpike {
		s.maxSpike = da
		s.spikeAtN = n
	}
	if s.stableRun >= l && da >= 1 {
		s.fractures++
		if s.firstFracture == 0 {
			s.firstFracture = n
		}
	}
	s.stableRun = 0
	return s
}

// #endregion fracture

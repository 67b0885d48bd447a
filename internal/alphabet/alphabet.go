// Package alphabet tracks the set of distinct signatures across one
// ascending index sweep and emits the growth curve alpha(n).
package alphabet

import (
	"sort"

	"github.com/danielpatrickdp/sbm-monitor/internal/signature"
)

// #region types

// Record is one row of the result stream: the signature observed at Index,
// whether it was new, and the index at which it was first seen.
type Record struct {
	Index     int
	Sig       signature.Signature
	IsNew     bool
	FirstSeen int
}

// AlphaPoint is one point of the growth curve: the alphabet size
// immediately after processing Index.
type AlphaPoint struct {
	Index int
	Alpha int
	IsNew bool
}

// Checkpoint pairs a sparse index with its alpha value.
type Checkpoint struct {
	Index int
	Alpha int
}

// #endregion types

// #region tracker

// Tracker accumulates the alphabet. Indices must be observed in strictly
// ascending order; a signature's first-seen index never changes once set.
type Tracker struct {
	firstSeen map[string]int
	series    []AlphaPoint
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{firstSeen: make(map[string]int)}
}

// Observe processes the signature at index and appends one point to the
// alpha series. Alpha grows by at most one per index.
func (t *Tracker) Observe(index int, sig signature.Signature) Record {
	first, seen := t.firstSeen[sig.Key()]
	if !seen {
		t.firstSeen[sig.Key()] = index
		first = index
	}
	t.series = append(t.series, AlphaPoint{
		Index: index,
		Alpha: len(t.firstSeen),
		IsNew: !seen,
	})
	return Record{Index: index, Sig: sig, IsNew: !seen, FirstSeen: first}
}

// Size returns the current alphabet size.
func (t *Tracker) Size() int { return len(t.firstSeen) }

// Series returns the alpha series built so far.
func (t *Tracker) Series() []AlphaPoint { return t.series }

// #endregion tracker

// #region checkpoints

// roundCheckpoints are the conventional sparse indices recorded in the
// alphabet checkpoint file, alongside any run-specific extras.
var roundCheckpoints = []int{
	100, 200, 500, 1000, 2000, 5000,
	10000, 20000, 50000, 100000,
}

// Checkpoints selects the checkpoint subset of the series: the round
// numbers plus the given extras, restricted to indices the sweep actually
// produced, sorted ascending and deduplicated.
func Checkpoints(series []AlphaPoint, extras []int) []Checkpoint {
	alphaAt := make(map[int]int, len(series))
	lo, hi := 0, -1
	for i, p := range series {
		alphaAt[p.Index] = p.Alpha
		if i == 0 || p.Index < lo {
			lo = p.Index
		}
		if p.Index > hi {
			hi = p.Index
		}
	}

	want := make([]int, 0, len(roundCheckpoints)+len(extras))
	want = append(want, roundCheckpoints...)
	want = append(want, extras...)

	seen := make(map[int]bool, len(want))
	out := make([]Checkpoint, 0, len(want))
	for _, c := range want {
		if c < lo || c > hi || seen[c] {
			continue
		}
		if a, ok := alphaAt[c]; ok {
			out = append(out, Checkpoint{Index: c, Alpha: a})
			seen[c] = true
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// #endregion checkpoints

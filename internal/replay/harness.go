// Package replay is the in-process determinism harness: it runs the same
// configuration twice and compares every output record, and it checks runs
// against JSON fixtures carrying expected signatures and metrics.
package replay

import (
	"fmt"

	"github.com/google/go-cmp/cmp"

	"github.com/danielpatrickdp/sbm-monitor/internal/engine"
	"github.com/danielpatrickdp/sbm-monitor/internal/signature"
)

// #region compare

// CompareRuns structurally compares two run results. It returns an empty
// diff when the runs are identical; otherwise a human-readable description
// of the first layer that diverged.
func CompareRuns(primary, replay *engine.Result) string {
	if diff := cmp.Diff(keys(primary), keys(replay)); diff != "" {
		return "result stream diverged (-primary +replay):\n" + diff
	}
	if diff := cmp.Diff(primary.Series, replay.Series); diff != "" {
		return "alpha series diverged (-primary +replay):\n" + diff
	}
	if diff := cmp.Diff(primary.Checkpoints, replay.Checkpoints); diff != "" {
		return "checkpoints diverged (-primary +replay):\n" + diff
	}
	if diff := cmp.Diff(primary.Growth, replay.Growth); diff != "" {
		return "growth metrics diverged (-primary +replay):\n" + diff
	}
	if diff := cmp.Diff(primary.Fracture, replay.Fracture); diff != "" {
		return "fracture metrics diverged (-primary +replay):\n" + diff
	}
	return ""
}

// record is the comparable projection of one result-stream row.
type record struct {
	Index     int
	Key       string
	IsNew     bool
	FirstSeen int
}

func keys(res *engine.Result) []record {
	out := make([]record, len(res.Records))
	for i, r := range res.Records {
		out[i] = record{Index: r.Index, Key: r.Sig.Key(), IsNew: r.IsNew, FirstSeen: r.FirstSeen}
	}
	return out
}

// #endregion compare

// #region run-twice

// RunTwice executes run twice and compares the results. A non-empty diff
// means the engine broke its determinism contract.
func RunTwice(run func() (*engine.Result, error)) (*engine.Result, string, error) {
	primary, err := run()
	if err != nil {
		return nil, "", fmt.Errorf("primary run: %w", err)
	}
	replayed, err := run()
	if err != nil {
		return nil, "", fmt.Errorf("replay run: %w", err)
	}
	return primary, CompareRuns(primary, replayed), nil
}

// #endregion run-twice

// #region fixture-check

// Mismatch is one fixture expectation the run failed to meet.
type Mismatch struct {
	Field string
	Want  string
	Got   string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: want %s, got %s", m.Field, m.Want, m.Got)
}

// CheckFixture compares a run result against the fixture's expectations.
func CheckFixture(f *Fixture, res *engine.Result) []Mismatch {
	var mismatches []Mismatch

	sigAt := make(map[int]signature.Signature, len(res.Records))
	for _, r := range res.Records {
		sigAt[r.Index] = r.Sig
	}
	for _, want := range f.ExpectedSignatures {
		got, ok := sigAt[want.Index]
		if !ok {
			mismatches = append(mismatches, Mismatch{
				Field: fmt.Sprintf("signature[%d]", want.Index),
				Want:  want.Key,
				Got:   "(index not processed)",
			})
			continue
		}
		if got.Key() != want.Key {
			mismatches = append(mismatches, Mismatch{
				Field: fmt.Sprintf("signature[%d]", want.Index),
				Want:  want.Key,
				Got:   got.Key(),
			})
		}
	}

	if f.Expected.AlphaN != nil && *f.Expected.AlphaN != res.Growth.AlphaN {
		mismatches = append(mismatches, Mismatch{
			Field: "alpha_N",
			Want:  fmt.Sprintf("%d", *f.Expected.AlphaN),
			Got:   fmt.Sprintf("%d", res.Growth.AlphaN),
		})
	}
	if f.Expected.EmergenceCount != nil && *f.Expected.EmergenceCount != res.Growth.EmergenceCount {
		mismatches = append(mismatches, Mismatch{
			Field: "emergence_count",
			Want:  fmt.Sprintf("%d", *f.Expected.EmergenceCount),
			Got:   fmt.Sprintf("%d", res.Growth.EmergenceCount),
		})
	}
	return mismatches
}

// #endregion fixture-check

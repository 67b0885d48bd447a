// Package plot reconstructs alpha growth curves from result CSVs and
// renders them as standalone SVG charts. It is a read-only consumer of
// bundles: the engine's determinism contract is what makes two curves from
// the same configuration overlap exactly.
package plot

import (
	"encoding/csv"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// #region discovery

// FindResultsFiles walks root and returns every file whose basename matches
// one of the given names (case-insensitive), sorted for deterministic
// plotting order.
func FindResultsFiles(root string, names []string) ([]string, error) {
	lower := make(map[string]bool, len(names))
	for _, n := range names {
		lower[strings.ToLower(n)] = true
	}
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && lower[strings.ToLower(d.Name())] {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(out)
	return out, nil
}

// #endregion discovery

// #region read

// SeriesMeta describes where a curve came from.
type SeriesMeta struct {
	Path       string
	IndexCol   string
	SigCol     string
	Rows       int
	AlphaFinal int
}

// ReadAlphaSeries reconstructs alpha(n) from a results CSV by counting
// distinct signature strings up to each row. Column names are matched
// loosely so curves can be read from slightly different producers.
func ReadAlphaSeries(path string) (ns []int, alphas []int, meta SeriesMeta, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, meta, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, nil, meta, fmt.Errorf("empty header in %s: %w", path, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	idxCol := findColumn(header,
		[]string{"n", "t", "i", "step", "index", "sample_n", "row", "pos"},
		[]string{"step", "index", "sample"})
	sigCol := findColumn(header,
		[]string{"signature", "sig", "code", "state", "symbol", "sigma", "token"},
		[]string{"signature", "sig", "sigma"})
	if idxCol < 0 || sigCol < 0 {
		return nil, nil, meta, fmt.Errorf("could not locate index/signature columns in %s (header %v)", path, header)
	}

	seen := make(map[string]bool)
	rowI := 0
	for {
		row, err := r.Read()
		if err != nil {
			break
		}
		rowI++
		n := rowI
		if idxCol < len(row) {
			if v, convErr := strconv.Atoi(strings.TrimSpace(row[idxCol])); convErr == nil {
				n = v
			}
		}
		if sigCol < len(row) {
			if sig := strings.TrimSpace(row[sigCol]); sig != "" {
				seen[sig] = true
			}
		}
		ns = append(ns, n)
		alphas = append(alphas, len(seen))
	}

	meta = SeriesMeta{
		Path:     path,
		IndexCol: header[idxCol],
		SigCol:   header[sigCol],
		Rows:     rowI,
	}
	if len(alphas) > 0 {
		meta.AlphaFinal = alphas[len(alphas)-1]
	}
	return ns, alphas, meta, nil
}

// findColumn returns the first header index matching exact (lowercased),
// falling back to the first header containing one of the substrings.
func findColumn(header []string, exact []string, contains []string) int {
	for i, h := range header {
		lh := strings.ToLower(h)
		for _, e := range exact {
			if lh == e {
				return i
			}
		}
	}
	for i, h := range header {
		lh := strings.ToLower(h)
		for _, c := range contains {
			if strings.Contains(lh, c) {
				return i
			}
		}
	}
	return -1
}

// #endregion read

// #region transforms

// FilterEmergence keeps the first point plus every change point of the
// curve.
func FilterEmergence(ns, alphas []int) ([]int, []int) {
	if len(ns) == 0 {
		return nil, nil
	}
	outN := []int{ns[0]}
	outA := []int{alphas[0]}
	last := alphas[0]
	for i := 1; i < len(ns); i++ {
		if alphas[i] != last {
			outN = append(outN, ns[i])
			outA = append(outA, alphas[i])
			last = alphas[i]
		}
	}
	return outN, outA
}

// DeltaSeries returns the nonzero first differences of the curve with the
// indices at which they occur.
func DeltaSeries(ns, alphas []int) ([]int, []int) {
	if len(ns) == 0 {
		return nil, nil
	}
	var outN, outD []int
	last := alphas[0]
	for i := 1; i < len(ns); i++ {
		if d := alphas[i] - last; d != 0 {
			outN = append(outN, ns[i])
			outD = append(outD, d)
		}
		last = alphas[i]
	}
	return outN, outD
}

// CapByN truncates the series at the first index above cap. A negative cap
// disables truncation.
func CapByN(ns, ys []int, xcap int) ([]int, []int) {
	if xcap < 0 {
		return ns, ys
	}
	for i, n := range ns {
		if n > xcap {
			return ns[:i], ys[:i]
		}
	}
	return ns, ys
}

// DiffSeries aligns a primary and a replay curve on shared indices and
// returns primary-minus-replay alongside the largest absolute difference.
// Zero everywhere is the reproducibility signal.
func DiffSeries(primaryN, primaryA, replayN, replayA []int, xcap int) (ns []int, diffs []int, maxAbs int) {
	at := make(map[int]int, len(primaryN))
	for i, n := range primaryN {
		at[n] = primaryA[i]
	}
	for i, n := range replayN {
		if xcap >= 0 && n > xcap {
			break
		}
		p, ok := at[n]
		if !ok {
			continue
		}
		d := p - replayA[i]
		ns = append(ns, n)
		diffs = append(diffs, d)
		if d < 0 {
			d = -d
		}
		if d > maxAbs {
			maxAbs = d
		}
	}
	return ns, diffs, maxAbs
}

// #endregion transforms

// #region labels

// LabelFromPath derives a series label from the bundle directory path.
// Short labels use the bundle directory only; long labels include its
// parent.
func LabelFromPath(path string, short bool) string {
	dir := filepath.Dir(path)
	bundleName := filepath.Base(dir)
	if short {
		return bundleName
	}
	parent := filepath.Base(filepath.Dir(dir))
	if parent == "." || parent == string(filepath.Separator) {
		return bundleName
	}
	return parent + "/" + bundleName
}

// IsPrimaryReplayPair reports whether two labels look like a primary/replay
// bundle pair.
func IsPrimaryReplayPair(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	return (strings.Contains(la, "primary") && strings.Contains(lb, "replay")) ||
		(strings.Contains(la, "replay") && strings.Contains(lb, "primary"))
}

// #endregion labels

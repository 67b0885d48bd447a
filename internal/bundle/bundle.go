// Package bundle writes the artifact set of one run: the result stream CSV,
// the checkpoint CSV, the metrics CSV, the profile JSON, and the SHA-256
// manifest that ties them together. Every writer is deterministic: field
// order is fixed, floats are formatted to 12 decimal places, and nothing
// here reads the clock.
package bundle

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/danielpatrickdp/sbm-monitor/internal/alphabet"
)

// #region names

// Names lists the artifact file names of one bundle variant.
type Names struct {
	Results  string
	Alphabet string
	Metrics  string
	Profile  string
	Manifest string
}

// MonitorNames returns the state-sequence artifact names.
func MonitorNames() Names {
	return Names{
		Results:  "sbm_ai_results.csv",
		Alphabet: "sbm_ai_alphabet.csv",
		Metrics:  "sbm_ai_metrics.csv",
		Profile:  "sbm_ai_profile.json",
		Manifest: "sbm_ai_manifest.sha256",
	}
}

// ProbeNames returns the index-operator artifact names.
func ProbeNames() Names {
	return Names{
		Results:  "sbm_results.csv",
		Alphabet: "sbm_alphabet.csv",
		Metrics:  "sbm_metrics.csv",
		Profile:  "sbm_profile.json",
		Manifest: "sbm_manifest.sha256",
	}
}

// Hashed returns the manifest-covered artifacts in manifest order.
func (n Names) Hashed() []string {
	return []string{n.Results, n.Alphabet, n.Metrics, n.Profile}
}

// All returns every artifact of the bundle.
func (n Names) All() []string {
	return []string{n.Results, n.Alphabet, n.Metrics, n.Profile, n.Manifest}
}

// #endregion names

// #region outdir

// EnsureUniqueDir returns dir when it is absent or empty, otherwise the
// first unused dir_R1, dir_R2, ... sibling. A non-directory path is an
// error.
func EnsureUniqueDir(dir string) (string, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return dir, nil
	}
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("out path %s exists and is not a directory", dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return dir, nil
	}
	for i := 1; ; i++ {
		cand := fmt.Sprintf("%s_R%d", dir, i)
		if _, err := os.Stat(cand); os.IsNotExist(err) {
			return cand, nil
		}
	}
}

// #endregion outdir

// #region formatting

// Fmt12 renders a float with exactly 12 decimal places, the canonical
// formatting of every metric value in the bundle.
func Fmt12(x float64) string {
	return strconv.FormatFloat(x, 'f', 12, 64)
}

// F12 is a float64 that marshals to JSON as a fixed 12-decimal number.
type F12 float64

// MarshalJSON renders the fixed-precision form.
func (f F12) MarshalJSON() ([]byte, error) {
	return []byte(Fmt12(float64(f))), nil
}

// #endregion formatting

// #region csv-writers

// WriteResults writes the full result stream CSV:
// n,signature,new_signature_at_n,first_seen_n.
func WriteResults(path string, records []alphabet.Record) error {
	return writeCSV(path, func(w *csv.Writer) error {
		if err := w.Write([]string{"n", "signature", "new_signature_at_n", "first_seen_n"}); err != nil {
			return err
		}
		for _, r := range records {
			newFlag := "0"
			if r.IsNew {
				newFlag = "1"
			}
			row := []string{
				strconv.Itoa(r.Index),
				r.Sig.Key(),
				newFlag,
				strconv.Itoa(r.FirstSeen),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteCheckpoints writes the sparse alpha checkpoint CSV.
func WriteCheckpoints(path string, cps []alphabet.Checkpoint) error {
	return writeCSV(path, func(w *csv.Writer) error {
		if err := w.Write([]string{"n", "distinct_signatures_alpha(n)"}); err != nil {
			return err
		}
		for _, c := range cps {
			if err := w.Write([]string{strconv.Itoa(c.Index), strconv.Itoa(c.Alpha)}); err != nil {
				return err
			}
		}
		return nil
	})
}

// MetricRow is one metric,value row. Rows are written in the exact order
// the caller supplies them.
type MetricRow struct {
	Key   string
	Value string
}

// WriteMetricsCSV writes the metric,value table.
func WriteMetricsCSV(path string, rows []MetricRow) error {
	return writeCSV(path, func(w *csv.Writer) error {
		if err := w.Write([]string{"metric", "value"}); err != nil {
			return err
		}
		for _, r := range rows {
			if err := w.Write([]string{r.Key, r.Value}); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeCSV(path string, fill func(w *csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := fill(w); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}

// #endregion csv-writers

// #region json-writer

// WriteProfileJSON marshals the profile with two-space indentation and a
// trailing newline. Field order is fixed by the struct definition.
func WriteProfileJSON(path string, profile any) error {
	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// #endregion json-writer

// #region manifest

// SHA256File streams a file through SHA-256 and returns the lowercase hex
// digest.
func SHA256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// WriteManifest writes one "<digest>  <basename>" line per path, in the
// given order.
func WriteManifest(paths []string, outPath string) error {
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	for _, p := range paths {
		digest, err := SHA256File(p)
		if err != nil {
			f.Close()
			return err
		}
		if _, err := fmt.Fprintf(f, "%s  %s\n", digest, filepath.Base(p)); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", outPath, err)
		}
	}
	return f.Close()
}

// #endregion manifest

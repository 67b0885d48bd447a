// Package verify checks that a run bundle is complete and internally
// consistent: every required artifact exists, every manifest digest matches
// the file on disk, and a primary/replay pair produced byte-identical
// manifests. This is the end-to-end reproducibility check.
package verify

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/danielpatrickdp/sbm-monitor/internal/bundle"
)

// #region manifest-parse

var hex64Re = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)
var hex64AnyRe = regexp.MustCompile(`\b([0-9a-fA-F]{64})\b`)
var bsdPrefixRe = regexp.MustCompile(`(?i)^SHA256\s*\(|^SHA-256\s*\(`)

// ManifestEntry is one parsed manifest line.
type ManifestEntry struct {
	Name   string
	Digest string // lowercase hex
}

// ParseManifest extracts (name, digest) pairs from manifest text. Three
// line shapes are tolerated: BSD "SHA256(name) = digest", coreutils
// "digest  name" (binary marker '*' stripped), and a loose form with the
// digest anywhere in the line. Unparseable lines are skipped.
func ParseManifest(text string) []ManifestEntry {
	var entries []ManifestEntry
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if left, right, ok := strings.Cut(line, "="); ok {
			m := hex64AnyRe.FindString(strings.TrimSpace(right))
			if m == "" {
				continue
			}
			name := strings.TrimSpace(left)
			name = bsdPrefixRe.ReplaceAllString(name, "")
			name = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(name), ")"))
			if name != "" {
				entries = append(entries, ManifestEntry{Name: name, Digest: strings.ToLower(m)})
			}
			continue
		}

		parts := strings.Fields(line)
		if len(parts) >= 2 && hex64Re.MatchString(parts[0]) {
			name := strings.TrimLeft(strings.Join(parts[1:], " "), "*")
			entries = append(entries, ManifestEntry{Name: name, Digest: strings.ToLower(parts[0])})
			continue
		}

		if loc := hex64AnyRe.FindStringIndex(line); loc != nil {
			digest := strings.ToLower(line[loc[0]:loc[1]])
			rest := strings.TrimSpace(line[:loc[0]] + line[loc[1]:])
			rest = strings.Trim(rest, " -\t")
			if rest != "" {
				entries = append(entries, ManifestEntry{Name: rest, Digest: digest})
			}
		}
	}
	return entries
}

// #endregion manifest-parse

// #region bundle-check

// BundleResult reports one bundle's conformance check.
type BundleResult struct {
	Folder         string
	OK             bool
	MissingFiles   []string
	ManifestOK     bool
	ManifestErrors []string
}

// VerifyBundle checks a bundle directory against the given artifact names:
// required files present, manifest parseable, every listed digest matching
// the file on disk, and every hashed artifact listed.
func VerifyBundle(folder string, names bundle.Names) BundleResult {
	res := BundleResult{Folder: folder}

	for _, fn := range names.All() {
		if !isFile(filepath.Join(folder, fn)) {
			res.MissingFiles = append(res.MissingFiles, fn)
		}
	}
	if len(res.MissingFiles) > 0 {
		res.ManifestErrors = []string{"missing_required_files"}
		return res
	}

	text, err := os.ReadFile(filepath.Join(folder, names.Manifest))
	if err != nil {
		res.ManifestErrors = []string{fmt.Sprintf("manifest_read_error: %v", err)}
		return res
	}

	entries := ParseManifest(string(text))
	if len(entries) == 0 {
		res.ManifestErrors = []string{"manifest_parse_failed_or_empty"}
		return res
	}

	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		seen[e.Name] = true
		path := filepath.Join(folder, e.Name)
		if !isFile(path) {
			res.ManifestErrors = append(res.ManifestErrors, "manifest_lists_missing_file: "+e.Name)
			continue
		}
		actual, err := bundle.SHA256File(path)
		if err != nil {
			res.ManifestErrors = append(res.ManifestErrors, fmt.Sprintf("hash_read_error: %s: %v", e.Name, err))
			continue
		}
		if actual != e.Digest {
			res.ManifestErrors = append(res.ManifestErrors,
				fmt.Sprintf("hash_mismatch: %s: manifest=%s actual=%s", e.Name, e.Digest, actual))
		}
	}

	for _, fn := range names.Hashed() {
		if !seen[fn] {
			res.ManifestErrors = append(res.ManifestErrors, "manifest_missing_required_entry: "+fn)
		}
	}

	res.ManifestOK = len(res.ManifestErrors) == 0
	res.OK = res.ManifestOK
	return res
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// #endregion bundle-check

// #region compare

// CompareManifests reports whether the primary and replay bundles produced
// byte-identical manifests, with a short status tag.
func CompareManifests(primary, replay string, manifestName string) (bool, string) {
	p := filepath.Join(primary, manifestName)
	r := filepath.Join(replay, manifestName)
	if !isFile(p) || !isFile(r) {
		return false, "missing_manifest_in_primary_or_replay"
	}
	pb, err := os.ReadFile(p)
	if err != nil {
		return false, "missing_manifest_in_primary_or_replay"
	}
	rb, err := os.ReadFile(r)
	if err != nil {
		return false, "missing_manifest_in_primary_or_replay"
	}
	if string(pb) == string(rb) {
		return true, "manifest_byte_identical"
	}
	return false, "manifest_not_identical"
}

// #endregion compare

// #region report

// FormatBundle renders one bundle result in the report format.
func FormatBundle(res BundleResult) string {
	var out []string
	out = append(out, "FOLDER: "+res.Folder)
	out = append(out, "STATUS: "+passFail(res.OK))
	out = append(out, "MANIFEST_STATUS: "+passFail(res.ManifestOK))
	if len(res.MissingFiles) > 0 {
		out = append(out, "MISSING_FILES:")
		for _, m := range res.MissingFiles {
			out = append(out, "  "+m)
		}
	}
	if len(res.ManifestErrors) > 0 {
		out = append(out, "MANIFEST_ERRORS:")
		for _, e := range res.ManifestErrors {
			out = append(out, "  "+e)
		}
	}
	return strings.Join(out, "\n")
}

func passFail(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}

// #endregion report

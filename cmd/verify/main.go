// Command verify checks run bundles for conformance: required artifacts
// present, manifest digests matching the files on disk, and primary/replay
// pairs byte-identical. It reads the plain-text operator registry when asked,
// otherwise it autodiscovers bundles under the outputs directory.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/danielpatrickdp/sbm-monitor/internal/bundle"
	"github.com/danielpatrickdp/sbm-monitor/internal/verify"
)

// #region main

func main() {
	outputs := flag.String("outputs", "outputs", "directory holding run bundles")
	useRegistry := flag.Bool("use_registry", false, "drive verification from the operator registry file")
	fractureOnly := flag.Bool("phasec_only", false, "registry mode: only operators with AI_FRACTURE in the name")
	report := flag.String("report", "", "optional path to write the report text")
	flag.Parse()

	os.Exit(run(*outputs, *useRegistry, *fractureOnly, *report))
}

// #endregion main

// #region run

func run(outputs string, useRegistry, fractureOnly bool, report string) int {
	outputsDir, err := filepath.Abs(outputs)
	if err != nil || !isDir(outputsDir) {
		fmt.Printf("FAIL: outputs_dir_not_found: %s\n", outputs)
		return 2
	}

	registryPath := filepath.Join(outputsDir, "OPERATOR_REGISTRY_PHASEC.txt")
	if !isFile(registryPath) {
		registryPath = filepath.Join(outputsDir, "OPERATOR_REGISTRY.txt")
	}
	var ops []verify.RegistryOp
	if useRegistry {
		ops, err = verify.ParseOperatorRegistry(registryPath)
		if err != nil {
			fmt.Printf("FAIL: registry_read_error: %v\n", err)
			return 2
		}
	}

	var lines []string
	lines = append(lines, "SBM CONFORMANCE VERIFIER")
	if len(ops) > 0 {
		lines = append(lines, "MODE: registry")
	} else {
		lines = append(lines, "MODE: phasec_autodiscovery")
	}
	if useRegistry {
		lines = append(lines, "REGISTRY: "+registryPath)
		lines = append(lines, "PHASEC_ONLY: "+yesNo(fractureOnly))
	}
	lines = append(lines, "")

	overallOK := true
	names := bundle.MonitorNames()

	if len(ops) > 0 {
		for _, op := range ops {
			if fractureOnly && !strings.Contains(op.Operator, "AI_FRACTURE") {
				continue
			}
			lines = append(lines, "OPERATOR: "+op.Operator)

			primary := resolveRel(outputsDir, op.Attrs["primary_folder"])
			replayDir := resolveRel(outputsDir, op.Attrs["replay_folder"])

			if primary == "" || !isDir(primary) {
				lines = append(lines, "PRIMARY_BUNDLE: FAIL (missing_or_invalid_primary_folder)")
				overallOK = false
			} else {
				res := verify.VerifyBundle(primary, names)
				lines = append(lines, "PRIMARY_BUNDLE:", verify.FormatBundle(res))
				if !res.OK {
					overallOK = false
				}
			}

			if op.Attrs["replay_folder"] != "" {
				if replayDir == "" || !isDir(replayDir) {
					lines = append(lines, "REPLAY_BUNDLE: FAIL (missing_or_invalid_replay_folder)")
					overallOK = false
				} else {
					res := verify.VerifyBundle(replayDir, names)
					lines = append(lines, "REPLAY_BUNDLE:", verify.FormatBundle(res))
					if !res.OK {
						overallOK = false
					}
				}
				if isDir(primary) && isDir(replayDir) {
					ok, msg := verify.CompareManifests(primary, replayDir, names.Manifest)
					lines = append(lines, fmt.Sprintf("PRIMARY_VS_REPLAY_MANIFEST: %s (%s)", passFail(ok), msg))
					if !ok {
						overallOK = false
					}
				}
			}
			lines = append(lines, "")
		}
	} else {
		found, err := discoverBundles(outputsDir)
		if err != nil {
			fmt.Printf("FAIL: outputs_scan_error: %v\n", err)
			return 2
		}
		for _, b := range found {
			res := verify.VerifyBundle(b.dir, b.names)
			lines = append(lines, verify.FormatBundle(res), "")
			if !res.OK {
				overallOK = false
			}
		}
	}

	lines = append(lines, "OVERALL_STATUS: "+passFail(overallOK))

	reportText := strings.Join(lines, "\n")
	fmt.Println(reportText)

	if report != "" {
		if err := os.MkdirAll(filepath.Dir(report), 0o755); err != nil {
			fmt.Printf("REPORT_WRITE_FAIL: %v\n", err)
			return 3
		}
		if err := os.WriteFile(report, []byte(reportText), 0o644); err != nil {
			fmt.Printf("REPORT_WRITE_FAIL: %v\n", err)
			return 3
		}
	}

	if overallOK {
		return 0
	}
	return 1
}

// #endregion run

// #region discovery

type discovered struct {
	dir   string
	names bundle.Names
}

// discoverBundles finds immediate child directories carrying a manifest, for
// either bundle flavor.
func discoverBundles(outputsDir string) ([]discovered, error) {
	children, err := os.ReadDir(outputsDir)
	if err != nil {
		return nil, err
	}
	var found []discovered
	for _, child := range children {
		if !child.IsDir() {
			continue
		}
		dir := filepath.Join(outputsDir, child.Name())
		for _, names := range []bundle.Names{bundle.MonitorNames(), bundle.ProbeNames()} {
			if isFile(filepath.Join(dir, names.Manifest)) {
				found = append(found, discovered{dir: dir, names: names})
				break
			}
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].dir < found[j].dir })
	return found, nil
}

// resolveRel resolves a registry-relative folder against the parent of the
// outputs directory, matching how registries record paths.
func resolveRel(outputsDir, rel string) string {
	if rel == "" {
		return ""
	}
	return filepath.Join(filepath.Dir(outputsDir), rel)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func passFail(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}

// #endregion discovery

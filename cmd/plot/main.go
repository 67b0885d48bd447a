// Command plot renders alpha growth curves from result CSVs found under a
// root directory. It never recomputes anything: the curves are reconstructed
// from the artifacts exactly as written, so a primary/replay pair that
// overlaps (or a diff curve pinned at zero) is visual evidence of
// reproducibility.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/sbm-monitor/internal/bundle"
	"github.com/danielpatrickdp/sbm-monitor/internal/logging"
	"github.com/danielpatrickdp/sbm-monitor/internal/plot"
)

// #region main

func main() {
	root := flag.String("root", "reference_outputs", "root folder containing run bundles")
	sel := flag.String("select", "", "comma-separated substrings to select bundles")
	outDir := flag.String("outdir", filepath.Join("viz", "out"), "output folder for plots")
	outFile := flag.String("outfile", "alpha_curve.svg", "output SVG filename")
	title := flag.String("title", "SBM alpha(N,H) vs N", "plot title")
	mode := flag.String("mode", "step", "plot style: step|line|emergence|delta|diff")
	xcap := flag.Int("xcap", -1, "optional cap for N (negative to disable)")
	collapse := flag.Bool("collapse_identical", true, "collapse identical primary/replay into one series")
	annotate := flag.Bool("annotate", true, "add stamp box on plot")
	shortLabels := flag.Bool("short_labels", false, "use short labels (bundle directory only)")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	logger, err := logging.New(*debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	switch *mode {
	case "step", "line", "emergence", "delta", "diff":
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q (want step|line|emergence|delta|diff)\n", *mode)
		os.Exit(2)
	}

	if err := run(*root, *sel, *outDir, *outFile, *title, *mode, *xcap, *collapse, *annotate, *shortLabels, logger); err != nil {
		logger.Error("plot failed", zap.Error(err))
		os.Exit(1)
	}
}

// #endregion main

// #region run

type curve struct {
	label string
	ns    []int
	ys    []int
	meta  plot.SeriesMeta
}

func run(root, sel, outDir, outFile, title, mode string, xcap int, collapse, annotate, shortLabels bool, logger *zap.Logger) error {
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return fmt.Errorf("root folder not found: %s", root)
	}

	resultNames := []string{bundle.ProbeNames().Results, bundle.MonitorNames().Results}
	files, err := plot.FindResultsFiles(root, resultNames)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no results CSV found under %s", root)
	}
	files = selectFiles(files, sel)
	if len(files) == 0 {
		return fmt.Errorf("no results CSV matched select=%q", sel)
	}

	curves := make([]curve, 0, len(files))
	for _, p := range files {
		ns, alphas, meta, err := plot.ReadAlphaSeries(p)
		if err != nil {
			return err
		}
		switch mode {
		case "emergence":
			ns, alphas = plot.FilterEmergence(ns, alphas)
		case "delta":
			ns, alphas = plot.DeltaSeries(ns, alphas)
		}
		ns, alphas = plot.CapByN(ns, alphas, xcap)
		curves = append(curves, curve{
			label: plot.LabelFromPath(p, shortLabels),
			ns:    ns,
			ys:    alphas,
			meta:  meta,
		})
		logger.Debug("loaded curve",
			zap.String("path", p), zap.Int("rows", meta.Rows),
			zap.Int("alpha_final", meta.AlphaFinal))
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", outDir, err)
	}
	outPath := filepath.Join(outDir, autoOutfile(outFile, mode, xcap))

	if mode == "diff" {
		return plotDiff(curves, outPath, mode, xcap, annotate)
	}
	return plotCurves(curves, outPath, title, mode, xcap, collapse, annotate)
}

// #endregion run

// #region curves

func plotCurves(curves []curve, outPath, title, mode string, xcap int, collapse, annotate bool) error {
	labels := make([]string, len(curves))
	for i, c := range curves {
		labels[i] = fmt.Sprintf("%s (alpha_final=%d)", c.label, c.meta.AlphaFinal)
	}

	// An identical primary/replay pair collapses into one series so the
	// overlap is legible instead of overdrawn.
	if collapse && len(curves) >= 2 && plot.IsPrimaryReplayPair(labels[0], labels[1]) && sameSeries(curves[0], curves[1]) {
		labels[0] = strings.Replace(labels[0], " (alpha_final=", "(replay_identical) (alpha_final=", 1)
		curves = curves[:1]
		labels = labels[:1]
	}

	chart := plot.NewChart(title, "N", "alpha(N,H)")
	if mode == "delta" {
		chart.Title = "SBM alpha(N,H) vs N (delta emergence spikes)"
		chart.YLabel = "delta_alpha(N,H)"
	}
	for i, c := range curves {
		chart.Add(plot.Series{
			Label:   labels[i],
			Xs:      c.ns,
			Ys:      c.ys,
			Stepped: mode == "step",
			Spikes:  mode == "delta",
		})
	}

	if annotate {
		stamp := []string{"SBM Proof Plot (viz-only)", "mode=" + mode, xcapLine(xcap)}
		if len(curves) == 1 {
			stamp = append(stamp, fmt.Sprintf("alpha_final=%d", curves[0].meta.AlphaFinal))
		}
		chart.Stamp = strings.Join(stamp, "\n")
	}

	if err := renderTo(chart, outPath); err != nil {
		return err
	}

	fmt.Println("DONE")
	fmt.Println("PLOT:", outPath)
	fmt.Println("MODE:", mode)
	if xcap >= 0 {
		fmt.Println("XCAP:", xcap)
	}
	fmt.Println("SERIES:")
	for _, l := range labels {
		fmt.Println(" -", l)
	}
	return nil
}

// #endregion curves

// #region diff

func plotDiff(curves []curve, outPath, mode string, xcap int, annotate bool) error {
	primIdx, repIdx := -1, -1
	for i, c := range curves {
		l := strings.ToLower(c.label)
		if strings.Contains(l, "primary") {
			primIdx = i
		}
		if strings.Contains(l, "replay") {
			repIdx = i
		}
	}
	if primIdx < 0 || repIdx < 0 {
		if len(curves) != 2 {
			return fmt.Errorf("diff mode requires exactly one PRIMARY and one REPLAY series (or exactly two series)")
		}
		primIdx, repIdx = 0, 1
	}
	primary, replay := curves[primIdx], curves[repIdx]

	ns, diffs, maxAbs := plot.DiffSeries(primary.ns, primary.ys, replay.ns, replay.ys, xcap)
	pairBase := pairBase(primary.label, replay.label)

	chart := plot.NewChart(
		fmt.Sprintf("SBM alpha(N,H) vs N (diff: primary - replay) | max_abs_diff=%d", maxAbs),
		"N", "alpha_primary(N,H) - alpha_replay(N,H)")
	chart.Add(plot.Series{Label: "primary - replay", Xs: ns, Ys: diffs})

	if annotate {
		stamp := []string{
			"SBM Proof Plot (viz-only)",
			"mode=" + mode,
			xcapLine(xcap),
			"pair_base=" + pairBase,
			fmt.Sprintf("max_abs_diff=%d", maxAbs),
		}
		if maxAbs == 0 {
			stamp = append(stamp, "B_A=B_B (observed)")
		}
		chart.Stamp = strings.Join(stamp, "\n")
	}

	if err := renderTo(chart, outPath); err != nil {
		return err
	}

	fmt.Println("DONE")
	fmt.Println("PLOT:", outPath)
	fmt.Println("MODE:", mode)
	if xcap >= 0 {
		fmt.Println("XCAP:", xcap)
	}
	fmt.Println("PAIR_BASE:", pairBase)
	fmt.Println("MAX_ABS_DIFF:", maxAbs)
	return nil
}

// pairBase derives the common bundle name of a primary/replay pair by
// stripping the role markers and keeping the shorter remainder.
func pairBase(labelP, labelR string) string {
	strip := func(s string) string {
		s = strings.ReplaceAll(s, "PRIMARY", "")
		s = strings.ReplaceAll(s, "REPLAY", "")
		return strings.TrimSpace(strings.Trim(s, "_"))
	}
	a, b := strip(labelP), strip(labelR)
	if len(a) <= len(b) {
		return a
	}
	return b
}

// #endregion diff

// #region helpers

func selectFiles(files []string, sel string) []string {
	var selects []string
	for _, s := range strings.Split(sel, ",") {
		if s = strings.TrimSpace(s); s != "" {
			selects = append(selects, strings.ToLower(s))
		}
	}
	if len(selects) == 0 {
		return files
	}
	var out []string
	for _, p := range files {
		lp := strings.ToLower(p)
		for _, s := range selects {
			if strings.Contains(lp, s) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

func sameSeries(a, b curve) bool {
	if len(a.ys) != len(b.ys) {
		return false
	}
	for i := range a.ys {
		if a.ys[i] != b.ys[i] {
			return false
		}
	}
	return true
}

// autoOutfile suffixes the default filename with the mode (and cap) so
// repeated invocations with different styles do not clobber each other.
func autoOutfile(name, mode string, xcap int) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "alpha_curve.svg"
	}
	if strings.ToLower(name) != "alpha_curve.svg" {
		return name
	}
	suffix := mode
	if xcap >= 0 {
		suffix = fmt.Sprintf("%s_xcap%d", suffix, xcap)
	}
	return fmt.Sprintf("alpha_curve_%s.svg", suffix)
}

func xcapLine(xcap int) string {
	if xcap >= 0 {
		return fmt.Sprintf("xcap=%d", xcap)
	}
	return "xcap="
}

func renderTo(chart *plot.Chart, outPath string) error {
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	if err := chart.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("render %s: %w", outPath, err)
	}
	return f.Close()
}

// #endregion helpers

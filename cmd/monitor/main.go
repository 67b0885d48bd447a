// Command monitor runs the state-sequence variant: it builds the
// regime-switched state stream, sweeps the windowed signatures through the
// alphabet tracker, and writes the full artifact bundle.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/sbm-monitor/internal/bundle"
	"github.com/danielpatrickdp/sbm-monitor/internal/engine"
	"github.com/danielpatrickdp/sbm-monitor/internal/logging"
	"github.com/danielpatrickdp/sbm-monitor/internal/registry"
)

// #region main

func main() {
	cfg := engine.DefaultMonitorConfig()

	n := flag.Int("N", 0, "run length (required unless set in --config)")
	h := flag.Int("H", cfg.H, "signature width")
	m := flag.Uint64("M", cfg.M, "modulus")
	seed := flag.Uint64("seed", cfg.Seed, "initial state seed")
	a1 := flag.Uint64("a1", cfg.A1, "pre-shift LCG multiplier")
	c1 := flag.Uint64("c1", cfg.C1, "pre-shift LCG increment")
	a2 := flag.Uint64("a2", cfg.A2, "post-shift LCG multiplier")
	c2 := flag.Uint64("c2", cfg.C2, "post-shift LCG increment")
	shiftN := flag.Int("shift_n", cfg.ShiftN, "regime shift index (-1 for N/2)")
	longL := flag.Int("long_stable_L", cfg.LongStableL, "long-stable-run threshold")
	preMode := flag.String("pre_mode", cfg.PreMode, "pre-shift mode: lcg|plateau|ramp")
	postMode := flag.String("post_mode", cfg.PostMode, "post-shift mode: lcg|plateau|ramp")
	obs := flag.String("obs", cfg.Obs, "observation: xor_parity|delta_parity|x_lsb|popcnt_parity")
	out := flag.String("out", "OUT_SBM_AI", "output bundle directory")
	configPath := flag.String("config", "", "optional YAML config file")
	registryPath := flag.String("registry", "", "optional run-registry database")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	logger, err := logging.New(*debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *configPath != "" {
		if err := loadYAML(*configPath, &cfg); err != nil {
			logger.Error("load config", zap.Error(err))
			os.Exit(2)
		}
	}

	// Explicit flags win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "N":
			cfg.N = *n
		case "H":
			cfg.H = *h
		case "M":
			cfg.M = *m
		case "seed":
			cfg.Seed = *seed
		case "a1":
			cfg.A1 = *a1
		case "c1":
			cfg.C1 = *c1
		case "a2":
			cfg.A2 = *a2
		case "c2":
			cfg.C2 = *c2
		case "shift_n":
			cfg.ShiftN = *shiftN
		case "long_stable_L":
			cfg.LongStableL = *longL
		case "pre_mode":
			cfg.PreMode = *preMode
		case "post_mode":
			cfg.PostMode = *postMode
		case "obs":
			cfg.Obs = *obs
		}
	})

	if cfg.N <= 0 {
		fmt.Fprintln(os.Stderr, "usage: monitor --N <run length> [flags]")
		flag.PrintDefaults()
		os.Exit(2)
	}
	cfg.ClampShift()

	if err := run(cfg, *out, *registryPath, logger); err != nil {
		logger.Error("run failed", zap.Error(err))
		os.Exit(1)
	}
}

// #endregion main

// #region run

func run(cfg engine.MonitorConfig, out, registryPath string, logger *zap.Logger) error {
	outDir, err := bundle.EnsureUniqueDir(out)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", outDir, err)
	}

	logger.Info("starting monitor run",
		zap.Int("N", cfg.N), zap.Int("H", cfg.H),
		zap.Int("shift_n", cfg.ShiftN), zap.String("obs", cfg.Obs),
		zap.String("out", outDir))

	res, err := engine.RunMonitor(cfg)
	if err != nil {
		return err
	}

	names := bundle.MonitorNames()
	rows := bundle.MonitorMetricRows(cfg, res)
	profile := bundle.NewMonitorProfile(cfg, res)
	if err := bundle.WriteRun(outDir, names, res, rows, profile); err != nil {
		return err
	}

	logger.Info("bundle written",
		zap.Int("alpha_N", res.Growth.AlphaN),
		zap.Int("emergence_count", res.Growth.EmergenceCount),
		zap.Int("fracture_candidates", res.Fracture.FractureCount))

	if registryPath != "" {
		if err := register(registryPath, "monitor", cfg, res, outDir, names); err != nil {
			return err
		}
	}

	fmt.Println("DONE")
	fmt.Printf("OUT DIR: %s\n", outDir)
	fmt.Println("FILES:")
	for _, f := range names.All() {
		fmt.Printf(" - %s\n", f)
	}
	return nil
}

func register(path, variant string, cfg any, res *engine.Result, outDir string, names bundle.Names) error {
	store, err := registry.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	manifestSHA, err := bundle.SHA256File(filepath.Join(outDir, names.Manifest))
	if err != nil {
		return err
	}
	rec, err := store.RecordRun(registry.RunRecord{
		Variant:        variant,
		ConfigJSON:     string(cfgJSON),
		OutDir:         outDir,
		ManifestSHA256: manifestSHA,
		AlphaN:         res.Growth.AlphaN,
	})
	if err != nil {
		return err
	}
	return store.LogEvent(rec.RunID, "bundle_written", outDir)
}

func loadYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// #endregion run

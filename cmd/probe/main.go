// Command probe runs the index-operator variant: it sweeps an index
// operator over [2, N], folds the per-index signatures through the alphabet
// tracker, and writes the full artifact bundle.
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
	cfg := engine.DefaultProbeConfig()

	op := flag.String("op", "", "index operator: ssnt_closure|collatz_parity|xorshift_parity|digitsum_mod9|sha1_parity")
	n := flag.Int("N", 0, "sweep upper bound, inclusive (required unless set in --config)")
	h := flag.Int("H", cfg.H, "signature width / bucket count")
	t1 := flag.Uint64("t1", cfg.Bands.T1, "band threshold P/A")
	t2 := flag.Uint64("t2", cfg.Bands.T2, "band threshold A/B")
	t3 := flag.Uint64("t3", cfg.Bands.T3, "band threshold B/C")
	t4 := flag.Uint64("t4", cfg.Bands.T4, "band threshold C/D")
	out := flag.String("out", "OUT_SBM", "output bundle directory")
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
		case "op":
			cfg.Op = *op
		case "N":
			cfg.N = *n
		case "H":
			cfg.H = *h
		case "t1":
			cfg.Bands.T1 = *t1
		case "t2":
			cfg.Bands.T2 = *t2
		case "t3":
			cfg.Bands.T3 = *t3
		case "t4":
			cfg.Bands.T4 = *t4
		}
	})

	if cfg.Op == "" || cfg.N == 0 {
		fmt.Fprintln(os.Stderr, "usage: probe --op <operator> --N <upper bound> [flags]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := run(cfg, *out, *registryPath, logger); err != nil {
		logger.Error("run failed", zap.Error(err))
		os.Exit(1)
	}
}

// #endregion main

// #region run

func run(cfg engine.ProbeConfig, out, registryPath string, logger *zap.Logger) error {
	outDir, err := bundle.EnsureUniqueDir(out)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", outDir, err)
	}

	logger.Info("starting probe run",
		zap.String("op", cfg.Op), zap.Int("N", cfg.N), zap.Int("H", cfg.H),
		zap.String("out", outDir))

	res, err := engine.RunProbe(cfg)
	if err != nil {
		return err
	}

	names := bundle.ProbeNames()
	rows := bundle.ProbeMetricRows(cfg, res)
	profile := bundle.NewProbeProfile(cfg, res)
	if err := bundle.WriteRun(outDir, names, res, rows, profile); err != nil {
		return err
	}

	logger.Info("bundle written",
		zap.Int("alpha_N", res.Growth.AlphaN),
		zap.Int("emergence_count", res.Growth.EmergenceCount))

	if registryPath != "" {
		if err := register(registryPath, "probe", cfg, res, outDir, names); err != nil {
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

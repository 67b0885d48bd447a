// Command replay exercises the determinism contract: it runs a
// configuration twice in-process and fails on any divergence, and it can
// additionally check the run against a JSON fixture's pinned expectations.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/sbm-monitor/internal/engine"
	"github.com/danielpatrickdp/sbm-monitor/internal/logging"
	"github.com/danielpatrickdp/sbm-monitor/internal/replay"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "JSON fixture with run config and expectations")
	configPath := flag.String("config", "", "YAML monitor config to replay (without a fixture)")
	n := flag.Int("N", 0, "run length when no fixture or config is given")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	logger, err := logging.New(*debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *fixturePath == "" && *configPath == "" && *n <= 0 {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture <file> | --config <file> | --N <run length>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	ok, err := run(*fixturePath, *configPath, *n, logger)
	if err != nil {
		logger.Error("replay failed", zap.Error(err))
		os.Exit(2)
	}
	if !ok {
		os.Exit(1)
	}
	fmt.Println("REPLAY OK")
}

// #endregion main

// #region run

func run(fixturePath, configPath string, n int, logger *zap.Logger) (bool, error) {
	var (
		runOnce func() (*engine.Result, error)
		fixture *replay.Fixture
	)

	switch {
	case fixturePath != "":
		f, err := replay.LoadFixture(fixturePath)
		if err != nil {
			return false, err
		}
		fixture = f
		runOnce = f.Run
		logger.Info("replaying fixture",
			zap.String("fixture", fixturePath),
			zap.String("variant", f.Variant),
			zap.String("description", f.Description))
	case configPath != "":
		cfg := engine.DefaultMonitorConfig()
		data, err := os.ReadFile(configPath)
		if err != nil {
			return false, fmt.Errorf("read %s: %w", configPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return false, fmt.Errorf("parse %s: %w", configPath, err)
		}
		cfg.ClampShift()
		runOnce = func() (*engine.Result, error) { return engine.RunMonitor(cfg) }
		logger.Info("replaying config", zap.String("config", configPath), zap.Int("N", cfg.N))
	default:
		cfg := engine.DefaultMonitorConfig()
		cfg.N = n
		cfg.ClampShift()
		runOnce = func() (*engine.Result, error) { return engine.RunMonitor(cfg) }
		logger.Info("replaying default config", zap.Int("N", n))
	}

	primary, diff, err := replay.RunTwice(runOnce)
	if err != nil {
		return false, err
	}
	if diff != "" {
		fmt.Fprintln(os.Stderr, "DETERMINISM FAIL")
		fmt.Fprintln(os.Stderr, diff)
		return false, nil
	}
	logger.Info("primary and replay identical",
		zap.Int("records", len(primary.Records)),
		zap.Int("alpha_N", primary.Growth.AlphaN))

	if fixture != nil {
		mismatches := replay.CheckFixture(fixture, primary)
		if len(mismatches) > 0 {
			fmt.Fprintln(os.Stderr, "FIXTURE FAIL")
			for _, m := range mismatches {
				fmt.Fprintf(os.Stderr, " - %s\n", m)
			}
			return false, nil
		}
		logger.Info("fixture expectations met",
			zap.Int("pinned_signatures", len(fixture.ExpectedSignatures)))
	}
	return true, nil
}

// #endregion run

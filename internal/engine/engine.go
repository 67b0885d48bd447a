// Package engine drives one full deterministic run: validate the
// configuration, generate raw values, extract signatures, fold them through
// the alphabet tracker in ascending index order, and derive the metrics.
package engine

import (
	"fmt"

	"github.com/danielpatrickdp/sbm-monitor/internal/alphabet"
	"github.com/danielpatrickdp/sbm-monitor/internal/metrics"
	"github.com/danielpatrickdp/sbm-monitor/internal/sigop"
	"github.com/danielpatrickdp/sbm-monitor/internal/signature"
	"github.com/danielpatrickdp/sbm-monitor/internal/stream"
)

// #region monitor-config

// MonitorConfig describes one state-sequence run. Immutable after Validate.
type MonitorConfig struct {
	N           int    `yaml:"n" json:"N"`
	H           int    `yaml:"h" json:"H"`
	M           uint64 `yaml:"m" json:"M"`
	Seed        uint64 `yaml:"seed" json:"seed"`
	A1          uint64 `yaml:"a1" json:"a1"`
	C1          uint64 `yaml:"c1" json:"c1"`
	A2          uint64 `yaml:"a2" json:"a2"`
	C2          uint64 `yaml:"c2" json:"c2"`
	ShiftN      int    `yaml:"shift_n" json:"shift_n"`
	LongStableL int    `yaml:"long_stable_l" json:"long_stable_L"`
	Obs         string `yaml:"obs" json:"obs"`
	PreMode     string `yaml:"pre_mode" json:"pre_mode"`
	PostMode    string `yaml:"post_mode" json:"post_mode"`
}

// DefaultMonitorConfig returns the conventional parameters; N must still be
// set by the caller and ShiftN defaults to N/2 (see ClampShift).
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		H:           18,
		M:           1 << 32,
		Seed:        123456789,
		A1:          1664525,
		C1:          1013904223,
		A2:          22695477,
		C2:          1,
		ShiftN:      -1,
		LongStableL: 2000,
		Obs:         string(signature.ObsXorParity),
		PreMode:     string(stream.ModeLCG),
		PostMode:    string(stream.ModeLCG),
	}
}

// ClampShift resolves a negative ShiftN to the N/2 convention and clamps
// it into [0, N-1].
func (c *MonitorConfig) ClampShift() {
	if c.ShiftN < 0 {
		c.ShiftN = c.N / 2
	}
	if c.ShiftN > c.N-1 {
		c.ShiftN = c.N - 1
	}
	if c.ShiftN < 0 {
		c.ShiftN = 0
	}
}

// Validate rejects malformed configurations before any state is produced.
func (c MonitorConfig) Validate() error {
	if c.LongStableL <= 0 {
		return fmt.Errorf("monitor config: long_stable_L must be positive, got %d", c.LongStableL)
	}
	if _, err := signature.ParseObs(c.Obs); err != nil {
		return fmt.Errorf("monitor config: %w", err)
	}
	if err := c.streamConfig().Validate(); err != nil {
		return fmt.Errorf("monitor config: %w", err)
	}
	return nil
}

func (c MonitorConfig) streamConfig() stream.Config {
	return stream.Config{
		N:        c.N,
		H:        c.H,
		M:        c.M,
		Seed:     c.Seed,
		Pre:      stream.Params{A: c.A1, C: c.C1},
		Post:     stream.Params{A: c.A2, C: c.C2},
		PreMode:  stream.Mode(c.PreMode),
		PostMode: stream.Mode(c.PostMode),
		ShiftN:   c.ShiftN,
	}
}

// #endregion monitor-config

// #region probe-config

// ProbeConfig describes one index-operator run over [2, N]. Immutable
// after Validate.
type ProbeConfig struct {
	Op    string      `yaml:"op" json:"op"`
	N     int         `yaml:"n" json:"N"`
	H     int         `yaml:"h" json:"H"`
	Bands sigop.Bands `yaml:"bands" json:"bands"`
}

// DefaultProbeConfig returns the conventional probe parameters.
func DefaultProbeConfig() ProbeConfig {
	return ProbeConfig{
		H:     10,
		Bands: sigop.Bands{T1: 3, T2: 11, T3: 31, T4: 101},
	}
}

// Validate rejects malformed configurations. The index domain starts at 2,
// so N below 2 leaves nothing to process.
func (c ProbeConfig) Validate() error {
	if _, err := sigop.ParseOp(c.Op); err != nil {
		return fmt.Errorf("probe config: %w", err)
	}
	if c.N < 2 {
		return fmt.Errorf("probe config: N must be >= 2, got %d", c.N)
	}
	if c.H <= 0 {
		return fmt.Errorf("probe config: H must be positive, got %d", c.H)
	}
	if err := c.Bands.Validate(); err != nil {
		return fmt.Errorf("probe config: %w", err)
	}
	return nil
}

// #endregion probe-config

// #region result

// Result is the complete output of one run: the record stream, the alpha
// series, the checkpoint subset, and the derived metrics. Fracture is nil
// for index-operator runs, which carry no regime structure.
type Result struct {
	Records     []alphabet.Record
	Series      []alphabet.AlphaPoint
	Checkpoints []alphabet.Checkpoint
	Growth      metrics.Growth
	Fracture    *metrics.Fracture
}

// #endregion result

// #region run-monitor

// RunMonitor executes the state-sequence variant: one strict ascending
// sweep over [0, N).
func RunMonitor(cfg MonitorConfig) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	xs, err := stream.Build(cfg.streamConfig())
	if err != nil {
		return nil, err
	}
	obs := signature.Obs(cfg.Obs)

	tracker := alphabet.NewTracker()
	records := make([]alphabet.Record, 0, cfg.N)
	for n := 0; n < cfg.N; n++ {
		sig := signature.Window(xs, n, cfg.H, cfg.M, obs)
		records = append(records, tracker.Observe(n, sig))
	}

	series := tracker.Series()
	fracture := metrics.ComputeFracture(series, cfg.N, cfg.ShiftN, cfg.LongStableL)
	return &Result{
		Records:     records,
		Series:      series,
		Checkpoints: alphabet.Checkpoints(series, []int{cfg.ShiftN - 1, cfg.ShiftN, cfg.N - 1}),
		Growth:      metrics.ComputeGrowth(series, cfg.N),
		Fracture:    &fracture,
	}, nil
}

// #endregion run-monitor

// #region run-probe

// RunProbe executes the index-operator variant: one strict ascending sweep
// over [2, N].
func RunProbe(cfg ProbeConfig) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	op := sigop.Op(cfg.Op)

	tracker := alphabet.NewTracker()
	records := make([]alphabet.Record, 0, cfg.N-1)
	for n := 2; n <= cfg.N; n++ {
		sig := sigop.Signature(uint64(n), op, cfg.H, cfg.Bands)
		records = append(records, tracker.Observe(n, sig))
	}

	series := tracker.Series()
	return &Result{
		Records:     records,
		Series:      series,
		Checkpoints: alphabet.Checkpoints(series, []int{cfg.N}),
		Growth:      metrics.ComputeGrowth(series, cfg.N),
	}, nil
}

// #endregion run-probe

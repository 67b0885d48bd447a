package bundle

import (
	"path/filepath"
	"strconv"

	"github.com/danielpatrickdp/sbm-monitor/internal/engine"
)

// #region monitor-profile

// MonitorProfile is the on-disk profile JSON of a state-sequence run.
type MonitorProfile struct {
	Version    string             `json:"sbm_ai_version"`
	N          int                `json:"N"`
	H          int                `json:"H"`
	M          uint64             `json:"M"`
	Seed       uint64             `json:"seed"`
	ShiftN     int                `json:"shift_n"`
	Obs        string             `json:"obs"`
	PreMode    string             `json:"pre_mode"`
	PostMode   string             `json:"post_mode"`
	ParamsPre  ProfileParams      `json:"params_pre"`
	ParamsPost ProfileParams      `json:"params_post"`
	Profile    MonitorProfileBody `json:"profile"`
}

// ProfileParams echoes one regime's transition parameters.
type ProfileParams struct {
	A uint64 `json:"a"`
	C uint64 `json:"c"`
}

// MonitorProfileBody carries the derived metrics of a monitor run.
type MonitorProfileBody struct {
	AlphaN           int `json:"alpha_N"`
	EN               F12 `json:"E_N"`
	HsN              F12 `json:"Hs_N"`
	CN               F12 `json:"C_N"`
	EmergenceCount   int `json:"emergence_count"`
	LastEmergenceN   int `json:"last_emergence_n"`
	MeanGap          F12 `json:"mean_gap"`
	VarGap           F12 `json:"var_gap"`
	AlphaBeforeShift int `json:"alpha_before_shift"`
	AlphaAtShift     int `json:"alpha_at_shift"`
	AlphaAfter       int `json:"alpha_after"`
	MaxStableRun     int `json:"max_stable_run"`
	MaxSpike         int `json:"max_spike"`
	SpikeAtN         int `json:"spike_at_n"`
	FractureCount    int `json:"fracture_candidate_count"`
	FractureFirstAtN int `json:"fracture_first_at_n"`
	LongStableL      int `json:"long_stable_L"`
}

const monitorProfileVersion = "1.2"

// NewMonitorProfile assembles the profile JSON payload from a finished run.
func NewMonitorProfile(cfg engine.MonitorConfig, res *engine.Result) MonitorProfile {
	g, f := res.Growth, res.Fracture
	return MonitorProfile{
		Version:    monitorProfileVersion,
		N:          cfg.N,
		H:          cfg.H,
		M:          cfg.M,
		Seed:       cfg.Seed,
		ShiftN:     cfg.ShiftN,
		Obs:        cfg.Obs,
		PreMode:    cfg.PreMode,
		PostMode:   cfg.PostMode,
		ParamsPre:  ProfileParams{A: cfg.A1, C: cfg.C1},
		ParamsPost: ProfileParams{A: cfg.A2, C: cfg.C2},
		Profile: MonitorProfileBody{
			AlphaN:           g.AlphaN,
			EN:               F12(g.EN),
			HsN:              F12(g.HsN),
			CN:               F12(g.CN),
			EmergenceCount:   g.EmergenceCount,
			LastEmergenceN:   g.LastEmergenceN,
			MeanGap:          F12(g.MeanGap),
			VarGap:           F12(g.VarGap),
			AlphaBeforeShift: f.AlphaBeforeShift,
			AlphaAtShift:     f.AlphaAtShift,
			AlphaAfter:       f.AlphaAfter,
			MaxStableRun:     f.MaxStableRun,
			MaxSpike:         f.MaxSpike,
			SpikeAtN:         f.SpikeAtN,
			FractureCount:    f.FractureCount,
			FractureFirstAtN: f.FractureFirstAtN,
			LongStableL:      f.LongStableL,
		},
	}
}

// MonitorMetricRows lists the metrics CSV rows of a monitor run in their
// fixed order.
func MonitorMetricRows(cfg engine.MonitorConfig, res *engine.Result) []MetricRow {
	g, f := res.Growth, res.Fracture
	return []MetricRow{
		{"N", strconv.Itoa(cfg.N)},
		{"H", strconv.Itoa(cfg.H)},
		{"M", strconv.FormatUint(cfg.M, 10)},
		{"seed", strconv.FormatUint(cfg.Seed, 10)},
		{"shift_n", strconv.Itoa(cfg.ShiftN)},
		{"obs", cfg.Obs},
		{"pre_mode", cfg.PreMode},
		{"post_mode", cfg.PostMode},
		{"a1", strconv.FormatUint(cfg.A1, 10)},
		{"c1", strconv.FormatUint(cfg.C1, 10)},
		{"a2", strconv.FormatUint(cfg.A2, 10)},
		{"c2", strconv.FormatUint(cfg.C2, 10)},
		{"alpha_N", strconv.Itoa(g.AlphaN)},
		{"E_N", Fmt12(g.EN)},
		{"Hs_N", Fmt12(g.HsN)},
		{"C_N", Fmt12(g.CN)},
		{"emergence_count", strconv.Itoa(g.EmergenceCount)},
		{"last_emergence_n", strconv.Itoa(g.LastEmergenceN)},
		{"mean_gap", Fmt12(g.MeanGap)},
		{"var_gap", Fmt12(g.VarGap)},
		{"alpha_before_shift", strconv.Itoa(f.AlphaBeforeShift)},
		{"alpha_at_shift", strconv.Itoa(f.AlphaAtShift)},
		{"alpha_after", strconv.Itoa(f.AlphaAfter)},
		{"max_stable_run", strconv.Itoa(f.MaxStableRun)},
		{"max_spike", strconv.Itoa(f.MaxSpike)},
		{"spike_at_n", strconv.Itoa(f.SpikeAtN)},
		{"fracture_candidate_count", strconv.Itoa(f.FractureCount)},
		{"fracture_first_at_n", strconv.Itoa(f.FractureFirstAtN)},
		{"long_stable_L", strconv.Itoa(f.LongStableL)},
	}
}

// #endregion monitor-profile

// #region probe-profile

// ProbeProfile is the on-disk profile JSON of an index-operator run.
type ProbeProfile struct {
	Version string           `json:"sbm_version"`
	Op      string           `json:"op"`
	N       int              `json:"N"`
	H       int              `json:"H"`
	Bands   ProfileBands     `json:"bands"`
	Profile ProbeProfileBody `json:"profile"`
}

// ProfileBands echoes the band thresholds.
type ProfileBands struct {
	T1 uint64 `json:"t1"`
	T2 uint64 `json:"t2"`
	T3 uint64 `json:"t3"`
	T4 uint64 `json:"t4"`
}

// ProbeProfileBody carries the derived metrics of a probe run.
type ProbeProfileBody struct {
	AlphaN         int `json:"alpha_N"`
	EN             F12 `json:"E_N"`
	HsN            F12 `json:"Hs_N"`
	CN             F12 `json:"C_N"`
	EmergenceCount int `json:"emergence_count"`
	LastEmergenceN int `json:"last_emergence_n"`
	MeanGap        F12 `json:"mean_gap"`
	VarGap         F12 `json:"var_gap"`
}

const probeProfileVersion = "2.0"

// NewProbeProfile assembles the profile JSON payload from a finished run.
func NewProbeProfile(cfg engine.ProbeConfig, res *engine.Result) ProbeProfile {
	g := res.Growth
	return ProbeProfile{
		Version: probeProfileVersion,
		Op:      cfg.Op,
		N:       cfg.N,
		H:       cfg.H,
		Bands:   ProfileBands{T1: cfg.Bands.T1, T2: cfg.Bands.T2, T3: cfg.Bands.T3, T4: cfg.Bands.T4},
		Profile: ProbeProfileBody{
			AlphaN:         g.AlphaN,
			EN:             F12(g.EN),
			HsN:            F12(g.HsN),
			CN:             F12(g.CN),
			EmergenceCount: g.EmergenceCount,
			LastEmergenceN: g.LastEmergenceN,
			MeanGap:        F12(g.MeanGap),
			VarGap:         F12(g.VarGap),
		},
	}
}

// ProbeMetricRows lists the metrics CSV rows of a probe run in their fixed
// order.
func ProbeMetricRows(cfg engine.ProbeConfig, res *engine.Result) []MetricRow {
	g := res.Growth
	return []MetricRow{
		{"op", cfg.Op},
		{"N", strconv.Itoa(cfg.N)},
		{"H", strconv.Itoa(cfg.H)},
		{"alpha_N", strconv.Itoa(g.AlphaN)},
		{"E_N", Fmt12(g.EN)},
		{"Hs_N", Fmt12(g.HsN)},
		{"C_N", Fmt12(g.CN)},
		{"emergence_count", strconv.Itoa(g.EmergenceCount)},
		{"last_emergence_n", strconv.Itoa(g.LastEmergenceN)},
		{"mean_gap", Fmt12(g.MeanGap)},
		{"var_gap", Fmt12(g.VarGap)},
	}
}

// #endregion probe-profile

// #region write-bundle

// WriteRun writes the complete deterministic artifact set of a run into
// dir, then seals it with the manifest. rows and profile must already be
// assembled in their fixed order.
func WriteRun(dir string, names Names, res *engine.Result, rows []MetricRow, profile any) error {
	join := func(name string) string { return filepath.Join(dir, name) }

	if err := WriteResults(join(names.Results), res.Records); err != nil {
		return err
	}
	if err := WriteCheckpoints(join(names.Alphabet), res.Checkpoints); err != nil {
		return err
	}
	if err := WriteMetricsCSV(join(names.Metrics), rows); err != nil {
		return err
	}
	if err := WriteProfileJSON(join(names.Profile), profile); err != nil {
		return err
	}

	hashed := make([]string, 0, len(names.Hashed()))
	for _, name := range names.Hashed() {
		hashed = append(hashed, join(name))
	}
	return WriteManifest(hashed, join(names.Manifest))
}

// #endregion write-bundle

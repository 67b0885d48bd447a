package bundle

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/sbm-monitor/internal/engine"
	"github.com/danielpatrickdp/sbm-monitor/internal/signature"
)

func TestEnsureUniqueDir(t *testing.T) {
	base := t.TempDir()

	// Missing dir: used as-is.
	dir := filepath.Join(base, "OUT")
	got, err := EnsureUniqueDir(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	// Existing but empty: reused.
	require.NoError(t, os.MkdirAll(dir, 0o755))
	got, err = EnsureUniqueDir(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	// Non-empty: suffixed siblings.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x"), []byte("x"), 0o644))
	got, err = EnsureUniqueDir(dir)
	require.NoError(t, err)
	assert.Equal(t, dir+"_R1", got)

	require.NoError(t, os.MkdirAll(dir+"_R1", 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir+"_R1", "x"), []byte("x"), 0o644))
	got, err = EnsureUniqueDir(dir)
	require.NoError(t, err)
	assert.Equal(t, dir+"_R2", got)

	// A file in the way is an error.
	f := filepath.Join(base, "plain")
	require.NoError(t, os.WriteFile(f, []byte("x"), 0o644))
	_, err = EnsureUniqueDir(f)
	assert.Error(t, err)
}

func TestFmt12(t *testing.T) {
	assert.Equal(t, "0.400000000000", Fmt12(0.4))
	assert.Equal(t, "0.000000000000", Fmt12(0))
	assert.Equal(t, "1.098612288668", Fmt12(1.0986122886681098))
}

func TestF12MarshalJSON(t *testing.T) {
	out, err := json.Marshal(struct {
		V F12 `json:"v"`
	}{V: 0.25})
	require.NoError(t, err)
	assert.Equal(t, `{"v":0.250000000000}`, string(out))
}

func TestWriteManifestFormat(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	require.NoError(t, os.WriteFile(a, []byte("hello\n"), 0o644))

	manifest := filepath.Join(dir, "m.sha256")
	require.NoError(t, WriteManifest([]string{a}, manifest))

	text, err := os.ReadFile(manifest)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(text), "\n"), "\n")
	require.Len(t, lines, 1)

	digest, err := SHA256File(a)
	require.NoError(t, err)
	assert.Equal(t, digest+"  a.csv", lines[0])
	assert.Len(t, digest, 64)
}

func monitorResult(t *testing.T) (engine.MonitorConfig, *engine.Result) {
	t.Helper()
	cfg := engine.DefaultMonitorConfig()
	cfg.N = 5
	cfg.H = 1
	cfg.M = 8
	cfg.Seed = 0
	cfg.PreMode = "ramp"
	cfg.PostMode = "ramp"
	cfg.ShiftN = 2
	cfg.Obs = string(signature.ObsDeltaParity)
	cfg.LongStableL = 2

	res, err := engine.RunMonitor(cfg)
	require.NoError(t, err)
	return cfg, res
}

func TestWriteRunMonitorBundle(t *testing.T) {
	cfg, res := monitorResult(t)
	dir := t.TempDir()
	names := MonitorNames()

	err := WriteRun(dir, names, res, MonitorMetricRows(cfg, res), NewMonitorProfile(cfg, res))
	require.NoError(t, err)

	for _, name := range names.All() {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Greater(t, info.Size(), int64(0), name)
	}

	results, err := os.ReadFile(filepath.Join(dir, names.Results))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(results), "\n"), "\n")
	assert.Equal(t, "n,signature,new_signature_at_n,first_seen_n", lines[0])
	assert.Equal(t, "0,1,1,0", lines[1])
	assert.Equal(t, "1,0,1,1", lines[2])
	assert.Equal(t, "2,1,0,0", lines[3])

	var profile MonitorProfile
	data, err := os.ReadFile(filepath.Join(dir, names.Profile))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &profile))
	assert.Equal(t, "1.2", profile.Version)
	assert.Equal(t, 2, profile.Profile.AlphaN)
	assert.True(t, strings.HasSuffix(string(data), "\n"))
}

func TestWriteRunByteIdentical(t *testing.T) {
	cfg, res := monitorResult(t)
	names := MonitorNames()

	dirA, dirB := t.TempDir(), t.TempDir()
	require.NoError(t, WriteRun(dirA, names, res, MonitorMetricRows(cfg, res), NewMonitorProfile(cfg, res)))
	require.NoError(t, WriteRun(dirB, names, res, MonitorMetricRows(cfg, res), NewMonitorProfile(cfg, res)))

	for _, name := range names.All() {
		a, err := os.ReadFile(filepath.Join(dirA, name))
		require.NoError(t, err)
		b, err := os.ReadFile(filepath.Join(dirB, name))
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b), name)
	}
}

func TestMonitorMetricRowsOrder(t *testing.T) {
	cfg, res := monitorResult(t)
	rows := MonitorMetricRows(cfg, res)

	wantKeys := []string{
		"N", "H", "M", "seed", "shift_n", "obs", "pre_mode", "post_mode",
		"a1", "c1", "a2", "c2",
		"alpha_N", "E_N", "Hs_N", "C_N", "emergence_count", "last_emergence_n",
		"mean_gap", "var_gap",
		"alpha_before_shift", "alpha_at_shift", "alpha_after",
		"max_stable_run", "max_spike", "spike_at_n",
		"fracture_candidate_count", "fracture_first_at_n", "long_stable_L",
	}
	require.Len(t, rows, len(wantKeys))
	for i, row := range rows {
		assert.Equal(t, wantKeys[i], row.Key, "row %d", i)
	}
	assert.Equal(t, "0.400000000000", rows[13].Value) // E_N = 2/5
}

func TestProbeProfile(t *testing.T) {
	cfg := engine.DefaultProbeConfig()
	cfg.Op = "digitsum_mod9"
	cfg.N = 4
	cfg.H = 2
	res, err := engine.RunProbe(cfg)
	require.NoError(t, err)

	profile := NewProbeProfile(cfg, res)
	assert.Equal(t, "2.0", profile.Version)
	assert.Equal(t, 3, profile.Profile.AlphaN)

	rows := ProbeMetricRows(cfg, res)
	require.NotEmpty(t, rows)
	assert.Equal(t, MetricRow{"op", "digitsum_mod9"}, rows[0])
}

package replay

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFixtureProbe(t *testing.T) {
	path := writeFixture(t, `{
  "description": "digit sum fixed points",
  "variant": "probe",
  "probe": {"op": "digitsum_mod9", "N": 4, "H": 2, "bands": {"t1": 3, "t2": 11, "t3": 31, "t4": 101}},
  "expected_signatures": [{"index": 2, "key": "2,2"}],
  "expected_profile": {"alpha_n": 3}
}`)

	f, err := LoadFixture(path)
	require.NoError(t, err)
	assert.Equal(t, "probe", f.Variant)
	require.NotNil(t, f.Probe)
	assert.Equal(t, "digitsum_mod9", f.Probe.Op)
	require.NotNil(t, f.Expected.AlphaN)
	assert.Equal(t, 3, *f.Expected.AlphaN)

	res, err := f.Run()
	require.NoError(t, err)
	assert.Empty(t, CheckFixture(f, res))
}

func TestLoadFixtureMonitor(t *testing.T) {
	path := writeFixture(t, `{
  "variant": "monitor",
  "monitor": {
    "N": 5, "H": 1, "M": 8, "seed": 0,
    "shift_n": 2, "long_stable_L": 2,
    "obs": "delta_parity", "pre_mode": "ramp", "post_mode": "ramp"
  },
  "expected_profile": {"alpha_n": 2, "emergence_count": 2}
}`)

	f, err := LoadFixture(path)
	require.NoError(t, err)
	res, err := f.Run()
	require.NoError(t, err)
	assert.Empty(t, CheckFixture(f, res))
}

func TestLoadFixtureRejectsBadVariant(t *testing.T) {
	_, err := LoadFixture(writeFixture(t, `{"variant": "other"}`))
	assert.Error(t, err)

	_, err = LoadFixture(writeFixture(t, `{"variant": "monitor"}`))
	assert.Error(t, err)

	_, err = LoadFixture(writeFixture(t, `{"variant": "probe"}`))
	assert.Error(t, err)
}

func TestLoadFixtureMissingFile(t *testing.T) {
	_, err := LoadFixture(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

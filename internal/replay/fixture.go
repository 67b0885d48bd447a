package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/sbm-monitor/internal/engine"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture: one run
// configuration plus the signatures and metrics it is expected to produce.
type Fixture struct {
	Description string `json:"description"`
	Variant     string `json:"variant"` // "monitor" | "probe"

	Monitor *engine.MonitorConfig `json:"monitor,omitempty"`
	Probe   *engine.ProbeConfig   `json:"probe,omitempty"`

	ExpectedSignatures []ExpectedSignature `json:"expected_signatures,omitempty"`
	Expected           ExpectedProfile     `json:"expected_profile"`
}

// ExpectedSignature pins the signature key at one index.
type ExpectedSignature struct {
	Index int    `json:"index"`
	Key   string `json:"key"`
}

// ExpectedProfile pins selected profile values. Nil fields are unchecked.
type ExpectedProfile struct {
	AlphaN         *int `json:"alpha_n,omitempty"`
	EmergenceCount *int `json:"emergence_count,omitempty"`
}

// #endregion fixture-types

// #region fixture-load

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	switch f.Variant {
	case "monitor":
		if f.Monitor == nil {
			return nil, fmt.Errorf("fixture %s: variant monitor without monitor config", path)
		}
	case "probe":
		if f.Probe == nil {
			return nil, fmt.Errorf("fixture %s: variant probe without probe config", path)
		}
	default:
		return nil, fmt.Errorf("fixture %s: unknown variant %q", path, f.Variant)
	}
	return &f, nil
}

// Run executes the fixture's configuration once.
func (f *Fixture) Run() (*engine.Result, error) {
	if f.Variant == "monitor" {
		return engine.RunMonitor(*f.Monitor)
	}
	return engine.RunProbe(*f.Probe)
}

// #endregion fixture-load

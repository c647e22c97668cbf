package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"source.quilibrium.com/quilibrium/monorepo/transpiler/target"
)

type DurationConfig struct {
	Gate   string `yaml:"gate" toml:"gate"`
	Qubits []int  `yaml:"qubits" toml:"qubits"`
	// Duration in Unit.
	Duration float64 `yaml:"duration" toml:"duration"`
	// "dt" or an SI unit (s, ms, us, ns, ps). Defaults to dt.
	Unit string `yaml:"unit" toml:"unit"`
}

type ErrorRateConfig struct {
	Gate   string  `yaml:"gate" toml:"gate"`
	Qubits []int   `yaml:"qubits" toml:"qubits"`
	Error  float64 `yaml:"error" toml:"error"`
}

// CalibrationConfig declares a custom pulse level gate.
type CalibrationConfig struct {
	Gate   string `yaml:"gate" toml:"gate"`
	Qubits []int  `yaml:"qubits" toml:"qubits"`
	// Duration in dt.
	Duration int `yaml:"duration" toml:"duration"`
}

// TargetConfig describes a device.
type TargetConfig struct {
	Name      string `yaml:"name" toml:"name"`
	NumQubits int    `yaml:"numQubits" toml:"numQubits"`
	// Directed edges. Without any, the device has no connectivity
	// restriction and layout and routing are skipped.
	CouplingMap [][]int `yaml:"couplingMap" toml:"couplingMap"`
	// Adds the reverse of every edge.
	Bidirectional bool     `yaml:"bidirectional" toml:"bidirectional"`
	BasisGates    []string `yaml:"basisGates" toml:"basisGates"`
	// Sample time in seconds.
	DT                float64                   `yaml:"dt" toml:"dt"`
	Durations         []DurationConfig          `yaml:"durations" toml:"durations"`
	Errors            []ErrorRateConfig         `yaml:"errors" toml:"errors"`
	TimingConstraints *target.TimingConstraints `yaml:"timingConstraints" toml:"timingConstraints"`
	Calibrations      []CalibrationConfig       `yaml:"calibrations" toml:"calibrations"`
}

// ToTarget builds and validates the target.Target described by the config.
func (c *TargetConfig) ToTarget() (*target.Target, error) {
	t := &target.Target{
		Name:       c.Name,
		NumQubits:  c.NumQubits,
		BasisGates: c.BasisGates,
		Durations:  target.NewInstructionDurations(c.DT),
		Timing:     target.DefaultTimingConstraints(),
	}
	if c.TimingConstraints != nil {
		t.Timing = c.TimingConstraints.WithDefaults()
	}

	if len(c.CouplingMap) > 0 {
		edges := make([][2]int, len(c.CouplingMap))
		for i, e := range c.CouplingMap {
			if len(e) != 2 {
				return nil, errors.Errorf("to target: coupling map edge %v is not a pair", e)
			}
			edges[i] = [2]int{e[0], e[1]}
		}
		cm, err := target.NewCouplingMap(c.NumQubits, edges)
		if err != nil {
			return nil, errors.Wrap(err, "to target")
		}
		if c.Bidirectional {
			cm.MakeSymmetric()
		}
		t.Coupling = cm
	}

	for _, d := range c.Durations {
		unit := d.Unit
		if unit == "" {
			unit = target.UnitDT
		}
		if err := t.Durations.Set(d.Gate, d.Qubits, d.Duration, unit); err != nil {
			return nil, errors.Wrap(err, "to target")
		}
	}

	if len(c.Errors) > 0 {
		t.Errors = target.ErrorMap{}
		for _, e := range c.Errors {
			if e.Error < 0 || e.Error > 1 {
				return nil, errors.Errorf(
					"to target: error rate of %s on %v is %g, not in [0, 1]",
					e.Gate,
					e.Qubits,
					e.Error,
				)
			}
			t.Errors.Set(e.Gate, e.Qubits, e.Error)
		}
	}

	if len(c.Calibrations) > 0 {
		t.InstMap = target.NewInstructionScheduleMap()
		for _, cal := range c.Calibrations {
			t.InstMap.Add(cal.Gate, cal.Qubits, target.Schedule{
				Duration: cal.Duration,
				Custom:   true,
			})
		}
	}

	if err := t.Validate(); err != nil {
		return nil, errors.Wrap(err, "to target")
	}
	return t, nil
}

// LoadTarget reads a target file, YAML or TOML by extension.
func LoadTarget(path string) (*TargetConfig, error) {
	cfg := &TargetConfig{}
	if err := load(path, cfg); err != nil {
		return nil, errors.Wrap(err, "load target")
	}
	return cfg, nil
}

// LoadTranspile reads a transpile configuration file, YAML or TOML by
// extension. Defaults are not applied.
func LoadTranspile(path string) (*TranspileConfig, error) {
	cfg := &TranspileConfig{}
	if err := load(path, cfg); err != nil {
		return nil, errors.Wrap(err, "load transpile config")
	}
	return cfg, nil
}

func load(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return errors.Wrap(yaml.UnmarshalStrict(data, out), path)
	case ".toml":
		return errors.Wrap(toml.Unmarshal(data, out), path)
	default:
		return errors.Errorf("%s: unsupported config format", path)
	}
}

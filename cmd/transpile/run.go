package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"source.quilibrium.com/quilibrium/monorepo/transpiler/circuit"
	"source.quilibrium.com/quilibrium/monorepo/transpiler/compiler"
	"source.quilibrium.com/quilibrium/monorepo/transpiler/passmanager"
)

var outDir string

var runCmd = &cobra.Command{
	Use:   "run CIRCUIT...",
	Short: "Compile circuits for the target",
	Long: `Compile one or more circuit files (YAML) for the target. Each compiled
circuit is written to <name>.out.yaml in the output directory together with
the final property set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		circuits := make([]*circuit.Circuit, 0, len(args))
		for _, path := range args {
			c, err := loadCircuit(path)
			if err != nil {
				return err
			}
			circuits = append(circuits, c)
		}

		c, err := compiler.NewCompiler(s.logger, s.presets)
		if err != nil {
			return err
		}
		results, err := c.CompileBatch(cmd.Context(), circuits)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(outDir, 0755); err != nil {
			return errors.Wrap(err, "run")
		}
		for i, res := range results {
			path, err := writeResult(outDir, res)
			if err != nil {
				return err
			}
			s.logger.Info(
				"wrote compiled circuit",
				zap.String("input", args[i]),
				zap.String("output", path),
			)
			fmt.Fprintf(
				cmd.OutOrStdout(),
				"%s: %d operations, %d qubits -> %s\n",
				res.Circuit.Name,
				len(res.Circuit.Ops),
				res.Circuit.NumQubits,
				path,
			)
		}
		return nil
	},
}

func loadCircuit(path string) (*circuit.Circuit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "load circuit")
	}
	c := &circuit.Circuit{}
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return nil, errors.Wrapf(err, "load circuit %s", path)
	}
	if c.Name == "" {
		c.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Wrapf(err, "load circuit %s", path)
	}
	return c, nil
}

type compiledOutput struct {
	Circuit      *circuit.Circuit `yaml:"circuit"`
	Retranslated bool             `yaml:"retranslated"`
	Properties   map[string]any   `yaml:"properties"`
}

func writeResult(dir string, res *compiler.Result) (string, error) {
	out := compiledOutput{
		Circuit:      res.Circuit,
		Retranslated: res.Retranslated,
		Properties:   make(map[string]any, len(res.Properties)),
	}
	for k, v := range res.Properties {
		out.Properties[k] = propertyValue(v)
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return "", errors.Wrap(err, "write result")
	}
	path := filepath.Join(dir, res.Circuit.Name+".out.yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", errors.Wrap(err, "write result")
	}
	return path, nil
}

// propertyValue turns property set values without a YAML form into one.
func propertyValue(v any) any {
	switch v := v.(type) {
	case *circuit.Layout:
		if v == nil {
			return nil
		}
		if s, err := v.Slice(); err == nil {
			return s
		}
		return v.PhysicalQubits()
	case passmanager.StopReason:
		return v.String()
	default:
		return v
	}
}

func init() {
	runCmd.Flags().StringVarP(
		&outDir,
		"out",
		"o",
		".",
		"directory compiled circuits are written to",
	)
}

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"source.quilibrium.com/quilibrium/monorepo/transpiler/compiler"
	"source.quilibrium.com/quilibrium/monorepo/transpiler/config"
)

var (
	targetPath string
	configPath string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "transpile",
	Short: "Quantum circuit transpiler",
	Long: `transpile assembles the preset compilation pipelines for a device and
compiles circuits through them: decomposition, layout, embedding, routing,
translation, pre-optimization and scheduling.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// session is what the describe and run commands share: the assembled presets
// and the logger built from the transpile configuration.
type session struct {
	presets *compiler.Presets
	logger  *zap.Logger
	closer  io.Closer
}

func (s *session) Close() {
	_ = s.logger.Sync()
	if s.closer != nil {
		s.closer.Close()
	}
}

func openSession() (*session, error) {
	if targetPath == "" {
		return nil, errors.New("--target is required")
	}
	tc, err := config.LoadTarget(targetPath)
	if err != nil {
		return nil, err
	}

	cfg := &config.TranspileConfig{}
	if configPath != "" {
		if cfg, err = config.LoadTranspile(configPath); err != nil {
			return nil, err
		}
	}

	cache, err := compiler.NewPresetCache(1)
	if err != nil {
		return nil, err
	}
	logger, closer, err := cfg.CreateLogger(debug)
	if err != nil {
		return nil, err
	}

	p, _, err := cache.Get(tc, *cfg)
	if err != nil {
		logger.Sync()
		closer.Close()
		return nil, err
	}

	logger.Debug(
		"assembled presets",
		zap.String("target", tc.Name),
		zap.String("fingerprint", p.Fingerprint),
		zap.Int("level", p.Config.Level()),
	)
	return &session{presets: p, logger: logger, closer: closer}, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&targetPath,
		"target",
		"t",
		"",
		"device description file (.yaml, .yml or .toml)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&configPath,
		"config",
		"c",
		"",
		"transpile configuration file (.yaml, .yml or .toml)",
	)
	rootCmd.PersistentFlags().BoolVar(
		&debug,
		"debug",
		false,
		"log at debug level",
	)

	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(budgetCmd)
	rootCmd.AddCommand(versionCmd)
}

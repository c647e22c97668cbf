// Package compiler drives whole compilations: it runs the preset pipelines in
// order on one circuit with a fresh property set, and compiles batches of
// independent circuits concurrently.
package compiler

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"source.quilibrium.com/quilibrium/monorepo/transpiler/circuit"
	"source.quilibrium.com/quilibrium/monorepo/transpiler/passmanager"
	"source.quilibrium.com/quilibrium/monorepo/transpiler/utils/runtime"
)

// Result is a compiled circuit and the final property set.
type Result struct {
	Circuit    *circuit.Circuit
	Properties map[string]any
	// Retranslated is set when fixing gate direction required a second
	// translation.
	Retranslated bool
	Duration     time.Duration
}

type Compiler struct {
	logger  *zap.Logger
	runner  *passmanager.Runner
	presets *Presets
	workers int
}

// NewCompiler creates a compiler running p.
func NewCompiler(logger *zap.Logger, p *Presets) (*Compiler, error) {
	if p == nil {
		return nil, errors.New("new compiler: nil presets")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compiler{
		logger:  logger.Named("compiler"),
		runner:  passmanager.NewRunner(logger),
		presets: p,
		workers: runtime.WorkerCount(p.Config.Workers),
	}, nil
}

// Presets returns the pipelines the compiler runs.
func (c *Compiler) Presets() *Presets {
	return c.presets
}

type phase struct {
	phase    CompilePhase
	pipeline *passmanager.Pipeline
}

func (c *Compiler) run(
	circ *circuit.Circuit,
	ps *passmanager.PropertySet,
	phases ...phase,
) (*circuit.Circuit, error) {
	for _, ph := range phases {
		out, err := c.runner.Run(ph.pipeline, circ, ps)
		if err != nil {
			return nil, &CompileError{Phase: ph.phase, Circuit: circ.Name, Err: err}
		}
		circ = out
	}
	return circ, nil
}

// Compile runs decomposition, layout, embedding, routing, translation and
// pre-optimization, translates once more when gate directions had to be
// fixed, then schedules. The input circuit is not modified. On failure no
// circuit is returned.
func (c *Compiler) Compile(
	ctx context.Context,
	circ *circuit.Circuit,
) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "compile")
	}
	start := time.Now()
	res, err := c.compile(circ)
	elapsed := time.Since(start)
	compileDuration.Observe(elapsed.Seconds())
	if err != nil {
		compilesTotal.WithLabelValues("error").Inc()
		c.logger.Error(
			"compilation failed",
			zap.String("fingerprint", c.presets.Fingerprint),
			zap.Error(err),
		)
		return nil, err
	}
	compilesTotal.WithLabelValues("success").Inc()
	res.Duration = elapsed
	c.logger.Debug(
		"compiled circuit",
		zap.String("circuit", res.Circuit.Name),
		zap.String("fingerprint", c.presets.Fingerprint),
		zap.Int("operations", len(res.Circuit.Ops)),
		zap.Bool("retranslated", res.Retranslated),
		zap.Duration("duration", elapsed),
	)
	return res, nil
}

func (c *Compiler) compile(circ *circuit.Circuit) (*Result, error) {
	if circ == nil {
		return nil, &CompileError{Phase: PhaseValidate, Err: errors.New("nil circuit")}
	}
	if err := circ.Validate(); err != nil {
		return nil, &CompileError{Phase: PhaseValidate, Circuit: circ.Name, Err: err}
	}
	if n := c.presets.Target.NumQubits; circ.NumQubits > n {
		return nil, &CompileError{
			Phase:   PhaseValidate,
			Circuit: circ.Name,
			Err: errors.Errorf(
				"circuit has %d qubits, target %s has %d",
				circ.NumQubits,
				c.presets.Target.Name,
				n,
			),
		}
	}

	p := c.presets
	ps := passmanager.NewPropertySet()
	out, err := c.run(
		circ,
		ps,
		phase{PhaseDecomposition, p.Decomposition},
		phase{PhaseLayout, p.Layout},
		phase{PhaseEmbedding, p.Embedding},
		phase{PhaseRouting, p.Routing},
		phase{PhaseTranslation, p.Translation},
		phase{PhasePreOptimization, p.PreOptimization},
	)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	if directed, ok := passmanager.Get(ps, passmanager.IsDirectionMapped); ok && !directed {
		res.Retranslated = true
		if out, err = c.run(out, ps, phase{PhaseTranslation, p.Translation}); err != nil {
			return nil, err
		}
	}
	if out, err = c.run(out, ps, phase{PhaseScheduling, p.Scheduling}); err != nil {
		return nil, err
	}

	res.Circuit = out
	res.Properties = ps.Snapshot()
	return res, nil
}

// CompileBatch compiles independent circuits concurrently, each with its own
// property set. The first failure cancels the compilations not yet started
// and no results are returned.
func (c *Compiler) CompileBatch(
	ctx context.Context,
	circuits []*circuit.Circuit,
) ([]*Result, error) {
	results := make([]*Result, len(circuits))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(c.workers)
	for i, circ := range circuits {
		eg.Go(func() error {
			res, err := c.Compile(ctx, circ)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, errors.Wrap(err, "compile batch")
	}
	return results, nil
}

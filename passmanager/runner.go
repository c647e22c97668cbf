package passmanager

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"source.quilibrium.com/quilibrium/monorepo/transpiler/circuit"
)

// Runner executes pipelines. A Runner holds no per-run state and can be shared
// by concurrent compilations, each with its own circuit and property set.
type Runner struct {
	logger *zap.Logger
}

// NewRunner creates a runner logging through logger (nil disables logging).
func NewRunner(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger.Named("passmanager")}
}

// Run executes the stages of p in order against c. Each stage's condition is
// evaluated against the current property set right before the stage; when it
// does not hold, every pass of the stage is skipped. Passes of a running stage
// feed the circuit through in order. The first failing pass aborts the run
// with a *PassError and no circuit is returned.
func (r *Runner) Run(
	p *Pipeline,
	c *circuit.Circuit,
	ps *PropertySet,
) (*circuit.Circuit, error) {
	if ps == nil {
		return nil, errors.New("run: nil property set")
	}
	if c == nil {
		return nil, errors.New("run: nil circuit")
	}

	for i, stage := range p.stages {
		if stage.Condition != nil && !stage.Condition.Eval(ps) {
			stagesTotal.WithLabelValues(p.name, "skipped").Inc()
			r.logger.Debug(
				"skipping stage",
				zap.String("pipeline", p.name),
				zap.Int("stage", i),
				zap.Stringer("condition", stage.Condition),
			)
			continue
		}
		stagesTotal.WithLabelValues(p.name, "ran").Inc()
		r.logger.Debug(
			"running stage",
			zap.String("pipeline", p.name),
			zap.Int("stage", i),
			zap.Strings("passes", stage.PassNames()),
		)

		for _, pass := range stage.Passes {
			next, err := r.runPass(pass, c, ps)
			if err != nil {
				passFailuresTotal.WithLabelValues(p.name, pass.Name()).Inc()
				r.logger.Error(
					"pass failed",
					zap.String("pipeline", p.name),
					zap.Int("stage", i),
					zap.String("pass", pass.Name()),
					zap.Error(err),
				)
				return nil, &PassError{
					Pipeline: p.name,
					Stage:    i,
					Pass:     pass.Name(),
					Err:      err,
				}
			}
			c = next
		}
	}

	return c, nil
}

func (r *Runner) runPass(
	pass Pass,
	c *circuit.Circuit,
	ps *PropertySet,
) (*circuit.Circuit, error) {
	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		passDuration.WithLabelValues(pass.Name()).Observe(elapsed.Seconds())
		r.logger.Debug(
			"pass finished",
			zap.String("pass", pass.Name()),
			zap.Duration("duration", elapsed),
		)
	}()

	switch p := pass.(type) {
	case AnalysisPass:
		if err := p.Analyze(c, ps); err != nil {
			return nil, err
		}
		return c, nil
	case TransformationPass:
		out, err := p.Transform(c, ps)
		if err != nil {
			return nil, err
		}
		if out == nil {
			return nil, errors.Errorf("%s returned no circuit", pass.Name())
		}
		return out, nil
	default:
		return nil, errors.Errorf(
			"%s is neither an analysis nor a transformation pass",
			pass.Name(),
		)
	}
}

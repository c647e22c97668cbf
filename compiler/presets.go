package compiler

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"

	"source.quilibrium.com/quilibrium/monorepo/transpiler/config"
	"source.quilibrium.com/quilibrium/monorepo/transpiler/passmanager"
	"source.quilibrium.com/quilibrium/monorepo/transpiler/presets"
	"source.quilibrium.com/quilibrium/monorepo/transpiler/target"
)

const defaultPresetCacheSize = 64

// Presets are the pipelines assembled for one target and configuration.
type Presets struct {
	Target          *target.Target
	Config          config.TranspileConfig
	Fingerprint     string
	Decomposition   *passmanager.Pipeline
	Layout          *passmanager.Pipeline
	Embedding       *passmanager.Pipeline
	Routing         *passmanager.Pipeline
	Translation     *passmanager.Pipeline
	PreOptimization *passmanager.Pipeline
	Scheduling      *passmanager.Pipeline
}

// Pipelines returns the pipelines in the order they first run.
func (p *Presets) Pipelines() []*passmanager.Pipeline {
	return []*passmanager.Pipeline{
		p.Decomposition,
		p.Layout,
		p.Embedding,
		p.Routing,
		p.Translation,
		p.PreOptimization,
		p.Scheduling,
	}
}

// Assemble builds every pipeline for t and cfg. Defaults are applied to cfg.
// Without a coupling map, layout, embedding and routing are empty.
func Assemble(t *target.Target, cfg config.TranspileConfig) (*Presets, error) {
	if t == nil {
		return nil, errors.New("assemble: nil target")
	}
	cfg = cfg.WithDefaults()
	budget := presets.CallBudget(cfg.Level(), cfg.LayoutMethod, cfg.InitialLayout)
	out := &Presets{Target: t, Config: cfg}

	var err error
	out.Decomposition, err = presets.AssembleDecomposition(t, presets.DecompositionOptions{
		BasisGates:                   cfg.BasisGates,
		ApproximationDegree:          cfg.ApproximationDegree,
		UnitarySynthesisMethod:       cfg.UnitarySynthesisMethod,
		UnitarySynthesisPluginConfig: cfg.UnitarySynthesisPluginConfig,
	})
	if err != nil {
		return nil, errors.Wrap(err, "assemble")
	}

	routing, err := presets.RoutingPass(cfg.RoutingMethod, t.Coupling)
	if err != nil {
		return nil, errors.Wrap(err, "assemble")
	}
	if _, err := presets.ParseLayoutMethod(cfg.LayoutMethod); err != nil {
		return nil, errors.Wrap(err, "assemble")
	}
	if t.Coupling == nil {
		out.Layout = passmanager.New(presets.LayoutPipeline)
		out.Embedding = passmanager.New(presets.EmbeddingPipeline)
		out.Routing = passmanager.New(presets.RoutingPipeline)
	} else {
		out.Layout, err = presets.AssembleLayout(presets.LayoutOptions{
			Coupling:      t.Coupling,
			InitialLayout: cfg.InitialLayout,
			LayoutMethod:  cfg.LayoutMethod,
			CallLimit:     budget,
			Errors:        t.Errors,
			Seed:          cfg.SeedTranspiler,
		})
		if err != nil {
			return nil, errors.Wrap(err, "assemble")
		}
		out.Embedding, err = presets.AssembleEmbedding(t.Coupling)
		if err != nil {
			return nil, errors.Wrap(err, "assemble")
		}
		out.Routing, err = presets.AssembleRouting(routing, t, presets.RoutingOptions{
			Coupling:                 t.Coupling,
			CallLimit:                budget,
			Seed:                     cfg.SeedTranspiler,
			CheckTrivial:             *cfg.CheckTrivial,
			BarrierBeforeMeasurement: *cfg.BarrierBeforeMeasurement,
		})
		if err != nil {
			return nil, errors.Wrap(err, "assemble")
		}
	}

	out.Translation, err = presets.AssembleTranslation(t, presets.TranslationOptions{
		BasisGates:                   cfg.BasisGates,
		Method:                       cfg.TranslationMethod,
		ApproximationDegree:          cfg.ApproximationDegree,
		Coupling:                     t.Coupling,
		UnitarySynthesisMethod:       cfg.UnitarySynthesisMethod,
		UnitarySynthesisPluginConfig: cfg.UnitarySynthesisPluginConfig,
	})
	if err != nil {
		return nil, errors.Wrap(err, "assemble")
	}
	out.PreOptimization, err = presets.AssemblePreOptimization(
		t,
		presets.PreOptimizationOptions{
			Coupling:          t.Coupling,
			RemoveResetInZero: cfg.RemoveResetInZero,
		},
	)
	if err != nil {
		return nil, errors.Wrap(err, "assemble")
	}
	out.Scheduling, err = presets.AssembleScheduling(presets.SchedulingOptions{
		Durations: t.Durations,
		Method:    cfg.SchedulingMethod,
		Timing:    t.Timing,
		InstMap:   t.InstMap,
	})
	if err != nil {
		return nil, errors.Wrap(err, "assemble")
	}

	if err := out.verify(); err != nil {
		return nil, errors.Wrap(err, "assemble")
	}
	return out, nil
}

// verify checks each pipeline's conditions only read keys written earlier in
// the pipeline or by a pipeline that runs before it.
func (p *Presets) verify() error {
	var provided []string
	for _, pl := range p.Pipelines() {
		if err := passmanager.VerifyDataFlow(pl, provided...); err != nil {
			return err
		}
		provided = append(provided, pl.Writes()...)
	}
	return nil
}

// PresetCache keeps assembled presets by configuration fingerprint.
type PresetCache struct {
	cache *lru.Cache[string, *Presets]
}

// NewPresetCache creates a cache holding up to size preset sets; a size of
// zero takes the default.
func NewPresetCache(size int) (*PresetCache, error) {
	if size <= 0 {
		size = defaultPresetCacheSize
	}
	cache, err := lru.New[string, *Presets](size)
	if err != nil {
		return nil, errors.Wrap(err, "new preset cache")
	}
	return &PresetCache{cache: cache}, nil
}

// Get returns the presets for the target file and configuration, assembling
// them on a miss. A nil cache always assembles.
func (c *PresetCache) Get(
	tc *config.TargetConfig,
	cfg config.TranspileConfig,
) (*Presets, bool, error) {
	fingerprint, err := config.Fingerprint(tc, cfg)
	if err != nil {
		return nil, false, errors.Wrap(err, "get presets")
	}
	if c != nil {
		if p, ok := c.cache.Get(fingerprint); ok {
			presetCacheTotal.WithLabelValues("hit").Inc()
			return p, true, nil
		}
		presetCacheTotal.WithLabelValues("miss").Inc()
	}

	t, err := tc.ToTarget()
	if err != nil {
		return nil, false, errors.Wrap(err, "get presets")
	}
	p, err := Assemble(t, cfg)
	if err != nil {
		return nil, false, errors.Wrap(err, "get presets")
	}
	p.Fingerprint = fingerprint
	if c != nil {
		c.cache.Add(fingerprint, p)
	}
	return p, false, nil
}

// Len returns the number of cached preset sets.
func (c *PresetCache) Len() int {
	if c == nil {
		return 0
	}
	return c.cache.Len()
}

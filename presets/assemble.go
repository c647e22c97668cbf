// Package presets assembles the pass pipelines of the preset compilation
// flow. Assembly is pure: every configuration error is raised here, before a
// circuit is seen, and the returned pipelines are immutable.
package presets

import (
	"github.com/pkg/errors"

	"source.quilibrium.com/quilibrium/monorepo/transpiler/passes"
	"source.quilibrium.com/quilibrium/monorepo/transpiler/passmanager"
	"source.quilibrium.com/quilibrium/monorepo/transpiler/target"
)

// Pipeline names, in the order the compiler runs them.
const (
	DecompositionPipeline   = "decomposition"
	LayoutPipeline          = "layout"
	EmbeddingPipeline       = "embedding"
	RoutingPipeline         = "routing"
	TranslationPipeline     = "translation"
	PreOptimizationPipeline = "pre-optimization"
	SchedulingPipeline      = "scheduling"
)

func basisFor(t *target.Target, explicit []string) passes.Basis {
	if explicit != nil {
		return passes.Basis(explicit)
	}
	if t != nil {
		return passes.Basis(t.BasisGates)
	}
	return nil
}

// DecompositionOptions configure AssembleDecomposition.
type DecompositionOptions struct {
	// BasisGates overrides the target's native set.
	BasisGates []string
	// ApproximationDegree is nil for exact synthesis.
	ApproximationDegree          *float64
	UnitarySynthesisMethod       string
	UnitarySynthesisPluginConfig map[string]any
}

// AssembleDecomposition builds the pipeline that removes every operation on
// three or more qubits: unitary synthesis of wide unitaries, high level
// synthesis, then unrolling of what remains. Every stage runs.
func AssembleDecomposition(
	t *target.Target,
	opts DecompositionOptions,
) (*passmanager.Pipeline, error) {
	if err := checkSynthesisMethod(opts.UnitarySynthesisMethod); err != nil {
		return nil, err
	}
	basis := basisFor(t, opts.BasisGates)
	var coupling *target.CouplingMap
	if t != nil {
		coupling = t.Coupling
	}

	return passmanager.New(
		DecompositionPipeline,
		passmanager.Always(passes.UnitarySynthesis{
			Basis:               basis,
			MinQubits:           3,
			ApproximationDegree: opts.ApproximationDegree,
			Method:              opts.UnitarySynthesisMethod,
			PluginConfig:        opts.UnitarySynthesisPluginConfig,
			Coupling:            coupling,
		}),
		passmanager.Always(passes.HighLevelSynthesis{Basis: basis}),
		passmanager.Always(passes.Unroll3qOrMore{Basis: basis}),
	), nil
}

// LayoutOptions configure AssembleLayout.
type LayoutOptions struct {
	Coupling      *target.CouplingMap
	InitialLayout []int
	LayoutMethod  string
	// CallLimit bounds the layout search; nil disables it for the default
	// method and leaves it unbounded for "vf2".
	CallLimit *int
	Errors    target.ErrorMap
	Seed      *int64
}

// AssembleLayout builds the pipeline that chooses the initial layout consumed
// by the embedding pipeline. A given initial layout always wins. Otherwise the
// default method takes the trivial layout and, when it is imperfect and a
// call budget is set, searches for a perfect one.
func AssembleLayout(opts LayoutOptions) (*passmanager.Pipeline, error) {
	method, err := ParseLayoutMethod(opts.LayoutMethod)
	if err != nil {
		return nil, err
	}
	if opts.Coupling == nil {
		return nil, &ConfigError{Field: "coupling_map", Value: "<nil>"}
	}

	set := passmanager.Always(passes.SetLayout{Initial: opts.InitialLayout})
	trivial := passes.TrivialLayout{Coupling: opts.Coupling}
	vf2 := passes.VF2Layout{
		Coupling:  opts.Coupling,
		Errors:    opts.Errors,
		CallLimit: opts.CallLimit,
		Seed:      opts.Seed,
	}

	switch method {
	case LayoutTrivial:
		return passmanager.New(
			LayoutPipeline,
			set,
			passmanager.When(passmanager.LayoutUnset{}, trivial),
		), nil
	case LayoutVF2:
		return passmanager.New(
			LayoutPipeline,
			set,
			passmanager.When(passmanager.LayoutUnset{}, vf2),
			passmanager.When(passmanager.LayoutUnset{}, trivial),
		), nil
	}

	stages := []passmanager.Stage{
		set,
		passmanager.When(
			passmanager.LayoutUnset{},
			trivial,
			passes.TrivialLayoutScore{Coupling: opts.Coupling},
		),
	}
	if opts.CallLimit != nil {
		stages = append(stages, passmanager.When(passmanager.RunVF2Layout{}, vf2))
	}
	return passmanager.New(LayoutPipeline, stages...), nil
}

// AssembleEmbedding builds the pipeline that expands the chosen layout to the
// whole device and applies it: ancilla allocation, circuit widening, layout
// application. Every stage runs.
func AssembleEmbedding(coupling *target.CouplingMap) (*passmanager.Pipeline, error) {
	if coupling == nil {
		return nil, &ConfigError{Field: "coupling_map", Value: "<nil>"}
	}
	return passmanager.New(
		EmbeddingPipeline,
		passmanager.Always(passes.FullAncillaAllocation{Coupling: coupling}),
		passmanager.Always(passes.EnlargeWithAncilla{}),
		passmanager.Always(passes.ApplyLayout{}),
	), nil
}

// RoutingOptions configure AssembleRouting.
type RoutingOptions struct {
	Coupling *target.CouplingMap
	// CallLimit bounds the post routing layout search. Without one the
	// search is not built.
	CallLimit *int
	// Errors overrides the target's error rates.
	Errors target.ErrorMap
	Seed   *int64
	// CheckTrivial gates the post routing search on the trivial layout
	// having been imperfect.
	CheckTrivial             bool
	BarrierBeforeMeasurement bool
}

// AssembleRouting builds the routing pipeline around a routing transformation.
//
//	0 [always] CheckMap
//	1 [not is_swap_mapped] BarrierBeforeFinalMeasurements?, routing
//	2 [run_post_layout] VF2PostLayout
//	3 [apply_post_layout] ApplyLayout
//
// Stages 2 and 3 are built only when a target or error rates are known and a
// call budget is given.
func AssembleRouting(
	routing passmanager.TransformationPass,
	t *target.Target,
	opts RoutingOptions,
) (*passmanager.Pipeline, error) {
	if routing == nil {
		return nil, &ConfigError{Field: "routing_pass", Value: "<nil>"}
	}
	if opts.Coupling == nil {
		return nil, &ConfigError{Field: "coupling_map", Value: "<nil>"}
	}

	swap := []passmanager.Pass{routing}
	if opts.BarrierBeforeMeasurement {
		swap = []passmanager.Pass{passes.BarrierBeforeFinalMeasurements{}, routing}
	}
	stages := []passmanager.Stage{
		passmanager.Always(passes.CheckMap{Coupling: opts.Coupling}),
		passmanager.When(passmanager.Not(passmanager.IsSwapMapped), swap...),
	}

	rates := opts.Errors
	if rates == nil && t != nil {
		rates = t.Errors
	}
	if (t != nil || len(opts.Errors) > 0) && opts.CallLimit != nil {
		stages = append(
			stages,
			passmanager.When(
				passmanager.RunPostLayout{CheckTrivial: opts.CheckTrivial},
				passes.VF2PostLayout{
					Coupling:        opts.Coupling,
					Errors:          rates,
					CallLimit:       opts.CallLimit,
					Seed:            opts.Seed,
					StrictDirection: false,
				},
			),
			passmanager.When(passmanager.ApplyPostLayout{}, passes.ApplyLayout{}),
		)
	}
	return passmanager.New(RoutingPipeline, stages...), nil
}

// PreOptimizationOptions configure AssemblePreOptimization.
type PreOptimizationOptions struct {
	// Coupling is optional; without it gate direction is left alone.
	Coupling          *target.CouplingMap
	RemoveResetInZero bool
}

// AssemblePreOptimization builds the pipeline that fixes two-qubit gate
// direction against the coupling map and optionally drops resets of qubits
// still in the zero state. With neither a coupling map nor reset removal the
// pipeline is empty.
func AssemblePreOptimization(
	t *target.Target,
	opts PreOptimizationOptions,
) (*passmanager.Pipeline, error) {
	var stages []passmanager.Stage
	if opts.Coupling != nil {
		stages = append(
			stages,
			passmanager.Always(passes.CheckGateDirection{Coupling: opts.Coupling}),
			passmanager.When(
				passmanager.Not(passmanager.IsDirectionMapped),
				passes.GateDirection{Coupling: opts.Coupling},
			),
		)
	}
	if opts.RemoveResetInZero {
		stages = append(stages, passmanager.Always(passes.RemoveResetInZeroState{}))
	}
	return passmanager.New(PreOptimizationPipeline, stages...), nil
}

// TranslationOptions configure AssembleTranslation.
type TranslationOptions struct {
	BasisGates []string
	// Method is one of legacy-unroll, translator or synthesis.
	Method                       string
	ApproximationDegree          *float64
	Coupling                     *target.CouplingMap
	UnitarySynthesisMethod       string
	UnitarySynthesisPluginConfig map[string]any
	// Library overrides the standard equivalence library.
	Library *passes.EquivalenceLibrary
}

// AssembleTranslation builds the pipeline translating to the native set with
// the selected method. The method is fixed here; every stage runs.
func AssembleTranslation(
	t *target.Target,
	opts TranslationOptions,
) (*passmanager.Pipeline, error) {
	method, err := ParseTranslationMethod(opts.Method)
	if err != nil {
		return nil, err
	}
	if err := checkSynthesisMethod(opts.UnitarySynthesisMethod); err != nil {
		return nil, err
	}
	basis := basisFor(t, opts.BasisGates)
	lib := opts.Library
	if lib == nil {
		lib = passes.StandardEquivalenceLibrary()
	}
	synth := func(minQubits int) passes.UnitarySynthesis {
		return passes.UnitarySynthesis{
			Basis:               basis,
			MinQubits:           minQubits,
			ApproximationDegree: opts.ApproximationDegree,
			Method:              opts.UnitarySynthesisMethod,
			PluginConfig:        opts.UnitarySynthesisPluginConfig,
			Coupling:            opts.Coupling,
		}
	}

	var list []passmanager.Pass
	switch method {
	case TranslationLegacyUnroll:
		list = []passmanager.Pass{passes.Unroller{Basis: basis, Library: lib}}
	case TranslationTranslator:
		list = []passmanager.Pass{
			synth(0),
			passes.HighLevelSynthesis{Basis: basis},
			passes.UnrollCustomDefinitions{Basis: basis, Library: lib},
			passes.BasisTranslator{Basis: basis, Library: lib},
		}
	case TranslationSynthesis:
		list = []passmanager.Pass{
			synth(3),
			passes.HighLevelSynthesis{Basis: basis},
			passes.Unroll3qOrMore{Basis: basis},
			passes.Collect2qBlocks{},
			passes.Collect1qRuns{},
			passes.ConsolidateBlocks{Basis: basis},
			synth(0),
			passes.HighLevelSynthesis{Basis: basis},
		}
	default:
		return nil, errors.Errorf("assemble translation: unhandled method %s", method)
	}
	return passmanager.New(TranslationPipeline, passmanager.Always(list...)), nil
}

// SchedulingOptions configure AssembleScheduling.
type SchedulingOptions struct {
	Durations *target.InstructionDurations
	// Method is alap, asap (or their long forms) or empty for no scheduling.
	Method string
	// Timing zero fields are read as 1.
	Timing  target.TimingConstraints
	InstMap *target.InstructionScheduleMap
}

// AssembleScheduling builds the scheduling pipeline:
//
//   - custom pulse gates are attached first when the instruction map has any;
//   - with a method, units are normalized and the circuit is scheduled;
//     without one, delays alone get their units normalized if a duration
//     table exists;
//   - non-default timing constraints add the alignment check, a conditional
//     reschedule and pulse gate validation, scheduled or not;
//   - scheduled circuits finally get their idle time padded with delays.
func AssembleScheduling(opts SchedulingOptions) (*passmanager.Pipeline, error) {
	method, err := ParseSchedulingMethod(opts.Method)
	if err != nil {
		return nil, err
	}
	timing := opts.Timing.WithDefaults()
	if err := timing.Validate(); err != nil {
		return nil, &ConfigError{Field: "timing_constraints", Value: err.Error()}
	}

	var stages []passmanager.Stage
	if opts.InstMap.HasCustomGate() {
		stages = append(stages, passmanager.Always(passes.PulseGates{InstMap: opts.InstMap}))
	}

	convert := passes.TimeUnitConversion{Durations: opts.Durations}
	switch method {
	case SchedulingALAP:
		stages = append(
			stages,
			passmanager.Always(convert),
			passmanager.Always(passes.ALAPScheduleAnalysis{}),
		)
	case SchedulingASAP:
		stages = append(
			stages,
			passmanager.Always(convert),
			passmanager.Always(passes.ASAPScheduleAnalysis{}),
		)
	case SchedulingNone:
		if !opts.Durations.Empty() {
			stages = append(
				stages,
				passmanager.Always(passes.ContainsDelay()),
				passmanager.When(passmanager.Flag(passmanager.ContainsDelay), convert),
			)
		}
	}

	if !timing.IsDefault() {
		dt := 0.0
		if opts.Durations != nil {
			dt = opts.Durations.DT
		}
		stages = append(
			stages,
			passmanager.Always(passes.InstructionDurationCheck{
				AcquireAlignment: timing.AcquireAlignment,
				PulseAlignment:   timing.PulseAlignment,
				DT:               dt,
			}),
			passmanager.When(
				passmanager.Flag(passmanager.RescheduleRequired),
				passes.ConstrainedReschedule{
					AcquireAlignment: timing.AcquireAlignment,
					PulseAlignment:   timing.PulseAlignment,
				},
			),
			passmanager.Always(passes.ValidatePulseGates{
				Granularity: timing.Granularity,
				MinLength:   timing.MinLength,
			}),
		)
	}

	if method != SchedulingNone {
		stages = append(stages, passmanager.Always(passes.PadDelay{}))
	}
	return passmanager.New(SchedulingPipeline, stages...), nil
}

package presets

import (
	"source.quilibrium.com/quilibrium/monorepo/transpiler/passes"
	"source.quilibrium.com/quilibrium/monorepo/transpiler/passmanager"
	"source.quilibrium.com/quilibrium/monorepo/transpiler/target"
)

// TranslationMethod selects how circuits are translated to the native set.
type TranslationMethod int

const (
	TranslationLegacyUnroll TranslationMethod = iota + 1
	TranslationTranslator
	TranslationSynthesis
)

var translationMethodName = map[TranslationMethod]string{
	TranslationLegacyUnroll: "legacy-unroll",
	TranslationTranslator:   "translator",
	TranslationSynthesis:    "synthesis",
}

func (m TranslationMethod) String() string {
	if name, ok := translationMethodName[m]; ok {
		return name
	}
	return "unknown"
}

// ParseTranslationMethod resolves a translation method name. "unroller" is
// accepted for legacy-unroll.
func ParseTranslationMethod(name string) (TranslationMethod, error) {
	switch name {
	case "legacy-unroll", "unroller":
		return TranslationLegacyUnroll, nil
	case "translator":
		return TranslationTranslator, nil
	case "synthesis":
		return TranslationSynthesis, nil
	}
	return 0, &ConfigError{
		Field:   "translation_method",
		Value:   name,
		Allowed: []string{"legacy-unroll", "translator", "synthesis"},
	}
}

// SchedulingMethod selects the schedule analysis. The zero value means the
// circuit is not scheduled.
type SchedulingMethod int

const (
	SchedulingNone SchedulingMethod = iota
	SchedulingALAP
	SchedulingASAP
)

var schedulingMethodName = map[SchedulingMethod]string{
	SchedulingNone: "none",
	SchedulingALAP: "alap",
	SchedulingASAP: "asap",
}

func (m SchedulingMethod) String() string {
	if name, ok := schedulingMethodName[m]; ok {
		return name
	}
	return "unknown"
}

// ParseSchedulingMethod resolves a scheduling method name; the empty name is
// SchedulingNone.
func ParseSchedulingMethod(name string) (SchedulingMethod, error) {
	switch name {
	case "":
		return SchedulingNone, nil
	case "alap", "as-late-as-possible", "as_late_as_possible":
		return SchedulingALAP, nil
	case "asap", "as-soon-as-possible", "as_soon_as_possible":
		return SchedulingASAP, nil
	}
	return 0, &ConfigError{
		Field:   "scheduling_method",
		Value:   name,
		Allowed: []string{"alap", "as-late-as-possible", "asap", "as-soon-as-possible"},
	}
}

// LayoutMethod selects how the initial layout is chosen when none is given.
type LayoutMethod int

const (
	// LayoutDefault tries the trivial layout and, within the call budget, a
	// perfect layout search when the trivial one is imperfect.
	LayoutDefault LayoutMethod = iota
	LayoutTrivial
	LayoutVF2
)

// ParseLayoutMethod resolves a layout method name.
func ParseLayoutMethod(name string) (LayoutMethod, error) {
	switch name {
	case "":
		return LayoutDefault, nil
	case "trivial":
		return LayoutTrivial, nil
	case "vf2":
		return LayoutVF2, nil
	}
	return 0, &ConfigError{
		Field:   "layout_method",
		Value:   name,
		Allowed: []string{"trivial", "vf2"},
	}
}

// RoutingPass builds the routing transformation named by method.
func RoutingPass(
	method string,
	coupling *target.CouplingMap,
) (passmanager.TransformationPass, error) {
	switch method {
	case "", "basic":
		return passes.BasicSwap{Coupling: coupling}, nil
	}
	return nil, &ConfigError{
		Field:   "routing_method",
		Value:   method,
		Allowed: []string{"basic"},
	}
}

func checkSynthesisMethod(method string) error {
	if method == "" {
		return nil
	}
	if _, ok := passes.LookupUnitarySynthesisPlugin(method); !ok {
		return &ConfigError{
			Field:   "unitary_synthesis_method",
			Value:   method,
			Allowed: passes.UnitarySynthesisMethods(),
		}
	}
	return nil
}

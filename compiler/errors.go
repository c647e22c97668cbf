package compiler

import (
	"fmt"
)

// CompileError is a failed compilation. Nothing of the compilation is
// returned with it.
type CompileError struct {
	Phase   CompilePhase
	Circuit string
	Err     error // origin error
}

type CompilePhase int

const (
	PhaseAssemble CompilePhase = iota
	PhaseValidate
	PhaseDecomposition
	PhaseLayout
	PhaseEmbedding
	PhaseRouting
	PhaseTranslation
	PhasePreOptimization
	PhaseScheduling
)

var phaseName = map[CompilePhase]string{
	PhaseAssemble:        "assemble",
	PhaseValidate:        "validate",
	PhaseDecomposition:   "decomposition",
	PhaseLayout:          "layout",
	PhaseEmbedding:       "embedding",
	PhaseRouting:         "routing",
	PhaseTranslation:     "translation",
	PhasePreOptimization: "pre-optimization",
	PhaseScheduling:      "scheduling",
}

func (p CompilePhase) String() string {
	return phaseName[p]
}

func (e *CompileError) Error() string {
	if e.Circuit == "" {
		return fmt.Sprintf("Compile error [%s]: %v", e.Phase, e.Err)
	}
	return fmt.Sprintf("Compile error [%s] %s: %v", e.Phase, e.Circuit, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

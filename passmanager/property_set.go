package passmanager

import (
	"maps"
	"slices"

	"source.quilibrium.com/quilibrium/monorepo/transpiler/circuit"
)

// Key names a typed property set entry. Keys can only be declared in this
// package, so the set of keys is closed and a misspelled key is a compile
// error rather than a read that is silently always absent.
type Key[T any] struct {
	name string
}

func newKey[T any](name string) Key[T] {
	k := Key[T]{name: name}
	keyNames = append(keyNames, name)
	return k
}

// Name returns the key's name as it appears in diagnostics.
func (k Key[T]) Name() string {
	return k.name
}

var keyNames []string

// The property set keys. Each comment names the writer.
var (
	// CheckMap
	IsSwapMapped = newKey[bool]("is_swap_mapped")
	// CheckGateDirection
	IsDirectionMapped = newKey[bool]("is_direction_mapped")
	// TrivialLayoutScore; 0 means every two-qubit operation is on an edge.
	TrivialLayoutScore = newKey[int]("trivial_layout_score")
	// VF2Layout
	VF2LayoutStopReason = newKey[StopReason]("vf2_layout_stop_reason")
	// VF2PostLayout
	VF2PostLayoutStopReason = newKey[StopReason](
		"vf2_post_layout_stop_reason",
	)
	// ContainsInstruction("delay")
	ContainsDelay = newKey[bool]("contains_delay")
	// InstructionDurationCheck
	RescheduleRequired = newKey[bool]("reschedule_required")
	// SetLayout, TrivialLayout, VF2Layout, FullAncillaAllocation, ApplyLayout
	Layout = newKey[*circuit.Layout]("layout")
	// VF2PostLayout; consumed and cleared by ApplyLayout
	PostLayout = newKey[*circuit.Layout]("post_layout")
	// routing passes
	FinalLayout = newKey[*circuit.Layout]("final_layout")
	// schedule analyses, ConstrainedReschedule
	NodeStartTime = newKey[map[int]int]("node_start_time")
	// Collect2qBlocks
	BlockList = newKey[[][]int]("block_list")
	// Collect1qRuns
	RunList = newKey[[][]int]("run_list")
)

// KeyNames lists every declared key name.
func KeyNames() []string {
	return slices.Clone(keyNames)
}

// StopReason is why a VF2 layout search stopped.
type StopReason int

const (
	SolutionFound StopReason = iota + 1
	NoSolutionFound
	NoBetterSolutionFound
	MoreThan2Q
)

var stopReasonName = map[StopReason]string{
	SolutionFound:         "solution found",
	NoSolutionFound:       "nonexistent solution",
	NoBetterSolutionFound: "no better solution found",
	MoreThan2Q:            ">2q gates in basis",
}

func (r StopReason) String() string {
	if name, ok := stopReasonName[r]; ok {
		return name
	}
	return "unknown"
}

// PropertySet is the shared state threaded through every pipeline run of one
// compilation. It is owned by a single goroutine and must not be shared
// between compilations.
type PropertySet struct {
	values map[string]any
}

// NewPropertySet creates an empty property set.
func NewPropertySet() *PropertySet {
	return &PropertySet{values: map[string]any{}}
}

// Get returns the value stored under key. Reading an absent key yields the
// zero value and false.
func Get[T any](ps *PropertySet, key Key[T]) (T, bool) {
	var zero T
	if ps == nil {
		return zero, false
	}
	v, ok := ps.values[key.name]
	if !ok {
		return zero, false
	}
	return v.(T), true
}

// Set stores value under key.
func Set[T any](ps *PropertySet, key Key[T], value T) {
	ps.values[key.name] = value
}

// Delete removes key.
func Delete[T any](ps *PropertySet, key Key[T]) {
	delete(ps.values, key.name)
}

// Has reports whether a value is stored under the named key.
func (ps *PropertySet) Has(name string) bool {
	if ps == nil {
		return false
	}
	_, ok := ps.values[name]
	return ok
}

// Keys returns the names of the set keys in ascending order.
func (ps *PropertySet) Keys() []string {
	return slices.Sorted(maps.Keys(ps.values))
}

// Snapshot returns a shallow copy of the entries keyed by name, for
// diagnostics.
func (ps *PropertySet) Snapshot() map[string]any {
	return maps.Clone(ps.values)
}

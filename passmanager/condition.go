package passmanager

import "fmt"

// Condition is a stage predicate: a pure, total function over the property
// set. Implementations must treat every absent key as a documented default
// and never panic.
type Condition interface {
	fmt.Stringer
	// Reads returns the names of the keys the condition inspects.
	Reads() []string
	// Eval reports whether the stage should run.
	Eval(ps *PropertySet) bool
}

type notCondition struct {
	key Key[bool]
}

// Not holds when key is false or absent.
func Not(key Key[bool]) Condition {
	return notCondition{key: key}
}

func (c notCondition) String() string  { return "not " + c.key.name }
func (c notCondition) Reads() []string { return []string{c.key.name} }

func (c notCondition) Eval(ps *PropertySet) bool {
	v, _ := Get(ps, c.key)
	return !v
}

type flagCondition struct {
	key Key[bool]
}

// Flag holds when key is true. An absent key is false.
func Flag(key Key[bool]) Condition {
	return flagCondition{key: key}
}

func (c flagCondition) String() string  { return c.key.name }
func (c flagCondition) Reads() []string { return []string{c.key.name} }

func (c flagCondition) Eval(ps *PropertySet) bool {
	v, _ := Get(ps, c.key)
	return v
}

// TrivialNotPerfect reports whether a trivial layout was scored and found to
// leave at least one two-qubit operation off the coupling map. An absent
// score is not imperfect.
func TrivialNotPerfect(ps *PropertySet) bool {
	score, ok := Get(ps, TrivialLayoutScore)
	return ok && score != 0
}

// RunPostLayout gates the post-routing VF2 search. It holds when trivial
// layouts are not being checked, or the trivial layout was imperfect, and in
// either case the pre-routing VF2 search did not already find a solution. An
// absent VF2 stop reason counts as no solution.
type RunPostLayout struct {
	CheckTrivial bool
}

func (c RunPostLayout) String() string {
	return fmt.Sprintf("run_post_layout(check_trivial=%t)", c.CheckTrivial)
}

func (c RunPostLayout) Reads() []string {
	if !c.CheckTrivial {
		return []string{VF2LayoutStopReason.name}
	}
	return []string{TrivialLayoutScore.name, VF2LayoutStopReason.name}
}

func (c RunPostLayout) Eval(ps *PropertySet) bool {
	if c.CheckTrivial && !TrivialNotPerfect(ps) {
		return false
	}
	reason, ok := Get(ps, VF2LayoutStopReason)
	return !ok || reason != SolutionFound
}

// ApplyPostLayout gates re-applying the post-routing layout: it holds only
// when the post-routing search reported a solution. A search that never ran
// (absent reason) and a search that ran without a usable layout (any other
// reason) are distinct cases and both skip.
type ApplyPostLayout struct{}

func (ApplyPostLayout) String() string { return "apply_post_layout" }

func (ApplyPostLayout) Reads() []string {
	return []string{VF2PostLayoutStopReason.name}
}

func (ApplyPostLayout) Eval(ps *PropertySet) bool {
	reason, ok := Get(ps, VF2PostLayoutStopReason)
	if !ok {
		return false
	}
	return reason == SolutionFound
}

// LayoutUnset holds when no layout has been chosen yet.
type LayoutUnset struct{}

func (LayoutUnset) String() string  { return "layout_unset" }
func (LayoutUnset) Reads() []string { return []string{Layout.name} }

func (LayoutUnset) Eval(ps *PropertySet) bool {
	l, ok := Get(ps, Layout)
	return !ok || l == nil
}

// RunVF2Layout gates the pre-routing VF2 search: it holds when the trivial
// layout was scored imperfect. When the score is absent, a layout was given
// up front and the search is skipped.
type RunVF2Layout struct{}

func (RunVF2Layout) String() string  { return "trivial_not_perfect" }
func (RunVF2Layout) Reads() []string { return []string{TrivialLayoutScore.name} }

func (RunVF2Layout) Eval(ps *PropertySet) bool {
	return TrivialNotPerfect(ps)
}

package passes

import (
	"math"
	"slices"

	"github.com/pkg/errors"

	"source.quilibrium.com/quilibrium/monorepo/transpiler/circuit"
	"source.quilibrium.com/quilibrium/monorepo/transpiler/passmanager"
	"source.quilibrium.com/quilibrium/monorepo/transpiler/target"
)

// ContainsInstruction records whether the circuit holds an operation named
// Instruction, under Key.
type ContainsInstruction struct {
	Instruction string
	Key         passmanager.Key[bool]
}

// ContainsDelay builds the ContainsInstruction pass writing contains_delay.
func ContainsDelay() ContainsInstruction {
	return ContainsInstruction{
		Instruction: circuit.Delay,
		Key:         passmanager.ContainsDelay,
	}
}

func (ContainsInstruction) Name() string { return "ContainsInstruction" }

func (p ContainsInstruction) Writes() []string {
	return []string{p.Key.Name()}
}

func (p ContainsInstruction) Analyze(
	c *circuit.Circuit,
	ps *passmanager.PropertySet,
) error {
	passmanager.Set(ps, p.Key, c.Count(p.Instruction) > 0)
	return nil
}

// TimeUnitConversion normalizes every time value of the circuit to a single
// unit: dt when the sample time is known or everything is already in dt,
// seconds when everything is in SI units. Delays are converted; gates are
// annotated with their duration from the circuit's calibrations or the
// duration table. Gates without a known duration stay unannotated.
type TimeUnitConversion struct {
	Durations *target.InstructionDurations
}

func (TimeUnitConversion) Name() string { return "TimeUnitConversion" }

func (p TimeUnitConversion) Transform(
	c *circuit.Circuit,
	ps *passmanager.PropertySet,
) (*circuit.Circuit, error) {
	dt := 0.0
	if p.Durations != nil {
		dt = p.Durations.DT
	}

	units := p.Durations.Units()
	for _, op := range c.Ops {
		if op.Name == circuit.Delay {
			units = append(units, delayUnit(op))
		}
	}
	allDT, allSI := true, true
	for _, u := range units {
		allDT = allDT && u == target.UnitDT
		allSI = allSI && target.IsSIUnit(u)
	}

	unit := ""
	switch {
	case allDT, dt > 0:
		unit = target.UnitDT
	case allSI:
		unit = "s"
	default:
		return nil, errors.Errorf(
			"time unit conversion: cannot unify units %v without a sample time",
			units,
		)
	}

	out := c.Clone()
	for i, op := range out.Ops {
		switch {
		case op.Name == circuit.Delay:
			v, err := target.ConvertUnit(op.Duration, delayUnit(op), unit, dt)
			if err != nil {
				return nil, errors.Wrap(err, "time unit conversion")
			}
			out.Ops[i].Duration, out.Ops[i].Unit = v, unit
		case op.Name == circuit.Barrier:
		default:
			if cal, ok := c.Calibrations[circuit.CalibrationKey(op.Name, op.Qubits)]; ok {
				v, err := target.ConvertUnit(float64(cal), target.UnitDT, unit, dt)
				if err != nil {
					return nil, errors.Wrap(err, "time unit conversion")
				}
				out.Ops[i].Duration, out.Ops[i].Unit = v, unit
				continue
			}
			if _, ok := p.Durations.Get(op.Name, op.Qubits); !ok {
				continue
			}
			v, err := p.Durations.Lookup(op.Name, op.Qubits, unit)
			if err != nil {
				return nil, errors.Wrap(err, "time unit conversion")
			}
			out.Ops[i].Duration, out.Ops[i].Unit = v, unit
		}
	}
	out.Unit = unit
	return out, nil
}

func delayUnit(op circuit.Operation) string {
	if op.Unit == "" {
		return target.UnitDT
	}
	return op.Unit
}

// opLength is the duration of a time unit converted operation, in dt.
func opLength(op circuit.Operation) (int, error) {
	if op.Name == circuit.Barrier {
		return 0, nil
	}
	if op.Unit != target.UnitDT {
		return 0, errors.Errorf(
			"duration of %s is not known in dt; convert time units with a sample "+
				"time first",
			op,
		)
	}
	return int(math.Round(op.Duration)), nil
}

func wires(c *circuit.Circuit, op circuit.Operation) []int {
	out := slices.Clone(op.Qubits)
	for _, b := range op.Clbits {
		out = append(out, c.NumQubits+b)
	}
	return out
}

// ASAPScheduleAnalysis starts every operation as soon as its qubits and
// classical bits are free.
type ASAPScheduleAnalysis struct{}

func (ASAPScheduleAnalysis) Name() string { return "ASAPScheduleAnalysis" }

func (ASAPScheduleAnalysis) Writes() []string {
	return []string{passmanager.NodeStartTime.Name()}
}

func (ASAPScheduleAnalysis) Analyze(
	c *circuit.Circuit,
	ps *passmanager.PropertySet,
) error {
	avail := make([]int, c.NumQubits+c.NumClbits)
	starts := make(map[int]int, len(c.Ops))
	for i, op := range c.Ops {
		d, err := opLength(op)
		if err != nil {
			return errors.Wrap(err, "asap schedule")
		}
		w := wires(c, op)
		start := 0
		for _, x := range w {
			start = max(start, avail[x])
		}
		for _, x := range w {
			avail[x] = start + d
		}
		starts[i] = start
	}
	passmanager.Set(ps, passmanager.NodeStartTime, starts)
	return nil
}

// ALAPScheduleAnalysis starts every operation as late as possible without
// growing the total circuit duration.
type ALAPScheduleAnalysis struct{}

func (ALAPScheduleAnalysis) Name() string { return "ALAPScheduleAnalysis" }

func (ALAPScheduleAnalysis) Writes() []string {
	return []string{passmanager.NodeStartTime.Name()}
}

func (ALAPScheduleAnalysis) Analyze(
	c *circuit.Circuit,
	ps *passmanager.PropertySet,
) error {
	// schedule the reversed circuit as soon as possible, then mirror
	rest := make([]int, c.NumQubits+c.NumClbits)
	ends := make([]int, len(c.Ops))
	total := 0
	for i := len(c.Ops) - 1; i >= 0; i-- {
		op := c.Ops[i]
		d, err := opLength(op)
		if err != nil {
			return errors.Wrap(err, "alap schedule")
		}
		w := wires(c, op)
		t0 := 0
		for _, x := range w {
			t0 = max(t0, rest[x])
		}
		for _, x := range w {
			rest[x] = t0 + d
		}
		ends[i] = t0 + d
		total = max(total, t0+d)
	}

	starts := make(map[int]int, len(c.Ops))
	for i := range c.Ops {
		starts[i] = total - ends[i]
	}
	passmanager.Set(ps, passmanager.NodeStartTime, starts)
	return nil
}

// InstructionDurationCheck records whether the circuit violates the device's
// alignment constraints: a delay whose length is not a multiple of both the
// acquire and pulse alignments, or a calibration whose length is not a
// multiple of the pulse alignment.
type InstructionDurationCheck struct {
	AcquireAlignment int
	PulseAlignment   int
	// DT converts SI delays; zero leaves them unchecked.
	DT float64
}

func (InstructionDurationCheck) Name() string { return "InstructionDurationCheck" }

func (InstructionDurationCheck) Writes() []string {
	return []string{passmanager.RescheduleRequired.Name()}
}

func (p InstructionDurationCheck) Analyze(
	c *circuit.Circuit,
	ps *passmanager.PropertySet,
) error {
	acquire, pulse := max(p.AcquireAlignment, 1), max(p.PulseAlignment, 1)
	required := false

	for _, op := range c.Ops {
		if op.Name != circuit.Delay {
			continue
		}
		unit := delayUnit(op)
		if unit != target.UnitDT && p.DT <= 0 {
			continue
		}
		v, err := target.ConvertUnit(op.Duration, unit, target.UnitDT, p.DT)
		if err != nil {
			return errors.Wrap(err, "instruction duration check")
		}
		d := int(math.Round(v))
		if d%acquire != 0 || d%pulse != 0 {
			required = true
			break
		}
	}
	for _, d := range c.Calibrations {
		if d%pulse != 0 {
			required = true
		}
	}

	passmanager.Set(ps, passmanager.RescheduleRequired, required)
	return nil
}

func alignUp(t, alignment int) int {
	if alignment <= 1 || t%alignment == 0 {
		return t
	}
	return (t/alignment + 1) * alignment
}

// ConstrainedReschedule pushes operations of a scheduled circuit later so
// that measurements start on a multiple of the acquire alignment and other
// gates on a multiple of the pulse alignment. The circuit is returned as is;
// the start times are rewritten.
type ConstrainedReschedule struct {
	AcquireAlignment int
	PulseAlignment   int
}

func (ConstrainedReschedule) Name() string { return "ConstrainedReschedule" }

func (ConstrainedReschedule) Writes() []string {
	return []string{passmanager.NodeStartTime.Name()}
}

func (p ConstrainedReschedule) Transform(
	c *circuit.Circuit,
	ps *passmanager.PropertySet,
) (*circuit.Circuit, error) {
	starts, ok := passmanager.Get(ps, passmanager.NodeStartTime)
	if !ok {
		return nil, errors.New(
			"constrained reschedule: circuit is not scheduled; set a scheduling method",
		)
	}

	order := scheduleOrder(c, starts)
	busy := make([]int, c.NumQubits+c.NumClbits)
	out := make(map[int]int, len(starts))
	for _, i := range order {
		op := c.Ops[i]
		d, err := opLength(op)
		if err != nil {
			return nil, errors.Wrap(err, "constrained reschedule")
		}
		w := wires(c, op)
		t := starts[i]
		for _, x := range w {
			t = max(t, busy[x])
		}
		switch {
		case op.Name == circuit.Measure:
			t = alignUp(t, p.AcquireAlignment)
		case op.IsGate():
			t = alignUp(t, p.PulseAlignment)
		}
		for _, x := range w {
			busy[x] = t + d
		}
		out[i] = t
	}

	passmanager.Set(ps, passmanager.NodeStartTime, out)
	return c, nil
}

// scheduleOrder returns operation indices by start time, ties in circuit
// order.
func scheduleOrder(c *circuit.Circuit, starts map[int]int) []int {
	order := make([]int, len(c.Ops))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return starts[a] - starts[b]
	})
	return order
}

// ValidatePulseGates fails when a calibration of the circuit breaks the
// device's pulse granularity or minimum length.
type ValidatePulseGates struct {
	Granularity int
	MinLength   int
}

func (ValidatePulseGates) Name() string { return "ValidatePulseGates" }

func (p ValidatePulseGates) Analyze(
	c *circuit.Circuit,
	ps *passmanager.PropertySet,
) error {
	keys := make([]string, 0, len(c.Calibrations))
	for k := range c.Calibrations {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		d := c.Calibrations[k]
		if p.Granularity > 1 && d%p.Granularity != 0 {
			return errors.Errorf(
				"pulse gate %s duration %d dt is not a multiple of %d",
				k,
				d,
				p.Granularity,
			)
		}
		if d < p.MinLength {
			return errors.Errorf(
				"pulse gate %s duration %d dt is shorter than %d",
				k,
				d,
				p.MinLength,
			)
		}
	}
	return nil
}

// PulseGates attaches the custom pulse definitions of the instruction
// schedule map to the circuit as calibrations.
type PulseGates struct {
	InstMap *target.InstructionScheduleMap
}

func (PulseGates) Name() string { return "PulseGates" }

func (p PulseGates) Transform(
	c *circuit.Circuit,
	ps *passmanager.PropertySet,
) (*circuit.Circuit, error) {
	out := c.Clone()
	for _, op := range c.Ops {
		if !op.IsGate() {
			continue
		}
		s, ok := p.InstMap.Get(op.Name, op.Qubits)
		if !ok || !s.Custom {
			continue
		}
		if out.Calibrations == nil {
			out.Calibrations = map[string]int{}
		}
		out.Calibrations[circuit.CalibrationKey(op.Name, op.Qubits)] = s.Duration
	}
	return out, nil
}

// PadDelay makes every idle period of a scheduled circuit explicit as a
// delay, up to the end of the circuit on every qubit. The start times are
// rewritten for the padded circuit.
type PadDelay struct{}

func (PadDelay) Name() string { return "PadDelay" }

func (PadDelay) Writes() []string {
	return []string{passmanager.NodeStartTime.Name()}
}

func (PadDelay) Transform(
	c *circuit.Circuit,
	ps *passmanager.PropertySet,
) (*circuit.Circuit, error) {
	starts, ok := passmanager.Get(ps, passmanager.NodeStartTime)
	if !ok {
		return nil, errors.New("pad delay: circuit is not scheduled")
	}

	end := make([]int, c.NumQubits)
	ops := make([]circuit.Operation, 0, len(c.Ops))
	padded := map[int]int{}
	emit := func(op circuit.Operation, start int) {
		padded[len(ops)] = start
		ops = append(ops, op)
	}
	delay := func(q, from, to int) {
		emit(circuit.Operation{
			Name:     circuit.Delay,
			Qubits:   []int{q},
			Duration: float64(to - from),
			Unit:     target.UnitDT,
		}, from)
	}

	total := 0
	for _, i := range scheduleOrder(c, starts) {
		op := c.Ops[i]
		d, err := opLength(op)
		if err != nil {
			return nil, errors.Wrap(err, "pad delay")
		}
		t := starts[i]
		for _, q := range op.Qubits {
			if t < end[q] {
				return nil, errors.Errorf(
					"pad delay: %s starts at %d, qubit %d is busy until %d",
					op,
					t,
					q,
					end[q],
				)
			}
			if t > end[q] {
				delay(q, end[q], t)
			}
		}
		emit(op, t)
		for _, q := range op.Qubits {
			end[q] = t + d
		}
		total = max(total, t+d)
	}
	for q := range end {
		if end[q] < total {
			delay(q, end[q], total)
		}
	}

	out := c.WithOps(ops)
	out.Duration = total
	out.Unit = target.UnitDT
	passmanager.Set(ps, passmanager.NodeStartTime, padded)
	return out, nil
}

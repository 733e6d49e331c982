package qsim

import (
	"github.com/pkg/errors"
)

// Measurement maps a measured qubit onto a classical output bit.
type Measurement struct {
	Qubit int
	Bit   int
}

// Segment names a contiguous run of gates, [Start, End) in application order.
type Segment struct {
	Name  string
	Start int
	End   int
}

// Len returns the number of gates in the segment.
func (s Segment) Len() int {
	return s.End - s.Start
}

/*
Circuit is an ordered gate sequence over a fixed register, plus the qubits
designated for measurement. A Circuit is immutable once built: it can be
executed any number of times and every accessor hands out copies.
*/
type Circuit struct {
	qubits       int
	clbits       int
	gates        []Gate
	measurements []Measurement
	segments     []Segment
}

// Qubits returns the register size.
func (c *Circuit) Qubits() int {
	return c.qubits
}

// Clbits returns the number of classical output bits.
func (c *Circuit) Clbits() int {
	return c.clbits
}

// Len returns the number of gates.
func (c *Circuit) Len() int {
	return len(c.gates)
}

// Gate returns the gate at position i.
func (c *Circuit) Gate(i int) Gate {
	return c.gates[i]
}

// Gates returns the gates in application order.
func (c *Circuit) Gates() []Gate {
	out := make([]Gate, len(c.gates))
	copy(out, c.gates)
	return out
}

// Measurements returns the measurement map ordered by classical bit.
func (c *Circuit) Measurements() []Measurement {
	out := make([]Measurement, len(c.measurements))
	copy(out, c.measurements)
	return out
}

// Segments returns the named gate segments in order.
func (c *Circuit) Segments() []Segment {
	out := make([]Segment, len(c.segments))
	copy(out, c.segments)
	return out
}

// Measured reports whether qubit q is designated for measurement.
func (c *Circuit) Measured(q int) bool {
	for _, m := range c.measurements {
		if m.Qubit == q {
			return true
		}
	}
	return false
}

/*
CircuitBuilder accumulates gates and measurements and produces an immutable
Circuit. The first invalid gate or measurement is remembered and returned from
Build, so calls can be chained without checking every step.
*/
type CircuitBuilder struct {
	qubits       int
	clbits       int
	gates        []Gate
	measurements []Measurement
	segments     []Segment
	err          error
}

// NewCircuitBuilder starts a circuit over qubits quantum and clbits classical bits.
func NewCircuitBuilder(qubits, clbits int) *CircuitBuilder {
	b := &CircuitBuilder{
		qubits: qubits,
		clbits: clbits,
	}

	switch {
	case qubits <= 0:
		b.err = errors.Wrapf(ErrInvalidArgument, "circuit needs at least one qubit, got %d", qubits)
	case qubits > maxAddressableQubits:
		b.err = errors.Wrapf(ErrRegisterTooLarge, "circuit of %d qubits", qubits)
	case clbits < 0 || clbits > qubits:
		b.err = errors.Wrapf(ErrInvalidArgument, "classical register of %d bits for %d qubits", clbits, qubits)
	}

	return b
}

// Append adds gates to the end of the sequence.
func (b *CircuitBuilder) Append(gates ...Gate) *CircuitBuilder {
	for _, g := range gates {
		if b.err != nil {
			return b
		}
		if err := g.Validate(b.qubits); err != nil {
			b.err = errors.Wrapf(err, "gate %d", len(b.gates))
			return b
		}
		b.gates = append(b.gates, g)
	}
	return b
}

// Segment appends gates as a named segment. Empty segments are kept.
func (b *CircuitBuilder) Segment(name string, gates ...Gate) *CircuitBuilder {
	start := len(b.gates)
	b.Append(gates...)

	if b.err == nil {
		b.segments = append(b.segments, Segment{
			Name:  name,
			Start: start,
			End:   len(b.gates),
		})
	}

	return b
}

// Measure designates qubit for measurement into classical bit.
func (b *CircuitBuilder) Measure(qubit, bit int) *CircuitBuilder {
	if b.err != nil {
		return b
	}

	if qubit < 0 || qubit >= b.qubits {
		b.err = errors.Wrapf(ErrInvalidArgument, "measure: qubit %d outside register of %d", qubit, b.qubits)
		return b
	}

	if bit < 0 || bit >= b.clbits {
		b.err = errors.Wrapf(ErrInvalidArgument, "measure: classical bit %d outside register of %d", bit, b.clbits)
		return b
	}

	for _, m := range b.measurements {
		if m.Qubit == qubit {
			b.err = errors.Wrapf(ErrInvalidArgument, "measure: qubit %d measured twice", qubit)
			return b
		}
		if m.Bit == bit {
			b.err = errors.Wrapf(ErrInvalidArgument, "measure: classical bit %d written twice", bit)
			return b
		}
	}

	b.measurements = append(b.measurements, Measurement{Qubit: qubit, Bit: bit})
	return b
}

// Build returns the finished circuit or the first error recorded.
func (b *CircuitBuilder) Build() (*Circuit, error) {
	if b.err != nil {
		return nil, b.err
	}

	c := &Circuit{
		qubits:       b.qubits,
		clbits:       b.clbits,
		gates:        make([]Gate, len(b.gates)),
		measurements: make([]Measurement, 0, len(b.measurements)),
		segments:     make([]Segment, len(b.segments)),
	}
	copy(c.gates, b.gates)
	copy(c.segments, b.segments)

	for bit := 0; bit < b.clbits; bit++ {
		for _, m := range b.measurements {
			if m.Bit == bit {
				c.measurements = append(c.measurements, m)
			}
		}
	}

	return c, nil
}

package qsim

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// GateKind tags the closed set of gates the simulator understands.
type GateKind int

const (
	Hadamard GateKind = iota
	PauliX
	ControlledX
)

func (k GateKind) String() string {
	switch k {
	case Hadamard:
		return "h"
	case PauliX:
		return "x"
	case ControlledX:
		return "cx"
	default:
		return fmt.Sprintf("gate(%d)", int(k))
	}
}

/*
Gate is an immutable description of one operation on the register. It carries
no matrix: the gate library derives the action on the amplitude vector when the
gate is applied. Control is only meaningful for ControlledX and is -1 otherwise.
*/
type Gate struct {
	Kind    GateKind
	Target  int
	Control int
}

// H returns a Hadamard gate on qubit q.
func H(q int) Gate {
	return Gate{Kind: Hadamard, Target: q, Control: -1}
}

// X returns a Pauli-X (NOT) gate on qubit q.
func X(q int) Gate {
	return Gate{Kind: PauliX, Target: q, Control: -1}
}

// CX returns a controlled-X gate flipping target when control is 1.
func CX(control, target int) Gate {
	return Gate{Kind: ControlledX, Target: target, Control: control}
}

// Qubits lists the qubits the gate touches, control first.
func (g Gate) Qubits() []int {
	if g.Kind == ControlledX {
		return []int{g.Control, g.Target}
	}
	return []int{g.Target}
}

// Validate checks the gate against a register of the given size.
func (g Gate) Validate(qubits int) error {
	if g.Target < 0 || g.Target >= qubits {
		return errors.Wrapf(ErrInvalidArgument, "%s: target qubit %d outside register of %d", g, g.Target, qubits)
	}

	switch g.Kind {
	case Hadamard, PauliX:
		return nil
	case ControlledX:
		if g.Control < 0 || g.Control >= qubits {
			return errors.Wrapf(ErrInvalidArgument, "%s: control qubit %d outside register of %d", g, g.Control, qubits)
		}
		if g.Control == g.Target {
			return errors.Wrapf(ErrInvalidArgument, "%s: control and target are the same qubit", g)
		}
		return nil
	default:
		return errors.Wrapf(ErrInvalidArgument, "unknown gate kind %d", int(g.Kind))
	}
}

// Apply transforms the amplitude vector in place.
func (g Gate) Apply(v *AmplitudeVector) error {
	if err := g.Validate(v.qubits); err != nil {
		return err
	}

	switch g.Kind {
	case Hadamard:
		v.applyHadamard(g.Target)
	case PauliX:
		v.applyPauliX(g.Target)
	case ControlledX:
		v.applyControlledX(g.Control, g.Target)
	}

	return nil
}

func (g Gate) String() string {
	if g.Kind == ControlledX {
		return fmt.Sprintf("%s q[%d],q[%d]", g.Kind, g.Control, g.Target)
	}
	return fmt.Sprintf("%s q[%d]", g.Kind, g.Target)
}

var invSqrt2 = complex(1/math.Sqrt2, 0)

/*
applyHadamard mixes every amplitude pair that differs only in bit q:

	H = 1/√2 * [1  1]
	           [1 -1]

Pairs are visited block by block: each block of 2*bit indices holds bit
indices with bit q clear followed by their partners with bit q set.
*/
func (v *AmplitudeVector) applyHadamard(q int) {
	bit := 1 << q
	n := len(v.amplitudes)

	for base := 0; base < n; base += bit << 1 {
		for i := base; i < base+bit; i++ {
			j := i | bit
			a0, a1 := v.amplitudes[i], v.amplitudes[j]
			v.amplitudes[i] = (a0 + a1) * invSqrt2
			v.amplitudes[j] = (a0 - a1) * invSqrt2
		}
	}
}

// applyPauliX swaps every amplitude pair that differs only in bit q.
func (v *AmplitudeVector) applyPauliX(q int) {
	bit := 1 << q
	n := len(v.amplitudes)

	for base := 0; base < n; base += bit << 1 {
		for i := base; i < base+bit; i++ {
			j := i | bit
			v.amplitudes[i], v.amplitudes[j] = v.amplitudes[j], v.amplitudes[i]
		}
	}
}

// applyControlledX swaps the target pair only where the control bit is set.
func (v *AmplitudeVector) applyControlledX(control, target int) {
	cBit := 1 << control
	tBit := 1 << target
	n := len(v.amplitudes)

	for i := 0; i < n; i++ {
		if i&cBit != 0 && i&tBit == 0 {
			j := i | tBit
			v.amplitudes[i], v.amplitudes[j] = v.amplitudes[j], v.amplitudes[i]
		}
	}
}

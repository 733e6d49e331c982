package qsim

import (
	"math"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
)

// maxAddressableQubits bounds the register so that 1<<qubits and the byte
// size of the vector both stay inside a uint64.
const maxAddressableQubits = 58

/*
AmplitudeVector is the dense state of an m-qubit register: 2^m complex
amplitudes indexed by the integer encoding of the basis state, where bit i of
the index is the state of qubit i.

The vector has no public write API. Gates mutate it through the gate library,
and the simulator renormalises it when floating drift accumulates, so the sum
of squared magnitudes stays at one for its whole lifetime.
*/
type AmplitudeVector struct {
	qubits     int
	amplitudes []complex128
}

/*
NewAmplitudeVector allocates a register of the given size in the all-zero
basis state |0...0⟩.
*/
func NewAmplitudeVector(qubits int) (*AmplitudeVector, error) {
	if qubits <= 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "register size %d", qubits)
	}

	if qubits > maxAddressableQubits {
		return nil, errors.Wrapf(ErrRegisterTooLarge, "register size %d", qubits)
	}

	amplitudes := make([]complex128, 1<<qubits)
	amplitudes[0] = 1

	return &AmplitudeVector{
		qubits:     qubits,
		amplitudes: amplitudes,
	}, nil
}

// Qubits returns the register size m.
func (v *AmplitudeVector) Qubits() int {
	return v.qubits
}

// Len returns the number of basis states, 2^m.
func (v *AmplitudeVector) Len() int {
	return len(v.amplitudes)
}

// Amplitude returns the amplitude of a basis state.
func (v *AmplitudeVector) Amplitude(index int) complex128 {
	return v.amplitudes[index]
}

// Probability returns the squared magnitude of the amplitude at index.
func (v *AmplitudeVector) Probability(index int) float64 {
	return magnitudeSquared(v.amplitudes[index])
}

// Norm returns the sum of squared magnitudes over the whole vector.
func (v *AmplitudeVector) Norm() float64 {
	var total float64
	for _, amplitude := range v.amplitudes {
		total += magnitudeSquared(amplitude)
	}
	return total
}

// Snapshot returns a copy of the amplitudes.
func (v *AmplitudeVector) Snapshot() []complex128 {
	out := make([]complex128, len(v.amplitudes))
	copy(out, v.amplitudes)
	return out
}

// Dump renders the vector for debugging output.
func (v *AmplitudeVector) Dump() string {
	return spew.Sdump(v.amplitudes)
}

// renormalize rescales every amplitude so the vector has unit norm again.
func (v *AmplitudeVector) renormalize(norm float64) {
	if norm <= 0 {
		return
	}

	scale := complex(1/math.Sqrt(norm), 0)
	for i := range v.amplitudes {
		v.amplitudes[i] *= scale
	}
}

func magnitudeSquared(amplitude complex128) float64 {
	re, im := real(amplitude), imag(amplitude)
	return re*re + im*im
}

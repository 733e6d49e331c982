package qsim

import "github.com/pkg/errors"

// Segment names used by the Deutsch-Jozsa template.
const (
	SegmentPrepare   = "prepare"
	SegmentSuperpose = "superpose"
	SegmentOracle    = "oracle"
	SegmentInterfere = "interfere"
)

/*
DeutschJozsa assembles the fixed five-phase circuit around an oracle over n
inputs, on a register of n+1 qubits:

 1. X then H on the output qubit n, leaving it in |−⟩ for phase kickback.
 2. H on every input qubit.
 3. The oracle gates, verbatim.
 4. H on every input qubit again.
 5. Measure input qubit i into classical bit i. Qubit n is never measured.
*/
func DeutschJozsa(oracle Oracle) (*Circuit, error) {
	if err := oracle.Validate(); err != nil {
		return nil, errors.Wrap(err, "deutsch-jozsa oracle")
	}

	n := oracle.Inputs
	b := NewCircuitBuilder(n+1, n).
		Segment(SegmentPrepare, X(n), H(n)).
		Segment(SegmentSuperpose, hadamards(n)...).
		Segment(SegmentOracle, oracle.Gates()...).
		Segment(SegmentInterfere, hadamards(n)...)

	for q := 0; q < n; q++ {
		b.Measure(q, q)
	}

	return b.Build()
}

func hadamards(n int) []Gate {
	gates := make([]Gate, n)
	for q := range gates {
		gates[q] = H(q)
	}
	return gates
}

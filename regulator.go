package qsim

/*
Regulator guards the simulator's resources. It is consulted before a run
allocates its amplitude vector, so an oversize register is refused up front
instead of exhausting memory halfway through.

Implementations must be safe for concurrent use: one simulator may serve many
runs at once.
*/
type Regulator interface {
	// Observe lets the regulator follow the simulator's metrics between runs.
	Observe(metrics *Metrics)

	// Admit returns nil when a register of the given size may be allocated,
	// and an error wrapping ErrRegisterTooLarge otherwise.
	Admit(qubits int) error
}

package qsim

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/theapemachine/errnie"
)

// bytesPerAmplitude is the size of one complex128.
const bytesPerAmplitude = 16

/*
ResourceGovernorRegulator implements Regulator by bounding register size.
A dense state vector needs 16 * 2^m bytes, so memory grows exponentially with
the qubit count; the governor refuses any register above MaxQubits or whose
vector would not fit in MaxStateBytes.

It also tracks the largest register admitted so far and how many requests it
refused, which the simulator reports through its metrics.
*/
type ResourceGovernorRegulator struct {
	mu sync.RWMutex

	maxQubits     int
	maxStateBytes uint64
	metrics       *Metrics

	peakQubits int
	refused    int64
}

/*
NewResourceGovernorRegulator creates a governor from the simulator config.

Example:

	governor := NewResourceGovernorRegulator(24, 1<<30)
*/
func NewResourceGovernorRegulator(maxQubits int, maxStateBytes uint64) *ResourceGovernorRegulator {
	return &ResourceGovernorRegulator{
		maxQubits:     maxQubits,
		maxStateBytes: maxStateBytes,
	}
}

// Observe records the metrics the governor reports refusals into.
func (rg *ResourceGovernorRegulator) Observe(metrics *Metrics) {
	rg.mu.Lock()
	defer rg.mu.Unlock()

	rg.metrics = metrics
}

// Admit implements Regulator.
func (rg *ResourceGovernorRegulator) Admit(qubits int) error {
	rg.mu.Lock()
	defer rg.mu.Unlock()

	if qubits <= 0 {
		return errors.Wrapf(ErrInvalidArgument, "register size %d", qubits)
	}

	if qubits > rg.maxQubits || qubits > maxAddressableQubits {
		return rg.refuse(errors.Wrapf(ErrRegisterTooLarge, "%d qubits above ceiling of %d", qubits, rg.maxQubits))
	}

	if need := StateBytes(qubits); need > rg.maxStateBytes {
		return rg.refuse(errors.Wrapf(ErrRegisterTooLarge, "%d qubits need %d bytes, budget is %d", qubits, need, rg.maxStateBytes))
	}

	rg.peakQubits = max(rg.peakQubits, qubits)
	return nil
}

// GetUsage returns the largest register admitted and the number of refusals.
func (rg *ResourceGovernorRegulator) GetUsage() (peakQubits int, refused int64) {
	rg.mu.RLock()
	defer rg.mu.RUnlock()
	return rg.peakQubits, rg.refused
}

// GetThresholds returns the configured ceilings.
func (rg *ResourceGovernorRegulator) GetThresholds() (maxQubits int, maxStateBytes uint64) {
	rg.mu.RLock()
	defer rg.mu.RUnlock()
	return rg.maxQubits, rg.maxStateBytes
}

func (rg *ResourceGovernorRegulator) refuse(err error) error {
	rg.refused++
	if rg.metrics != nil {
		rg.metrics.recordRefusal()
	}
	errnie.Warn("register refused: %v", err)
	return err
}

// StateBytes returns the memory a dense vector over qubits needs.
func StateBytes(qubits int) uint64 {
	return bytesPerAmplitude << uint(qubits)
}

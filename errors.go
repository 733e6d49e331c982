package qsim

import "github.com/pkg/errors"

var (
	// ErrInvalidArgument is returned for malformed configuration, qubit indices or bitstrings.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrRegisterTooLarge is returned when a register would exceed the configured ceiling.
	// Nothing is allocated when this is returned.
	ErrRegisterTooLarge = errors.New("register exceeds configured ceiling")

	// ErrInvalidSecret is returned for a balanced oracle secret that is all zeros
	// or does not match the register width.
	ErrInvalidSecret = errors.New("invalid balanced oracle secret")

	// ErrUnitarityViolated means the norm drifted further than renormalisation may hide.
	ErrUnitarityViolated = errors.New("state vector norm drifted beyond limit")

	// ErrDistribution means the measured marginal does not sum to one at sampling time.
	ErrDistribution = errors.New("measurement distribution does not sum to one")

	// ErrInvalidCounts is returned when shot counts cannot be classified.
	ErrInvalidCounts = errors.New("invalid shot counts")

	// ErrNoAvailableWorkers is returned when no worker picked up a sampling job in time.
	ErrNoAvailableWorkers = errors.New("no workers available to process job")
)

package qsim

import (
	"strings"

	"github.com/pkg/errors"
)

// Classification is the verdict on a Deutsch-Jozsa oracle.
type Classification int

const (
	Constant Classification = iota
	Balanced
)

func (c Classification) String() string {
	if c == Constant {
		return "CONSTANT"
	}
	return "BALANCED"
}

// MarshalText lets the classification serialise by name.
func (c Classification) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

/*
Classify reads shot counts over n measured qubits. The all-zero outcome is
reached with probability one for a constant oracle and probability zero for a
balanced one, so its presence alone decides the verdict.
*/
func Classify(counts map[string]int, n int) (Classification, error) {
	if n <= 0 {
		return 0, errors.Wrapf(ErrInvalidArgument, "classify over %d qubits", n)
	}

	if len(counts) == 0 {
		return 0, errors.Wrap(ErrInvalidCounts, "no outcomes")
	}

	for outcome, count := range counts {
		if len(outcome) != n {
			return 0, errors.Wrapf(ErrInvalidCounts, "outcome %q is not %d bits wide", outcome, n)
		}
		if count <= 0 {
			return 0, errors.Wrapf(ErrInvalidCounts, "outcome %q has count %d", outcome, count)
		}
	}

	if _, ok := counts[strings.Repeat("0", n)]; ok {
		return Constant, nil
	}

	return Balanced, nil
}

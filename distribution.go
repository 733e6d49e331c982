package qsim

import (
	"math"
	"math/rand/v2"
	"slices"
	"sort"

	"github.com/pkg/errors"
)

/*
Distribution is the Born-rule distribution over the classical register,
built once from a final amplitude vector. Probabilities of unmeasured qubits
are summed out, and anything at or below epsilon is treated as impossible.

A Distribution is read-only after construction, so any number of goroutines
may sample from it at once.
*/
type Distribution struct {
	width      int
	outcomes   []uint64
	probs      []float64
	cumulative []float64
	total      float64
}

func newDistribution(v *AmplitudeVector, measurements []Measurement, width int, epsilon float64) *Distribution {
	marginal := make(map[uint64]float64)

	for i := 0; i < v.Len(); i++ {
		p := v.Probability(i)
		if p <= epsilon {
			continue
		}

		var key uint64
		for _, m := range measurements {
			if i>>uint(m.Qubit)&1 == 1 {
				key |= 1 << uint(m.Bit)
			}
		}
		marginal[key] += p
	}

	keys := make([]uint64, 0, len(marginal))
	for key, p := range marginal {
		if p > epsilon {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)

	d := &Distribution{
		width:      width,
		outcomes:   keys,
		probs:      make([]float64, len(keys)),
		cumulative: make([]float64, len(keys)),
	}

	for i, key := range keys {
		d.probs[i] = marginal[key]
		d.total += marginal[key]
		d.cumulative[i] = d.total
	}

	return d
}

// Total returns the summed probability of all possible outcomes.
func (d *Distribution) Total() float64 {
	return d.total
}

// Len returns the number of possible outcomes.
func (d *Distribution) Len() int {
	return len(d.outcomes)
}

// Validate reports ErrDistribution when the total is not one within tolerance.
func (d *Distribution) Validate(tolerance float64) error {
	if len(d.outcomes) == 0 || math.Abs(d.total-1) > tolerance {
		return errors.Wrapf(ErrDistribution, "total probability %.12f over %d outcomes", d.total, len(d.outcomes))
	}
	return nil
}

// Probabilities returns the outcome probabilities keyed by bitstring.
func (d *Distribution) Probabilities() map[string]float64 {
	out := make(map[string]float64, len(d.outcomes))
	for i, key := range d.outcomes {
		out[FormatBits(key, d.width)] = d.probs[i]
	}
	return out
}

// sample draws one outcome by inverting the cumulative distribution.
func (d *Distribution) sample(rng *rand.Rand) uint64 {
	u := rng.Float64() * d.total
	idx := sort.Search(len(d.cumulative), func(i int) bool {
		return d.cumulative[i] > u
	})

	if idx == len(d.outcomes) {
		idx--
	}

	return d.outcomes[idx]
}

func (d *Distribution) sampleInto(counts map[uint64]int, rng *rand.Rand, shots int) {
	for i := 0; i < shots; i++ {
		counts[d.sample(rng)]++
	}
}

// batchRand derives an independent stream per batch so sampling is
// reproducible whether batches run inline or on the pool.
func batchRand(seed uint64, batch int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(batch)))
}

func splitShots(shots, batchSize int) []int {
	if batchSize <= 0 {
		batchSize = shots
	}

	batches := make([]int, 0, (shots+batchSize-1)/batchSize)
	for remaining := shots; remaining > 0; remaining -= batchSize {
		batches = append(batches, min(remaining, batchSize))
	}
	return batches
}

package qsim

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/theapemachine/errnie"
)

// Result is the outcome of one simulator run.
type Result struct {
	RunID         string
	Qubits        int
	Clbits        int
	Shots         int
	Seed          uint64
	Counts        map[string]int
	Probabilities map[string]float64
	Duration      time.Duration
}

// OutcomeCount is one row of a result, for reporting.
type OutcomeCount struct {
	Outcome     string
	Count       int
	Probability float64
}

// Outcomes returns the counts ordered by count, most frequent first, then by outcome.
func (r *Result) Outcomes() []OutcomeCount {
	rows := make([]OutcomeCount, 0, len(r.Counts))
	for outcome, count := range r.Counts {
		rows = append(rows, OutcomeCount{
			Outcome:     outcome,
			Count:       count,
			Probability: r.Probabilities[outcome],
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Outcome < rows[j].Outcome
	})

	return rows
}

// SimulatorOption configures a Simulator.
type SimulatorOption func(*Simulator)

// WithRegulator replaces the default register governor.
func WithRegulator(regulator Regulator) SimulatorOption {
	return func(s *Simulator) {
		s.governor = regulator
	}
}

/*
Simulator executes circuits on a dense amplitude vector and samples shots
from the result. Gate application is a strict in-order fold on the calling
goroutine; once the last gate is applied the state is frozen and shot batches
may be drawn in parallel on the sampling pool.

A Simulator is safe for concurrent runs: every run owns its own vector.
*/
type Simulator struct {
	config   *Config
	governor Regulator
	metrics  *Metrics
	pool     *Q
	retry    *RetryPolicy

	seedMu sync.Mutex
	seeds  *rand.Rand
}

// NewSimulator validates config and starts the sampling pool when Workers > 1.
func NewSimulator(ctx context.Context, config *Config, opts ...SimulatorOption) (*Simulator, error) {
	if config == nil {
		config = NewConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &Simulator{
		config:   config,
		governor: NewResourceGovernorRegulator(config.MaxQubits, config.MaxStateBytes),
		metrics:  NewMetrics(),
		retry:    schedulingRetry(config.ScheduleAttempts),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.governor.Observe(s.metrics)

	if config.Seed != 0 {
		s.seeds = rand.New(rand.NewPCG(config.Seed, config.Seed))
	}

	if config.Workers > 1 {
		s.pool = NewQ(ctx, config.Workers, config, s.metrics)
	}

	return s, nil
}

// Metrics returns the simulator's counters.
func (s *Simulator) Metrics() *Metrics {
	return s.metrics
}

// Close stops the sampling pool.
func (s *Simulator) Close() {
	s.pool.Close()
}

// Run executes circuit and samples shots independent measurements.
func (s *Simulator) Run(ctx context.Context, circuit *Circuit, shots int) (*Result, error) {
	start := time.Now()

	result, err := s.run(ctx, circuit, shots)
	if err != nil {
		s.metrics.recordRun(start, 0, shots, false)
		return nil, err
	}

	result.Duration = time.Since(start)
	s.metrics.recordRun(start, circuit.Len(), shots, true)

	errnie.Info("run %s finished in %s with %d distinct outcomes", result.RunID, result.Duration, len(result.Counts))
	return result, nil
}

func (s *Simulator) run(ctx context.Context, circuit *Circuit, shots int) (*Result, error) {
	if circuit == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "nil circuit")
	}

	if shots <= 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "shot count %d", shots)
	}

	if len(circuit.measurements) == 0 {
		return nil, errors.Wrap(ErrInvalidArgument, "circuit measures no qubits")
	}

	runID := uuid.NewString()
	errnie.Info("run %s: %d qubits, %d gates, %d shots", runID, circuit.qubits, len(circuit.gates), shots)

	v, err := s.execute(ctx, circuit, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "run %s", runID)
	}

	dist := newDistribution(v, circuit.measurements, circuit.clbits, s.config.Epsilon)
	if err := dist.Validate(s.config.DriftLimit); err != nil {
		return nil, errors.Wrapf(err, "run %s", runID)
	}

	seed := s.nextSeed()
	raw, err := s.sample(ctx, runID, dist, shots, seed)
	if err != nil {
		return nil, errors.Wrapf(err, "run %s", runID)
	}

	counts := make(map[string]int, len(raw))
	for key, count := range raw {
		counts[FormatBits(key, circuit.clbits)] = count
	}

	return &Result{
		RunID:         runID,
		Qubits:        circuit.qubits,
		Clbits:        circuit.clbits,
		Shots:         shots,
		Seed:          seed,
		Counts:        counts,
		Probabilities: dist.Probabilities(),
	}, nil
}

// Statevector executes circuit and returns the final amplitudes without sampling.
func (s *Simulator) Statevector(ctx context.Context, circuit *Circuit) ([]complex128, error) {
	if circuit == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "nil circuit")
	}

	v, err := s.execute(ctx, circuit, nil)
	if err != nil {
		return nil, err
	}

	return v.Snapshot(), nil
}

/*
RunPhases executes circuit and calls fn with the vector norm each time a named
segment completes, in segment order. Empty segments are reported too.
*/
func (s *Simulator) RunPhases(ctx context.Context, circuit *Circuit, fn func(segment Segment, norm float64)) error {
	if circuit == nil {
		return errors.Wrap(ErrInvalidArgument, "nil circuit")
	}

	_, err := s.execute(ctx, circuit, fn)
	return err
}

func (s *Simulator) execute(ctx context.Context, circuit *Circuit, onSegment func(Segment, float64)) (*AmplitudeVector, error) {
	if err := s.governor.Admit(circuit.qubits); err != nil {
		return nil, err
	}

	v, err := NewAmplitudeVector(circuit.qubits)
	if err != nil {
		return nil, err
	}

	next := 0
	flush := func(applied int) {
		if onSegment == nil {
			return
		}
		for next < len(circuit.segments) && circuit.segments[next].End <= applied {
			onSegment(circuit.segments[next], v.Norm())
			next++
		}
	}

	flush(0)

	for i, g := range circuit.gates {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "cancelled before gate %d", i)
		}

		if err := g.Apply(v); err != nil {
			return nil, errors.Wrapf(err, "gate %d", i)
		}

		if err := s.checkNorm(v, i); err != nil {
			return nil, err
		}

		flush(i + 1)
	}

	return v, nil
}

// checkNorm renormalises small drift and fails on drift no rounding explains.
func (s *Simulator) checkNorm(v *AmplitudeVector, gate int) error {
	norm := v.Norm()
	drift := math.Abs(norm - 1)

	switch {
	case drift > s.config.DriftLimit:
		return errors.Wrapf(ErrUnitarityViolated, "norm %.12f after gate %d", norm, gate)
	case drift > s.config.NormTolerance:
		errnie.Warn("renormalising state after gate %d, norm %.15f", gate, norm)
		v.renormalize(norm)
		s.metrics.recordRenormalization()
	}

	return nil
}

func (s *Simulator) sample(ctx context.Context, runID string, dist *Distribution, shots int, seed uint64) (map[uint64]int, error) {
	batches := splitShots(shots, s.config.ShotBatchSize)

	if s.pool == nil || shots < s.config.ParallelThreshold || len(batches) == 1 {
		counts := make(map[uint64]int)
		for i, size := range batches {
			dist.sampleInto(counts, batchRand(seed, i), size)
		}
		return counts, nil
	}

	schedule := func(i, attempt int) chan JobResult {
		size := batches[i]
		return s.pool.Schedule(fmt.Sprintf("%s/%d/%d", runID, i, attempt), func() (any, error) {
			local := make(map[uint64]int)
			dist.sampleInto(local, batchRand(seed, i), size)
			errnie.Debug("run %s batch %d drew %d shots", runID, i, size)
			return local, nil
		}, WithTTL(time.Minute))
	}

	pending := make([]chan JobResult, len(batches))
	for i := range batches {
		pending[i] = schedule(i, 1)
	}

	counts := make(map[uint64]int)
	for i := range pending {
		for attempt := 1; ; attempt++ {
			local, err := awaitBatch(ctx, pending[i], i)
			if err == nil {
				for key, count := range local {
					counts[key] += count
				}
				break
			}

			if !s.retry.Retryable(attempt, err) {
				return nil, err
			}

			errnie.Warn("run %s: retrying batch %d after attempt %d: %v", runID, i, attempt, err)
			if err := s.retry.Wait(ctx, attempt); err != nil {
				return nil, errors.Wrap(err, "sampling cancelled")
			}
			pending[i] = schedule(i, attempt+1)
		}
	}

	return counts, nil
}

func awaitBatch(ctx context.Context, ch chan JobResult, batch int) (map[uint64]int, error) {
	select {
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "sampling cancelled")
	case res, ok := <-ch:
		if !ok {
			return nil, errors.Errorf("sampling batch %d dropped", batch)
		}
		if res.Error != nil {
			return nil, errors.Wrapf(res.Error, "sampling batch %d", batch)
		}
		local, ok := res.Value.(map[uint64]int)
		if !ok {
			return nil, errors.Errorf("sampling batch %d returned %T", batch, res.Value)
		}
		return local, nil
	}
}

func (s *Simulator) nextSeed() uint64 {
	if s.seeds == nil {
		return rand.Uint64()
	}

	s.seedMu.Lock()
	defer s.seedMu.Unlock()
	return s.seeds.Uint64()
}

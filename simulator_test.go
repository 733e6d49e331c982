package qsim

import (
	"context"
	"math"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/goleak"
)

func bellCircuit() *Circuit {
	c, err := NewCircuitBuilder(2, 2).
		Append(H(0), CX(0, 1)).
		Measure(0, 0).
		Measure(1, 1).
		Build()
	So(err, ShouldBeNil)
	return c
}

func TestSimulatorRun(t *testing.T) {
	Convey("Given a seeded inline simulator", t, func() {
		sim := newTestSimulator(99)

		Reset(func() {
			sim.Close()
		})

		Convey("When sampling a Bell pair", func() {
			result, err := sim.Run(context.Background(), bellCircuit(), 10000)
			So(err, ShouldBeNil)

			Convey("Only correlated outcomes should appear", func() {
				So(len(result.Counts), ShouldEqual, 2)
				So(result.Counts["00"]+result.Counts["11"], ShouldEqual, 10000)
				So(math.Abs(float64(result.Counts["00"])-5000), ShouldBeLessThan, 300)
				So(result.Probabilities["00"], ShouldAlmostEqual, 0.5, 1e-12)
			})

			Convey("The result should describe the run", func() {
				So(result.RunID, ShouldNotBeEmpty)
				So(result.Qubits, ShouldEqual, 2)
				So(result.Clbits, ShouldEqual, 2)
				So(result.Shots, ShouldEqual, 10000)
				So(result.Outcomes()[0].Count, ShouldBeGreaterThanOrEqualTo, result.Outcomes()[1].Count)
			})

			Convey("Metrics should count the run", func() {
				m := sim.Metrics().ExportMetrics()
				So(m["runs"], ShouldEqual, int64(1))
				So(m["gates_applied"], ShouldEqual, int64(2))
				So(m["shots_sampled"], ShouldEqual, int64(10000))
			})
		})

		Convey("When measuring only one qubit of a Bell pair", func() {
			c, err := NewCircuitBuilder(2, 1).Append(H(0), CX(0, 1)).Measure(1, 0).Build()
			So(err, ShouldBeNil)

			result, err := sim.Run(context.Background(), c, 1000)
			So(err, ShouldBeNil)

			Convey("The other qubit should be summed out", func() {
				So(result.Probabilities, ShouldResemble, map[string]float64{"0": result.Probabilities["0"], "1": result.Probabilities["1"]})
				So(result.Probabilities["0"]+result.Probabilities["1"], ShouldAlmostEqual, 1.0, 1e-12)
			})
		})

		Convey("When the arguments are invalid", func() {
			_, err := sim.Run(context.Background(), nil, 10)
			So(err, shouldWrap, ErrInvalidArgument)

			_, err = sim.Run(context.Background(), bellCircuit(), 0)
			So(err, shouldWrap, ErrInvalidArgument)

			unmeasured, err := NewCircuitBuilder(1, 0).Append(H(0)).Build()
			So(err, ShouldBeNil)
			_, err = sim.Run(context.Background(), unmeasured, 10)
			So(err, shouldWrap, ErrInvalidArgument)

			So(sim.Metrics().ExportMetrics()["failed_runs"], ShouldEqual, int64(3))
		})

		Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := sim.Run(ctx, bellCircuit(), 10)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})

	Convey("Given a governor ceiling of four qubits", t, func() {
		cfg := NewConfig()
		cfg.Workers = 1
		cfg.MaxQubits = 4

		sim, err := NewSimulator(context.Background(), cfg)
		So(err, ShouldBeNil)

		Convey("A five-qubit circuit should be refused", func() {
			c, err := NewCircuitBuilder(5, 1).Append(H(0)).Measure(0, 0).Build()
			So(err, ShouldBeNil)

			_, err = sim.Run(context.Background(), c, 10)
			So(err, shouldWrap, ErrRegisterTooLarge)
			So(sim.Metrics().ExportMetrics()["refused_registers"], ShouldEqual, int64(1))
		})
	})

	Convey("Given an invalid config", t, func() {
		cfg := NewConfig()
		cfg.Workers = 0

		_, err := NewSimulator(context.Background(), cfg)
		So(err, shouldWrap, ErrInvalidArgument)
	})
}

func TestSimulatorReproducibility(t *testing.T) {
	Convey("Given two simulators with the same seed", t, func() {
		defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

		inlineCfg := NewConfig()
		inlineCfg.Workers = 1
		inlineCfg.Seed = 1234
		inlineCfg.ShotBatchSize = 250

		pooledCfg := NewConfig()
		pooledCfg.Workers = 4
		pooledCfg.Seed = 1234
		pooledCfg.ShotBatchSize = 250
		pooledCfg.ParallelThreshold = 1

		inline, err := NewSimulator(context.Background(), inlineCfg)
		So(err, ShouldBeNil)
		pooled, err := NewSimulator(context.Background(), pooledCfg)
		So(err, ShouldBeNil)

		c, err := NewCircuitBuilder(3, 3).
			Append(H(0), H(1), CX(1, 2), H(2)).
			Measure(0, 0).Measure(1, 1).Measure(2, 2).
			Build()
		So(err, ShouldBeNil)

		a, err := inline.Run(context.Background(), c, 5000)
		So(err, ShouldBeNil)
		b, err := pooled.Run(context.Background(), c, 5000)
		So(err, ShouldBeNil)

		inline.Close()
		pooled.Close()

		Convey("Inline and pooled sampling should draw identical counts", func() {
			if a.Seed != b.Seed {
				t.Log(spew.Sdump(a, b))
			}
			So(a.Seed, ShouldEqual, b.Seed)
			So(a.Counts, ShouldResemble, b.Counts)
			So(pooled.Metrics().ExportMetrics()["batches_scheduled"], ShouldEqual, int64(20))
		})
	})
}

func TestSimulatorStatevector(t *testing.T) {
	Convey("Given a Bell circuit", t, func() {
		sim := newTestSimulator(1)
		defer sim.Close()

		amplitudes, err := sim.Statevector(context.Background(), bellCircuit())
		So(err, ShouldBeNil)

		Convey("It should return the final amplitudes without sampling", func() {
			So(len(amplitudes), ShouldEqual, 4)
			So(real(amplitudes[0b00]), ShouldAlmostEqual, 1/math.Sqrt2, 1e-12)
			So(real(amplitudes[0b11]), ShouldAlmostEqual, 1/math.Sqrt2, 1e-12)
			So(amplitudes[0b01], ShouldEqual, complex(0, 0))
			So(sim.Metrics().ExportMetrics()["shots_sampled"], ShouldEqual, int64(0))
		})
	})
}

func TestSimulatorNormCheck(t *testing.T) {
	Convey("Given a simulator and a one-qubit vector", t, func() {
		sim := newTestSimulator(1)
		defer sim.Close()

		v, err := NewAmplitudeVector(1)
		So(err, ShouldBeNil)

		Convey("Drift inside the limit should be renormalised", func() {
			v.amplitudes[0] = complex(1+1e-8, 0)

			So(sim.checkNorm(v, 0), ShouldBeNil)
			So(v.Norm(), ShouldAlmostEqual, 1.0, 1e-14)
			So(sim.Metrics().ExportMetrics()["renormalizations"], ShouldEqual, int64(1))
		})

		Convey("Rounding noise should be left alone", func() {
			v.amplitudes[0] = complex(1+1e-13, 0)

			So(sim.checkNorm(v, 0), ShouldBeNil)
			So(sim.Metrics().ExportMetrics()["renormalizations"], ShouldEqual, int64(0))
		})

		Convey("Drift beyond the limit should fail the run", func() {
			v.amplitudes[0] = complex(0.9, 0)
			So(sim.checkNorm(v, 3), shouldWrap, ErrUnitarityViolated)
		})
	})
}

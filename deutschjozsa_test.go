package qsim

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func newTestSimulator(seed uint64) *Simulator {
	cfg := NewConfig()
	cfg.Workers = 1
	cfg.Seed = seed

	sim, err := NewSimulator(context.Background(), cfg)
	So(err, ShouldBeNil)
	return sim
}

func runOracle(sim *Simulator, o Oracle, shots int) *Result {
	circuit, err := DeutschJozsa(o)
	So(err, ShouldBeNil)

	result, err := sim.Run(context.Background(), circuit, shots)
	So(err, ShouldBeNil)
	return result
}

func TestDeutschJozsaCircuit(t *testing.T) {
	Convey("Given a balanced oracle over two inputs", t, func() {
		o, err := NewOracleBuilder(nil).BalancedWith(2, 0b01)
		So(err, ShouldBeNil)

		circuit, err := DeutschJozsa(o)
		So(err, ShouldBeNil)

		Convey("It should lay out the five phases", func() {
			So(circuit.Qubits(), ShouldEqual, 3)
			So(circuit.Clbits(), ShouldEqual, 2)
			So(circuit.Gates(), ShouldResemble, []Gate{
				X(2), H(2),
				H(0), H(1),
				X(0), CX(0, 2), X(0),
				H(0), H(1),
			})
		})

		Convey("It should name the segments", func() {
			names := make([]string, 0, 4)
			for _, s := range circuit.Segments() {
				names = append(names, s.Name)
			}
			So(names, ShouldResemble, []string{SegmentPrepare, SegmentSuperpose, SegmentOracle, SegmentInterfere})
			So(circuit.Segments()[2], ShouldResemble, Segment{Name: SegmentOracle, Start: 4, End: 7})
		})

		Convey("It should measure the inputs but never the output qubit", func() {
			So(circuit.Measurements(), ShouldResemble, []Measurement{{0, 0}, {1, 1}})
			So(circuit.Measured(2), ShouldBeFalse)
		})
	})

	Convey("Given a balanced oracle with an all-zero secret", t, func() {
		o := Oracle{Case: BalancedCase, Inputs: 3}

		Convey("The circuit should never be built", func() {
			_, err := DeutschJozsa(o)
			So(err, shouldWrap, ErrInvalidSecret)
		})
	})
}

func TestDeutschJozsaRun(t *testing.T) {
	Convey("Given a seeded simulator", t, func() {
		sim := newTestSimulator(2024)

		Reset(func() {
			sim.Close()
		})

		Convey("A constant zero oracle on two inputs should always measure 00", func() {
			o, err := NewOracleBuilder(nil).ConstantWith(2, 0)
			So(err, ShouldBeNil)

			result := runOracle(sim, o, 100)
			So(result.Counts, ShouldResemble, map[string]int{"00": 100})

			verdict, err := Classify(result.Counts, 2)
			So(err, ShouldBeNil)
			So(verdict.String(), ShouldEqual, "CONSTANT")
		})

		Convey("A balanced oracle with secret 01 should always measure 01", func() {
			secret, err := ParseSecret("01", 2)
			So(err, ShouldBeNil)

			o, err := NewOracleBuilder(nil).BalancedWith(2, secret)
			So(err, ShouldBeNil)

			result := runOracle(sim, o, 100)
			So(result.Counts, ShouldResemble, map[string]int{"01": 100})

			verdict, err := Classify(result.Counts, 2)
			So(err, ShouldBeNil)
			So(verdict.String(), ShouldEqual, "BALANCED")
		})

		Convey("Constant oracles should measure all zeros for every size", func() {
			for n := 1; n <= 6; n++ {
				for bit := 0; bit < 2; bit++ {
					o, err := NewOracleBuilder(nil).ConstantWith(n, bit)
					So(err, ShouldBeNil)

					result := runOracle(sim, o, 64)
					So(result.Counts, ShouldResemble, map[string]int{strings.Repeat("0", n): 64})
					So(result.Probabilities[strings.Repeat("0", n)], ShouldAlmostEqual, 1.0, 1e-9)
				}
			}
		})

		Convey("Balanced oracles should never measure all zeros", func() {
			b := NewOracleBuilder(rand.New(rand.NewPCG(3, 5)))

			for n := 1; n <= 5; n++ {
				for i := 0; i < 4; i++ {
					o, err := b.Balanced(n)
					So(err, ShouldBeNil)

					result := runOracle(sim, o, 64)
					So(result.Counts, ShouldNotContainKey, strings.Repeat("0", n))
					So(result.Counts, ShouldResemble, map[string]int{o.SecretString(): 64})
				}
			}
		})

		Convey("Ladder oracles should always measure all ones", func() {
			b := NewOracleBuilder(nil, WithBalancedMode(Ladder))

			for n := 1; n <= 5; n++ {
				o, err := b.BalancedWith(n, 1)
				So(err, ShouldBeNil)

				result := runOracle(sim, o, 32)
				So(result.Counts, ShouldResemble, map[string]int{strings.Repeat("1", n): 32})

				verdict, err := Classify(result.Counts, n)
				So(err, ShouldBeNil)
				So(verdict, ShouldEqual, Balanced)
			}
		})

		Convey("The norm should stay at one after every phase", func() {
			o, err := NewOracleBuilder(nil).BalancedWith(4, 0b1011)
			So(err, ShouldBeNil)

			circuit, err := DeutschJozsa(o)
			So(err, ShouldBeNil)

			var seen []string
			err = sim.RunPhases(context.Background(), circuit, func(s Segment, norm float64) {
				seen = append(seen, s.Name)
				So(norm, ShouldAlmostEqual, 1.0, 1e-10)
			})

			So(err, ShouldBeNil)
			So(seen, ShouldResemble, []string{SegmentPrepare, SegmentSuperpose, SegmentOracle, SegmentInterfere})
		})

		Convey("An empty oracle segment should still be reported", func() {
			o, err := NewOracleBuilder(nil).ConstantWith(2, 0)
			So(err, ShouldBeNil)

			circuit, err := DeutschJozsa(o)
			So(err, ShouldBeNil)

			var seen []string
			err = sim.RunPhases(context.Background(), circuit, func(s Segment, _ float64) {
				seen = append(seen, s.Name)
			})

			So(err, ShouldBeNil)
			So(seen, ShouldContain, SegmentOracle)
			So(len(seen), ShouldEqual, 4)
		})
	})
}

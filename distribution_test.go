package qsim

import (
	"math/rand/v2"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDistribution(t *testing.T) {
	Convey("Given a basis state measured in reverse order", t, func() {
		v, err := NewAmplitudeVector(2)
		So(err, ShouldBeNil)
		So(X(0).Apply(v), ShouldBeNil)

		d := newDistribution(v, []Measurement{{Qubit: 0, Bit: 1}, {Qubit: 1, Bit: 0}}, 2, 1e-12)

		Convey("Measured qubits should land on their classical bits", func() {
			So(d.Len(), ShouldEqual, 1)
			So(d.Probabilities(), ShouldResemble, map[string]float64{"10": 1})
			So(d.Validate(1e-6), ShouldBeNil)
		})
	})

	Convey("Given a state with negligible amplitudes", t, func() {
		v, err := NewAmplitudeVector(1)
		So(err, ShouldBeNil)
		v.amplitudes[1] = complex(1e-7, 0)

		d := newDistribution(v, []Measurement{{Qubit: 0, Bit: 0}}, 1, 1e-12)

		Convey("Outcomes below epsilon should be impossible", func() {
			So(d.Len(), ShouldEqual, 1)
			So(d.Probabilities(), ShouldContainKey, "0")
			So(d.Probabilities(), ShouldNotContainKey, "1")
		})
	})

	Convey("Given a distribution that does not sum to one", t, func() {
		v, err := NewAmplitudeVector(1)
		So(err, ShouldBeNil)
		v.amplitudes[0] = complex(0.5, 0)

		d := newDistribution(v, []Measurement{{Qubit: 0, Bit: 0}}, 1, 1e-12)

		Convey("Validate should report it", func() {
			So(d.Validate(1e-6), shouldWrap, ErrDistribution)
		})
	})

	Convey("Given a skewed distribution", t, func() {
		v, err := NewAmplitudeVector(1)
		So(err, ShouldBeNil)
		v.amplitudes[0] = complex(0.5, 0)
		v.amplitudes[1] = complex(0, 0.8660254037844386)

		d := newDistribution(v, []Measurement{{Qubit: 0, Bit: 0}}, 1, 1e-12)

		Convey("Sampling should follow the Born rule", func() {
			counts := make(map[uint64]int)
			d.sampleInto(counts, rand.New(rand.NewPCG(5, 8)), 20000)

			So(counts[0]+counts[1], ShouldEqual, 20000)
			So(float64(counts[1])/20000, ShouldAlmostEqual, 0.75, 0.02)
		})

		Convey("The same stream should draw the same samples", func() {
			a := make(map[uint64]int)
			b := make(map[uint64]int)
			d.sampleInto(a, batchRand(77, 3), 1000)
			d.sampleInto(b, batchRand(77, 3), 1000)
			So(a, ShouldResemble, b)
		})
	})
}

func TestSplitShots(t *testing.T) {
	Convey("Given a shot count and a batch size", t, func() {
		So(splitShots(10, 4), ShouldResemble, []int{4, 4, 2})
		So(splitShots(8, 4), ShouldResemble, []int{4, 4})
		So(splitShots(3, 100), ShouldResemble, []int{3})
		So(splitShots(5, 0), ShouldResemble, []int{5})
	})
}

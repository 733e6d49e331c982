package qsim

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestConfig(t *testing.T) {
	Convey("Given the default config", t, func() {
		cfg := NewConfig()

		Convey("It should be valid", func() {
			So(cfg.Validate(), ShouldBeNil)
			So(cfg.MaxQubits, ShouldEqual, 24)
			So(cfg.MaxStateBytes, ShouldEqual, uint64(1<<30))
			So(cfg.Epsilon, ShouldEqual, 1e-12)
			So(cfg.Seed, ShouldEqual, uint64(0))
		})

		Convey("A tolerance above the drift limit should be rejected", func() {
			cfg.NormTolerance = 1e-3
			So(cfg.Validate(), shouldWrap, ErrInvalidArgument)
		})
	})

	Convey("Given a YAML config file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "qsim.yaml")

		Convey("When it overrides some fields", func() {
			data := []byte("max_qubits: 12\nworkers: 2\nseed: 42\nscheduling_timeout: 3s\n")
			So(os.WriteFile(path, data, 0o644), ShouldBeNil)

			cfg, err := LoadConfig(path)

			Convey("The rest should keep their defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.MaxQubits, ShouldEqual, 12)
				So(cfg.Workers, ShouldEqual, 2)
				So(cfg.Seed, ShouldEqual, uint64(42))
				So(cfg.SchedulingTimeout, ShouldEqual, 3*time.Second)
				So(cfg.ShotBatchSize, ShouldEqual, 4096)
			})
		})

		Convey("When it is empty", func() {
			So(os.WriteFile(path, nil, 0o644), ShouldBeNil)

			cfg, err := LoadConfig(path)
			So(err, ShouldBeNil)
			So(cfg, ShouldResemble, NewConfig())
		})

		Convey("When it holds invalid values", func() {
			So(os.WriteFile(path, []byte("max_qubits: -1\n"), 0o644), ShouldBeNil)

			_, err := LoadConfig(path)
			So(err, shouldWrap, ErrInvalidArgument)
		})

		Convey("When it does not exist", func() {
			_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
			So(err, ShouldNotBeNil)
		})
	})
}

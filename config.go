package qsim

import (
	"os"
	"runtime"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the simulator's runtime options.
type Config struct {
	// MaxQubits is the largest register a run may allocate.
	MaxQubits int `yaml:"max_qubits"`
	// MaxStateBytes caps the memory of one amplitude vector (16 bytes per amplitude).
	MaxStateBytes uint64 `yaml:"max_state_bytes"`
	// Workers is the size of the shot sampling pool; 1 samples inline.
	Workers int `yaml:"workers"`
	// ShotBatchSize is the number of shots drawn per sampling job.
	ShotBatchSize int `yaml:"shot_batch_size"`
	// ParallelThreshold is the shot count from which sampling uses the pool.
	ParallelThreshold int `yaml:"parallel_threshold"`
	// NormTolerance is the drift from unit norm that triggers renormalisation.
	NormTolerance float64 `yaml:"norm_tolerance"`
	// DriftLimit is the drift from unit norm treated as a gate logic fault.
	DriftLimit float64 `yaml:"drift_limit"`
	// Epsilon is the probability below which an outcome counts as impossible.
	Epsilon float64 `yaml:"epsilon"`
	// SchedulingTimeout bounds how long a sampling job waits for a worker.
	SchedulingTimeout time.Duration `yaml:"scheduling_timeout"`
	// ScheduleAttempts is how often a batch no worker picked up is scheduled in total.
	ScheduleAttempts int `yaml:"schedule_attempts"`
	// Seed makes runs reproducible; 0 seeds from the runtime source.
	Seed uint64 `yaml:"seed"`
}

func NewConfig() *Config {
	return &Config{
		MaxQubits:         24,
		MaxStateBytes:     1 << 30,
		Workers:           runtime.NumCPU(),
		ShotBatchSize:     4096,
		ParallelThreshold: 8192,
		NormTolerance:     1e-10,
		DriftLimit:        1e-6,
		Epsilon:           1e-12,
		SchedulingTimeout: 10 * time.Second,
		ScheduleAttempts:  3,
	}
}

// LoadConfig reads YAML from path over the defaults. An empty file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}

	cfg := NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects settings the simulator cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.MaxQubits <= 0 || c.MaxQubits > maxAddressableQubits:
		return errors.Wrapf(ErrInvalidArgument, "max_qubits %d", c.MaxQubits)
	case c.MaxStateBytes == 0:
		return errors.Wrap(ErrInvalidArgument, "max_state_bytes must be positive")
	case c.Workers <= 0:
		return errors.Wrapf(ErrInvalidArgument, "workers %d", c.Workers)
	case c.ShotBatchSize <= 0:
		return errors.Wrapf(ErrInvalidArgument, "shot_batch_size %d", c.ShotBatchSize)
	case c.ParallelThreshold < 0:
		return errors.Wrapf(ErrInvalidArgument, "parallel_threshold %d", c.ParallelThreshold)
	case c.NormTolerance <= 0 || c.DriftLimit <= c.NormTolerance:
		return errors.Wrapf(ErrInvalidArgument, "norm_tolerance %g must be positive and below drift_limit %g", c.NormTolerance, c.DriftLimit)
	case c.Epsilon < 0:
		return errors.Wrapf(ErrInvalidArgument, "epsilon %g", c.Epsilon)
	case c.SchedulingTimeout < 0:
		return errors.Wrapf(ErrInvalidArgument, "scheduling_timeout %s", c.SchedulingTimeout)
	case c.ScheduleAttempts <= 0:
		return errors.Wrapf(ErrInvalidArgument, "schedule_attempts %d", c.ScheduleAttempts)
	}
	return nil
}

package qsim

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/pkg/errors"
	"github.com/theapemachine/errnie"
)

// maxOracleInputs keeps secrets inside a uint64 and 2^n-1 inside an int.
const maxOracleInputs = 62

// OracleCase selects which side of the Deutsch-Jozsa promise an oracle honours.
type OracleCase int

const (
	ConstantCase OracleCase = iota
	BalancedCase
)

func (c OracleCase) String() string {
	switch c {
	case ConstantCase:
		return "constant"
	case BalancedCase:
		return "balanced"
	default:
		return fmt.Sprintf("case(%d)", int(c))
	}
}

// ParseOracleCase accepts "constant" or "balanced", case-insensitively.
func ParseOracleCase(s string) (OracleCase, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "constant":
		return ConstantCase, nil
	case "balanced":
		return BalancedCase, nil
	default:
		return 0, errors.Wrapf(ErrInvalidArgument, "oracle case %q", s)
	}
}

/*
BalancedMode picks the gate construction of a balanced oracle.

InnerProduct wraps a CX from every secret qubit in X gates and computes
f(x) = x·s ⊕ |s| mod 2, so the measured outcome is the secret itself.
Ladder wraps a CX from every input qubit in the same X gates and computes
f(x) = parity(x) ⊕ parity(s), so the measured outcome is always all ones.
*/
type BalancedMode int

const (
	InnerProduct BalancedMode = iota
	Ladder
)

func (m BalancedMode) String() string {
	switch m {
	case InnerProduct:
		return "inner-product"
	case Ladder:
		return "ladder"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseBalancedMode accepts "inner-product" or "ladder".
func ParseBalancedMode(s string) (BalancedMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inner-product", "innerproduct", "":
		return InnerProduct, nil
	case "ladder":
		return Ladder, nil
	default:
		return 0, errors.Wrapf(ErrInvalidArgument, "balanced mode %q", s)
	}
}

// RandomSource supplies oracle parameters. *rand.Rand from math/rand/v2 satisfies it.
type RandomSource interface {
	IntN(n int) int
}

/*
Oracle describes a boolean function on Inputs bits that honours the
Deutsch-Jozsa promise. It compiles deterministically to a gate sequence over
Inputs+1 qubits, qubit Inputs being the output qubit.
*/
type Oracle struct {
	Case      OracleCase
	Inputs    int
	OutputBit int
	Secret    uint64
	Mode      BalancedMode
}

// Qubits returns the register size the oracle acts on.
func (o Oracle) Qubits() int {
	return o.Inputs + 1
}

// Validate checks the descriptor before it is compiled into gates.
func (o Oracle) Validate() error {
	if o.Inputs <= 0 || o.Inputs > maxOracleInputs {
		return errors.Wrapf(ErrInvalidArgument, "oracle over %d input qubits", o.Inputs)
	}

	switch o.Case {
	case ConstantCase:
		if o.OutputBit != 0 && o.OutputBit != 1 {
			return errors.Wrapf(ErrInvalidArgument, "constant output bit %d", o.OutputBit)
		}
	case BalancedCase:
		if o.Secret == 0 {
			return errors.Wrap(ErrInvalidSecret, "secret of all zeros is a constant function")
		}
		if o.Secret>>uint(o.Inputs) != 0 {
			return errors.Wrapf(ErrInvalidSecret, "secret %b wider than %d inputs", o.Secret, o.Inputs)
		}
		if o.Mode != InnerProduct && o.Mode != Ladder {
			return errors.Wrapf(ErrInvalidArgument, "balanced mode %d", int(o.Mode))
		}
	default:
		return errors.Wrapf(ErrInvalidArgument, "oracle case %d", int(o.Case))
	}

	return nil
}

// Gates compiles the oracle into gates over Inputs+1 qubits.
func (o Oracle) Gates() []Gate {
	n := o.Inputs

	if o.Case == ConstantCase {
		if o.OutputBit == 1 {
			return []Gate{X(n)}
		}
		return nil
	}

	var flips []Gate
	for q := 0; q < n; q++ {
		if o.secretBit(q) {
			flips = append(flips, X(q))
		}
	}

	gates := make([]Gate, 0, 2*len(flips)+n)
	gates = append(gates, flips...)

	for q := 0; q < n; q++ {
		if o.Mode == Ladder || o.secretBit(q) {
			gates = append(gates, CX(q, n))
		}
	}

	return append(gates, flips...)
}

// Evaluate computes f(x) classically, for checking the compiled gates.
func (o Oracle) Evaluate(x uint64) int {
	mask := uint64(1)<<uint(o.Inputs) - 1
	x &= mask

	switch {
	case o.Case == ConstantCase:
		return o.OutputBit
	case o.Mode == Ladder:
		return bits.OnesCount64(x^o.Secret) & 1
	default:
		return (bits.OnesCount64(x&o.Secret) + bits.OnesCount64(o.Secret)) & 1
	}
}

// SecretString renders the secret with qubit 0 rightmost, or "" for constant oracles.
func (o Oracle) SecretString() string {
	if o.Case != BalancedCase {
		return ""
	}
	return FormatBits(o.Secret, o.Inputs)
}

func (o Oracle) String() string {
	if o.Case == ConstantCase {
		return fmt.Sprintf("constant(%d) over %d inputs", o.OutputBit, o.Inputs)
	}
	return fmt.Sprintf("balanced(%s, %s) over %d inputs", o.SecretString(), o.Mode, o.Inputs)
}

func (o Oracle) secretBit(q int) bool {
	return o.Secret>>uint(q)&1 == 1
}

// OracleOption configures an OracleBuilder.
type OracleOption func(*OracleBuilder)

// WithBalancedMode selects the balanced construction.
func WithBalancedMode(mode BalancedMode) OracleOption {
	return func(b *OracleBuilder) {
		b.mode = mode
	}
}

/*
OracleBuilder draws oracle parameters from an injected RandomSource, or takes
them explicitly, and returns validated descriptors. A balanced secret of all
zeros never leaves the builder.
*/
type OracleBuilder struct {
	rng  RandomSource
	mode BalancedMode
}

// NewOracleBuilder returns a builder drawing from rng.
func NewOracleBuilder(rng RandomSource, opts ...OracleOption) *OracleBuilder {
	b := &OracleBuilder{
		rng:  rng,
		mode: InnerProduct,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Build draws a random oracle of the requested case.
func (b *OracleBuilder) Build(c OracleCase, n int) (Oracle, error) {
	switch c {
	case ConstantCase:
		return b.Constant(n)
	case BalancedCase:
		return b.Balanced(n)
	default:
		return Oracle{}, errors.Wrapf(ErrInvalidArgument, "oracle case %d", int(c))
	}
}

// Constant draws the output bit at random.
func (b *OracleBuilder) Constant(n int) (Oracle, error) {
	if err := b.checkRandom(n); err != nil {
		return Oracle{}, err
	}
	return b.ConstantWith(n, b.rng.IntN(2))
}

// ConstantWith builds a constant oracle with an explicit output bit.
func (b *OracleBuilder) ConstantWith(n, outputBit int) (Oracle, error) {
	o := Oracle{
		Case:      ConstantCase,
		Inputs:    n,
		OutputBit: outputBit,
	}

	if err := o.Validate(); err != nil {
		return Oracle{}, err
	}

	errnie.Info("constant oracle output: %d", outputBit)
	return o, nil
}

// Balanced draws a non-zero secret uniformly from [1, 2^n).
func (b *OracleBuilder) Balanced(n int) (Oracle, error) {
	if err := b.checkRandom(n); err != nil {
		return Oracle{}, err
	}
	return b.BalancedWith(n, uint64(b.rng.IntN(1<<uint(n)-1))+1)
}

// BalancedWith builds a balanced oracle from an explicit secret.
func (b *OracleBuilder) BalancedWith(n int, secret uint64) (Oracle, error) {
	o := Oracle{
		Case:   BalancedCase,
		Inputs: n,
		Secret: secret,
		Mode:   b.mode,
	}

	if err := o.Validate(); err != nil {
		return Oracle{}, err
	}

	errnie.Info("balanced oracle secret string: %s", o.SecretString())
	return o, nil
}

func (b *OracleBuilder) checkRandom(n int) error {
	if b.rng == nil {
		return errors.Wrap(ErrInvalidArgument, "oracle builder has no random source")
	}
	if n <= 0 || n > maxOracleInputs {
		return errors.Wrapf(ErrInvalidArgument, "oracle over %d input qubits", n)
	}
	return nil
}

// ParseSecret parses an n-character bitstring, qubit 0 rightmost.
func ParseSecret(s string, n int) (uint64, error) {
	value, err := ParseBits(s, n)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidSecret, "%v", err)
	}
	return value, nil
}

// ParseBits parses an n-character bitstring, bit 0 rightmost.
func ParseBits(s string, n int) (uint64, error) {
	if n <= 0 || n > 64 {
		return 0, errors.Wrapf(ErrInvalidArgument, "bitstring width %d", n)
	}

	if len(s) != n {
		return 0, errors.Wrapf(ErrInvalidArgument, "bitstring %q is not %d bits wide", s, n)
	}

	var value uint64
	for i, r := range s {
		switch r {
		case '0':
		case '1':
			value |= 1 << uint(n-1-i)
		default:
			return 0, errors.Wrapf(ErrInvalidArgument, "bitstring %q has non-binary digit %q", s, r)
		}
	}

	return value, nil
}

// FormatBits renders value as a width-character bitstring, bit 0 rightmost.
func FormatBits(value uint64, width int) string {
	if width <= 0 {
		return ""
	}
	return fmt.Sprintf("%0*b", width, value)
}

package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/theapemachine/qsim"
)

var (
	runQubits      int
	runOracle      string
	runShots       int
	runOutputBit   int
	runSecret      string
	runMode        string
	runSeed        uint64
	runWorkers     int
	runFormat      string
	runDraw        bool
	runStatevector bool
)

// runCmd builds and simulates one Deutsch-Jozsa circuit
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run Deutsch-Jozsa against a constant or balanced oracle",
	Long: `Run draws an oracle over --qubits input qubits, wraps it in the
Deutsch-Jozsa circuit, samples --shots measurements and prints the counts
together with the predicted oracle class.

Bitstrings are printed with qubit 0 rightmost, and --secret is read the same way.`,
	Example: `  qsim run
  qsim run --qubits 3 --oracle balanced --secret 101
  qsim run --qubits 2 --oracle constant --output-bit 1 --format json`,
	PreRunE: validateRunFlags,
	RunE:    runDeutschJozsa,
}

func init() {
	runCmd.Flags().IntVarP(&runQubits, "qubits", "n", 9, "Number of input qubits")
	runCmd.Flags().StringVarP(&runOracle, "oracle", "o", "constant", "Oracle case: constant or balanced")
	runCmd.Flags().IntVarP(&runShots, "shots", "s", 1024, "Number of measurement shots")
	runCmd.Flags().IntVar(&runOutputBit, "output-bit", -1, "Constant oracle output, 0 or 1 (default: random)")
	runCmd.Flags().StringVar(&runSecret, "secret", "", "Balanced oracle secret bitstring (default: random non-zero)")
	runCmd.Flags().StringVar(&runMode, "mode", "inner-product", "Balanced oracle construction: inner-product or ladder")
	runCmd.Flags().Uint64Var(&runSeed, "seed", 0, "Seed for the oracle and sampling (0: random)")
	runCmd.Flags().IntVarP(&runWorkers, "workers", "w", 0, "Sampling workers (default: from config)")
	runCmd.Flags().StringVarP(&runFormat, "format", "f", qsim.FormatTable, "Output format: table, json or yaml")
	runCmd.Flags().BoolVar(&runDraw, "draw", false, "Print the circuit diagram before running")
	runCmd.Flags().BoolVar(&runStatevector, "statevector", false, "Print the final amplitudes")
}

// validateRunFlags rejects flag combinations before any circuit is built.
func validateRunFlags(cmd *cobra.Command, args []string) error {
	if runQubits <= 0 {
		return errors.Wrapf(qsim.ErrInvalidArgument, "qubit count %d", runQubits)
	}

	if runShots <= 0 {
		return errors.Wrapf(qsim.ErrInvalidArgument, "shot count %d", runShots)
	}

	if runOutputBit < -1 || runOutputBit > 1 {
		return errors.Wrapf(qsim.ErrInvalidArgument, "output bit %d", runOutputBit)
	}

	oracleCase, err := qsim.ParseOracleCase(runOracle)
	if err != nil {
		return err
	}

	switch {
	case oracleCase == qsim.ConstantCase && runSecret != "":
		return errors.Wrap(qsim.ErrInvalidArgument, "--secret only applies to a balanced oracle")
	case oracleCase == qsim.BalancedCase && runOutputBit >= 0:
		return errors.Wrap(qsim.ErrInvalidArgument, "--output-bit only applies to a constant oracle")
	}

	return nil
}

func runDeutschJozsa(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	oracle, err := buildOracle(cfg.Seed)
	if err != nil {
		return err
	}

	circuit, err := qsim.DeutschJozsa(oracle)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if runDraw {
		fmt.Fprintln(out, qsim.Draw(circuit))
	}

	sim, err := qsim.NewSimulator(ctx, cfg)
	if err != nil {
		return err
	}
	defer sim.Close()

	if runStatevector {
		amplitudes, err := sim.Statevector(ctx, circuit)
		if err != nil {
			return err
		}
		printStatevector(cmd, amplitudes, circuit.Qubits())
	}

	result, err := sim.Run(ctx, circuit, runShots)
	if err != nil {
		return err
	}

	classification, err := qsim.Classify(result.Counts, oracle.Inputs)
	if err != nil {
		return err
	}

	report := qsim.Report{
		Oracle:         oracle,
		Result:         result,
		Classification: classification,
		Metrics:        sim.Metrics().ExportMetrics(),
	}

	return report.Write(out, runFormat)
}

func loadConfig() (*qsim.Config, error) {
	cfg := qsim.NewConfig()

	if configPath != "" {
		loaded, err := qsim.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if runSeed != 0 {
		cfg.Seed = runSeed
	}

	if runWorkers > 0 {
		cfg.Workers = runWorkers
	}

	return cfg, cfg.Validate()
}

func buildOracle(seed uint64) (qsim.Oracle, error) {
	oracleCase, err := qsim.ParseOracleCase(runOracle)
	if err != nil {
		return qsim.Oracle{}, err
	}

	mode, err := qsim.ParseBalancedMode(runMode)
	if err != nil {
		return qsim.Oracle{}, err
	}

	if seed == 0 {
		seed = rand.Uint64()
	}

	builder := qsim.NewOracleBuilder(
		rand.New(rand.NewPCG(seed, ^seed)),
		qsim.WithBalancedMode(mode),
	)

	switch {
	case oracleCase == qsim.ConstantCase && runOutputBit >= 0:
		return builder.ConstantWith(runQubits, runOutputBit)
	case oracleCase == qsim.BalancedCase && runSecret != "":
		secret, err := qsim.ParseSecret(runSecret, runQubits)
		if err != nil {
			return qsim.Oracle{}, err
		}
		return builder.BalancedWith(runQubits, secret)
	default:
		return builder.Build(oracleCase, runQubits)
	}
}

func printStatevector(cmd *cobra.Command, amplitudes []complex128, qubits int) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Statevector:")

	for i, a := range amplitudes {
		if real(a)*real(a)+imag(a)*imag(a) <= 1e-12 {
			continue
		}
		fmt.Fprintf(out, "  |%s⟩  %+.6f%+.6fi\n", qsim.FormatBits(uint64(i), qubits), real(a), imag(a))
	}

	fmt.Fprintln(out)
}

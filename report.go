package qsim

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Report formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Report bundles everything printed after a Deutsch-Jozsa run.
type Report struct {
	Oracle         Oracle
	Result         *Result
	Classification Classification
	// Metrics is an optional snapshot from Metrics.ExportMetrics.
	Metrics map[string]any
}

type reportOutcome struct {
	Outcome     string  `json:"outcome" yaml:"outcome"`
	Count       int     `json:"count" yaml:"count"`
	Probability float64 `json:"probability" yaml:"probability"`
}

type reportView struct {
	RunID      string          `json:"run_id" yaml:"run_id"`
	Oracle     string          `json:"oracle" yaml:"oracle"`
	Secret     string          `json:"secret,omitempty" yaml:"secret,omitempty"`
	Qubits     int             `json:"qubits" yaml:"qubits"`
	Shots      int             `json:"shots" yaml:"shots"`
	Seed       uint64          `json:"seed" yaml:"seed"`
	DurationMS float64         `json:"duration_ms" yaml:"duration_ms"`
	Counts     map[string]int  `json:"counts" yaml:"counts"`
	Outcomes   []reportOutcome `json:"outcomes" yaml:"outcomes"`
	Prediction string          `json:"prediction" yaml:"prediction"`
	Metrics    map[string]any  `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// Write renders the report to w in the given format.
func (r Report) Write(w io.Writer, format string) error {
	if r.Result == nil {
		return errors.Wrap(ErrInvalidArgument, "report without a result")
	}

	switch strings.ToLower(format) {
	case FormatTable, "":
		return r.writeTable(w)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(r.view()), "encode json report")
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return errors.Wrap(enc.Encode(r.view()), "encode yaml report")
	default:
		return errors.Wrapf(ErrInvalidArgument, "report format %q", format)
	}
}

func (r Report) view() reportView {
	outcomes := r.Result.Outcomes()
	rows := make([]reportOutcome, len(outcomes))
	for i, o := range outcomes {
		rows[i] = reportOutcome(o)
	}

	return reportView{
		RunID:      r.Result.RunID,
		Oracle:     r.Oracle.String(),
		Secret:     r.Oracle.SecretString(),
		Qubits:     r.Result.Qubits,
		Shots:      r.Result.Shots,
		Seed:       r.Result.Seed,
		DurationMS: float64(r.Result.Duration.Microseconds()) / 1000,
		Counts:     r.Result.Counts,
		Outcomes:   rows,
		Prediction: r.Classification.String(),
		Metrics:    r.Metrics,
	}
}

func (r Report) writeTable(w io.Writer) error {
	fmt.Fprintf(w, "Oracle: %s\n", r.Oracle)
	fmt.Fprintf(w, "Run %s: %d shots over %d qubits in %s\n\n", r.Result.RunID, r.Result.Shots, r.Result.Qubits, r.Result.Duration)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Outcome", "Count", "Probability", "Frequency"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	for _, o := range r.Result.Outcomes() {
		table.Append([]string{
			o.Outcome,
			strconv.Itoa(o.Count),
			strconv.FormatFloat(o.Probability, 'f', 4, 64),
			fmt.Sprintf("%.2f%%", 100*float64(o.Count)/float64(r.Result.Shots)),
		})
	}
	table.Render()

	paint := color.New(color.FgGreen, color.Bold)
	if r.Classification == Balanced {
		paint = color.New(color.FgYellow, color.Bold)
	}

	if len(r.Metrics) > 0 {
		keys := make([]string, 0, len(r.Metrics))
		for key := range r.Metrics {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		pairs := make([]string, len(keys))
		for i, key := range keys {
			pairs[i] = fmt.Sprintf("%s=%v", key, r.Metrics[key])
		}
		fmt.Fprintf(w, "\nMetrics: %s\n", strings.Join(pairs, " "))
	}

	fmt.Fprintln(w)
	_, err := paint.Fprintf(w, "Prediction: Function is %s.\n", r.Classification)
	return errors.Wrap(err, "write prediction")
}

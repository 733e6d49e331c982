package qsim

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	cellWire    = "───"
	cellCross   = "─┼─"
	cellBarrier = "─░─"
)

type column struct {
	cells []string
	label string
}

/*
Draw renders a circuit as text, one row per qubit and one column per gate.
Segment boundaries are drawn as barrier columns with the segment names in a
header row, and measured qubits end in M. Labels are cut short where the
next one starts. A one-input balanced circuit draws as:

	    prepare  super oracle      interfere
	q0: ───────░──H──░──X──●──X──░──H──░──M─
	q1: ─X──H──░─────░─────⊕─────░─────░────
*/
func Draw(c *Circuit) string {
	if c == nil {
		return ""
	}

	var columns []column
	barrierAt := -1

	for i := 0; i <= len(c.gates); i++ {
		label := c.segmentLabel(i)

		if (label != "" || i == len(c.gates)) && len(columns) > 0 && barrierAt != len(columns) {
			columns = append(columns, c.fill(cellBarrier))
			barrierAt = len(columns)
		}

		if i == len(c.gates) {
			if label != "" && len(columns) > 0 {
				columns[len(columns)-1].label = label
			}
			break
		}

		col := c.gateColumn(c.gates[i])
		col.label = label
		columns = append(columns, col)
	}

	measure := c.fill(cellWire)
	for _, m := range c.measurements {
		measure.cells[m.Qubit] = "─M─"
	}
	columns = append(columns, measure)

	prefixes := make([]string, c.qubits)
	width := 0
	for q := range prefixes {
		prefixes[q] = fmt.Sprintf("q%d: ", q)
		width = max(width, len(prefixes[q]))
	}

	var out strings.Builder

	if len(c.segments) > 0 {
		out.WriteString(drawHeader(columns, width))
		out.WriteByte('\n')
	}

	for q := 0; q < c.qubits; q++ {
		out.WriteString(fmt.Sprintf("%-*s", width, prefixes[q]))
		for _, col := range columns {
			out.WriteString(col.cells[q])
		}
		out.WriteByte('\n')
	}

	return out.String()
}

func (c *Circuit) fill(cell string) column {
	cells := make([]string, c.qubits)
	for q := range cells {
		cells[q] = cell
	}
	return column{cells: cells}
}

func (c *Circuit) gateColumn(g Gate) column {
	col := c.fill(cellWire)

	switch g.Kind {
	case Hadamard:
		col.cells[g.Target] = "─H─"
	case PauliX:
		col.cells[g.Target] = "─X─"
	case ControlledX:
		lo, hi := min(g.Control, g.Target), max(g.Control, g.Target)
		for q := lo + 1; q < hi; q++ {
			col.cells[q] = cellCross
		}
		col.cells[g.Control] = "─●─"
		col.cells[g.Target] = "─⊕─"
	}

	return col
}

// segmentLabel joins the names of every segment starting at gate i.
func (c *Circuit) segmentLabel(i int) string {
	var names []string
	for _, s := range c.segments {
		if s.Start == i {
			names = append(names, s.Name)
		}
	}
	return strings.Join(names, ",")
}

// drawHeader places each label over its column, cut short where the next one starts.
func drawHeader(columns []column, indent int) string {
	offsets := make([]int, len(columns))
	total := indent
	for i, col := range columns {
		offsets[i] = total
		total += utf8.RuneCountInString(col.cells[0])
	}

	line := []rune(strings.Repeat(" ", total))
	for i, col := range columns {
		if col.label == "" {
			continue
		}

		limit := total
		for j := i + 1; j < len(columns); j++ {
			if columns[j].label != "" {
				limit = offsets[j] - 1
				break
			}
		}

		for k, r := range []rune(col.label) {
			pos := offsets[i] + k
			if pos >= limit {
				break
			}
			line[pos] = r
		}
	}

	return strings.TrimRight(string(line), " ")
}

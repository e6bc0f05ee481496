// Package dot renders a sequence's precedence in-tree as a Graphviz DOT
// file, for visual inspection of a finished bracketing/schedule.
package dot

import (
	"fmt"
	"os"
	"strings"

	"jacobianbnb/internal/jcdp"
)

// Write renders seq's precedence in-tree (every op, labeled with its
// action/mode/block coordinates and fma cost, an edge to its parent) to
// path as a DOT digraph.
func Write(seq *jcdp.Sequence, path string) error {
	var sb strings.Builder
	sb.WriteString("digraph Sequence {\n")
	sb.WriteString("  rankdir=BT;\n")
	sb.WriteString("  node [shape=box, style=filled, fontname=\"Arial\"];\n\n")

	for i, op := range seq.Ops {
		color := "lightyellow"
		switch op.Action {
		case jcdp.ActionAccumulation:
			color = "lightgreen"
		case jcdp.ActionElimination:
			color = "lightblue"
		case jcdp.ActionMultiplication:
			color = "lightpink"
		}
		label := fmt.Sprintf("%s\\n(%d,%d,%d) %s\\nfma=%d", op.Action, op.J, op.K, op.I, op.Mode, op.FMA)
		if op.IsScheduled {
			label += fmt.Sprintf("\\nt=%d start=%d", op.Thread, op.StartTime)
		}
		sb.WriteString(fmt.Sprintf("  op%d [label=\"%s\", fillcolor=\"%s\"];\n", i, label, color))
	}

	sb.WriteString("\n")
	for i := range seq.Ops {
		if p := seq.Parent(i); p >= 0 {
			sb.WriteString(fmt.Sprintf("  op%d -> op%d;\n", i, p))
		}
	}

	sb.WriteString("}\n")

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("writing DOT file %q: %w", path, err)
	}
	return nil
}

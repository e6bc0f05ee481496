package dot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jacobianbnb/internal/jcdp"
)

func TestWriteProducesWellFormedDigraph(t *testing.T) {
	s := jcdp.NewSequence()
	s.Push(jcdp.Operation{Action: jcdp.ActionAccumulation, Mode: jcdp.ModeTangent, J: 1, K: -1, I: 0, FMA: 4})
	s.Push(jcdp.Operation{Action: jcdp.ActionAccumulation, Mode: jcdp.ModeTangent, J: 3, K: -1, I: 2, FMA: 5})
	s.Push(jcdp.Operation{Action: jcdp.ActionElimination, Mode: jcdp.ModeTangent, J: 3, K: 1, I: 0, FMA: 6})

	path := filepath.Join(t.TempDir(), "seq.dot")
	if err := Write(s, path); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written DOT file: %v", err)
	}
	out := string(data)

	if !strings.HasPrefix(out, "digraph Sequence {") {
		t.Error("output should open with a digraph header")
	}
	if !strings.HasSuffix(strings.TrimSpace(out), "}") {
		t.Error("output should close with a brace")
	}
	if strings.Count(out, "op0 [label=") != 1 || strings.Count(out, "op1 [label=") != 1 || strings.Count(out, "op2 [label=") != 1 {
		t.Errorf("expected one node declaration per operation, got:\n%s", out)
	}
	// op0 and op1 are both consumed by op2's elimination.
	if !strings.Contains(out, "op0 -> op2;") {
		t.Error("expected an edge from op0 to its consumer op2")
	}
	if !strings.Contains(out, "op1 -> op2;") {
		t.Error("expected an edge from op1 to its consumer op2")
	}
}

func TestWriteErrorsOnUnwritablePath(t *testing.T) {
	s := jcdp.NewSequence()
	if err := Write(s, filepath.Join(t.TempDir(), "nonexistent-dir", "seq.dot")); err == nil {
		t.Fatal("expected an error writing to a directory that does not exist")
	}
}

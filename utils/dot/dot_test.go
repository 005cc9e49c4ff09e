package dot

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteDot(t *testing.T) {
	a := &DotNode{ID: "a", Attrs: DotAttrs{"shape": "box", "label": "Block"}}
	b := &DotNode{ID: "b"}
	g := &DotGraph{
		Title:   "M",
		Nodes:   []*DotNode{a, b},
		Edges:   []*DotEdge{{From: a, To: b, Attrs: DotAttrs{"style": "dashed"}}},
		Options: map[string]string{"minlen": "1", "nodesep": "0.35"},
	}

	var buf bytes.Buffer
	if err := g.WriteDot(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		`digraph BoundTree {`,
		`label="M";`,
		`"a" [ label="Block"; shape="box"; ]`,
		`"a" -> "b" [ style="dashed"; ]`,
		`edge [minlen="1"]`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Output does not contain %s:\n%s", want, out)
		}
	}
}

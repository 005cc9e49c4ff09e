package indenter

import "testing"

type name string

func (n name) String() string { return string(n) }

func TestIndenter(t *testing.T) {
	in := New()
	in.Line("root").Nest(func() {
		in.Line("a")
		in.NestLines(name("b"), name("c"))
	}).Line("end")

	expected := "root\n  a\n    b\n    c\nend\n"
	if res := in.String(); res != expected {
		t.Errorf("Expected\n%q\ngot\n%q", expected, res)
	}
}

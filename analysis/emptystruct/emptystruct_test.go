package emptystruct

import (
	"testing"

	"github.com/cs-au-dk/flowpass/analysis/symbols"
)

func staticField(name string, typ *symbols.Type) *symbols.Field {
	f := symbols.NewField(name, typ)
	f.Static = true
	return f
}

func TestIsEmptyStructType(t *testing.T) {
	empty := symbols.NewStruct("Empty")
	staticOnly := symbols.NewStruct("StaticOnly", staticField("count", symbols.Int))
	withInt := symbols.NewStruct("WithInt", symbols.NewField("x", symbols.Int))
	nested := symbols.NewStruct("Nested", symbols.NewField("e", empty), symbols.NewField("s", staticOnly))
	wrapsInt := symbols.NewStruct("WrapsInt", symbols.NewField("w", withInt))

	self := symbols.NewStruct("Self")
	self.AddFields(symbols.NewField("next", self))

	circular := symbols.NewStruct("Circular", symbols.NewField("x", symbols.Int))
	circular.CircularStruct = true

	tests := []struct {
		typ      *symbols.Type
		expected bool
	}{
		{empty, true},
		{staticOnly, true},
		{withInt, false},
		{nested, true},
		{wrapsInt, false},
		{self, true},
		{circular, false},
		{symbols.Int, false},
		{symbols.NewClass("C"), false},
		{nil, false},
	}

	for _, test := range tests {
		c := NewPrecise()
		if res := c.IsEmptyStructType(test.typ); res != test.expected {
			t.Errorf("IsEmptyStructType(%v) = %v, expected %v", test.typ, res, test.expected)
		}
		// The second lookup is served by the cache.
		if res := c.IsEmptyStructType(test.typ); res != test.expected {
			t.Errorf("Cached IsEmptyStructType(%v) = %v, expected %v", test.typ, res, test.expected)
		}
	}
}

func TestNeverEmpty(t *testing.T) {
	c := NewNeverEmpty()
	if c.IsEmptyStructType(symbols.NewStruct("Empty")) {
		t.Error("Structs are never empty in never-empty mode")
	}
}

func TestDev12(t *testing.T) {
	hidden := symbols.NewField("o", symbols.Object)
	hidden.Accessibility = symbols.Private
	external := symbols.NewStruct("External", hidden)
	external.External = true

	local := symbols.NewStruct("Local", symbols.NewField("o", symbols.Object))
	local.Fields()[0].Accessibility = symbols.Private

	visible := symbols.NewStruct("Visible", symbols.NewField("o", symbols.Object))
	visible.External = true

	hiddenInt := symbols.NewField("x", symbols.Int)
	hiddenInt.Accessibility = symbols.Internal
	value := symbols.NewStruct("Value", hiddenInt)
	value.External = true

	tests := []struct {
		typ            *symbols.Type
		precise, dev12 bool
	}{
		{external, false, true},
		{local, false, false},
		{visible, false, false},
		{value, false, false},
	}

	for _, test := range tests {
		if res := NewPrecise().IsEmptyStructType(test.typ); res != test.precise {
			t.Errorf("Precise: IsEmptyStructType(%v) = %v, expected %v", test.typ, res, test.precise)
		}
		if res := NewDev12().IsEmptyStructType(test.typ); res != test.dev12 {
			t.Errorf("Dev12: IsEmptyStructType(%v) = %v, expected %v", test.typ, res, test.dev12)
		}
	}
}

func TestStructInstanceFields(t *testing.T) {
	x := symbols.NewField("x", symbols.Int)
	s := symbols.NewStruct("S", x, staticField("y", symbols.Int))

	fields := NewPrecise().StructInstanceFields(s)
	if len(fields) != 1 || fields[0] != x {
		t.Errorf("Expected only x, got %v", fields)
	}
	if fields := NewPrecise().StructInstanceFields(symbols.NewClass("C", symbols.NewField("z", symbols.Int))); fields != nil {
		t.Errorf("Classes have no struct fields, got %v", fields)
	}
}

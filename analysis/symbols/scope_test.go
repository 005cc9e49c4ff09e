package symbols

import "testing"

func TestIsCapturedBy(t *testing.T) {
	m := NewMethod("M", Void)
	outer := NewLocal("x", Int, m)
	fn := NewLocalFunction("F", m, Void)
	inner := NewLocal("y", Int, fn)
	lambda := NewLambda(fn)
	nested := NewLocal("z", Int, lambda)

	tests := []struct {
		variable Symbol
		fn       Function
		expected bool
	}{
		{outer, fn, true},
		{outer, lambda, true},
		{inner, fn, false},
		{inner, lambda, true},
		{nested, fn, false},
		{outer, m, false},
		{NewField("f", Int), fn, false},
	}

	for _, test := range tests {
		if res := IsCapturedBy(test.variable, test.fn); res != test.expected {
			t.Errorf("IsCapturedBy(%s, %s) = %v, expected %v\n", test.variable, test.fn, res, test.expected)
		}
	}
}

func TestNearestLocalFunction(t *testing.T) {
	m := NewMethod("M", Void)
	fn := NewLocalFunction("F", m, Void)
	lambda := NewLambda(fn)

	if res := NearestLocalFunction(lambda); res != fn {
		t.Errorf("Expected %s, got %v", fn, res)
	}
	if res := NearestLocalFunction(NewLambda(m)); res != nil {
		t.Errorf("Expected no local function, got %s", res)
	}
}

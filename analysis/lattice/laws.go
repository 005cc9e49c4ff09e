package lattice

import "fmt"

// CheckLaws verifies the Join and Meet laws of l against every sample and
// panics with ErrLawViolation on the first failure.
func CheckLaws[S State[S]](l Lattice[S], samples ...S) {
	for _, x := range samples {
		expect := func(law string, got, want S) {
			if !got.Eq(want) {
				panic(fmt.Errorf("%w: %s with X = %s gives %s, expected %s",
					ErrLawViolation, law, x, got, want))
			}
		}

		s := l.Unreachable()
		l.Join(s, x.Clone())
		expect("Join(Unreachable, X)", s, x)

		s = l.Top()
		l.Join(s, x.Clone())
		expect("Join(Top, X)", s, l.Top())

		s = l.Unreachable()
		l.Meet(s, x.Clone())
		expect("Meet(Unreachable, X)", s, l.Unreachable())

		s = l.Top()
		l.Meet(s, x.Clone())
		expect("Meet(Top, X)", s, x)
	}
}

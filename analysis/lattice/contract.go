package lattice

// State is an abstract snapshot of the analysis facts at one program point.
// States are pointers mutated in place by Join and Meet; whoever stores a
// state keeps its own Clone.
type State[S any] interface {
	Clone() S
	// Reachable reports whether the program point may execute.
	Reachable() bool
	Eq(S) bool
	String() string
}

// Lattice supplies the distinguished states and the combining operations.
// It must satisfy:
//
//	Join(Unreachable, X) = X
//	Join(Top, X)         = Top
//	Meet(Unreachable, X) = Unreachable
//	Meet(Top, X)         = X
type Lattice[S State[S]] interface {
	// Top is the entry state: reachable with no facts established.
	Top() S
	Unreachable() S
	// ReachableBottom is the identity of Join among reachable states. Lattices
	// that do not track unassignment return their unreachable state.
	ReachableBottom() S
	// Join merges other into self at a control-flow merge and reports
	// whether self changed.
	Join(self, other S) bool
	// Meet combines other into self additively and reports whether self
	// changed.
	Meet(self, other S) bool
}

// Union and Intersect are raw set operations, ignoring reachability, offered
// by set-based lattices.
type Union[S any] interface {
	Union(self, other S) bool
}

type Intersect[S any] interface {
	Intersect(self, other S) bool
}

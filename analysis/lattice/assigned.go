package lattice

import (
	"fmt"
	"strings"

	"golang.org/x/tools/container/intsets"
)

// AssignmentLattice is the definite assignment lattice: a bit vector over
// variable slots where a set bit means "definitely assigned". Slot 0 encodes
// reachability: an unreachable state has every bit set, so that every
// variable counts as assigned in dead code.
//
// Joins intersect (a variable is assigned after a merge only if it is on
// every incoming path), meets take the union.
type AssignmentLattice struct{}

var assignmentLattice = &AssignmentLattice{}

var (
	_ Lattice[*AssignedState]   = &AssignmentLattice{}
	_ Union[*AssignedState]     = &AssignmentLattice{}
	_ Intersect[*AssignedState] = &AssignmentLattice{}
)

// Assignment returns the definite assignment lattice.
func Assignment() *AssignmentLattice {
	return assignmentLattice
}

// AssignedState is a possibly infinite set of assigned slots. When complement
// is set, bits lists the slots that are not assigned.
type AssignedState struct {
	bits       intsets.Sparse
	complement bool
}

// Mask returns the raw set of the given slots. Masks are used with Union and
// Intersect and are not meaningful as flow states.
func Mask(slots ...int) *AssignedState {
	m := &AssignedState{}
	for _, s := range slots {
		m.bits.Insert(s)
	}
	return m
}

func (*AssignmentLattice) Top() *AssignedState {
	return &AssignedState{}
}

func (*AssignmentLattice) Unreachable() *AssignedState {
	return &AssignedState{complement: true}
}

// ReachableBottom assigns everything but slot 0.
func (*AssignmentLattice) ReachableBottom() *AssignedState {
	s := &AssignedState{complement: true}
	s.bits.Insert(0)
	return s
}

func (l *AssignmentLattice) Join(self, other *AssignedState) bool {
	switch {
	case self.Reachable() == other.Reachable():
		return l.Intersect(self, other)
	case !self.Reachable():
		self.copy(other)
		return true
	}
	return false
}

func (l *AssignmentLattice) Meet(self, other *AssignedState) bool {
	if !other.Reachable() {
		if !self.Reachable() && self.complement && self.bits.IsEmpty() {
			return false
		}
		self.SetUnreachable()
		return true
	}
	return l.Union(self, other)
}

// Union adds the slots of other to self.
func (*AssignmentLattice) Union(self, other *AssignedState) bool {
	old := self.Clone()
	switch {
	case !self.complement && !other.complement:
		self.bits.UnionWith(&other.bits)
	case !self.complement && other.complement:
		var exc intsets.Sparse
		exc.Difference(&other.bits, &self.bits)
		self.bits.Copy(&exc)
		self.complement = true
	case self.complement && !other.complement:
		self.bits.DifferenceWith(&other.bits)
	default:
		self.bits.IntersectionWith(&other.bits)
	}
	return !self.same(old)
}

// Intersect keeps the slots of self that are also in other.
func (*AssignmentLattice) Intersect(self, other *AssignedState) bool {
	old := self.Clone()
	switch {
	case !self.complement && !other.complement:
		self.bits.IntersectionWith(&other.bits)
	case !self.complement && other.complement:
		self.bits.DifferenceWith(&other.bits)
	case self.complement && !other.complement:
		var res intsets.Sparse
		res.Difference(&other.bits, &self.bits)
		self.bits.Copy(&res)
		self.complement = false
	default:
		self.bits.UnionWith(&other.bits)
	}
	return !self.same(old)
}

func (*AssignmentLattice) String() string {
	return colorize.Lattice("℘(slots)")
}

func (s *AssignedState) copy(o *AssignedState) {
	s.bits.Copy(&o.bits)
	s.complement = o.complement
}

func (s *AssignedState) has(slot int) bool {
	return s.bits.Has(slot) != s.complement
}

func (s *AssignedState) same(o *AssignedState) bool {
	return s.complement == o.complement && s.bits.Equals(&o.bits)
}

func (s *AssignedState) Clone() *AssignedState {
	c := &AssignedState{complement: s.complement}
	c.bits.Copy(&s.bits)
	return c
}

func (s *AssignedState) Reachable() bool {
	return !s.has(0)
}

// Eq compares the assigned slots of reachable states. All unreachable states
// are equal.
func (s *AssignedState) Eq(o *AssignedState) bool {
	if !s.Reachable() && !o.Reachable() {
		return true
	}
	return s.same(o)
}

// IsAssigned reports whether the slot is definitely assigned. Every slot is
// assigned in unreachable code.
func (s *AssignedState) IsAssigned(slot int) bool {
	return !s.Reachable() || s.has(slot)
}

func (s *AssignedState) Assign(slot int) {
	if slot < 0 {
		panic(fmt.Errorf("%w: negative slot %d", errInternal, slot))
	}
	if s.complement {
		s.bits.Remove(slot)
	} else {
		s.bits.Insert(slot)
	}
}

// Unassign clears the slot of a reachable state.
func (s *AssignedState) Unassign(slot int) {
	if slot <= 0 {
		panic(fmt.Errorf("%w: cannot unassign slot %d", errInternal, slot))
	}
	if !s.Reachable() {
		return
	}
	if s.complement {
		s.bits.Insert(slot)
	} else {
		s.bits.Remove(slot)
	}
}

func (s *AssignedState) SetUnreachable() {
	s.bits.Clear()
	s.complement = true
}

// Invert complements the set in place.
func (s *AssignedState) Invert() {
	s.complement = !s.complement
}

// Assigned lists the assigned slots in [1, limit).
func (s *AssignedState) Assigned(limit int) (slots []int) {
	for i := 1; i < limit; i++ {
		if s.has(i) {
			slots = append(slots, i)
		}
	}
	return
}

func (s *AssignedState) String() string {
	if !s.Reachable() {
		return colorize.Const("⊥")
	}
	elems := s.bits.AppendTo(nil)
	strs := make([]string, 0, len(elems))
	for _, e := range elems {
		strs = append(strs, fmt.Sprint(e))
	}
	set := "{" + strings.Join(strs, " ") + "}"
	if s.complement {
		set = "¬" + set
	}
	return colorize.Element(set)
}

package lattice

// ReachabilityLattice tracks whether a program point is alive:
//
//	alive
//	  |
//	dead
//
// Dead states also remember whether their unreachability was reported, so
// that an unreachable stretch of code is diagnosed once.
type ReachabilityLattice struct{}

var reachabilityLattice = &ReachabilityLattice{}

var _ Lattice[*ReachabilityState] = &ReachabilityLattice{}

// Reachability returns the reachability lattice.
func Reachability() *ReachabilityLattice {
	return reachabilityLattice
}

type ReachabilityState struct {
	alive    bool
	reported bool
}

func (*ReachabilityLattice) Top() *ReachabilityState {
	return &ReachabilityState{alive: true}
}

func (*ReachabilityLattice) Unreachable() *ReachabilityState {
	return &ReachabilityState{}
}

// ReachableBottom is the dead state: nothing is tracked that Join could
// lower.
func (*ReachabilityLattice) ReachableBottom() *ReachabilityState {
	return &ReachabilityState{}
}

func (*ReachabilityLattice) Join(self, other *ReachabilityState) bool {
	old := self.alive
	self.alive = self.alive || other.alive
	self.reported = self.reported && other.reported
	return self.alive != old
}

func (*ReachabilityLattice) Meet(self, other *ReachabilityState) bool {
	old := self.alive
	self.alive = self.alive && other.alive
	self.reported = self.reported || other.reported
	return self.alive != old
}

func (*ReachabilityLattice) String() string {
	return colorize.Lattice("⌶")
}

func (s *ReachabilityState) Clone() *ReachabilityState {
	c := *s
	return &c
}

func (s *ReachabilityState) Reachable() bool { return s.alive }

// Reported reports whether the unreachable code reached by this state was
// already diagnosed.
func (s *ReachabilityState) Reported() bool { return s.reported }

func (s *ReachabilityState) SetReported() { s.reported = true }

func (s *ReachabilityState) Eq(o *ReachabilityState) bool {
	return s.alive == o.alive
}

func (s *ReachabilityState) String() string {
	if s.alive {
		return colorize.Element("alive")
	}
	return colorize.Element("dead")
}

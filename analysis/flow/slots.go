package flow

import (
	"github.com/cs-au-dk/flowpass/analysis/symbols"
)

// VariableID identifies a tracked variable: a symbol, and for a struct field
// the slot of the variable containing it.
type VariableID struct {
	Symbol         symbols.Symbol
	ContainingSlot int
}

// Slots assigns dense indices to tracked variables. Slot 0 is reserved for
// reachability, so the first variable gets slot 1.
type Slots struct {
	maxDepth int
	vars     []VariableID
	depths   []int
	local    []int
	owners   []int
	index    map[VariableID]int
	ownerIDs map[symbols.Function]int
	// tables lists the slots of each owner by local index.
	tables [][]int
}

// NewSlots creates a registry where fields nest at most maxDepth levels
// below their root variable.
func NewSlots(maxDepth int) *Slots {
	return &Slots{
		maxDepth: maxDepth,
		vars:     []VariableID{{}},
		depths:   []int{0},
		local:    []int{0},
		owners:   []int{0},
		index:    map[VariableID]int{},
		ownerIDs: map[symbols.Function]int{nil: 0},
		tables:   [][]int{{0}},
	}
}

// Slot returns the slot of a variable, or -1 when it has none.
func (s *Slots) Slot(sym symbols.Symbol, containing int) int {
	if slot, ok := s.index[VariableID{sym, containing}]; ok {
		return slot
	}
	return -1
}

// GetOrCreate returns the slot of a variable, allocating one if needed. It
// returns -1 when the variable nests too deep.
func (s *Slots) GetOrCreate(sym symbols.Symbol, containing int) int {
	id := VariableID{sym, containing}
	if slot, ok := s.index[id]; ok {
		return slot
	}

	depth, owner := 1, 0
	if containing > 0 {
		depth = s.depths[containing] + 1
		owner = s.owners[containing]
	} else {
		owner = s.ownerOf(symbols.ScopeOf(sym))
	}
	if depth > s.maxDepth {
		return -1
	}

	slot := len(s.vars)
	s.vars = append(s.vars, id)
	s.depths = append(s.depths, depth)
	s.owners = append(s.owners, owner)
	s.local = append(s.local, len(s.tables[owner]))
	s.tables[owner] = append(s.tables[owner], slot)
	s.index[id] = slot
	return slot
}

func (s *Slots) ownerOf(fn symbols.Function) int {
	if id, ok := s.ownerIDs[fn]; ok {
		return id
	}
	id := len(s.tables)
	s.ownerIDs[fn] = id
	s.tables = append(s.tables, nil)
	return id
}

// Len is the number of allocated slots, including slot 0.
func (s *Slots) Len() int { return len(s.vars) }

func (s *Slots) Variable(slot int) VariableID { return s.vars[slot] }

func (s *Slots) Depth(slot int) int { return s.depths[slot] }

// Root follows containing slots up to the root variable.
func (s *Slots) Root(slot int) int {
	for slot > 0 && s.vars[slot].ContainingSlot > 0 {
		slot = s.vars[slot].ContainingSlot
	}
	return slot
}

// Encoded packs the owning function scope of a slot, numbered in order of
// first encounter, with the slot's index within that scope.
func (s *Slots) Encoded(slot int) uint32 {
	return uint32(s.owners[slot])<<16 | uint32(s.local[slot])
}

// Decode resolves an encoding made by Encoded back to its slot, or -1 when
// no slot has it.
func (s *Slots) Decode(enc uint32) int {
	owner, local := int(enc>>16), int(enc&0xffff)
	if owner >= len(s.tables) || local >= len(s.tables[owner]) {
		return -1
	}
	return s.tables[owner][local]
}

// Children lists the slots directly contained in slot.
func (s *Slots) Children(slot int) (res []int) {
	for i := slot + 1; i < len(s.vars); i++ {
		if s.vars[i].ContainingSlot == slot {
			res = append(res, i)
		}
	}
	return
}

package assignment

import (
	"github.com/cs-au-dk/flowpass/analysis/bound"
	"github.com/cs-au-dk/flowpass/analysis/emptystruct"
	"github.com/cs-au-dk/flowpass/analysis/flow"
	"github.com/cs-au-dk/flowpass/analysis/symbols"
)

// slot returns the slot of a variable, creating it on first use. Variables
// of empty struct types have no slot. The fields of a trackable struct get
// their slots together with the struct, so that every state agrees on which
// fields a struct variable has.
func (p *Pass) slot(sym symbols.Symbol, containing int) int {
	if s := p.slots.Slot(sym, containing); s >= 0 {
		return s
	}
	typ := symbols.TypeOf(sym)
	if p.empty.IsEmptyStructType(typ) {
		return -1
	}
	s := p.slots.GetOrCreate(sym, containing)
	if s > 0 {
		p.Log().Tracef("%s: slot %d (%#x, depth %d) for %s", p.Current(), s, p.slots.Encoded(s), p.slots.Depth(s), sym)
	}
	if s > 0 && emptystruct.IsTrackableStructType(typ) {
		for _, f := range p.empty.StructInstanceFields(typ) {
			p.slot(f, s)
		}
	}
	return s
}

// makeSlot returns the slot of the variable an expression denotes, or -1
// when it is not a tracked variable.
func (p *Pass) makeSlot(e bound.Node) int {
	switch e := e.(type) {
	case *bound.LocalRef:
		return p.slot(e.Local, 0)
	case *bound.ParameterRef:
		return p.slot(e.Parameter, 0)
	case *bound.ThisRef:
		if e.Parameter == nil {
			return -1
		}
		return p.slot(e.Parameter, 0)
	case *bound.FieldAccess:
		if !flow.IsStructField(e) {
			return -1
		}
		c := p.makeSlot(e.Receiver)
		if c <= 0 {
			return -1
		}
		return p.slot(e.Field, c)
	}
	return -1
}

func (p *Pass) setSlotState(slot int, assigned bool) {
	if slot <= 0 {
		return
	}
	if assigned {
		p.setSlotAssigned(slot, p.State)
		return
	}
	if nm, ok := p.NonMonotonic(); ok {
		p.setSlotUnassigned(slot, nm)
	}
	p.setSlotUnassigned(slot, p.State)
}

// setSlotAssigned assigns a variable with all its fields, then every
// containing struct whose fields are now all assigned.
func (p *Pass) setSlotAssigned(slot int, s State) {
	if s.IsAssigned(slot) {
		return
	}
	s.Assign(slot)
	id := p.slots.Variable(slot)
	for _, f := range p.fieldSlots(slot) {
		p.setSlotAssigned(f, s)
	}
	for id.ContainingSlot > 0 {
		parent := id.ContainingSlot
		if s.IsAssigned(parent) || !p.fieldsAllSet(parent, s) {
			break
		}
		s.Assign(parent)
		id = p.slots.Variable(parent)
	}
}

// setSlotUnassigned unassigns a variable with all its fields and every
// struct containing it.
func (p *Pass) setSlotUnassigned(slot int, s State) {
	s.Unassign(slot)
	for _, f := range p.fieldSlots(slot) {
		p.setSlotUnassigned(f, s)
	}
	for id := p.slots.Variable(slot); id.ContainingSlot > 0; id = p.slots.Variable(id.ContainingSlot) {
		s.Unassign(id.ContainingSlot)
	}
}

// fieldSlots lists the slots of the tracked fields of a struct variable.
// Fields get their slots with the struct, so these are the contained slots.
func (p *Pass) fieldSlots(slot int) []int {
	return p.slots.Children(slot)
}

// fieldsAllSet reports whether every non-empty field of a struct variable is
// assigned. A field without a slot nests too deep and is never assigned.
func (p *Pass) fieldsAllSet(slot int, s State) bool {
	typ := symbols.TypeOf(p.slots.Variable(slot).Symbol)
	for _, f := range p.empty.StructInstanceFields(typ) {
		if p.empty.IsEmptyStructType(f.Type) {
			continue
		}
		fs := p.slots.Slot(f, slot)
		if fs == -1 || !s.IsAssigned(fs) {
			return false
		}
	}
	return true
}

// Meet also assigns the structs whose fields became all assigned.
func (p *Pass) Meet(self, other State) bool {
	changed := p.AssignmentLattice.Meet(self, other)
	if changed && self.Reachable() {
		for slot := p.slots.Len() - 1; slot > 0; slot-- {
			typ := symbols.TypeOf(p.slots.Variable(slot).Symbol)
			if !self.IsAssigned(slot) && emptystruct.IsTrackableStructType(typ) && p.fieldsAllSet(slot, self) {
				self.Assign(slot)
			}
		}
	}
	return changed
}

// isAssigned reports whether the variable denoted by e is definitely
// assigned, and otherwise the unassigned slot.
func (p *Pass) isAssigned(e bound.Expression) (bool, int) {
	if p.empty.IsEmptyStructType(exprType(e)) {
		return true, -1
	}
	var slot int
	switch e := e.(type) {
	case *bound.LocalRef:
		slot = p.slot(e.Local, 0)
	case *bound.ParameterRef:
		slot = p.slot(e.Parameter, 0)
	case *bound.ThisRef:
		if e.Parameter == nil {
			return true, -1
		}
		slot = p.slot(e.Parameter, 0)
	case *bound.FieldAccess:
		if !flow.IsStructField(e) {
			return true, -1
		}
		ok, c := p.isAssigned(e.Receiver)
		if ok || c <= 0 {
			return true, -1
		}
		slot = p.slot(e.Field, c)
	default:
		return true, -1
	}
	if slot <= 0 || p.State.IsAssigned(slot) {
		return true, -1
	}
	return false, slot
}

func exprType(e bound.Expression) *symbols.Type {
	switch e := e.(type) {
	case *bound.LocalRef:
		return e.Local.Type
	case *bound.ParameterRef:
		return e.Parameter.Type
	case *bound.ThisRef:
		if e.Parameter != nil {
			return e.Parameter.Type
		}
	case *bound.FieldAccess:
		return e.Field.Type
	}
	return nil
}

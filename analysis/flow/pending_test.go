package flow

import (
	"testing"

	"github.com/cs-au-dk/flowpass/analysis/symbols"

	"github.com/google/go-cmp/cmp"
)

func TestPendingOrder(t *testing.T) {
	l1, l2 := symbols.NewLabel("L1"), symbols.NewLabel("L2")
	p := newPending[string]()
	defer p.free()

	for _, b := range []*PendingBranch[string]{
		{State: "a"}, {State: "b", Label: l1}, {State: "c", Label: l2},
		{State: "d"}, {State: "e", Label: l1},
	} {
		p.Add(b)
	}

	states := func(bs []*PendingBranch[string]) (res []string) {
		for _, b := range bs {
			res = append(res, b.State)
		}
		return
	}

	if diff := cmp.Diff([]string{"a", "d", "b", "e", "c"}, states(p.All())); diff != "" {
		t.Errorf("Unexpected order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"b", "e"}, states(p.GetAndRemoveBranches(l1))); diff != "" {
		t.Errorf("Unexpected L1 bucket (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "d", "c"}, states(p.All())); diff != "" {
		t.Errorf("Unexpected order after removal (-want +got):\n%s", diff)
	}
	if p.Len() != 3 {
		t.Errorf("Expected 3 branches, got %d", p.Len())
	}

	q := newPending[string]()
	defer q.free()
	q.Add(&PendingBranch[string]{State: "f", Label: l1})
	q.AddRange(p)
	if diff := cmp.Diff([]string{"a", "d", "f", "c"}, states(q.All())); diff != "" {
		t.Errorf("Unexpected order after AddRange (-want +got):\n%s", diff)
	}
}

func TestSlots(t *testing.T) {
	m := symbols.NewMethod("M", symbols.Void)
	lf := symbols.NewLocalFunction("f", m, symbols.Void)
	x := symbols.NewLocal("x", symbols.Int, m)
	y := symbols.NewLocal("y", symbols.Int, lf)
	f, g := symbols.NewField("f", symbols.Int), symbols.NewField("g", symbols.Int)

	s := NewSlots(2)
	sx := s.GetOrCreate(x, 0)
	sf := s.GetOrCreate(f, sx)
	sg := s.GetOrCreate(g, sf)
	sy := s.GetOrCreate(y, 0)

	if diff := cmp.Diff([]int{1, 2, -1, 3}, []int{sx, sf, sg, sy}); diff != "" {
		t.Errorf("Unexpected slots (-want +got):\n%s", diff)
	}
	if s.GetOrCreate(x, 0) != sx || s.Slot(f, sx) != sf || s.Slot(g, sx) != -1 {
		t.Error("Slots must be stable")
	}
	if s.Root(sf) != sx || s.Depth(sf) != 2 {
		t.Errorf("Unexpected root %d or depth %d of x.f", s.Root(sf), s.Depth(sf))
	}
	if diff := cmp.Diff([]int{sf}, s.Children(sx)); diff != "" {
		t.Errorf("Unexpected children (-want +got):\n%s", diff)
	}

	enc := []uint32{s.Encoded(sx), s.Encoded(sf), s.Encoded(sy)}
	if diff := cmp.Diff([]uint32{1 << 16, 1<<16 | 1, 2 << 16}, enc); diff != "" {
		t.Errorf("Unexpected encodings (-want +got):\n%s", diff)
	}
	for i, slot := range []int{sx, sf, sy} {
		if got := s.Decode(enc[i]); got != slot {
			t.Errorf("Decode(%#x) = %d, want %d", enc[i], got, slot)
		}
	}
	if got := s.Decode(7 << 16); got != -1 {
		t.Errorf("Decode of an unknown owner = %d, want -1", got)
	}
}

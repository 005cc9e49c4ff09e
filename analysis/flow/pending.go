package flow

import (
	"reflect"
	"sync"

	"github.com/cs-au-dk/flowpass/analysis/bound"
	"github.com/cs-au-dk/flowpass/analysis/symbols"
)

// PendingBranch is a transfer of control whose state has not been merged into
// its target yet.
type PendingBranch[S any] struct {
	// Branch is the jumping node. It is nil for the implicit branch out of an
	// iterator before its first statement.
	Branch bound.Node
	State  S
	// Label is nil for returns and the other branches leaving the function.
	Label *symbols.Label
}

// Pending is an ordered registry of pending branches. Unlabeled branches are
// kept in one bucket, labeled branches in one bucket per label. Enumeration
// lists the unlabeled bucket first, then the labels in order of first arrival.
type Pending[S any] struct {
	unlabeled []*PendingBranch[S]
	labels    []*symbols.Label
	byLabel   map[*symbols.Label][]*PendingBranch[S]
}

var pools sync.Map // reflect.Type -> *sync.Pool

func poolOf[S any]() *sync.Pool {
	key := reflect.TypeOf((*S)(nil)).Elem()
	if p, ok := pools.Load(key); ok {
		return p.(*sync.Pool)
	}
	p, _ := pools.LoadOrStore(key, &sync.Pool{
		New: func() any {
			return &Pending[S]{byLabel: map[*symbols.Label][]*PendingBranch[S]{}}
		},
	})
	return p.(*sync.Pool)
}

// newPending takes an empty registry from the pool.
func newPending[S any]() *Pending[S] {
	return poolOf[S]().Get().(*Pending[S])
}

// free clears the registry and returns it to the pool.
func (p *Pending[S]) free() {
	p.Clear()
	poolOf[S]().Put(p)
}

func (p *Pending[S]) Add(b *PendingBranch[S]) {
	if b.Label == nil {
		p.unlabeled = append(p.unlabeled, b)
		return
	}
	bucket, ok := p.byLabel[b.Label]
	if !ok {
		p.labels = append(p.labels, b.Label)
	}
	p.byLabel[b.Label] = append(bucket, b)
}

// GetAndRemoveBranches removes and returns the bucket of label. A nil label
// selects the unlabeled bucket.
func (p *Pending[S]) GetAndRemoveBranches(label *symbols.Label) []*PendingBranch[S] {
	if label == nil {
		res := p.unlabeled
		p.unlabeled = nil
		return res
	}
	res, ok := p.byLabel[label]
	if !ok {
		return nil
	}
	delete(p.byLabel, label)
	for i, l := range p.labels {
		if l == label {
			p.labels = append(p.labels[:i], p.labels[i+1:]...)
			break
		}
	}
	return res
}

// AddRange moves the branches of o to the end of p.
func (p *Pending[S]) AddRange(o *Pending[S]) {
	for _, b := range o.All() {
		p.Add(b)
	}
}

// All lists the branches in enumeration order.
func (p *Pending[S]) All() []*PendingBranch[S] {
	res := make([]*PendingBranch[S], 0, p.Len())
	res = append(res, p.unlabeled...)
	for _, l := range p.labels {
		res = append(res, p.byLabel[l]...)
	}
	return res
}

func (p *Pending[S]) Len() int {
	n := len(p.unlabeled)
	for _, bs := range p.byLabel {
		n += len(bs)
	}
	return n
}

func (p *Pending[S]) Clear() {
	p.unlabeled = nil
	p.labels = nil
	for l := range p.byLabel {
		delete(p.byLabel, l)
	}
}

// SavedPending is the pending scope replaced by SavePending.
type SavedPending[S any] struct {
	pending    *Pending[S]
	labelsSeen []bound.Statement
}

// SavePending starts a nested pending scope.
func (w *Walker[S]) SavePending() SavedPending[S] {
	saved := SavedPending[S]{w.pending, w.labelsSeen}
	w.pending = newPending[S]()
	w.labelsSeen = nil
	return saved
}

// RestorePending closes the current pending scope: branches to labels seen in
// the scope are resolved, the others are carried to the saved scope.
func (w *Walker[S]) RestorePending(saved SavedPending[S]) {
	for _, n := range w.labelsSeen {
		switch n := n.(type) {
		case *bound.Labeled:
			if w.resolveBranches(n.Label, n) {
				w.changedAfterUse = true
			}
		case *bound.SwitchSection:
			for _, l := range n.Labels {
				if w.resolveBranches(l.Label, n) {
					w.changedAfterUse = true
				}
			}
		default:
			panic(errorf(errInternal, "label on %s", n.Kind()))
		}
	}
	saved.pending.AddRange(w.pending)
	w.pending.free()
	w.pending = saved.pending
	w.labelsSeen = saved.labelsSeen
}

// Branches lists the branches of the saved scope.
func (s SavedPending[S]) Branches() []*PendingBranch[S] {
	return s.pending.All()
}

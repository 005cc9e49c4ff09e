package flow

import "github.com/cs-au-dk/flowpass/analysis/bound"

// RegionPlace locates the walker relative to the analyzed region.
type RegionPlace int

const (
	Before RegionPlace = iota
	Inside
	After
)

func (p RegionPlace) String() string {
	switch p {
	case Before:
		return "before"
	case Inside:
		return "inside"
	}
	return "after"
}

func (w *Walker[S]) enterRegion() {
	w.log.Tracef("%s: entering region at %s", w.current, w.opts.First.Kind())
	w.a.EnterRegion()
	w.place = Inside
}

func (w *Walker[S]) leaveRegion() {
	w.log.Tracef("%s: leaving region at %s", w.current, w.opts.Last.Kind())
	w.a.LeaveRegion()
	w.place = After
}

func (w *Walker[S]) TrackingRegions() bool { return w.trackRegions }
func (w *Walker[S]) Place() RegionPlace    { return w.place }
func (w *Walker[S]) IsInside() bool        { return w.place == Inside }

// RegionSpan covers the region from the start of its first node to the end
// of its last.
func (w *Walker[S]) RegionSpan() bound.Span {
	return bound.Span{Start: w.opts.First.Span().Start, End: w.opts.Last.Span().End}
}

// RegionContains reports whether a node with the given span lies inside the
// region.
func (w *Walker[S]) RegionContains(s bound.Span) bool {
	return w.trackRegions && w.RegionSpan().Contains(s)
}

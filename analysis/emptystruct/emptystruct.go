// Package emptystruct decides which struct types have no instance state to
// track. Variables of empty struct types are always definitely assigned.
package emptystruct

import (
	"github.com/benbjohnson/immutable"

	"github.com/cs-au-dk/flowpass/analysis/symbols"
	"github.com/cs-au-dk/flowpass/config"
	"github.com/cs-au-dk/flowpass/utils"
)

// visiting is the chain of struct types whose fields are being checked.
type visiting = *immutable.Map[*symbols.Type, bool]

type Cache struct {
	mode config.EmptyStructMode
	// dev12 ignores inaccessible reference fields of external structs, the
	// way older compilers did.
	dev12 bool
	cache map[*symbols.Type]bool
}

func New(mode config.EmptyStructMode, dev12 bool) *Cache {
	return &Cache{mode: mode, dev12: dev12, cache: map[*symbols.Type]bool{}}
}

// FromConfig creates the cache selected by the options.
func FromConfig(opts config.Options) *Cache {
	return New(opts.EmptyStructMode, opts.Dev12Compat)
}

func NewPrecise() *Cache    { return New(config.Precise, false) }
func NewNeverEmpty() *Cache { return New(config.NeverEmpty, false) }
func NewDev12() *Cache      { return New(config.Precise, true) }

// IsTrackableStructType reports whether the fields of t can be tracked
// individually.
func IsTrackableStructType(t *symbols.Type) bool {
	return t.IsStruct() && !t.CircularStruct
}

// IsEmptyStructType reports whether t is a struct with no instance fields
// that need tracking, recursively.
func (c *Cache) IsEmptyStructType(t *symbols.Type) bool {
	if c.mode == config.NeverEmpty {
		return false
	}
	return c.isEmpty(t, immutable.NewMap[*symbols.Type, bool](utils.PointerHasher[*symbols.Type]{}))
}

func (c *Cache) isEmpty(t *symbols.Type, chain visiting) bool {
	if t == nil || !IsTrackableStructType(t) {
		return false
	}
	if res, ok := c.cache[t]; ok {
		return res
	}
	res := c.checkStruct(t, chain)
	c.cache[t] = res
	return res
}

// checkStruct breaks cycles: a struct reached again while its own fields are
// being checked adds nothing, so it counts as empty.
func (c *Cache) checkStruct(t *symbols.Type, chain visiting) bool {
	if _, ok := chain.Get(t); ok {
		return true
	}
	chain = chain.Set(t, true)
	for _, f := range c.StructInstanceFields(t) {
		if !c.isEmpty(f.Type, chain) {
			return false
		}
	}
	return true
}

// StructInstanceFields lists the instance fields of t that take part in
// definite assignment.
func (c *Cache) StructInstanceFields(t *symbols.Type) (fields []*symbols.Field) {
	if !t.IsStruct() {
		return nil
	}
	for _, f := range t.Fields() {
		if f.Static || c.ignored(f) {
			continue
		}
		fields = append(fields, f)
	}
	return
}

// ignored implements the dev12 rule: imported fields of reference type,
// looking through arrays, that are not visible to the analyzed code.
func (c *Cache) ignored(f *symbols.Field) bool {
	if !c.dev12 || f.Container == nil || !f.Container.External {
		return false
	}
	t := f.Type
	for t != nil && t.TypeKind == symbols.TypeArray {
		t = t.Element
	}
	if t == nil || t.TypeKind == symbols.TypeParameter {
		return false
	}
	return f.Type.IsReference() && f.Accessibility != symbols.Public
}

package utils

import (
	"reflect"

	"github.com/benbjohnson/immutable"
)

// PointerHasher hashes pointer-like keys of immutable maps by address.
type PointerHasher[T any] struct{}

func (PointerHasher[T]) Hash(v T) uint32 {
	// Use reflection to get a uintptr value
	p := reflect.ValueOf(v).Pointer()
	return uint32(p ^ (p >> 32))
}

func (PointerHasher[T]) Equal(a, b T) bool {
	return any(a) == any(b)
}

var _ immutable.Hasher[any] = PointerHasher[any]{}

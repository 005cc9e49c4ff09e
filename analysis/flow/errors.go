package flow

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientStack is returned by Analyze when the tree is nested
	// deeper than the configured recursion depth.
	ErrInsufficientStack = errors.New("insufficient execution stack")

	errInternal        = errors.New("internal error")
	errUnsupportedNode = errors.New("unsupported bound node")
)

func errorf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}

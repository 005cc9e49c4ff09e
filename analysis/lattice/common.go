// Package lattice defines the contract between the flow walker and the
// abstract states it propagates, and ships the two lattices used by the
// reachability and definite assignment passes.
package lattice

import (
	"errors"

	"github.com/cs-au-dk/flowpass/utils"

	"github.com/fatih/color"
)

var colorize = struct {
	Lattice func(...interface{}) string
	Element func(...interface{}) string
	Const   func(...interface{}) string
}{
	Lattice: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgHiBlue).SprintFunc())(is...)
	},
	Element: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgCyan).SprintFunc())(is...)
	},
	Const: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgHiWhite).SprintFunc())(is...)
	},
}

var (
	// ErrLawViolation is raised when a lattice does not satisfy the laws the
	// walker relies on.
	ErrLawViolation = errors.New("lattice law violation")
	errInternal     = errors.New("internal error")
)

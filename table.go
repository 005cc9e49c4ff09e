package main

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// table prints rows in aligned columns. Cells are measured by their display
// width, so that names outside of ASCII line up.
type table struct {
	header []string
	rows   [][]string
	// paint colors a padded row.
	paint []func(...interface{}) string
}

func newTable(header ...string) *table {
	return &table{header: header}
}

func (t *table) add(paint func(...interface{}) string, cells ...string) {
	t.rows = append(t.rows, cells)
	t.paint = append(t.paint, paint)
}

func (t *table) String() string {
	widths := make([]int, len(t.header))
	for _, row := range append([][]string{t.header}, t.rows...) {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	line := func(row []string) string {
		cells := make([]string, len(row))
		for i, cell := range row {
			if i == len(row)-1 {
				cells[i] = cell
			} else {
				cells[i] = runewidth.FillRight(cell, widths[i])
			}
		}
		return strings.Join(cells, "  ")
	}

	var sb strings.Builder
	sb.WriteString(line(t.header) + "\n")
	for i, row := range t.rows {
		l := line(row)
		if t.paint[i] != nil {
			l = t.paint[i](l)
		}
		sb.WriteString(l + "\n")
	}
	return sb.String()
}

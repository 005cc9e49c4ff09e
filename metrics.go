package main

import (
	"fmt"
	"time"

	"github.com/cs-au-dk/flowpass/utils"

	"github.com/fatih/color"
)

// run is the outcome of one analysis.
type run struct {
	task        string
	passes      int
	diagnostics int
	ok          bool
	time        time.Duration
}

// metrics collects the runs of the passes for -metrics.
type metrics struct {
	runs []run
}

// record adds a run started at start. Region analyses record -1 passes and
// diagnostics, as they report neither.
func (m *metrics) record(task string, passes, diagnostics int, ok bool, start time.Time) {
	m.runs = append(m.runs, run{task, passes, diagnostics, ok, time.Since(start)})
}

func (m *metrics) String() string {
	count := func(n int) string {
		if n < 0 {
			return "-"
		}
		return fmt.Sprint(n)
	}

	t := newTable("task", "passes", "diagnostics", "outcome", "time")
	for _, r := range m.runs {
		outcome, paint := "completed", color.New(color.FgGreen).SprintFunc()
		if !r.ok {
			outcome, paint = "failed", color.New(color.FgRed).SprintFunc()
		}
		t.add(utils.CanColorize(paint), r.task, count(r.passes), count(r.diagnostics), outcome, r.time.String())
	}
	return "================ Results =====================\n" + t.String()
}

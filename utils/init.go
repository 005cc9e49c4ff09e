package utils

import (
	"flag"
	"fmt"
	"log"
	"strings"
)

type options struct {
	minlen       uint
	nodesep      float64
	config       string
	first        string
	last         string
	outputFormat string
	out          string
	task         string
	metrics      bool
	noColorize   bool
	verbose      bool
	visualize    bool
}

const (
	_DEFINITE_ASSIGNMENT = iota
	_REACHABILITY
	_CONTROL_FLOW
	_DATA_FLOW
	_DUMP
	_TREE_TO_DOT
	_CHECK_LATTICE
)

func CanColorize(col func(...interface{}) string) func(...interface{}) string {
	if opts.noColorize {
		return func(is ...interface{}) string {
			return fmt.Sprintf(strings.Repeat("%s", len(is)), is...)
		}
	}
	return col
}

var task = []struct{ flag, explanation string }{{
	"definite-assignment",
	"Report uses of unassigned variables, unassigned out parameters and unused variables",
}, {
	"reachability",
	"Report unreachable code, switch fall-through and missing returns",
}, {
	"control-flow",
	"Compute entry points, exit points and reachability of the region between -first and -last",
}, {
	"data-flow",
	"Compute the variables flowing in and out of the region between -first and -last",
}, {
	"dump",
	"Print the bound tree with the spans assigned to every node",
}, {
	"tree-to-dot",
	"Render the bound tree and its jumps as a graph",
}, {
	"check-lattice",
	"Check the lattice laws of the shipped lattices on the states of the program",
}}

var opts = &options{}

type optInterface struct{}

type taskInterface struct{}

func Opts() optInterface {
	return optInterface{}
}

func (optInterface) NoColorize() bool {
	return opts.noColorize
}
func (optInterface) Minlen() uint {
	return opts.minlen
}
func (optInterface) Nodesep() float64 {
	return opts.nodesep
}
func (optInterface) Config() string {
	return opts.config
}
func (optInterface) First() string {
	return opts.first
}
func (optInterface) Last() string {
	return opts.last
}
func (optInterface) OutputFormat() string {
	return opts.outputFormat
}
func (optInterface) Out() string {
	return opts.out
}
func (optInterface) Metrics() bool {
	return opts.metrics
}
func (optInterface) Verbose() bool {
	return opts.verbose
}
func (optInterface) Visualize() bool {
	return opts.visualize
}
func (optInterface) Task() taskInterface {
	return taskInterface{}
}
func (taskInterface) IsDefiniteAssignment() bool {
	return opts.task == task[_DEFINITE_ASSIGNMENT].flag
}
func (taskInterface) IsReachability() bool {
	return opts.task == task[_REACHABILITY].flag
}
func (taskInterface) IsControlFlow() bool {
	return opts.task == task[_CONTROL_FLOW].flag
}
func (taskInterface) IsDataFlow() bool {
	return opts.task == task[_DATA_FLOW].flag
}
func (taskInterface) IsDump() bool {
	return opts.task == task[_DUMP].flag
}
func (taskInterface) IsTreeToDot() bool {
	return opts.task == task[_TREE_TO_DOT].flag
}
func (taskInterface) IsCheckLattice() bool {
	return opts.task == task[_CHECK_LATTICE].flag
}

// IsRegionAnalysis holds for the tasks that need -first and -last.
func (taskInterface) IsRegionAnalysis() bool {
	return Opts().Task().IsControlFlow() || Opts().Task().IsDataFlow()
}

func init() {
	taskFlag := "\n"
	for _, task := range task {
		taskFlag += task.flag + " -- " + task.explanation + "\n"
	}
	taskFlag += "\n"

	flag.UintVar(&(opts.minlen), "minlen", 1, "Minimum edge length (for wider output).")
	flag.Float64Var(&(opts.nodesep), "nodesep", 0.35, "Minimum space between two adjacent nodes in the same rank (for taller output).")
	flag.StringVar(&(opts.config), "config", "", "YAML configuration file; defaults are used when empty")
	flag.StringVar(&(opts.first), "first", "", "id of the first node of the analyzed region")
	flag.StringVar(&(opts.last), "last", "", "id of the last node of the analyzed region; defaults to -first")
	flag.StringVar(&(opts.outputFormat), "format", "", "output file format [svg | png | jpg | ...]; defaults to output-format of the config")
	flag.StringVar(&(opts.out), "out", "", "base name of the rendered output file")
	flag.StringVar(&(opts.task), "task", task[_DEFINITE_ASSIGNMENT].flag, "Set the task to do during execution. Options:"+taskFlag)
	flag.BoolVar(&(opts.metrics), "metrics", false, "Print the number of passes, diagnostics and the time taken by each analysis")
	flag.BoolVar(&(opts.noColorize), "no-color", false, "Disable pretty printer colorization")
	flag.BoolVar(&(opts.verbose), "verbose", false, "enable verbose output")
	flag.BoolVar(&(opts.visualize), "visualize", false, "enable visualization via XDot")

	// Set up logging
	log.SetFlags(log.Ltime | log.Lshortfile)
}

func ParseArgs() {
	// Calling flag.Parse in init messes up unit tests.
	flag.Parse()

	validTask := false
	for _, task := range task {
		if task.flag == opts.task {
			validTask = true
			break
		}
	}

	if !validTask {
		log.Fatalf("Value \"%s\" is not valid for -task", opts.task)
	}

	if Opts().Task().IsTreeToDot() {
		opts.noColorize = true
	}
	if Opts().Task().IsRegionAnalysis() {
		if opts.first == "" {
			log.Fatalf("Task %s requires -first", opts.task)
		}
		if opts.last == "" {
			opts.last = opts.first
		}
	}
}

func (optInterface) OnVerbose(do func()) {
	if Opts().Verbose() {
		do()
	}
}

package main

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/cs-au-dk/flowpass/analysis/assignment"
	"github.com/cs-au-dk/flowpass/analysis/bound"
	"github.com/cs-au-dk/flowpass/analysis/diag"
	"github.com/cs-au-dk/flowpass/analysis/lattice"
	"github.com/cs-au-dk/flowpass/config"
	"github.com/cs-au-dk/flowpass/utils"
	"github.com/cs-au-dk/flowpass/utils/dot"

	"github.com/fatih/color"
)

var (
	opts = utils.Opts()
	task = opts.Task()
)

func main() {
	utils.ParseArgs()
	path := utils.ProgramPath()

	cfg := config.NewDefault()
	if opts.Config() != "" {
		var err error
		if cfg, err = config.Load(opts.Config()); err != nil {
			log.Fatalln(err)
		}
	}
	cfg.NoColor = opts.NoColorize()
	color.NoColor = color.NoColor || cfg.NoColor
	if opts.Verbose() && cfg.LogLevel < int(config.DebugLevel) {
		cfg.LogLevel = int(config.DebugLevel)
	}

	m, err := bound.LoadFile(path)
	if err != nil {
		log.Fatalln(err)
	}
	log.Println("Loaded", m.Symbol, "from", path)
	opts.OnVerbose(func() {
		fmt.Print(bound.Dump(m.Body))
	})

	p := pipeline{m: m, cfg: cfg, metrics: &metrics{}}
	failed := false

	switch {
	case task.IsDefiniteAssignment():
		failed = p.report(p.definiteAssignment())
	case task.IsReachability():
		failed = p.report(p.reachability())
	case task.IsControlFlow():
		p.controlFlow()
	case task.IsDataFlow():
		p.dataFlow()
	case task.IsDump():
		fmt.Print(bound.Dump(m.Body))
	case task.IsTreeToDot():
		g := bound.Visualize(m)
		if opts.Visualize() {
			g.ShowDot()
			break
		}

		var buf bytes.Buffer
		if err := g.WriteDot(&buf); err != nil {
			log.Fatalln(err)
		}
		format := opts.OutputFormat()
		if format == "" {
			format = cfg.OutputFormat
		}
		img, err := dot.DotToImage(opts.Out(), format, buf.Bytes())
		if err != nil {
			log.Fatalln(err)
		}
		fmt.Println(img)
	case task.IsCheckLattice():
		failed = !p.checkLattice()
	}

	if opts.Metrics() {
		fmt.Print(p.metrics)
	}
	if failed {
		os.Exit(1)
	}
}

// checkLattice runs both passes with the lattice laws checked on their
// initial states, then checks the definite assignment lattice on masks of
// the slots the method tracks.
func (p pipeline) checkLattice() (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			err, isErr := r.(error)
			if !isErr || !errors.Is(err, lattice.ErrLawViolation) {
				panic(r)
			}
			log.Println(color.RedString("%v", err))
			ok = false
		}
	}()

	p.cfg.CheckLattice = true
	p.definiteAssignment()
	p.reachability()

	a := assignment.New(p.m, assignment.OptionsFromConfig(p.cfg))
	defer a.Free()
	a.Analyze(diag.NewBag())
	samples := []*lattice.AssignedState{lattice.Mask()}
	var slots []int
	for slot := 1; slot < a.Slots().Len(); slot++ {
		slots = append(slots, slot)
		samples = append(samples, lattice.Mask(slot), lattice.Mask(slots...))
	}
	lattice.CheckLaws[*lattice.AssignedState](lattice.Assignment(), samples...)

	fmt.Println(color.GreenString("Lattice laws hold on %d assignment states", len(samples)))
	return true
}

package utils

import (
	"flag"
	"log"
)

// ProgramPath returns the YAML program to analyze, given as the first
// non-flag argument.
func ProgramPath() string {
	args := flag.Args()
	if len(args) < 1 {
		log.Fatalln("no program given; usage: flowpass [flags] program.yaml")
	}
	return args[0]
}

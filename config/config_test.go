package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestLoad(t *testing.T) {
	cfg, err := Load("testdata/config.yaml")
	if err != nil {
		t.Fatal(err)
	}

	want := NewDefault()
	want.LogLevel = int(TraceLevel)
	want.MaxRecursionDepth = 200
	want.CheckLattice = true
	want.EmptyStructMode = NeverEmpty
	want.ReportUnused = false

	if diff := cmp.Diff(want.Options, cfg.Options); diff != "" {
		t.Errorf("Unexpected options (-want +got):\n%s", diff)
	}
	if cfg.SourceFile() != "testdata/config.yaml" {
		t.Errorf("Unexpected source file %q", cfg.SourceFile())
	}
	if !cfg.Verbose() {
		t.Error("Trace level should be verbose")
	}
}

func TestLoadErrors(t *testing.T) {
	for _, file := range []string{"testdata/missing.yaml", "testdata/bad-mode.yaml"} {
		if _, err := Load(file); err == nil {
			t.Errorf("Expected an error loading %s", file)
		}
	}
}

func TestDefaults(t *testing.T) {
	cfg := NewDefault()
	if diff := cmp.Diff(Options{
		LogLevel:          int(InfoLevel),
		MaxRecursionDepth: 1500,
		MaxSlotDepth:      5,
		EmptyStructMode:   Precise,
		ReportUnused:      true,
		OutputFormat:      "svg",
	}, cfg.Options, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Unexpected defaults (-want +got):\n%s", diff)
	}
}

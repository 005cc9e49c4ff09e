// Package config holds the options of the flow passes and their logging,
// loaded from a YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultMaxRecursionDepth = 1500
	DefaultMaxSlotDepth      = 5
)

// EmptyStructMode selects how struct types without tracked fields are detected.
type EmptyStructMode string

const (
	Precise    EmptyStructMode = "precise"
	NeverEmpty EmptyStructMode = "never-empty"
)

// Options are the settings read from the config file.
type Options struct {
	// LogLevel controls the verbosity of the tool
	LogLevel int `yaml:"log-level"`

	// MaxRecursionDepth bounds the nesting of the tree walk. Deeper trees are
	// reported as too complex instead of exhausting the stack.
	MaxRecursionDepth int `yaml:"max-recursion-depth"`

	// MaxSlotDepth bounds the nesting of struct fields tracked individually.
	MaxSlotDepth int `yaml:"max-slot-depth"`

	CheckLattice bool `yaml:"check-lattice"`

	// Dev12Compat ignores inaccessible reference-typed fields of external
	// structs when deciding whether a struct is empty.
	Dev12Compat bool `yaml:"dev12-compat"`

	EmptyStructMode EmptyStructMode `yaml:"empty-struct-mode"`

	// ReportUnused enables the unused variable and local function warnings.
	ReportUnused bool `yaml:"report-unused"`

	OutputFormat string `yaml:"output-format"`
}

type Config struct {
	Options `yaml:",inline"`

	// NoColor is set from the command line.
	NoColor bool `yaml:"-"`

	sourceFile string
}

// NewDefault returns the default config.
func NewDefault() *Config {
	return &Config{
		Options: Options{
			LogLevel:          int(InfoLevel),
			MaxRecursionDepth: DefaultMaxRecursionDepth,
			MaxSlotDepth:      DefaultMaxSlotDepth,
			EmptyStructMode:   Precise,
			ReportUnused:      true,
			OutputFormat:      "svg",
		},
	}
}

// Load reads a configuration from a file. Missing keys keep their defaults.
func Load(filename string) (*Config, error) {
	cfg := NewDefault()
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file: %w", err)
	}
	cfg.sourceFile = filename

	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}
	if cfg.MaxRecursionDepth <= 0 {
		cfg.MaxRecursionDepth = DefaultMaxRecursionDepth
	}
	if cfg.MaxSlotDepth <= 0 {
		cfg.MaxSlotDepth = DefaultMaxSlotDepth
	}
	switch cfg.EmptyStructMode {
	case "":
		cfg.EmptyStructMode = Precise
	case Precise, NeverEmpty:
	default:
		return nil, fmt.Errorf("unknown empty-struct-mode %q", cfg.EmptyStructMode)
	}
	return cfg, nil
}

// SourceFile is the file the config was loaded from, if any.
func (c Config) SourceFile() string {
	return c.sourceFile
}

func (c Config) Verbose() bool {
	return c.LogLevel >= int(DebugLevel)
}

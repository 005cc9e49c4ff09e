package config

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

type LogLevel int

const (
	// ErrLevel=1 - the minimum level of logging.
	ErrLevel LogLevel = iota + 1

	// WarnLevel=2 - warnings and errors
	WarnLevel

	// InfoLevel=3 - high-level information and results
	InfoLevel

	// DebugLevel=4 - per-pass information: passes, re-pass reasons.
	DebugLevel

	// TraceLevel=5 - per-node information. Only useful on small programs.
	TraceLevel
)

type LogGroup struct {
	level LogLevel
	trace *log.Logger
	debug *log.Logger
	info  *log.Logger
	warn  *log.Logger
	err   *log.Logger
}

// NewLogGroup returns a log group writing to stderr at the level stored in the config.
// Prefixes are colored when stderr is a terminal and colors are not disabled.
func NewLogGroup(config *Config) *LogGroup {
	colored := !config.NoColor && isatty.IsTerminal(os.Stderr.Fd())
	prefix := func(p string, attr color.Attribute) string {
		if !colored {
			return p
		}
		return color.New(attr).Sprint(p)
	}

	flags := log.Ltime | log.Lshortfile
	return &LogGroup{
		level: LogLevel(config.LogLevel),
		trace: log.New(os.Stderr, prefix("[TRACE] ", color.FgHiBlack), flags),
		debug: log.New(os.Stderr, prefix("[DEBUG] ", color.FgCyan), flags),
		info:  log.New(os.Stderr, prefix("[INFO] ", color.FgGreen), flags),
		warn:  log.New(os.Stderr, prefix("[WARN] ", color.FgYellow), flags),
		err:   log.New(os.Stderr, prefix("[ERROR] ", color.FgRed), flags),
	}
}

// Discard returns a log group that prints nothing.
func Discard() *LogGroup {
	l := NewLogGroup(&Config{Options: Options{LogLevel: int(ErrLevel)}, NoColor: true})
	l.SetAllOutput(io.Discard)
	return l
}

// SetAllOutput sets all the output writers to the writer provided
func (l *LogGroup) SetAllOutput(w io.Writer) {
	l.trace.SetOutput(w)
	l.debug.SetOutput(w)
	l.info.SetOutput(w)
	l.warn.SetOutput(w)
	l.err.SetOutput(w)
}

// Level returns the verbosity of the group.
func (l *LogGroup) Level() LogLevel {
	return l.level
}

// Tracef prints to the trace logger in the manner of Printf
func (l *LogGroup) Tracef(format string, v ...any) {
	if l.level >= TraceLevel {
		l.trace.Output(2, fmt.Sprintf(format, v...))
	}
}

// Debugf prints to the debug logger in the manner of Printf
func (l *LogGroup) Debugf(format string, v ...any) {
	if l.level >= DebugLevel {
		l.debug.Output(2, fmt.Sprintf(format, v...))
	}
}

// Infof prints to the info logger in the manner of Printf
func (l *LogGroup) Infof(format string, v ...any) {
	if l.level >= InfoLevel {
		l.info.Output(2, fmt.Sprintf(format, v...))
	}
}

// Warnf prints to the warning logger in the manner of Printf
func (l *LogGroup) Warnf(format string, v ...any) {
	if l.level >= WarnLevel {
		l.warn.Output(2, fmt.Sprintf(format, v...))
	}
}

// Errorf prints to the error logger in the manner of Printf
func (l *LogGroup) Errorf(format string, v ...any) {
	if l.level >= ErrLevel {
		l.err.Output(2, fmt.Sprintf(format, v...))
	}
}

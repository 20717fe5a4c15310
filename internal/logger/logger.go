// Package logger provides the leveled, colored logger used by routekit's
// scanner, route table, watcher and dev server.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Level represents the minimum severity a Logger writes.
type Level int

const (
	// LevelDebug logs everything, including per-file scan details.
	LevelDebug Level = iota
	// LevelInfo logs route table actions and server lifecycle.
	LevelInfo
	// LevelWarn logs recoverable problems.
	LevelWarn
	// LevelError logs failures only.
	LevelError
	// LevelOff disables logging.
	LevelOff
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelOff:
		return "off"
	default:
		return "info"
	}
}

// ParseLevel parses a level name. Unknown names fall back to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "off", "none", "disabled":
		return LevelOff
	default:
		return LevelInfo
	}
}

// Action is a route or data table mutation reported through Logger.Action.
type Action string

const (
	ActionSet    Action = "set"
	ActionDelete Action = "delete"
	ActionReload Action = "reload"
)

// Config configures a Logger.
type Config struct {
	// Level is the minimum level written.
	Level Level

	// Output is where log lines are written (default: os.Stderr).
	Output io.Writer

	// NoColor disables ANSI colors even on a terminal.
	NoColor bool

	// ShowTimestamp prefixes each line with [HH:MM:SS].
	ShowTimestamp bool
}

// DefaultConfig returns the logger configuration derived from the environment.
//
// ROUTEKIT_DEV=true selects debug. ROUTEKIT_LOG_LEVEL overrides everything.
func DefaultConfig() Config {
	cfg := Config{
		Level:         LevelInfo,
		Output:        os.Stderr,
		ShowTimestamp: true,
		NoColor:       os.Getenv("NO_COLOR") != "",
	}

	if os.Getenv("ROUTEKIT_DEV") == "true" {
		cfg.Level = LevelDebug
	}
	if lvl := os.Getenv("ROUTEKIT_LOG_LEVEL"); lvl != "" {
		cfg.Level = ParseLevel(lvl)
	}

	return cfg
}

// Logger writes leveled log lines. A nil *Logger discards everything.
type Logger struct {
	mu        sync.Mutex
	level     Level
	out       io.Writer
	timestamp bool
	now       func() time.Time

	debug  *color.Color
	info   *color.Color
	warn   *color.Color
	err    *color.Color
	dim    *color.Color
	action map[Action]*color.Color
}

// New creates a Logger from cfg.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	l := &Logger{
		level:     cfg.Level,
		out:       out,
		timestamp: cfg.ShowTimestamp,
		now:       time.Now,
		debug:     color.New(color.FgMagenta),
		info:      color.New(color.FgCyan),
		warn:      color.New(color.FgYellow),
		err:       color.New(color.FgRed, color.Bold),
		dim:       color.New(color.Faint),
		action: map[Action]*color.Color{
			ActionReload: color.New(color.FgGreen),
			ActionSet:    color.New(color.FgYellow),
			ActionDelete: color.New(color.FgRed),
		},
	}

	useColor := !cfg.NoColor && isTerminal(out)
	for _, c := range l.colors() {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return l
}

// Nop returns a logger that writes nothing.
func Nop() *Logger {
	return New(Config{Level: LevelOff, Output: io.Discard})
}

func (l *Logger) colors() []*color.Color {
	cs := []*color.Color{l.debug, l.info, l.warn, l.err, l.dim}
	for _, c := range l.action {
		cs = append(cs, c)
	}
	return cs
}

// isTerminal checks if the writer is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Level returns the configured level.
func (l *Logger) Level() Level {
	if l == nil {
		return LevelOff
	}
	return l.level
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level Level) bool {
	if l == nil || l.level == LevelOff {
		return false
	}
	return level >= l.level
}

func (l *Logger) Debug(msg string, kv ...any) { l.log(LevelDebug, msg, kv) }
func (l *Logger) Info(msg string, kv ...any)  { l.log(LevelInfo, msg, kv) }
func (l *Logger) Warn(msg string, kv ...any)  { l.log(LevelWarn, msg, kv) }
func (l *Logger) Error(msg string, kv ...any) { l.log(LevelError, msg, kv) }

// Action logs a table mutation as "<state>s <id>", e.g. "sets /blog/intro.html".
func (l *Logger) Action(id string, state Action) {
	if !l.Enabled(LevelInfo) {
		return
	}

	c, ok := l.action[state]
	if !ok {
		c = l.info
	}

	l.write(c.Sprintf("%ss", state) + " " + l.dim.Sprint(id))
}

func (l *Logger) log(level Level, msg string, kv []any) {
	if !l.Enabled(level) {
		return
	}

	var tag string
	switch level {
	case LevelDebug:
		tag = l.debug.Sprint("DEBUG")
	case LevelInfo:
		tag = l.info.Sprint("INFO ")
	case LevelWarn:
		tag = l.warn.Sprint("WARN ")
	case LevelError:
		tag = l.err.Sprint("ERROR")
	}

	var b strings.Builder
	b.WriteString(tag)
	b.WriteByte(' ')
	b.WriteString(msg)
	for i := 0; i < len(kv); i += 2 {
		b.WriteByte(' ')
		if i+1 == len(kv) {
			fmt.Fprintf(&b, "%s", l.dim.Sprintf("%v", kv[i]))
			break
		}
		fmt.Fprintf(&b, "%s=%v", l.dim.Sprintf("%v", kv[i]), kv[i+1])
	}

	l.write(b.String())
}

func (l *Logger) write(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.timestamp {
		line = l.dim.Sprintf("[%s]", l.now().Format("15:04:05")) + " " + line
	}
	_, _ = fmt.Fprintln(l.out, line)
}

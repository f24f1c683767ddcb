package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger prints leveled, human readable lines to the terminal.
type Logger struct {
	Debug bool
	zl    zerolog.Logger
}

func NewLogger(debug bool) *Logger {
	return NewLoggerTo(os.Stderr, debug)
}

// NewLoggerTo writes to w instead of stderr. Colors are disabled unless w is
// a terminal-backed *os.File.
func NewLoggerTo(w io.Writer, debug bool) *Logger {
	_, isFile := w.(*os.File)

	out := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    !isFile,
		TimeFormat: "15:04:05",
		FormatLevel: func(i any) string {
			if i == nil {
				return ""
			}
			switch strings.ToLower(fmt.Sprint(i)) {
			case "debug":
				return "[DEBUG]"
			case "info":
				return "[INFO]"
			case "warn":
				return "[WARN]"
			case "error":
				return "[ERROR]"
			default:
				return strings.ToUpper(fmt.Sprint(i))
			}
		},
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	return &Logger{
		Debug: debug,
		zl:    zerolog.New(out).Level(level).With().Timestamp().Logger(),
	}
}

// With returns a child logger that adds key=val to every line.
func (l *Logger) With(key string, val any) *Logger {
	return &Logger{
		Debug: l.Debug,
		zl:    l.zl.With().Interface(key, val).Logger(),
	}
}

func (l *Logger) Debugf(format string, args ...any) {
	l.zl.Debug().Msg(line(format, args))
}

func (l *Logger) Infof(format string, args ...any) {
	l.zl.Info().Msg(line(format, args))
}

func (l *Logger) Warnf(format string, args ...any) {
	l.zl.Warn().Msg(line(format, args))
}

func (l *Logger) Errorf(format string, args ...any) {
	l.zl.Error().Msg(line(format, args))
}

func line(format string, args []any) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}

// Elapsed formats d the way the summary and progress bars show it.
func Elapsed(d time.Duration) string {
	return d.Round(time.Second).String()
}

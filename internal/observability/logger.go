package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger writes structured key/value logs to the console and, when a log
// path is configured, to a size-rotated file.
type Logger struct {
	zl   zerolog.Logger
	file *lumberjack.Logger
}

func NewLogger(logPath, logLevel string) *Logger {
	var writers []io.Writer
	writers = append(writers, zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	})

	var file *lumberjack.Logger
	if logPath != "" {
		file = &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		writers = append(writers, file)
	}

	zl := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(parseLevel(logLevel)).
		With().
		Timestamp().
		Logger()

	return &Logger{zl: zl, file: file}
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// New returns a Logger writing JSON lines to w.
func New(w io.Writer, logLevel string) *Logger {
	return &Logger{zl: zerolog.New(w).Level(parseLevel(logLevel)).With().Timestamp().Logger()}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *Logger) Debug(msg string, fields ...interface{}) {
	l.zl.Debug().Fields(normalizeFields(fields)).Msg(msg)
}

func (l *Logger) Info(msg string, fields ...interface{}) {
	l.zl.Info().Fields(normalizeFields(fields)).Msg(msg)
}

func (l *Logger) Warn(msg string, fields ...interface{}) {
	l.zl.Warn().Fields(normalizeFields(fields)).Msg(msg)
}

func (l *Logger) Error(msg string, fields ...interface{}) {
	l.zl.Error().Fields(normalizeFields(fields)).Msg(msg)
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// normalizeFields makes fields an even key/value list zerolog accepts.
func normalizeFields(fields []interface{}) []interface{} {
	if len(fields)%2 != 0 {
		fields = append(fields, "(MISSING)")
	}
	for i := 1; i < len(fields); i += 2 {
		switch v := fields[i].(type) {
		case time.Duration:
			fields[i] = v.String()
		case error:
			fields[i] = v.Error()
		}
	}
	return fields
}

package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum log level. Default: info
	Level string
	// Format is json or console. Default: json
	Format string
	// Caller adds file:line to each entry.
	Caller bool
	// Output defaults to os.Stderr.
	Output io.Writer
}

// ConfigFromEnv reads BOARDGURU_LOG_LEVEL and BOARDGURU_LOG_FORMAT.
func ConfigFromEnv() Config {
	return Config{
		Level:  os.Getenv("BOARDGURU_LOG_LEVEL"),
		Format: os.Getenv("BOARDGURU_LOG_FORMAT"),
		Caller: os.Getenv("BOARDGURU_LOG_CALLER") == "true",
	}
}

var (
	log zerolog.Logger
	mu  sync.RWMutex
)

func init() {
	initLogger(Config{})
}

// Init configures the global logger. It may be called more than once.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	initLogger(cfg)
}

func initLogger(cfg Config) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Format == "" {
		cfg.Format = "json"
	}
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.TimestampFieldName = "time"
	zerolog.MessageFieldName = "message"

	output := cfg.Output
	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: "15:04:05"}
	}

	l := zerolog.New(output).With().Timestamp().Logger()
	if cfg.Caller {
		l = l.With().Caller().Logger()
	}
	log = l
}

// ParseLevel converts a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Logger returns a copy of the global logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// Writer returns an io.Writer that logs each write as an info entry. It is
// used to route access logs through zerolog.
func Writer() io.Writer {
	l := Logger()
	return &lineWriter{logger: &l}
}

type lineWriter struct {
	logger *zerolog.Logger
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.logger.Info().Str("component", "http").Msg(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// IsDebug reports whether debug logging is enabled.
func IsDebug() bool {
	return zerolog.GlobalLevel() <= zerolog.DebugLevel
}

func Debug() *zerolog.Event {
	l := Logger()
	return l.Debug()
}

func Info() *zerolog.Event {
	l := Logger()
	return l.Info()
}

func Warn() *zerolog.Event {
	l := Logger()
	return l.Warn()
}

func Error() *zerolog.Event {
	l := Logger()
	return l.Error()
}

// With returns a child logger carrying a component field.
func With(component string) zerolog.Logger {
	return Logger().With().Str("component", component).Logger()
}

// Ctx returns the global logger enriched with request-scoped fields.
func Ctx(ctx context.Context) *zerolog.Logger {
	l := Logger()
	if ctx == nil {
		return &l
	}
	c := l.With()
	if id := RequestIDFromContext(ctx); id != "" {
		c = c.Str("request_id", id)
	}
	if uid := UserIDFromContext(ctx); uid != "" {
		c = c.Str("user_id", uid)
	}
	l = c.Logger()
	return &l
}

package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps a zerolog logger scoped to one pipeline component
type Logger struct {
	logger zerolog.Logger
}

// Component names attached to every line as the "component" field
const (
	ComponentResolver   = "resolver"
	ComponentFetcher    = "danmaku"
	ComponentCrawler    = "comments"
	ComponentProvider   = "provider"
	ComponentClassifier = "sentiment"
	ComponentPipeline   = "pipeline"
	ComponentPublisher  = "publisher"
	ComponentCache      = "cache"
)

// Default is the process-wide root logger; nil until Init runs
var Default *Logger

// Init sets up the root logger on stdout
func Init() {
	InitWithWriter(os.Stdout)
}

// InitWithWriter sets up the root logger writing console output to w
func InitWithWriter(w io.Writer) {
	level := getLogLevel()

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(level)

	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}
	Default = &Logger{logger: zerolog.New(output).With().Timestamp().Logger()}

	Default.Debug().
		Str("level", level.String()).
		Msg("Logger initialized")
}

// getLogLevel reads LOG_LEVEL, then falls back on APP_ENVIRONMENT
func getLogLevel() zerolog.Level {
	raw := os.Getenv("LOG_LEVEL")
	if raw == "" {
		if os.Getenv("APP_ENVIRONMENT") == "production" {
			return zerolog.InfoLevel
		}
		return zerolog.DebugLevel
	}

	level, err := zerolog.ParseLevel(raw)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

func root() *Logger {
	if Default == nil {
		Init()
	}
	return Default
}

// With returns a child logger carrying one extra string field
func (l *Logger) With(key, value string) *Logger {
	return &Logger{logger: l.logger.With().Str(key, value).Logger()}
}

// Debug starts a debug event
func (l *Logger) Debug() *zerolog.Event { return l.logger.Debug() }

// Info starts an info event
func (l *Logger) Info() *zerolog.Event { return l.logger.Info() }

// Warn starts a warn event
func (l *Logger) Warn() *zerolog.Event { return l.logger.Warn() }

// Error starts an error event
func (l *Logger) Error() *zerolog.Event { return l.logger.Error() }

// Fatal starts a fatal event; sending it exits the process
func (l *Logger) Fatal() *zerolog.Event { return l.logger.Fatal() }

// Printf-style shortcuts on the root logger, used where no component applies

// Info logs a formatted info message
func Info(format string, v ...interface{}) {
	root().Info().Msgf(format, v...)
}

// Warn logs a formatted warning
func Warn(format string, v ...interface{}) {
	root().Warn().Msgf(format, v...)
}

// For returns a logger tagged with the given component name
func For(component string) *Logger {
	return root().With("component", component)
}

func ForResolver() *Logger   { return For(ComponentResolver) }
func ForFetcher() *Logger    { return For(ComponentFetcher) }
func ForCrawler() *Logger    { return For(ComponentCrawler) }
func ForProvider() *Logger   { return For(ComponentProvider) }
func ForClassifier() *Logger { return For(ComponentClassifier) }
func ForPipeline() *Logger   { return For(ComponentPipeline) }
func ForPublisher() *Logger  { return For(ComponentPublisher) }
func ForCache() *Logger      { return For(ComponentCache) }

package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cyphera/cyphera-delegation/libs/go/constants"
)

var (
	// Log is the global logger instance
	Log *zap.Logger
)

// Options controls how the global logger is built.
type Options struct {
	// Level is a zap level name. Unknown values fall back to info.
	Level string
	Stage string
	// Binary names the command writing the log, e.g. delegate or
	// delegation-server, so lines from the CLIs and the server can be told apart.
	Binary string
}

// OptionsForStage returns the defaults for stage. LOG_LEVEL overrides the
// level; the test stage only logs warnings and above.
func OptionsForStage(stage string) Options {
	level := "info"
	if stage == constants.TestEnvironment {
		level = "warn"
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level = v
	}
	return Options{
		Level:  level,
		Stage:  stage,
		Binary: filepath.Base(os.Args[0]),
	}
}

// InitLogger sets the global logger for stage.
func InitLogger(stage string) {
	logger, err := New(OptionsForStage(stage))
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	Log = logger
}

// New builds a logger. prod writes JSON with ISO8601 timestamps; every other
// stage writes console lines, colored for local runs.
func New(opts Options) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var cfg zap.Config
	if opts.Stage == constants.ProdEnvironment {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.MessageKey = "message"
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		if opts.Stage == constants.LocalEnvironment {
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		cfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	}
	cfg.DisableStacktrace = level > zapcore.DebugLevel
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	fields := map[string]interface{}{
		"service": constants.ServiceName,
		"stage":   opts.Stage,
	}
	if opts.Binary != "" {
		fields["binary"] = opts.Binary
	}
	cfg.InitialFields = fields

	return cfg.Build()
}

// L returns the global logger, falling back to a no-op logger when InitLogger
// has not been called yet.
func L() *zap.Logger {
	if Log == nil {
		return zap.NewNop()
	}
	return Log
}

// Info logs a message at InfoLevel
func Info(msg string, fields ...zapcore.Field) {
	L().Info(msg, fields...)
}

// Error logs a message at ErrorLevel
func Error(msg string, fields ...zapcore.Field) {
	L().Error(msg, fields...)
}

// Debug logs a message at DebugLevel
func Debug(msg string, fields ...zapcore.Field) {
	L().Debug(msg, fields...)
}

// Warn logs a message at WarnLevel
func Warn(msg string, fields ...zapcore.Field) {
	L().Warn(msg, fields...)
}

// Fatal logs a message at FatalLevel
// and then calls os.Exit(1)
func Fatal(msg string, fields ...zapcore.Field) {
	L().Fatal(msg, fields...)
}

// Sync flushes any buffered log entries
func Sync() error {
	return L().Sync()
}

package logger

import (
	"os"

	"skybound/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates the process logger for the given profile. Production writes
// JSON at info level; development writes coloured console output at debug.
func New(profile config.Profile) (*zap.Logger, error) {
	var cfg zap.Config

	if profile.Name == config.EnvProduction {
		cfg = zap.NewProductionConfig()
		cfg.Encoding = "json"
		cfg.EncoderConfig = productionEncoderConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if profile.Debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	// Always log to stdout for container compatibility
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	return cfg.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
}

// NewWithWriter builds a JSON logger for profile that writes to w.
func NewWithWriter(w zapcore.WriteSyncer, profile config.Profile) *zap.Logger {
	level := zapcore.InfoLevel
	if profile.Debug {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(productionEncoderConfig()), w, level)
	return zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel))
}

// NewWithDefaults creates a logger from SERVER_ENV, falling back to a plain
// production logger if the configured one cannot be built.
func NewWithDefaults() *zap.Logger {
	logger, err := New(config.ProfileFor(os.Getenv("SERVER_ENV")))
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}

func productionEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

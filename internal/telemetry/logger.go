package telemetry

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the service logger. INFO/WARN go to stdout, ERROR and
// above to stderr. If logPath is non-empty, all levels are also appended to
// that file as JSON. The returned cleanup flushes and closes the file.
func NewLogger(logPath string) (*zap.Logger, func(), error) {
	cores := []zapcore.Core{levelRouter(zapcore.Lock(os.Stdout), zapcore.Lock(os.Stderr))}
	cleanup := func() {}

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig()),
			zapcore.Lock(f),
			zapcore.InfoLevel,
		))
		cleanup = func() { f.Close() }
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return logger, func() {
		_ = logger.Sync()
		cleanup()
	}, nil
}

// levelRouter splits output by level: below ERROR to out, ERROR+ to errOut.
func levelRouter(out, errOut zapcore.WriteSyncer) zapcore.Core {
	enc := zapcore.NewConsoleEncoder(encoderConfig())

	low := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= zapcore.InfoLevel && l < zapcore.ErrorLevel
	})
	high := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= zapcore.ErrorLevel
	})

	return zapcore.NewTee(
		zapcore.NewCore(enc, out, low),
		zapcore.NewCore(enc, errOut, high),
	)
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

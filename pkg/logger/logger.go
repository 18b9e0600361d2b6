package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu    sync.RWMutex
	sugar = zap.NewNop().Sugar()
)

// Init builds the process-wide logger (called once from main). Unknown levels
// fall back to info.
func Init(level string) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	config := zap.NewProductionConfig()
	config.EncoderConfig = encoderConfig
	config.Level = zap.NewAtomicLevelAt(lvl)

	built, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		built = zap.NewExample()
	}

	mu.Lock()
	sugar = built.Sugar()
	mu.Unlock()
}

// Sync flushes buffered entries; call before exit.
func Sync() {
	_ = current().Sync()
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

func Infof(format string, v ...any) {
	current().Infof(format, v...)
}

func Warnf(format string, v ...any) {
	current().Warnf(format, v...)
}

func Errorf(format string, v ...any) {
	current().Errorf(format, v...)
}

func Debugf(format string, v ...any) {
	current().Debugf(format, v...)
}

func Fatalf(format string, v ...any) {
	current().Fatalf(format, v...)
}

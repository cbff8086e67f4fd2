package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	baseLogger  *zap.Logger
	sugarLogger *zap.SugaredLogger
)

// InitLogging initializes logging
func InitLogging(release bool, level string) error {
	var cfg zap.Config
	if release {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	SetLogger(l)
	return nil
}

// SetLogger replaces the process logger.
func SetLogger(l *zap.Logger) {
	baseLogger = l
	sugarLogger = l.Sugar()
}

// L returns the structured logger, or a no-op logger before InitLogging.
func L() *zap.Logger {
	if baseLogger == nil {
		return zap.NewNop()
	}
	return baseLogger.WithOptions(zap.AddCallerSkip(-1))
}

// Sync flushes buffered log entries
func Sync() {
	if baseLogger != nil {
		_ = baseLogger.Sync()
	}
}

// Infof logs info level messages
func Infof(format string, v ...interface{}) {
	if sugarLogger != nil {
		sugarLogger.Infof(format, v...)
	}
}

// Warnf logs warn level messages
func Warnf(format string, v ...interface{}) {
	if sugarLogger != nil {
		sugarLogger.Warnf(format, v...)
	}
}

// Errorf logs error level messages
func Errorf(format string, v ...interface{}) {
	if sugarLogger != nil {
		sugarLogger.Errorf(format, v...)
	}
}

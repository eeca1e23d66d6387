package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logger used across the module.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)

	// With returns a child logger carrying fields on every entry.
	With(fields ...zap.Field) Logger
	// Named returns a child logger whose name is joined to the parent's with a dot.
	Named(name string) Logger

	// Sync flushes buffered entries.
	Sync() error
}

type zapLogger struct {
	zl *zap.Logger
}

// NewLogger builds a Logger from config. With neither terminal nor file
// output configured the logger discards everything.
func NewLogger(config Config) Logger {
	config.applyDefaults()

	cores := getZapCores(config)
	if len(cores) == 0 {
		return Nop()
	}
	zl := zap.New(zapcore.NewTee(cores...))
	if config.ShowLineNumber {
		zl = zl.WithOptions(zap.AddCaller(), zap.AddCallerSkip(1))
	}
	return &zapLogger{zl: zl}
}

// Nop returns a Logger that discards all entries.
func Nop() Logger {
	return &zapLogger{zl: zap.NewNop()}
}

// FromZap wraps an existing *zap.Logger, e.g. one built on zaptest/observer.
func FromZap(zl *zap.Logger) Logger {
	if zl == nil {
		return Nop()
	}
	return &zapLogger{zl: zl}
}

func (l *zapLogger) Debug(msg string, fields ...zap.Field) { l.zl.Debug(msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...zap.Field)  { l.zl.Info(msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...zap.Field)  { l.zl.Warn(msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...zap.Field) { l.zl.Error(msg, fields...) }

func (l *zapLogger) With(fields ...zap.Field) Logger {
	return &zapLogger{zl: l.zl.With(fields...)}
}

func (l *zapLogger) Named(name string) Logger {
	return &zapLogger{zl: l.zl.Named(name)}
}

func (l *zapLogger) Sync() error {
	return l.zl.Sync()
}

var _ Logger = (*zapLogger)(nil)

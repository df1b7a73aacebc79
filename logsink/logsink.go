// Package logsink defines the Logger sink the core exposes (spec: "core
// exposes a Logger sink") and a structured default implementation backed
// by go.uber.org/zap.
package logsink

import "go.uber.org/zap"

// Logger is the sink every column/partition operation reports warnings and
// errors through. It is deliberately narrow: the core never decides how or
// where messages end up, only that they get reported.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// zapLogger adapts *zap.SugaredLogger to Logger.
type zapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger builds the default Logger, a production zap configuration
// sugared for printf-style call sites.
func NewZapLogger() (Logger, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return &zapLogger{sugar: l.Sugar()}, nil
}

// NewNopLogger returns a Logger that discards everything, useful for tests
// and for callers that have not wired a sink yet.
func NewNopLogger() Logger {
	return &zapLogger{sugar: zap.NewNop().Sugar()}
}

func (z *zapLogger) Infof(format string, args ...any) {
	z.sugar.Infof(format, args...)
}

func (z *zapLogger) Warnf(format string, args ...any) {
	z.sugar.Warnf(format, args...)
}

func (z *zapLogger) Errorf(format string, args ...any) {
	z.sugar.Errorf(format, args...)
}

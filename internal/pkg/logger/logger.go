package logger

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey struct{}

var (
	global   = zap.NewNop().Sugar()
	globalMx sync.RWMutex
)

// Init replaces the global logger. Level is one of debug, info, warn, error.
func Init(level string, development bool) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("build zap logger: %w", err)
	}

	Set(l)
	return nil
}

// Set installs l as the global logger. Tests use it with zaptest or observer cores.
func Set(l *zap.Logger) {
	globalMx.Lock()
	defer globalMx.Unlock()

	global = l.Sugar()
}

func Sync() {
	_ = get(context.Background()).Sync()
}

// WithFields returns a context whose log lines carry the given key/value pairs.
func WithFields(ctx context.Context, keysAndValues ...interface{}) context.Context {
	fields, _ := ctx.Value(ctxKey{}).([]interface{})
	merged := make([]interface{}, 0, len(fields)+len(keysAndValues))
	merged = append(merged, fields...)
	merged = append(merged, keysAndValues...)
	return context.WithValue(ctx, ctxKey{}, merged)
}

func get(ctx context.Context) *zap.SugaredLogger {
	globalMx.RLock()
	l := global
	globalMx.RUnlock()

	if ctx == nil {
		return l
	}
	if fields, ok := ctx.Value(ctxKey{}).([]interface{}); ok && len(fields) > 0 {
		return l.With(fields...)
	}
	return l
}

func Debugf(ctx context.Context, format string, args ...interface{}) {
	get(ctx).Debugf(format, args...)
}

func Infof(ctx context.Context, format string, args ...interface{}) {
	get(ctx).Infof(format, args...)
}

func Info(ctx context.Context, msg string, keysAndValues ...interface{}) {
	get(ctx).Infow(msg, keysAndValues...)
}

func Warnf(ctx context.Context, format string, args ...interface{}) {
	get(ctx).Warnf(format, args...)
}

func Error(ctx context.Context, msg string, keysAndValues ...interface{}) {
	get(ctx).Errorw(msg, keysAndValues...)
}

func Errorf(ctx context.Context, format string, args ...interface{}) {
	get(ctx).Errorf(format, args...)
}

func Fatal(ctx context.Context, args ...interface{}) {
	get(ctx).Fatal(args...)
}

// Copyright (c) 2024-2026 SpeakWise
// Author: SpeakWise Engineering <engineering@speakwise.io>
//
// Licensed under GPL-2.0 with SpeakWise Additional Terms.
// See LICENSE.md or contact hello@speakwise.io for commercial usage.

package commons

import (
	"context"
	"time"

	"go.uber.org/zap/zapcore"
)

// Logger is the logging contract shared by every component in the platform.
// Implementations must be safe for concurrent use.
type Logger interface {
	// Level reports the minimum level this logger emits at.
	Level() zapcore.Level

	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
	DPanic(args ...interface{})
	DPanicf(template string, args ...interface{})
	Panic(args ...interface{})
	Panicf(template string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(template string, args ...interface{})

	// Benchmark records how long a named operation took. Emitted at debug
	// level so production builds stay quiet.
	Benchmark(functionName string, duration time.Duration)

	// Tracef logs with the request correlation id taken from ctx, when one
	// has been attached via WithTraceId.
	Tracef(ctx context.Context, format string, args ...interface{})

	Sync() error
}

type traceIdKey struct{}

// WithTraceId attaches a correlation id to ctx for Tracef consumers.
func WithTraceId(ctx context.Context, traceId string) context.Context {
	return context.WithValue(ctx, traceIdKey{}, traceId)
}

// TraceId returns the correlation id attached to ctx, or "".
func TraceId(ctx context.Context) string {
	if v, ok := ctx.Value(traceIdKey{}).(string); ok {
		return v
	}
	return ""
}

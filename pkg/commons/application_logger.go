// Copyright (c) 2024-2026 SpeakWise
// Author: SpeakWise Engineering <engineering@speakwise.io>
//
// Licensed under GPL-2.0 with SpeakWise Additional Terms.
// See LICENSE.md or contact hello@speakwise.io for commercial usage.

package commons

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultLoggerName = "speakwise"
	defaultLogLevel   = "info"

	logFileMaxSizeMB  = 100
	logFileMaxBackups = 5
	logFileMaxAgeDays = 30
)

// LoggerOption configures NewApplicationLogger.
type LoggerOption func(*loggerOptions)

type loggerOptions struct {
	name  string
	path  string
	level string
}

// Name sets the logger name, used as the rotated file basename.
func Name(name string) LoggerOption {
	return func(o *loggerOptions) { o.name = name }
}

// Path enables file output under the given directory, rotated by lumberjack.
// Without a path the logger writes to stdout only.
func Path(path string) LoggerOption {
	return func(o *loggerOptions) { o.path = path }
}

// Level sets the minimum emitted level: debug, info, warn or error.
func Level(level string) LoggerOption {
	return func(o *loggerOptions) { o.level = level }
}

type applicationLogger struct {
	sugar *zap.SugaredLogger
	level zapcore.Level
}

// NewApplicationLogger builds the process logger: a console core always, plus
// a size-rotated JSON file core when a path is configured.
func NewApplicationLogger(opts ...LoggerOption) (Logger, error) {
	options := &loggerOptions{
		name:  defaultLoggerName,
		level: defaultLogLevel,
	}
	for _, opt := range opts {
		opt(options)
	}

	level := parseLevel(options.level)

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.LowercaseLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderCfg),
			zapcore.AddSync(os.Stdout),
			level,
		),
	}

	if options.path != "" {
		if err := os.MkdirAll(options.path, 0o755); err != nil {
			return nil, err
		}
		fileWriter := &lumberjack.Logger{
			Filename:   filepath.Join(options.path, options.name+".log"),
			MaxSize:    logFileMaxSizeMB,
			MaxBackups: logFileMaxBackups,
			MaxAge:     logFileMaxAgeDays,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderCfg),
			zapcore.AddSync(fileWriter),
			level,
		))
	}

	zl := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	return &applicationLogger{
		sugar: zl.Sugar().Named(options.name),
		level: level,
	}, nil
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *applicationLogger) Level() zapcore.Level { return l.level }

func (l *applicationLogger) Debug(args ...interface{})  { l.sugar.Debug(args...) }
func (l *applicationLogger) Info(args ...interface{})   { l.sugar.Info(args...) }
func (l *applicationLogger) Warn(args ...interface{})   { l.sugar.Warn(args...) }
func (l *applicationLogger) Error(args ...interface{})  { l.sugar.Error(args...) }
func (l *applicationLogger) DPanic(args ...interface{}) { l.sugar.DPanic(args...) }
func (l *applicationLogger) Panic(args ...interface{})  { l.sugar.Panic(args...) }
func (l *applicationLogger) Fatal(args ...interface{})  { l.sugar.Fatal(args...) }

func (l *applicationLogger) Debugf(template string, args ...interface{}) {
	l.sugar.Debugf(template, args...)
}

func (l *applicationLogger) Infof(template string, args ...interface{}) {
	l.sugar.Infof(template, args...)
}

func (l *applicationLogger) Warnf(template string, args ...interface{}) {
	l.sugar.Warnf(template, args...)
}

func (l *applicationLogger) Errorf(template string, args ...interface{}) {
	l.sugar.Errorf(template, args...)
}

func (l *applicationLogger) DPanicf(template string, args ...interface{}) {
	l.sugar.DPanicf(template, args...)
}

func (l *applicationLogger) Panicf(template string, args ...interface{}) {
	l.sugar.Panicf(template, args...)
}

func (l *applicationLogger) Fatalf(template string, args ...interface{}) {
	l.sugar.Fatalf(template, args...)
}

func (l *applicationLogger) Debugw(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l *applicationLogger) Infow(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *applicationLogger) Warnw(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

func (l *applicationLogger) Errorw(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

func (l *applicationLogger) Benchmark(functionName string, duration time.Duration) {
	l.sugar.Debugw("benchmark", "function", functionName, "duration", duration.String())
}

func (l *applicationLogger) Tracef(ctx context.Context, format string, args ...interface{}) {
	if traceId := TraceId(ctx); traceId != "" {
		l.sugar.With("trace_id", traceId).Infof(format, args...)
		return
	}
	l.sugar.Infof(format, args...)
}

func (l *applicationLogger) Sync() error { return l.sugar.Sync() }

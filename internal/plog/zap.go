// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package plog

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"go.georchestra.org/gateway/internal/constable"
)

// LogFormat is an enum of the valid log output encodings.
type LogFormat string

const (
	FormatJSON    LogFormat = "json"
	FormatConsole LogFormat = "console"

	errInvalidLogFormat = constable.Error("invalid log format, valid choices are the empty string, json and console")
)

func newLogr(format LogFormat) (logr.Logger, func(), error) {
	encoding := ""
	switch format {
	case "", FormatJSON:
		encoding = "json"
	case FormatConsole:
		encoding = "console"
	default:
		return logr.Logger{}, nil, errInvalidLogFormat
	}

	config := zap.Config{
		Level:             globalLevel,
		Development:       false,
		DisableCaller:     false,
		DisableStacktrace: true,
		Sampling:          nil, // keep all logs
		Encoding:          encoding,
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:     "message",
			LevelKey:       "level",
			TimeKey:        "timestamp",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey, // included in caller
			StacktraceKey:  "stacktrace",
			SkipLineEnding: false,
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    levelEncoder,
			// human-readable and machine parsable with microsecond precision
			EncodeTime:       zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05.000000Z07:00"),
			EncodeDuration:   zapcore.StringDurationEncoder,
			EncodeCaller:     callerEncoder,
			ConsoleSeparator: "  ",
		},
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	if encoding == "console" {
		config.EncoderConfig.LevelKey = zapcore.OmitKey
		config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
		config.EncoderConfig.EncodeTime = humanTimeEncoder
	}

	log, err := config.Build(zap.AddStacktrace(zapcore.Level(-levelTrace)))
	if err != nil {
		return logr.Logger{}, nil, fmt.Errorf("failed to build zap logger: %w", err)
	}

	return zapr.NewLogger(log), func() { _ = log.Sync() }, nil
}

func levelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	plogLevel := zapLevelToPlogLevel(l)

	if len(plogLevel) == 0 {
		return // tell zap to encode the level itself when we do not know the mapping
	}

	enc.AppendString(string(plogLevel))
}

func zapLevelToPlogLevel(l zapcore.Level) LogLevel {
	if l > 0 {
		// best effort mapping for zap's own levels, correct for "error" which is all logr emits
		return LogLevel(l.String())
	}

	// logr verbosity is inverted when zap handles it
	switch {
	case -l >= levelTrace:
		return LevelTrace
	case -l >= levelDebug:
		return LevelDebug
	case -l >= levelInfo:
		return LevelInfo
	default:
		return "" // warning is handled via a custom key since verbosity zero is ambiguous
	}
}

func callerEncoder(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(caller.String() + funcEncoder(caller))
}

func funcEncoder(caller zapcore.EntryCaller) string {
	funcName := caller.Function
	if idx := strings.LastIndexByte(funcName, '/'); idx != -1 {
		funcName = funcName[idx+1:] // keep everything after the last /
	}
	return "$" + funcName
}

func humanTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Local().Format(time.RFC1123))
}

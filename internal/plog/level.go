// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package plog

import (
	"go.uber.org/zap/zapcore"

	"go.georchestra.org/gateway/internal/constable"
)

// LogLevel is an enum of the valid log levels, in order of increasing verbosity.
type LogLevel string

const (
	// LevelWarning (i.e. `warning`) is the default log level.  Errors and warnings are always emitted.
	LevelWarning LogLevel = "warning"

	// LevelInfo (i.e. `info`) adds "nice to know" information to the warning level.
	LevelInfo LogLevel = "info"

	// LevelDebug (i.e. `debug`) adds information targeted at developers and support cases.
	// Must not leak secrets into the log stream.
	LevelDebug LogLevel = "debug"

	// LevelTrace (i.e. `trace`) adds timing and request-pipeline information.  Verbose.
	LevelTrace LogLevel = "trace"

	errInvalidLogLevel = constable.Error("invalid log level, valid choices are the empty string, warning, info, debug and trace")
)

// Verbosity offsets relative to the zap error level.  zapr encodes logr
// V(n) calls as zap level -n, so higher verbosity means a more negative level.
const (
	levelWarning = 0
	levelInfo    = 2
	levelDebug   = 4
	levelTrace   = 6
)

func zapLevelFor(level LogLevel) (zapcore.Level, error) {
	switch level {
	case "", LevelWarning:
		return zapcore.Level(-levelWarning), nil
	case LevelInfo:
		return zapcore.Level(-levelInfo), nil
	case LevelDebug:
		return zapcore.Level(-levelDebug), nil
	case LevelTrace:
		return zapcore.Level(-levelTrace), nil
	default:
		return 0, errInvalidLogLevel
	}
}

// Enabled returns whether logs at the given level are currently emitted.
func Enabled(level LogLevel) bool {
	l, err := zapLevelFor(level)
	if err != nil {
		return false
	}
	return globalLevel.Enabled(l)
}

// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package plog

import (
	"sync"

	"github.com/go-logr/logr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// globalLevel is the level gate shared by every logger built by this package.
	// It can be adjusted exactly once per process via ValidateAndSetLogLevelGlobally.
	globalLevel = zap.NewAtomicLevelAt(zapcore.Level(-levelWarning))

	globalMu     sync.RWMutex
	globalLogger = mustBuildLogger(FormatJSON)
	globalFlush  = func() {}
)

func global() logr.Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// ValidateAndSetLogLevelGlobally validates the given level and sets it as the
// process-wide minimum level.  The empty string means the default (warning).
func ValidateAndSetLogLevelGlobally(level LogLevel) error {
	l, err := zapLevelFor(level)
	if err != nil {
		return err
	}
	globalLevel.SetLevel(l)
	return nil
}

// ValidateAndSetLogFormatGlobally validates the given format and rebuilds the
// process-wide logger with it.  The empty string means the default (json).
func ValidateAndSetLogFormatGlobally(format LogFormat) error {
	logger, flush, err := newLogr(format)
	if err != nil {
		return err
	}
	setGlobal(logger, flush)
	return nil
}

// Flush synchronizes any buffered log output.  Call before process exit.
func Flush() {
	globalMu.RLock()
	defer globalMu.RUnlock()
	globalFlush()
}

func setGlobal(logger logr.Logger, flush func()) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = logger
	globalFlush = flush
}

func mustBuildLogger(format LogFormat) logr.Logger {
	logger, _, err := newLogr(format)
	if err != nil {
		panic(err) // default config is static and must always build
	}
	return logger
}

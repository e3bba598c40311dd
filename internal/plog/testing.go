// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package plog

import (
	"bytes"
	"sync"
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TestLogger swaps the global logger for one that writes to the given buffer at
// trace verbosity, restoring the previous logger when the test ends.  Safe for
// concurrent writes from the code under test, but tests using it must not run
// in parallel with each other.
func TestLogger(t *testing.T, into *bytes.Buffer) {
	t.Helper()

	sink := &syncWriter{w: into}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zapcore.EncoderConfig{
			MessageKey:  "message",
			LevelKey:    "level",
			EncodeLevel: levelEncoder,
		}),
		zapcore.AddSync(sink),
		zapcore.Level(-levelTrace),
	)

	globalMu.Lock()
	prevLogger, prevFlush := globalLogger, globalFlush
	globalMu.Unlock()

	setGlobal(zapr.NewLogger(zap.New(core)), func() {})

	t.Cleanup(func() { setGlobal(prevLogger, prevFlush) })
}

// TestLogr returns the current global logger for injecting into components that
// accept a logr.Logger directly.
func TestLogr(t *testing.T) logr.Logger {
	t.Helper()
	return global()
}

type syncWriter struct {
	mu sync.Mutex
	w  *bytes.Buffer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

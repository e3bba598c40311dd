// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package plog

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevels(t *testing.T) {
	var log bytes.Buffer
	TestLogger(t, &log)

	Error("something broke", errors.New("boom"), "key", "value")
	Warning("watch out")
	WarningErr("watch out with error", errors.New("boom"))
	Info("nice to know")
	Debug("developer detail")
	Trace("pipeline detail")

	out := log.String()
	require.Contains(t, out, `"message":"something broke"`)
	require.Contains(t, out, `"error":"boom"`)
	require.Contains(t, out, `"warning":"true"`)
	require.Contains(t, out, `"message":"nice to know"`)
	require.Contains(t, out, `"level":"debug"`)
	require.Contains(t, out, `"level":"trace"`)
}

func TestValidateAndSetLogLevelGlobally(t *testing.T) {
	originalLevel := globalLevel.Level()
	t.Cleanup(func() { globalLevel.SetLevel(originalLevel) })

	require.NoError(t, ValidateAndSetLogLevelGlobally(""))
	require.NoError(t, ValidateAndSetLogLevelGlobally(LevelWarning))
	require.NoError(t, ValidateAndSetLogLevelGlobally(LevelInfo))
	require.NoError(t, ValidateAndSetLogLevelGlobally(LevelDebug))
	require.NoError(t, ValidateAndSetLogLevelGlobally(LevelTrace))
	require.EqualError(t, ValidateAndSetLogLevelGlobally("panic"),
		"invalid log level, valid choices are the empty string, warning, info, debug and trace")
}

func TestValidateAndSetLogFormatGlobally(t *testing.T) {
	require.EqualError(t, ValidateAndSetLogFormatGlobally("xml"),
		"invalid log format, valid choices are the empty string, json and console")
}

func TestEnabledFollowsTheGlobalLevel(t *testing.T) {
	originalLevel := globalLevel.Level()
	t.Cleanup(func() { globalLevel.SetLevel(originalLevel) })

	require.NoError(t, ValidateAndSetLogLevelGlobally(LevelInfo))
	require.True(t, Enabled(LevelWarning))
	require.True(t, Enabled(LevelInfo))
	require.False(t, Enabled(LevelDebug))
	require.False(t, Enabled(LevelTrace))
}

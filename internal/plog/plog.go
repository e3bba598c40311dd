// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package plog implements a thin layer over logr/zap to enforce the gateway's logging
// convention.  Logs are always structured as a constant message with key and value pairs
// of related metadata.
//
// The logging levels in order of increasing verbosity are:
// error, warning, info, debug and trace.
//
// error and warning logs are always emitted (there is no way for the end user to disable
// them), and thus should be used sparingly.  Ideally, logs at these levels should be
// actionable.
//
// info should be reserved for "nice to know" information.  It should be possible to run a
// production gateway at the info log level with no performance degradation due to high log
// volume.
//
// debug should be used for information targeted at developers and to aid in support cases.
// Care must be taken at this level to not leak any credentials or tokens into the log
// stream.
//
// trace should be used to log per-request pipeline details (which resolver matched, which
// access rule applied).  Just like debug, trace should not leak secrets.
package plog

const errorKey = "error"

// Error logs an unexpected system error.
func Error(msg string, err error, keysAndValues ...any) {
	global().Error(err, msg, keysAndValues...)
}

func Warning(msg string, keysAndValues ...any) {
	// logr has no warning level, so use verbosity zero plus a key to make these easy to find.
	keysAndValues = append([]any{"warning", "true"}, keysAndValues...)
	global().V(levelWarning).Info(msg, keysAndValues...)
}

// WarningErr issues a Warning message with an error object as part of the message.
func WarningErr(msg string, err error, keysAndValues ...any) {
	Warning(msg, append([]any{errorKey, err}, keysAndValues...)...)
}

func Info(msg string, keysAndValues ...any) {
	global().V(levelInfo).Info(msg, keysAndValues...)
}

// InfoErr logs an expected error, e.g. validation failure of an http parameter.
func InfoErr(msg string, err error, keysAndValues ...any) {
	Info(msg, append([]any{errorKey, err}, keysAndValues...)...)
}

func Debug(msg string, keysAndValues ...any) {
	global().V(levelDebug).Info(msg, keysAndValues...)
}

// DebugErr issues a Debug message with an error object as part of the message.
func DebugErr(msg string, err error, keysAndValues ...any) {
	Debug(msg, append([]any{errorKey, err}, keysAndValues...)...)
}

func Trace(msg string, keysAndValues ...any) {
	global().V(levelTrace).Info(msg, keysAndValues...)
}

// TraceErr issues a Trace message with an error object as part of the message.
func TraceErr(msg string, err error, keysAndValues ...any) {
	Trace(msg, append([]any{errorKey, err}, keysAndValues...)...)
}

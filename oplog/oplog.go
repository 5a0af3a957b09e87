// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package oplog collects the ordered message log that a single document
// operation produces. A Log is created per operation and handed back to the
// caller, so there is no process-wide trace state.
package oplog

import (
	"fmt"
	"io"
	"strings"
)

// Level classifies a log message. Verbosity decides which levels a Log keeps.
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelInfo
	LevelSuccess
	LevelData
	LevelTrace
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarning:
		return "WARNING"
	case LevelInfo:
		return "INFO"
	case LevelSuccess:
		return "SUCCESS"
	case LevelData:
		return "DATA"
	case LevelTrace:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// Log is an append-only ordered message list. Verbosity 0 keeps errors only,
// 1 adds warnings/info/success, 2 adds mapping data, 3 adds per-character
// traces. Verbosity never changes operation results, only log granularity.
type Log struct {
	verbosity int
	messages  []string
}

// New creates a Log that retains messages up to the given verbosity.
func New(verbosity int) *Log {
	return &Log{verbosity: verbosity}
}

func (l *Log) enabled(level Level) bool {
	switch level {
	case LevelError:
		return true
	case LevelWarning, LevelInfo, LevelSuccess:
		return l.verbosity >= 1
	case LevelData:
		return l.verbosity >= 2
	default:
		return l.verbosity >= 3
	}
}

// Append records a formatted message at the given level if the Log's
// verbosity retains it.
func (l *Log) Append(level Level, format string, args ...interface{}) {
	if l == nil || !l.enabled(level) {
		return
	}
	l.messages = append(l.messages, fmt.Sprintf("[%s] %s", level, fmt.Sprintf(format, args...)))
}

func (l *Log) Error(format string, args ...interface{})   { l.Append(LevelError, format, args...) }
func (l *Log) Warning(format string, args ...interface{}) { l.Append(LevelWarning, format, args...) }
func (l *Log) Info(format string, args ...interface{})    { l.Append(LevelInfo, format, args...) }
func (l *Log) Success(format string, args ...interface{}) { l.Append(LevelSuccess, format, args...) }
func (l *Log) Data(format string, args ...interface{})    { l.Append(LevelData, format, args...) }
func (l *Log) Trace(format string, args ...interface{})   { l.Append(LevelTrace, format, args...) }

// Messages returns the accumulated messages in append order.
func (l *Log) Messages() []string {
	if l == nil {
		return nil
	}
	return l.messages
}

// Contains reports whether any accumulated message contains substr.
func (l *Log) Contains(substr string) bool {
	for _, m := range l.Messages() {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

// WriteTo dumps the accumulated log, one message per line.
func (l *Log) WriteTo(w io.Writer) (int64, error) {
	var n int64
	for _, m := range l.Messages() {
		c, err := fmt.Fprintln(w, m)
		n += int64(c)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

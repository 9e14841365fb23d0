// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package logger

import (
	"github.com/sassoftware/viya-pdf-layers/tracer"
)

// LogLevel represents log severity
type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	ErrorLevel LogLevel = "error"
)

// LogFunc is a single logger function that handles all levels
type LogFunc func(level LogLevel, msg string, keyvals ...interface{})

func nop(LogLevel, string, ...interface{}) {}

var logFunc LogFunc = nop

// SetLogger sets the global logger function used by the object reader.
func SetLogger(f LogFunc) {
	if f != nil {
		logFunc = f
	}
}

// Debug logs a message at debug level
// If the last keyvals element is a bool and true, it is treated as trace flag
func Debug(msg string, keyvals ...interface{}) {
	keyvals, trace := splitTrace(keyvals)
	logFunc(DebugLevel, msg, keyvals...)
	if trace {
		tracer.Log(msg)
	}
}

// Error logs a message at error level
func Error(msg string, keyvals ...interface{}) {
	logFunc(ErrorLevel, msg, keyvals...)
}

// A Logger is a structured diagnostic sink handed to components at
// construction time. The zero value and a nil *Logger discard everything.
type Logger struct {
	f      LogFunc
	fields []interface{}
}

// New wraps f. A nil f yields a logger that discards all messages.
func New(f LogFunc) *Logger {
	if f == nil {
		f = nop
	}
	return &Logger{f: f}
}

// Nop returns a logger that discards all messages.
func Nop() *Logger {
	return &Logger{f: nop}
}

// With returns a logger that prepends keyvals to every message.
func (l *Logger) With(keyvals ...interface{}) *Logger {
	if l == nil {
		return nil
	}
	fields := make([]interface{}, 0, len(l.fields)+len(keyvals))
	fields = append(fields, l.fields...)
	fields = append(fields, keyvals...)
	return &Logger{f: l.f, fields: fields}
}

// Debug logs at debug level. A trailing true routes msg to the tracer.
func (l *Logger) Debug(msg string, keyvals ...interface{}) {
	keyvals, trace := splitTrace(keyvals)
	l.log(DebugLevel, msg, keyvals)
	if trace {
		tracer.Log(msg)
	}
}

// Info logs at info level.
func (l *Logger) Info(msg string, keyvals ...interface{}) {
	l.log(InfoLevel, msg, keyvals)
}

// Error logs at error level.
func (l *Logger) Error(msg string, keyvals ...interface{}) {
	l.log(ErrorLevel, msg, keyvals)
}

func (l *Logger) log(level LogLevel, msg string, keyvals []interface{}) {
	if l == nil || l.f == nil {
		return
	}
	if len(l.fields) > 0 {
		kv := make([]interface{}, 0, len(l.fields)+len(keyvals))
		kv = append(kv, l.fields...)
		keyvals = append(kv, keyvals...)
	}
	l.f(level, msg, keyvals...)
}

func splitTrace(keyvals []interface{}) ([]interface{}, bool) {
	if len(keyvals)%2 == 1 {
		if b, ok := keyvals[len(keyvals)-1].(bool); ok {
			return keyvals[:len(keyvals)-1], b
		}
	}
	return keyvals, false
}

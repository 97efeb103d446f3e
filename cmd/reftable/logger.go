// logger.go: dlog adapter for reftable.Logger
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"strings"

	"github.com/agilira/reftable"
	"github.com/jedisct1/dlog"
)

// dlogLogger writes structured entries as "msg key=value ..." lines through
// the process-wide dlog logger.
type dlogLogger struct{}

func (dlogLogger) Debug(msg string, keyvals ...interface{}) {
	dlog.Debug(formatEntry(msg, keyvals))
}

func (dlogLogger) Info(msg string, keyvals ...interface{}) {
	dlog.Info(formatEntry(msg, keyvals))
}

func (dlogLogger) Warn(msg string, keyvals ...interface{}) {
	dlog.Warn(formatEntry(msg, keyvals))
}

func (dlogLogger) Error(msg string, keyvals ...interface{}) {
	dlog.Error(formatEntry(msg, keyvals))
}

// formatEntry renders keyvals as key=value pairs. A trailing key without a
// value is rendered as key=MISSING.
func formatEntry(msg string, keyvals []interface{}) string {
	if len(keyvals) == 0 {
		return msg
	}
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i < len(keyvals); i += 2 {
		b.WriteByte(' ')
		fmt.Fprint(&b, keyvals[i])
		b.WriteByte('=')
		if i+1 >= len(keyvals) {
			b.WriteString("MISSING")
			break
		}
		v := fmt.Sprint(keyvals[i+1])
		if v == "" || strings.ContainsAny(v, " \t\"=") {
			v = fmt.Sprintf("%q", v)
		}
		b.WriteString(v)
	}
	return b.String()
}

// parseLogLevel maps a level name to a dlog severity.
func parseLogLevel(level string) (dlog.Severity, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return dlog.SeverityDebug, nil
	case "info":
		return dlog.SeverityInfo, nil
	case "notice", "":
		return dlog.SeverityNotice, nil
	case "warn", "warning":
		return dlog.SeverityWarning, nil
	case "error":
		return dlog.SeverityError, nil
	}
	return 0, fmt.Errorf("invalid log level %q (expected debug, info, notice, warn, error)", level)
}

var _ reftable.Logger = dlogLogger{}

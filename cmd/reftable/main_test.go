// main_test.go: tests for the reftable command
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"bytes"
	"context"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/jedisct1/dlog"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if strings.TrimSpace(out) != "reftable v"+Version {
		t.Errorf("version output = %q", out)
	}
}

func TestChurnCmd(t *testing.T) {
	out, err := execute(t, "churn",
		"--environments", "6",
		"--lookups", "300",
		"--workers", "3",
		"--pin-limit", "2",
		"--release-every", "40",
		"--metrics",
		"--log-level", "error")
	if err != nil {
		t.Fatalf("churn failed: %v\n%s", err, out)
	}

	m := regexp.MustCompile(`lookups=(\d+) found=(\d+) not_found=(\d+) closed=(\d+) failed=(\d+)`).FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("no summary line in output:\n%s", out)
	}
	var n [5]int
	for i := range n {
		n[i], _ = strconv.Atoi(m[i+1])
	}
	if n[0] != 300 {
		t.Errorf("lookups = %d, want 300", n[0])
	}
	if n[1]+n[2]+n[3]+n[4] != 300 {
		t.Errorf("outcomes %v do not add up to 300", n[1:])
	}
	// a locator in use is never reclaimed under its worker
	if n[1] == 0 || n[2] != 0 || n[3] != 0 || n[4] != 0 {
		t.Errorf("found=%d not_found=%d closed=%d failed=%d", n[1], n[2], n[3], n[4])
	}
	for _, want := range []string{"environments: size=", "locators: size=", `reftable_puts_total{table="locators"}`} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}

func TestChurnCmd_InvalidOptions(t *testing.T) {
	tests := [][]string{
		{"churn", "--workers", "0"},
		{"churn", "--environments", "0"},
		{"churn", "--lookups", "-1"},
		{"churn", "--log-level", "loud"},
	}
	for _, args := range tests {
		if _, err := execute(t, args...); err == nil {
			t.Errorf("%v succeeded, want an error", args)
		}
	}
}

func TestRunChurn_EmptyPrefix(t *testing.T) {
	var out bytes.Buffer
	err := runChurn(context.Background(), &out, churnOptions{
		Environments: 2,
		Lookups:      20,
		Workers:      1,
		Seed:         7,
	})
	if err != nil {
		t.Fatalf("runChurn failed: %v", err)
	}
	if !strings.Contains(out.String(), "found=20 ") {
		t.Errorf("output = %q, want every lookup found", out.String())
	}
}

func TestRunChurn_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	err := runChurn(ctx, &out, churnOptions{Environments: 1, Lookups: 5, Workers: 1})
	if err != context.Canceled {
		t.Errorf("runChurn() = %v, want context.Canceled", err)
	}
}

func TestWrapString(t *testing.T) {
	got := wrapString("Configuration file hot-reloaded into the manager at run time")
	for _, line := range strings.Split(got, "\n") {
		if len(line) > wrap {
			t.Errorf("line %q is longer than %d", line, wrap)
		}
	}
	if strings.Join(strings.Fields(got), " ") != "Configuration file hot-reloaded into the manager at run time" {
		t.Errorf("wrapString lost words: %q", got)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]dlog.Severity{
		"debug":   dlog.SeverityDebug,
		"INFO":    dlog.SeverityInfo,
		"":        dlog.SeverityNotice,
		"warn":    dlog.SeverityWarning,
		"warning": dlog.SeverityWarning,
		" error ": dlog.SeverityError,
	}
	for in, want := range tests {
		got, err := parseLogLevel(in)
		if err != nil || got != want {
			t.Errorf("parseLogLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := parseLogLevel("verbose"); err == nil {
		t.Error("parseLogLevel(verbose) succeeded")
	}
}

func TestFormatEntry(t *testing.T) {
	tests := []struct {
		msg     string
		keyvals []interface{}
		want    string
	}{
		{"locator created", nil, "locator created"},
		{"resize", []interface{}{"old", 16, "new", 32}, "resize old=16 new=32"},
		{"lookup failed", []interface{}{"name", "app/Echo remote"}, `lookup failed name="app/Echo remote"`},
		{"prefix", []interface{}{"prefix", ""}, `prefix prefix=""`},
		{"odd", []interface{}{"dangling"}, "odd dangling=MISSING"},
	}
	for _, tt := range tests {
		if got := formatEntry(tt.msg, tt.keyvals); got != tt.want {
			t.Errorf("formatEntry(%q, %v) = %q, want %q", tt.msg, tt.keyvals, got, tt.want)
		}
	}
}

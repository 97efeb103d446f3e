// main.go: reftable command line entry point
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"os"

	"github.com/jedisct1/dlog"
)

func main() {
	dlog.Init("reftable", dlog.SeverityNotice, "")
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

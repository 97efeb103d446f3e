// root.go: root command and configuration loading
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"strings"

	"github.com/jedisct1/dlog"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version of the reftable command.
const Version = "0.1.0"

// wrap is the column at which flag help text is wrapped.
const wrap = 50

func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "reftable",
		Short: "reclaimable reference tables and locator cache",
		Long: fmt.Sprintf(`reftable (v%s)

Exercises weak and soft reference tables and the environment-keyed
locator cache built on them. Flags can also be set through environment
variables named REFTABLE_<FLAG> (e.g. REFTABLE_PIN_LIMIT=32), or in a
.env file in the working directory.`, Version),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(v, cmd)
		},
	}
	root.PersistentFlags().String("log-level", "notice", wrapString("Log level written to stderr (debug, info, notice, warn, error)"))

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of reftable",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "reftable v%s\n", Version)
		},
	})
	root.AddCommand(newChurnCmd(v))
	return root
}

// initConfig loads .env files, binds the flags of cmd and the REFTABLE_
// environment to v, and sets the log level.
func initConfig(v *viper.Viper, cmd *cobra.Command) error {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	v.SetEnvPrefix("reftable")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	level, err := parseLogLevel(v.GetString("log-level"))
	if err != nil {
		return err
	}
	dlog.SetLogLevel(level)
	return nil
}

// wrapString wraps text at wrap columns.
func wrapString(text string) string {
	var lines []string
	var line strings.Builder
	for _, word := range strings.Fields(text) {
		if line.Len() > 0 && line.Len()+1+len(word) > wrap {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

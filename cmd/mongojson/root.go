// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type rootConfig struct {
	verbose bool
	log     *logrus.Logger
}

func newRootCmd() *cobra.Command {
	cfg := &rootConfig{log: logrus.New()}

	cmd := &cobra.Command{
		Use:           "mongojson",
		Short:         "Parse parameterized MongoDB Extended JSON templates",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg.log.SetOutput(cmd.ErrOrStderr())
			cfg.log.SetLevel(logrus.WarnLevel)
			if cfg.verbose {
				cfg.log.SetLevel(logrus.DebugLevel)
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&cfg.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newParseCmd(cfg))

	return cmd
}

// parseError wraps errors that should map to the exitParse exit code.
type parseError struct{ err error }

func (e *parseError) Error() string { return e.err.Error() }
func (e *parseError) Unwrap() error { return e.err }

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if _, ok := err.(*parseError); ok {
		return exitParse
	}

	return exitUsage
}

// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"

	"github.com/ikmak/mongojson/bindjson"
	"github.com/ikmak/mongojson/exprs"
)

func newParseCmd(cfg *rootConfig) *cobra.Command {
	var argValues []string
	var compact bool

	cmd := &cobra.Command{
		Use:   "parse [template]",
		Short: "Parse a template, binding ?N markers to --arg values",
		Long: `Parse a parameterized Extended JSON template and print the resolved
document as Extended JSON. Each --arg value is itself read as Extended
JSON, so strings need quotes: --arg '"kohlin"' --arg 100.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			template, err := readTemplate(args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			bound, err := parseArgs(argValues)
			if err != nil {
				return err
			}

			cfg.log.WithField("args", len(bound)).Debug("parsing template")

			ctx := bindjson.NewContext(bindjson.Args(bound...)).WithEvaluator(exprs.New())
			doc, err := bindjson.ParseWithContext(template, ctx)
			if err != nil {
				return &parseError{err: err}
			}

			out := doc.MarshalExtJSON()
			if !compact {
				out = pretty.Pretty(out)
			}
			_, err = cmd.OutOrStdout().Write(out)
			if err == nil && compact {
				_, err = fmt.Fprintln(cmd.OutOrStdout())
			}

			return err
		},
	}

	f := cmd.Flags()
	f.StringArrayVarP(&argValues, "arg", "a", nil, "bound argument as Extended JSON (repeatable, in ?N order)")
	f.BoolVar(&compact, "compact", false, "print the document on one line")

	return cmd
}

// readTemplate reads the template from args (first element) or stdin.
func readTemplate(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("parse: reading stdin: %w", err)
	}

	return strings.TrimSpace(string(data)), nil
}

// parseArgs reads each --arg value as a standalone Extended JSON value
// and returns the native representations in order.
func parseArgs(argValues []string) ([]interface{}, error) {
	bound := make([]interface{}, 0, len(argValues))

	for i, raw := range argValues {
		v, err := bindjson.ParseValue(raw)
		if err != nil {
			return nil, fmt.Errorf("parse: argument %d: %w", i, err)
		}
		bound = append(bound, v.Interface())
	}

	return bound, nil
}

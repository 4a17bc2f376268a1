// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bindjson

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/ikmak/mongojson/bson"
)

// ArgumentSource maps a zero-based parameter index to its bound value.
type ArgumentSource interface {
	Get(index int) (interface{}, error)
}

// ArgumentFunc adapts a function to the ArgumentSource interface.
type ArgumentFunc func(index int) (interface{}, error)

func (f ArgumentFunc) Get(index int) (interface{}, error) { return f(index) }

type argList []interface{}

func (a argList) Get(index int) (interface{}, error) {
	if index < 0 || index >= len(a) {
		return nil, errors.Errorf("index %d out of range, %d arguments bound", index, len(a))
	}

	return a[index], nil
}

// Args builds an ArgumentSource over a fixed list of values.
func Args(values ...interface{}) ArgumentSource {
	return argList(values)
}

// ExpressionEvaluator evaluates the body of a ?#{...} marker against the
// current context. The returned value may be of arbitrary shape; the
// parser splices it into the output tree.
type ExpressionEvaluator interface {
	Evaluate(expr string, ctx *Context) (interface{}, error)
}

// Context pairs an ArgumentSource with an optional expression evaluator
// and an optional, lazily accessed root object. A Context is read-only
// during parsing and holds no state between parse calls; one Context may
// serve concurrent parses as long as the caller does not mutate the
// underlying sources.
type Context struct {
	args      ArgumentSource
	evaluator ExpressionEvaluator
	rootFn    func() (interface{}, error)
}

// NewContext builds a Context over the given argument source.
func NewContext(args ArgumentSource) *Context {
	return &Context{args: args}
}

// WithEvaluator returns a copy of the context using the given evaluator
// for expression markers.
func (c *Context) WithEvaluator(e ExpressionEvaluator) *Context {
	out := *c
	out.evaluator = e
	return &out
}

// WithRoot returns a copy of the context exposing a root object for
// expression evaluation. The supplier runs only when an expression
// actually resolves an identifier, so an expensive or failing root is
// never touched by templates without expression markers.
func (c *Context) WithRoot(fn func() (interface{}, error)) *Context {
	out := *c
	out.rootFn = fn
	return &out
}

// Argument resolves a bound argument by index.
func (c *Context) Argument(index int) (interface{}, error) {
	if c == nil || c.args == nil {
		return nil, &BindingError{Index: index, Err: errors.New("no arguments bound")}
	}

	v, err := c.args.Get(index)
	if err != nil {
		return nil, &BindingError{Index: index, Err: err}
	}

	return v, nil
}

// Root returns the root object for expression evaluation, or nil when
// none is configured.
func (c *Context) Root() (interface{}, error) {
	if c == nil || c.rootFn == nil {
		return nil, nil
	}

	v, err := c.rootFn()
	if err != nil {
		return nil, errors.Wrap(err, "accessing root object")
	}

	return v, nil
}

// argumentValue resolves an index marker to its typed value.
func (c *Context) argumentValue(index int) (bson.Value, error) {
	raw, err := c.Argument(index)
	if err != nil {
		return bson.Value{}, err
	}

	v, err := bson.FromInterface(raw)
	if err != nil {
		return bson.Value{}, &BindingError{Index: index, Err: err}
	}

	return v, nil
}

// indexMarkerPattern matches an index marker occurring inside string or
// regex content.
var indexMarkerPattern = regexp.MustCompile(`\?(\d+)`)

// expressionContentPattern matches string content that consists of a
// single expression marker and nothing else.
var expressionContentPattern = regexp.MustCompile(`(?s)^\?#\{(.*)\}$`)

// quotedMarkerPattern matches index markers inside expression bodies,
// bare or single-quoted. They are rewritten to the evaluator's positional
// accessor form before evaluation.
var quotedMarkerPattern = regexp.MustCompile(`'\?(\d+)'|"\?(\d+)"|\?(\d+)`)

// resolveString performs in-place substitution of every index marker in
// quoted string or regex content: each marker is replaced by the textual
// form of its bound value, datetimes rendering as ISO-8601.
func (c *Context) resolveString(s string) (string, error) {
	matches := indexMarkerPattern.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, nil
	}

	var b strings.Builder
	last := 0

	for _, m := range matches {
		index, err := strconv.Atoi(s[m[2]:m[3]])
		if err != nil {
			return "", &BindingError{Index: -1, Err: err}
		}

		v, err := c.argumentValue(index)
		if err != nil {
			return "", err
		}

		b.WriteString(s[last:m[0]])
		b.WriteString(v.StringForm())
		last = m[1]
	}
	b.WriteString(s[last:])

	return b.String(), nil
}

// evaluateExpression hands an expression body to the configured
// evaluator and converts the result into a value ready for splicing.
// Index markers inside the body, bare or quoted, are rewritten to the
// evaluator's [N] accessor form first.
func (c *Context) evaluateExpression(expr string) (bson.Value, error) {
	if c == nil || c.evaluator == nil {
		return bson.Value{}, newEvaluationError(expr, errNoEvaluator)
	}

	rewritten := quotedMarkerPattern.ReplaceAllStringFunc(expr, func(m string) string {
		return "[" + strings.Trim(m, `?'"`) + "]"
	})

	raw, err := c.evaluator.Evaluate(rewritten, c)
	if err != nil {
		return bson.Value{}, newEvaluationError(expr, err)
	}

	v, err := bson.FromInterface(raw)
	if err != nil {
		return bson.Value{}, newEvaluationError(expr, err)
	}

	return v, nil
}

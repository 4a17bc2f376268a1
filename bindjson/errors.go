// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bindjson

import (
	"fmt"

	"github.com/pkg/errors"
)

// LexicalError indicates a malformed token: an unterminated string,
// regex, or expression block, an invalid escape, or an invalid number.
type LexicalError struct {
	Message  string
	Position int
}

func (e *LexicalError) Error() string {
	return fmt.Sprintf("%s. Position: %d", e.Message, e.Position)
}

func newLexicalErrorf(pos int, format string, args ...interface{}) error {
	return &LexicalError{Message: fmt.Sprintf(format, args...), Position: pos}
}

// SyntaxError indicates a grammar violation: a missing separator or an
// unexpected token.
type SyntaxError struct {
	Message  string
	Position int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s. Position: %d", e.Message, e.Position)
}

func newSyntaxErrorf(pos int, format string, args ...interface{}) error {
	return &SyntaxError{Message: fmt.Sprintf(format, args...), Position: pos}
}

// BindingError indicates that an index marker could not be resolved
// against the bound arguments.
type BindingError struct {
	Index int
	Err   error
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("binding parameter ?%d: %v", e.Index, e.Err)
}

func (e *BindingError) Unwrap() error { return e.Err }

// EvaluationError indicates that the expression evaluator failed, or
// that root-object access failed while an expression required it.
type EvaluationError struct {
	Expression string
	Err        error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluating expression %q: %v", e.Expression, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

func newEvaluationError(expr string, cause error) error {
	return &EvaluationError{Expression: expr, Err: cause}
}

// errNoEvaluator is the cause recorded when a template contains an
// expression marker but the context has no evaluator configured.
var errNoEvaluator = errors.New("no expression evaluator configured")

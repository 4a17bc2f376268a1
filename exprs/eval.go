// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package exprs evaluates the expression blocks (?#{...}) of a
// parameterized Extended JSON template. The language is a small
// SpEL-flavored subset: positional argument references [N], property
// paths resolved against a root object, registered function calls,
// comparison and boolean operators, the ternary operator, and inline
// collections ({a, b} lists and {'k': v} maps).
package exprs

import (
	"reflect"
	"strings"

	"github.com/pkg/errors"

	"github.com/ikmak/mongojson/bindjson"
	"github.com/ikmak/mongojson/bson"
)

// Func is a function callable from an expression.
type Func func(args ...interface{}) (interface{}, error)

// Evaluator evaluates expression text against a binding context. It
// implements bindjson.ExpressionEvaluator. An Evaluator is immutable
// and safe for concurrent use.
type Evaluator struct {
	funcs map[string]Func
}

// New creates an Evaluator with no registered functions.
func New() *Evaluator {
	return &Evaluator{}
}

// WithFunc returns a copy of the evaluator with the named function
// registered for expression calls.
func (e *Evaluator) WithFunc(name string, fn Func) *Evaluator {
	funcs := make(map[string]Func, len(e.funcs)+1)
	for k, v := range e.funcs {
		funcs[k] = v
	}
	funcs[name] = fn

	return &Evaluator{funcs: funcs}
}

// Evaluate parses and evaluates one expression. Argument references and
// the root object resolve through ctx; the root object is touched only
// when an identifier actually requires it.
func (e *Evaluator) Evaluate(expr string, ctx *bindjson.Context) (interface{}, error) {
	node, err := parse(expr)
	if err != nil {
		return nil, err
	}

	st := &evalState{ctx: ctx, funcs: e.funcs}
	return st.eval(node)
}

type evalState struct {
	ctx   *bindjson.Context
	funcs map[string]Func
}

func (st *evalState) eval(n *Node) (interface{}, error) {
	switch n.Type {
	case NodeLiteral:
		return n.Value, nil
	case NodeArgument:
		return st.ctx.Argument(n.Value.(int))
	case NodeIdentifier:
		return st.resolveRootProperty(n.Name)
	case NodeProperty:
		base, err := st.eval(n.Children[0])
		if err != nil {
			return nil, err
		}
		return resolveProperty(base, n.Name)
	case NodeUnaryOp:
		return st.evalUnary(n)
	case NodeBinaryOp:
		return st.evalBinary(n)
	case NodeTernary:
		cond, err := st.eval(n.Children[0])
		if err != nil {
			return nil, err
		}
		if isTruthy(cond) {
			return st.eval(n.Children[1])
		}
		return st.eval(n.Children[2])
	case NodeCall:
		return st.evalCall(n)
	case NodeList:
		out := make([]interface{}, 0, len(n.Children))
		for _, c := range n.Children {
			v, err := st.eval(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case NodeMap:
		return st.evalMap(n)
	}

	return nil, errors.Errorf("cannot evaluate node type %d", n.Type)
}

// evalMap builds an ordered document so inline maps splice into the
// output tree with their written key order.
func (st *evalState) evalMap(n *Node) (interface{}, error) {
	doc := bson.NewDocument()

	for i := 0; i+1 < len(n.Children); i += 2 {
		key, err := st.evalMapKey(n.Children[i])
		if err != nil {
			return nil, err
		}

		raw, err := st.eval(n.Children[i+1])
		if err != nil {
			return nil, err
		}

		val, err := bson.FromInterface(raw)
		if err != nil {
			return nil, err
		}

		doc.Append(key, val)
	}

	return doc, nil
}

// evalMapKey resolves an inline map key: bare identifiers are taken as
// key text, anything else evaluates and must yield a string.
func (st *evalState) evalMapKey(n *Node) (string, error) {
	if n.Type == NodeIdentifier {
		return n.Name, nil
	}

	v, err := st.eval(n)
	if err != nil {
		return "", err
	}

	s, ok := v.(string)
	if !ok {
		return "", errors.Errorf("map key must be a string, got %T", v)
	}

	return s, nil
}

func (st *evalState) evalUnary(n *Node) (interface{}, error) {
	operand, err := st.eval(n.Children[0])
	if err != nil {
		return nil, err
	}

	switch n.Name {
	case "!":
		return !isTruthy(operand), nil
	case "-":
		switch v := operand.(type) {
		case int64:
			return -v, nil
		case float64:
			return -v, nil
		case int:
			return -v, nil
		case int32:
			return -v, nil
		}
		return nil, errors.Errorf("cannot negate %T", operand)
	}

	return nil, errors.Errorf("unknown unary operator %q", n.Name)
}

func (st *evalState) evalBinary(n *Node) (interface{}, error) {
	// boolean operators short-circuit
	switch n.Name {
	case "&&":
		left, err := st.eval(n.Children[0])
		if err != nil {
			return nil, err
		}
		if !isTruthy(left) {
			return false, nil
		}
		right, err := st.eval(n.Children[1])
		if err != nil {
			return nil, err
		}
		return isTruthy(right), nil
	case "||":
		left, err := st.eval(n.Children[0])
		if err != nil {
			return nil, err
		}
		if isTruthy(left) {
			return true, nil
		}
		right, err := st.eval(n.Children[1])
		if err != nil {
			return nil, err
		}
		return isTruthy(right), nil
	}

	left, err := st.eval(n.Children[0])
	if err != nil {
		return nil, err
	}
	right, err := st.eval(n.Children[1])
	if err != nil {
		return nil, err
	}

	switch n.Name {
	case "==":
		return looseEqual(left, right), nil
	case "!=":
		return !looseEqual(left, right), nil
	case "<", "<=", ">", ">=":
		return compareOrdered(n.Name, left, right)
	case "+", "-", "*", "/", "%":
		return arithmetic(n.Name, left, right)
	}

	return nil, errors.Errorf("unknown operator %q", n.Name)
}

func (st *evalState) evalCall(n *Node) (interface{}, error) {
	fn, ok := st.funcs[n.Name]
	if !ok {
		return nil, errors.Errorf("unknown function %q", n.Name)
	}

	args := make([]interface{}, 0, len(n.Children))
	for _, c := range n.Children {
		v, err := st.eval(c)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	out, err := fn(args...)
	if err != nil {
		return nil, errors.Wrapf(err, "calling %s", n.Name)
	}

	return out, nil
}

// resolveRootProperty resolves a top-level identifier against the
// context's root object. This is the only place the root is accessed,
// keeping root access lazy.
func (st *evalState) resolveRootProperty(name string) (interface{}, error) {
	root, err := st.ctx.Root()
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, errors.Errorf("cannot resolve %q: no root object", name)
	}

	return resolveProperty(root, name)
}

// resolveProperty reads a named property from a map, a bson.Document,
// or an exported struct field (directly or through a pointer).
func resolveProperty(base interface{}, name string) (interface{}, error) {
	switch t := base.(type) {
	case map[string]interface{}:
		v, ok := t[name]
		if !ok {
			return nil, errors.Errorf("property %q not found", name)
		}
		return v, nil
	case *bson.Document:
		v, err := t.Lookup(name)
		if err != nil {
			return nil, errors.Errorf("property %q not found", name)
		}
		return v.Interface(), nil
	}

	rv := reflect.ValueOf(base)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, errors.Errorf("cannot resolve %q on nil", name)
		}
		rv = rv.Elem()
	}

	if rv.Kind() != reflect.Struct {
		return nil, errors.Errorf("cannot resolve %q on %T", name, base)
	}

	field := rv.FieldByNameFunc(func(f string) bool {
		return strings.EqualFold(f, name)
	})
	if !field.IsValid() || !field.CanInterface() {
		return nil, errors.Errorf("property %q not found on %T", name, base)
	}

	return field.Interface(), nil
}

// isTruthy follows scripting-language truthiness: false, nil, zero
// numbers, and empty strings are false, all else true.
func isTruthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case int32:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	}

	return true
}

func looseEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		return af == bf
	}

	return reflect.DeepEqual(a, b)
}

func asFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	}

	return 0, false
}

func compareOrdered(op string, a, b interface{}) (interface{}, error) {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)

	if aok && bok {
		switch op {
		case "<":
			return af < bf, nil
		case "<=":
			return af <= bf, nil
		case ">":
			return af > bf, nil
		case ">=":
			return af >= bf, nil
		}
	}

	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		switch op {
		case "<":
			return as < bs, nil
		case "<=":
			return as <= bs, nil
		case ">":
			return as > bs, nil
		case ">=":
			return as >= bs, nil
		}
	}

	return nil, errors.Errorf("cannot compare %T and %T", a, b)
}

func arithmetic(op string, a, b interface{}) (interface{}, error) {
	if op == "+" {
		if as, ok := a.(string); ok {
			if bs, ok := b.(string); ok {
				return as + bs, nil
			}
		}
	}

	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		return nil, errors.Errorf("cannot apply %q to %T and %T", op, a, b)
	}

	_, aInt := asInt(a)
	_, bInt := asInt(b)

	switch op {
	case "+", "-", "*", "%":
		if aInt && bInt {
			ai, _ := asInt(a)
			bi, _ := asInt(b)
			switch op {
			case "+":
				return ai + bi, nil
			case "-":
				return ai - bi, nil
			case "*":
				return ai * bi, nil
			case "%":
				if bi == 0 {
					return nil, errors.New("division by zero")
				}
				return ai % bi, nil
			}
		}
		switch op {
		case "+":
			return af + bf, nil
		case "-":
			return af - bf, nil
		case "*":
			return af * bf, nil
		case "%":
			return nil, errors.Errorf("cannot apply %q to floats", op)
		}
	case "/":
		if bf == 0 {
			return nil, errors.New("division by zero")
		}
		return af / bf, nil
	}

	return nil, errors.Errorf("unknown operator %q", op)
}

func asInt(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	}

	return 0, false
}

var _ bindjson.ExpressionEvaluator = (*Evaluator)(nil)

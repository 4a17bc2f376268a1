// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package exprs

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ikmak/mongojson/bindjson"
	"github.com/ikmak/mongojson/bson"
)

func evalWith(t *testing.T, expr string, ctx *bindjson.Context) interface{} {
	t.Helper()

	out, err := New().Evaluate(expr, ctx)
	require.NoError(t, err, expr)
	return out
}

func eval(t *testing.T, expr string, args ...interface{}) interface{} {
	t.Helper()

	return evalWith(t, expr, bindjson.NewContext(bindjson.Args(args...)))
}

func TestEvaluateLiterals(t *testing.T) {
	cases := []struct {
		expr string
		want interface{}
	}{
		{`42`, int64(42)},
		{`-7`, int64(-7)},
		{`1.5`, 1.5},
		{`'text'`, "text"},
		{`"text"`, "text"},
		{`true`, true},
		{`false`, false},
		{`null`, nil},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, eval(t, tc.expr), tc.expr)
	}
}

func TestEvaluateArgumentReferences(t *testing.T) {
	assert.Equal(t, "kohlin", eval(t, `[0]`, "kohlin", 100))
	assert.Equal(t, 100, eval(t, `[1]`, "kohlin", 100))

	_, err := New().Evaluate(`[5]`, bindjson.NewContext(bindjson.Args("only")))
	require.Error(t, err)
	var be *bindjson.BindingError
	assert.True(t, errors.As(err, &be))
}

func TestEvaluateArithmetic(t *testing.T) {
	cases := []struct {
		expr string
		want interface{}
	}{
		{`1 + 2`, int64(3)},
		{`10 - 4`, int64(6)},
		{`3 * 4`, int64(12)},
		{`10 / 4`, 2.5},
		{`10 % 3`, int64(1)},
		{`1 + 2 * 3`, int64(7)},
		{`(1 + 2) * 3`, int64(9)},
		{`1.5 + 1`, 2.5},
		{`'a' + 'b'`, "ab"},
		{`-[0] + 1`, int64(-41)},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, eval(t, tc.expr, 42), tc.expr)
	}

	_, err := New().Evaluate(`1 / 0`, bindjson.NewContext(bindjson.Args()))
	assert.Error(t, err)
	_, err = New().Evaluate(`'a' - 1`, bindjson.NewContext(bindjson.Args()))
	assert.Error(t, err)
}

func TestEvaluateComparisons(t *testing.T) {
	cases := []struct {
		expr string
		want bool
	}{
		{`1 == 1`, true},
		{`1 == 1.0`, true},
		{`[0] == 42`, true},
		{`1 != 2`, true},
		{`'a' == 'a'`, true},
		{`null == null`, true},
		{`[1] == null`, true},
		{`1 < 2`, true},
		{`2 <= 2`, true},
		{`3 > 2`, true},
		{`2 >= 3`, false},
		{`'a' < 'b'`, true},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, eval(t, tc.expr, 42, nil), tc.expr)
	}
}

func TestEvaluateBooleanLogic(t *testing.T) {
	assert.Equal(t, true, eval(t, `true && true`))
	assert.Equal(t, false, eval(t, `true && false`))
	assert.Equal(t, true, eval(t, `false || true`))
	assert.Equal(t, false, eval(t, `!true`))
	assert.Equal(t, true, eval(t, `!0`))
}

func TestEvaluateShortCircuit(t *testing.T) {
	// the right operand is an out-of-range argument and must not be read
	assert.Equal(t, false, eval(t, `false && [9]`))
	assert.Equal(t, true, eval(t, `true || [9]`))
}

func TestEvaluateTernary(t *testing.T) {
	assert.Equal(t, "yes", eval(t, `[0] ? 'yes' : 'no'`, true))
	assert.Equal(t, "no", eval(t, `[0] ? 'yes' : 'no'`, false))
	assert.Equal(t, int64(2), eval(t, `false ? 1 : true ? 2 : 3`))
}

func TestEvaluateInlineList(t *testing.T) {
	assert.Equal(t, []interface{}{int64(1), int64(2)}, eval(t, `{1, 2}`))
	assert.Equal(t, []interface{}{}, eval(t, `{}`))
	assert.Equal(t, []interface{}{"a", 100}, eval(t, `{[0], [1]}`, "a", 100))
}

func TestEvaluateInlineMap(t *testing.T) {
	out := eval(t, `{'$exists': true}`)
	doc, ok := out.(*bson.Document)
	require.True(t, ok)
	assert.True(t, doc.Equal(bson.D("$exists", true)))

	// bare identifiers work as key text
	out = eval(t, `{name: [0]}`, "kohlin")
	doc = out.(*bson.Document)
	assert.True(t, doc.Equal(bson.D("name", "kohlin")))

	// key order is preserved
	out = eval(t, `{'z': 1, 'a': 2}`)
	doc = out.(*bson.Document)
	assert.Equal(t, []string{"z", "a"}, doc.Keys())

	// {:} is the empty map
	out = eval(t, `{:}`)
	doc = out.(*bson.Document)
	assert.Equal(t, 0, doc.Len())
}

func TestEvaluateRegisteredFunction(t *testing.T) {
	ev := New().WithFunc("concat", func(args ...interface{}) (interface{}, error) {
		out := ""
		for _, a := range args {
			out += a.(string)
		}
		return out, nil
	})

	got, err := ev.Evaluate(`concat('a', 'b', [0])`, bindjson.NewContext(bindjson.Args("c")))
	require.NoError(t, err)
	assert.Equal(t, "abc", got)

	_, err = ev.Evaluate(`missing()`, bindjson.NewContext(bindjson.Args()))
	assert.Error(t, err)
}

func TestEvaluateRootProperties(t *testing.T) {
	type profile struct {
		Age int
	}
	type principal struct {
		Name    string
		Profile *profile
	}

	ctx := bindjson.NewContext(bindjson.Args()).WithRoot(func() (interface{}, error) {
		return &principal{Name: "kohlin", Profile: &profile{Age: 20}}, nil
	})

	assert.Equal(t, "kohlin", evalWith(t, `name`, ctx))
	assert.Equal(t, 20, evalWith(t, `profile.age`, ctx))
}

func TestEvaluateRootPropertyOnMap(t *testing.T) {
	ctx := bindjson.NewContext(bindjson.Args()).WithRoot(func() (interface{}, error) {
		return map[string]interface{}{"tenant": "acme"}, nil
	})

	assert.Equal(t, "acme", evalWith(t, `tenant`, ctx))

	_, err := New().Evaluate(`missing`, ctx)
	assert.Error(t, err)
}

func TestEvaluateRootErrors(t *testing.T) {
	_, err := New().Evaluate(`name`, bindjson.NewContext(bindjson.Args()))
	assert.Error(t, err)

	ctx := bindjson.NewContext(bindjson.Args()).WithRoot(func() (interface{}, error) {
		return nil, errors.New("unavailable")
	})
	_, err = New().Evaluate(`name`, ctx)
	assert.Error(t, err)
}

func TestEvaluateParseErrors(t *testing.T) {
	for _, expr := range []string{``, `1 +`, `(1`, `[x]`, `{1: 2`, `? :`, `foo(`} {
		_, err := New().Evaluate(expr, bindjson.NewContext(bindjson.Args()))
		assert.Error(t, err, expr)
	}
}

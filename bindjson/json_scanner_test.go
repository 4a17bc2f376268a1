// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bindjson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ikmak/mongojson/bson"
)

func noerr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func scanAll(t *testing.T, in string) []*jsonToken {
	t.Helper()

	js := newJSONScanner(in)
	var tokens []*jsonToken
	for {
		tok, err := js.nextToken()
		noerr(t, err)
		if tok.t == eofTokenType {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

func TestJSONScannerStructural(t *testing.T) {
	tokens := scanAll(t, ` { } [ ] : , `)

	require.Len(t, tokens, 6)
	assert.Equal(t, beginObjectTokenType, tokens[0].t)
	assert.Equal(t, endObjectTokenType, tokens[1].t)
	assert.Equal(t, beginArrayTokenType, tokens[2].t)
	assert.Equal(t, endArrayTokenType, tokens[3].t)
	assert.Equal(t, colonTokenType, tokens[4].t)
	assert.Equal(t, commaTokenType, tokens[5].t)
}

func TestJSONScannerStrings(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"double quoted", `"kohlin"`, "kohlin"},
		{"single quoted", `'kohlin'`, "kohlin"},
		{"embedded other quote", `"it's"`, "it's"},
		{"escaped quote", `"say \"hi\""`, `say "hi"`},
		{"escaped single quote", `'it\'s'`, "it's"},
		{"control escapes", `"a\tb\nc"`, "a\tb\nc"},
		{"unicode escape", `"é"`, "é"},
		{"surrogate pair", `"😀"`, "\U0001f600"},
		{"empty", `""`, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			js := newJSONScanner(tc.in)
			tok, err := js.nextToken()
			noerr(t, err)
			assert.Equal(t, stringTokenType, tok.t)
			assert.Equal(t, tc.want, tok.v)
		})
	}
}

func TestJSONScannerStringErrors(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"unterminated", `"abc`},
		{"bad escape", `"\q"`},
		{"truncated unicode", `"\u00`},
		{"invalid hex", `"\uzzzz"`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			js := newJSONScanner(tc.in)
			_, err := js.nextToken()
			require.Error(t, err)
			assert.IsType(t, &LexicalError{}, err)
		})
	}
}

func TestJSONScannerNumbers(t *testing.T) {
	cases := []struct {
		name string
		in   string
		typ  jsonTokenType
		want interface{}
	}{
		{"zero", "0", int32TokenType, int32(0)},
		{"int32", "42", int32TokenType, int32(42)},
		{"negative int32", "-13", int32TokenType, int32(-13)},
		{"int32 max", "2147483647", int32TokenType, int32(2147483647)},
		{"int32 min", "-2147483648", int32TokenType, int32(-2147483648)},
		{"int64", "2147483648", int64TokenType, int64(2147483648)},
		{"negative int64", "-2147483649", int64TokenType, int64(-2147483649)},
		{"double", "1.5", doubleTokenType, 1.5},
		{"negative double", "-0.25", doubleTokenType, -0.25},
		{"exponent", "1e3", doubleTokenType, 1000.0},
		{"signed exponent", "1.5E-2", doubleTokenType, 0.015},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			js := newJSONScanner(tc.in)
			tok, err := js.nextToken()
			noerr(t, err)
			assert.Equal(t, tc.typ, tok.t)
			assert.Equal(t, tc.want, tok.v)
		})
	}
}

func TestJSONScannerNumberErrors(t *testing.T) {
	for _, in := range []string{"-", "01", "1.", "1e", "1e+", "1.2.3"} {
		js := newJSONScanner(in)
		_, err := js.nextToken()
		assert.Error(t, err, in)
	}
}

func TestJSONScannerNumberTerminators(t *testing.T) {
	// a colon terminates a number so numeric keys scan cleanly
	tokens := scanAll(t, `{123: "a", 4: [5,6]}`)

	require.Len(t, tokens, 13)
	assert.Equal(t, int32TokenType, tokens[1].t)
	assert.Equal(t, int32(123), tokens[1].v)
	assert.Equal(t, colonTokenType, tokens[2].t)
	assert.Equal(t, int32(4), tokens[5].v)
}

func TestJSONScannerLiteralsAndNames(t *testing.T) {
	tokens := scanAll(t, `true false null name $date _id a.b`)

	require.Len(t, tokens, 7)
	assert.Equal(t, boolTokenType, tokens[0].t)
	assert.Equal(t, true, tokens[0].v)
	assert.Equal(t, boolTokenType, tokens[1].t)
	assert.Equal(t, false, tokens[1].v)
	assert.Equal(t, nullTokenType, tokens[2].t)
	assert.Equal(t, unquotedTokenType, tokens[3].t)
	assert.Equal(t, "name", tokens[3].v)
	assert.Equal(t, "$date", tokens[4].v)
	assert.Equal(t, "_id", tokens[5].v)
	assert.Equal(t, "a.b", tokens[6].v)
}

func TestJSONScannerRegex(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		pattern string
		options string
	}{
		{"plain", `/^mat/`, "^mat", ""},
		{"with options", `/^mat/i`, "^mat", "i"},
		{"multiple options", `/ab/ims`, "ab", "ims"},
		{"escaped slash", `/a\/b/`, `a\/b`, ""},
		{"terminated by comma", `/^mat/i,`, "^mat", "i"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			js := newJSONScanner(tc.in)
			tok, err := js.nextToken()
			noerr(t, err)
			require.Equal(t, regexTokenType, tok.t)
			r := tok.v.(bson.Regex)
			assert.Equal(t, tc.pattern, r.Pattern)
			assert.Equal(t, tc.options, r.Options)
		})
	}

	js := newJSONScanner(`/never closed`)
	_, err := js.nextToken()
	assert.Error(t, err)
}

func TestJSONScannerPlaceholders(t *testing.T) {
	cases := []struct {
		in  string
		idx int
	}{
		{`?0`, 0},
		{`?7`, 7},
		{`?12`, 12}, // maximal munch, not ?1 followed by 2
	}

	for _, tc := range cases {
		js := newJSONScanner(tc.in)
		tok, err := js.nextToken()
		noerr(t, err)
		require.Equal(t, placeholderTokenType, tok.t, tc.in)
		assert.Equal(t, tc.idx, tok.v, tc.in)
	}

	for _, in := range []string{`?`, `?x`} {
		js := newJSONScanner(in)
		_, err := js.nextToken()
		assert.Error(t, err, in)
	}
}

func TestJSONScannerExpressions(t *testing.T) {
	cases := []struct {
		name string
		in   string
		body string
	}{
		{"simple", `?#{[0]}`, "[0]"},
		{"arithmetic", `?#{[0] + [1]}`, "[0] + [1]"},
		{"nested braces", `?#{ {'a': 1} }`, " {'a': 1} "},
		{"brace inside string", `?#{'}'}`, "'}'"},
		{"quoted marker", `?#{'?0'}`, "'?0'"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			js := newJSONScanner(tc.in)
			tok, err := js.nextToken()
			noerr(t, err)
			require.Equal(t, expressionTokenType, tok.t)
			assert.Equal(t, tc.body, tok.v)
		})
	}

	js := newJSONScanner(`?#{never closed`)
	_, err := js.nextToken()
	assert.Error(t, err)
}

func TestJSONScannerPositions(t *testing.T) {
	js := newJSONScanner(`{ "a": 1 }`)

	tok, err := js.nextToken()
	noerr(t, err)
	assert.Equal(t, 0, tok.p)

	tok, err = js.nextToken()
	noerr(t, err)
	assert.Equal(t, 2, tok.p)

	tok, err = js.nextToken()
	noerr(t, err)
	assert.Equal(t, 5, tok.p)

	tok, err = js.nextToken()
	noerr(t, err)
	assert.Equal(t, 7, tok.p)
}

func TestJSONScannerInvalidByte(t *testing.T) {
	js := newJSONScanner(`@`)
	_, err := js.nextToken()
	require.Error(t, err)
	assert.IsType(t, &LexicalError{}, err)
}

func TestJSONScannerEOF(t *testing.T) {
	js := newJSONScanner("   ")
	tok, err := js.nextToken()
	noerr(t, err)
	assert.Equal(t, eofTokenType, tok.t)

	// repeated calls stay at EOF
	tok, err = js.nextToken()
	noerr(t, err)
	assert.Equal(t, eofTokenType, tok.t)
}

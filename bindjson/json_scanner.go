// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bindjson

import (
	"bytes"
	"io"
	"math"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/ikmak/mongojson/bson"
)

type jsonTokenType byte

const (
	beginObjectTokenType = jsonTokenType(iota)
	endObjectTokenType
	beginArrayTokenType
	endArrayTokenType
	colonTokenType
	commaTokenType
	int32TokenType
	int64TokenType
	doubleTokenType
	stringTokenType
	unquotedTokenType
	boolTokenType
	nullTokenType
	regexTokenType
	placeholderTokenType
	expressionTokenType
	eofTokenType
)

// jsonToken is a classified lexical unit. v holds the token's value:
// string content, a parsed number, a bson.Regex, a placeholder index, or
// an expression body. p is the byte offset of the token in the template.
type jsonToken struct {
	t jsonTokenType
	v interface{}
	p int
}

// jsonScanner tokenizes a template string one byte at a time. Beyond the
// RFC-8259 grammar it recognizes single-quoted strings, unquoted names,
// /pattern/options regex literals, ?N placeholders, and ?#{...}
// expression blocks.
type jsonScanner struct {
	in  string
	pos int
}

func newJSONScanner(in string) *jsonScanner {
	return &jsonScanner{in: in}
}

// nextToken returns the next token if one exists. A token is a character
// of the JSON grammar, a number, a string, a literal, or one of the
// template marker productions.
func (js *jsonScanner) nextToken() (*jsonToken, error) {
	c, err := js.readNextByte()

	// keep reading until a non-space is encountered (break on EOF)
	for ; isWhiteSpace(c) && err == nil; c, err = js.readNextByte() {
	}

	if err == io.EOF {
		return &jsonToken{t: eofTokenType, p: js.pos}, nil
	}

	switch c {
	case '{':
		return &jsonToken{t: beginObjectTokenType, p: js.pos - 1}, nil
	case '}':
		return &jsonToken{t: endObjectTokenType, p: js.pos - 1}, nil
	case '[':
		return &jsonToken{t: beginArrayTokenType, p: js.pos - 1}, nil
	case ']':
		return &jsonToken{t: endArrayTokenType, p: js.pos - 1}, nil
	case ':':
		return &jsonToken{t: colonTokenType, p: js.pos - 1}, nil
	case ',':
		return &jsonToken{t: commaTokenType, p: js.pos - 1}, nil
	case '"', '\'':
		return js.scanString(c)
	case '/':
		return js.scanRegex()
	case '?':
		return js.scanMarker()
	default:
		if c == '-' || isDigit(c) {
			return js.scanNumber(c)
		}
		if isNameStart(c) {
			return js.scanUnquoted()
		}
		return nil, newLexicalErrorf(js.pos-1, "invalid JSON input character %q", string(c))
	}
}

func (js *jsonScanner) readNextByte() (byte, error) {
	if js.pos >= len(js.in) {
		return 0, io.EOF
	}

	b := js.in[js.pos]
	js.pos++

	return b, nil
}

// unread steps the cursor back one byte after a lookahead read.
func (js *jsonScanner) unread() {
	js.pos = int(math.Max(0, float64(js.pos-1)))
}

func isWhiteSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isValueTerminator(c byte) bool {
	return c == ',' || c == '}' || c == ']' || c == ':' || isWhiteSpace(c)
}

func isNameStart(c byte) bool {
	return c == '$' || c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isNameStart(c) || isDigit(c) || c == '.'
}

// scanString reads from an opening quote to the matching closing quote
// and handles escaped characters. Both double and single quotes are
// accepted; the delimiter is the byte that opened the string.
func (js *jsonScanner) scanString(quote byte) (*jsonToken, error) {
	var b bytes.Buffer

	p := js.pos - 1

	for {
		c, err := js.readNextByte()
		if err != nil {
			return nil, newLexicalErrorf(p, "end of input in JSON string")
		}

		switch c {
		case '\\':
			c, err = js.readNextByte()
			if err != nil {
				return nil, newLexicalErrorf(p, "end of input in JSON string")
			}

			switch c {
			case '"', '\\', '/', '\'':
				b.WriteByte(c)
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case 'u':
				r, err := js.scanUnicodeEscape(p)
				if err != nil {
					return nil, err
				}
				b.WriteRune(r)
			default:
				return nil, newLexicalErrorf(js.pos-2, "invalid escape sequence in JSON string '\\%c'", c)
			}
		case quote:
			return &jsonToken{t: stringTokenType, v: b.String(), p: p}, nil
		default:
			b.WriteByte(c)
		}
	}
}

// scanUnicodeEscape reads the four hex digits following \u and combines
// surrogate pairs when a second \u escape follows a high surrogate.
func (js *jsonScanner) scanUnicodeEscape(p int) (rune, error) {
	r1, err := js.scanHex4(p)
	if err != nil {
		return 0, err
	}

	if !utf16.IsSurrogate(r1) {
		return r1, nil
	}

	// a lone surrogate is replaced, as utf16.DecodeRune does
	if js.pos+1 >= len(js.in) || js.in[js.pos] != '\\' || js.in[js.pos+1] != 'u' {
		return utf8.RuneError, nil
	}

	js.pos += 2
	r2, err := js.scanHex4(p)
	if err != nil {
		return 0, err
	}

	return utf16.DecodeRune(r1, r2), nil
}

func (js *jsonScanner) scanHex4(p int) (rune, error) {
	if js.pos+4 > len(js.in) {
		return 0, newLexicalErrorf(p, "end of input in \\u escape sequence")
	}

	u, err := strconv.ParseUint(js.in[js.pos:js.pos+4], 16, 32)
	if err != nil {
		return 0, newLexicalErrorf(js.pos, "invalid \\u escape sequence %q", js.in[js.pos:js.pos+4])
	}

	js.pos += 4
	return rune(u), nil
}

// scanRegex reads a /pattern/options literal. The leading '/' has been
// consumed. Escaped slashes stay part of the pattern; option characters
// follow the closing slash up to the next value terminator.
func (js *jsonScanner) scanRegex() (*jsonToken, error) {
	var pattern, options bytes.Buffer

	p := js.pos - 1
	inPattern := true

	for {
		c, err := js.readNextByte()
		if err != nil {
			if !inPattern {
				break
			}
			return nil, newLexicalErrorf(p, "end of input in regular expression literal")
		}

		if inPattern {
			switch c {
			case '\\':
				next, err := js.readNextByte()
				if err != nil {
					return nil, newLexicalErrorf(p, "end of input in regular expression literal")
				}
				pattern.WriteByte(c)
				pattern.WriteByte(next)
			case '/':
				inPattern = false
			default:
				pattern.WriteByte(c)
			}
			continue
		}

		if isValueTerminator(c) {
			js.unread()
			break
		}
		options.WriteByte(c)
	}

	r := bson.Regex{Pattern: pattern.String(), Options: options.String()}
	return &jsonToken{t: regexTokenType, v: r, p: p}, nil
}

// scanMarker reads the token following a '?': either a parameter index
// (maximal munch on the digit run) or a ?#{...} expression block whose
// body is captured verbatim with brace-depth tracking.
func (js *jsonScanner) scanMarker() (*jsonToken, error) {
	p := js.pos - 1

	c, err := js.readNextByte()
	if err != nil {
		return nil, newLexicalErrorf(p, "end of input after '?'")
	}

	if c == '#' {
		c, err = js.readNextByte()
		if err != nil || c != '{' {
			return nil, newLexicalErrorf(p, "expected '{' after '?#'")
		}
		return js.scanExpression(p)
	}

	if !isDigit(c) {
		return nil, newLexicalErrorf(p, "expected parameter index or expression after '?'")
	}

	start := js.pos - 1
	for {
		c, err = js.readNextByte()
		if err != nil {
			break
		}
		if !isDigit(c) {
			js.unread()
			break
		}
	}

	idx, err := strconv.Atoi(js.in[start:js.pos])
	if err != nil {
		return nil, newLexicalErrorf(p, "invalid parameter index %q", js.in[start:js.pos])
	}

	return &jsonToken{t: placeholderTokenType, v: idx, p: p}, nil
}

// scanExpression captures the body of a ?#{...} block. Braces nest;
// braces inside quoted runs do not count toward the depth.
func (js *jsonScanner) scanExpression(p int) (*jsonToken, error) {
	var b bytes.Buffer

	depth := 1
	var quote byte

	for {
		c, err := js.readNextByte()
		if err != nil {
			return nil, newLexicalErrorf(p, "unterminated expression block")
		}

		if quote != 0 {
			if c == quote {
				quote = 0
			} else if c == '\\' {
				b.WriteByte(c)
				c, err = js.readNextByte()
				if err != nil {
					return nil, newLexicalErrorf(p, "unterminated expression block")
				}
			}
			b.WriteByte(c)
			continue
		}

		switch c {
		case '\'', '"':
			quote = c
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return &jsonToken{t: expressionTokenType, v: b.String(), p: p}, nil
			}
		}
		b.WriteByte(c)
	}
}

// scanUnquoted reads an unquoted name: a document key, an extended-type
// marker such as $date, or one of the true/false/null literals. The
// first byte of the name has already been consumed.
func (js *jsonScanner) scanUnquoted() (*jsonToken, error) {
	p := js.pos - 1
	start := js.pos - 1

	for {
		c, err := js.readNextByte()
		if err != nil {
			break
		}
		if !isNameChar(c) {
			js.unread()
			break
		}
	}

	word := js.in[start:js.pos]

	switch word {
	case "true":
		return &jsonToken{t: boolTokenType, v: true, p: p}, nil
	case "false":
		return &jsonToken{t: boolTokenType, v: false, p: p}, nil
	case "null":
		return &jsonToken{t: nullTokenType, v: nil, p: p}, nil
	}

	return &jsonToken{t: unquotedTokenType, v: word, p: p}, nil
}

type numberScanState byte

const (
	sawLeadingMinus numberScanState = iota
	sawLeadingZero
	sawIntegerDigits
	sawDecimalPoint
	sawFractionDigits
	sawExponentLetter
	sawExponentSign
	sawExponentDigits
	doneNumberState
	invalidNumberState
)

// scanNumber reads a JSON number (according to RFC-8259). Integers that
// fit in 32 bits become int32 tokens, larger integers int64, anything
// with a fraction or exponent a double.
func (js *jsonScanner) scanNumber(first byte) (*jsonToken, error) {
	var b bytes.Buffer
	var s numberScanState

	t := int64TokenType // assume int64 until the type can be determined
	start := js.pos - 1

	b.WriteByte(first)

	switch first {
	case '-':
		s = sawLeadingMinus
	case '0':
		s = sawLeadingZero
	default:
		s = sawIntegerDigits
	}

	for {
		c, err := js.readNextByte()
		eof := err == io.EOF

		switch s {
		case sawLeadingMinus:
			switch {
			case c == '0':
				s = sawLeadingZero
				b.WriteByte(c)
			case isDigit(c):
				s = sawIntegerDigits
				b.WriteByte(c)
			default:
				s = invalidNumberState
			}
		case sawLeadingZero:
			switch {
			case c == '.':
				s = sawDecimalPoint
				b.WriteByte(c)
			case c == 'e' || c == 'E':
				s = sawExponentLetter
				b.WriteByte(c)
			case eof || isValueTerminator(c):
				s = doneNumberState
			default:
				s = invalidNumberState
			}
		case sawIntegerDigits:
			switch {
			case c == '.':
				s = sawDecimalPoint
				b.WriteByte(c)
			case c == 'e' || c == 'E':
				s = sawExponentLetter
				b.WriteByte(c)
			case isDigit(c):
				b.WriteByte(c)
			case eof || isValueTerminator(c):
				s = doneNumberState
			default:
				s = invalidNumberState
			}
		case sawDecimalPoint:
			t = doubleTokenType
			if isDigit(c) {
				s = sawFractionDigits
				b.WriteByte(c)
			} else {
				s = invalidNumberState
			}
		case sawFractionDigits:
			switch {
			case c == 'e' || c == 'E':
				s = sawExponentLetter
				b.WriteByte(c)
			case isDigit(c):
				b.WriteByte(c)
			case eof || isValueTerminator(c):
				s = doneNumberState
			default:
				s = invalidNumberState
			}
		case sawExponentLetter:
			t = doubleTokenType
			switch {
			case c == '+' || c == '-':
				s = sawExponentSign
				b.WriteByte(c)
			case isDigit(c):
				s = sawExponentDigits
				b.WriteByte(c)
			default:
				s = invalidNumberState
			}
		case sawExponentSign:
			if isDigit(c) {
				s = sawExponentDigits
				b.WriteByte(c)
			} else {
				s = invalidNumberState
			}
		case sawExponentDigits:
			switch {
			case isDigit(c):
				b.WriteByte(c)
			case eof || isValueTerminator(c):
				s = doneNumberState
			default:
				s = invalidNumberState
			}
		}

		switch s {
		case invalidNumberState:
			return nil, newLexicalErrorf(start, "invalid JSON number")
		case doneNumberState:
			if !eof {
				js.unread()
			}

			if t == doubleTokenType {
				v, err := strconv.ParseFloat(b.String(), 64)
				if err != nil {
					return nil, newLexicalErrorf(start, "invalid JSON number: %v", err)
				}
				return &jsonToken{t: t, v: v, p: start}, nil
			}

			v, err := strconv.ParseInt(b.String(), 10, 64)
			if err != nil {
				return nil, newLexicalErrorf(start, "invalid JSON number: %v", err)
			}

			if v < math.MinInt32 || v > math.MaxInt32 {
				return &jsonToken{t: t, v: v, p: start}, nil
			}

			return &jsonToken{t: int32TokenType, v: int32(v), p: start}, nil
		}
	}
}

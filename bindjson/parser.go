// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package bindjson parses MongoDB Extended JSON templates containing
// positional placeholders (?0, ?1, ...) and expression blocks (?#{...}),
// substituting bound argument values or evaluated expression results
// while building an ordered document tree.
//
// A placeholder at value position splices the bound value natively,
// preserving documents, arrays, and scalar types. The same placeholder
// inside quoted string or regex content is a textual substitution. An
// expression block is handed to the context's ExpressionEvaluator and
// its result spliced with the same native/textual distinction.
package bindjson

import (
	"strings"

	"github.com/ikmak/mongojson/bson"
)

// Parse parses a template as a top-level document, binding ?N markers to
// the given arguments in order.
func Parse(template string, args ...interface{}) (*bson.Document, error) {
	return ParseWithContext(template, NewContext(Args(args...)))
}

// ParseWithContext parses a template as a top-level document against a
// caller-assembled binding context.
func ParseWithContext(template string, ctx *Context) (*bson.Document, error) {
	v, err := ParseValueWithContext(template, ctx)
	if err != nil {
		return nil, err
	}

	if v.Type() != bson.TypeEmbeddedDocument {
		return nil, newSyntaxErrorf(0, "expected a document at the top level, got %s", v.Type())
	}

	return v.Document(), nil
}

// ParseValue parses a template that may hold any value shape at the top
// level, binding ?N markers to the given arguments in order.
func ParseValue(template string, args ...interface{}) (bson.Value, error) {
	return ParseValueWithContext(template, NewContext(Args(args...)))
}

// ParseValueWithContext parses a template holding any value shape
// against a caller-assembled binding context. Terminal errors abort the
// parse; no partial value is returned.
func ParseValueWithContext(template string, ctx *Context) (bson.Value, error) {
	p := &parser{s: newJSONScanner(template), ctx: ctx, b: newDocBuilder()}

	tok, err := p.next()
	if err != nil {
		return bson.Value{}, err
	}
	if tok.t == eofTokenType {
		return bson.Value{}, newSyntaxErrorf(tok.p, "empty template")
	}

	if err := p.parseValue(tok); err != nil {
		return bson.Value{}, err
	}

	tok, err = p.next()
	if err != nil {
		return bson.Value{}, err
	}
	if tok.t != eofTokenType {
		return bson.Value{}, newSyntaxErrorf(tok.p, "unexpected content after the root value")
	}

	return p.b.build(), nil
}

// parser drives a single recursive-descent pass over the token stream,
// exclusively owning the scanner cursor and the builder.
type parser struct {
	s   *jsonScanner
	ctx *Context
	b   *docBuilder
}

func (p *parser) next() (*jsonToken, error) {
	return p.s.nextToken()
}

// parseValue consumes one complete value starting at tok and writes it
// into the builder. It is the single re-entry point for every value
// position: grammar values, array elements, and spliced substitutions
// all pass through here.
func (p *parser) parseValue(tok *jsonToken) error {
	switch tok.t {
	case beginObjectTokenType:
		return p.parseDocument(tok.p)
	case beginArrayTokenType:
		return p.parseArray(tok.p)
	case stringTokenType:
		v, err := p.resolveStringToken(tok.v.(string))
		if err != nil {
			return err
		}
		p.b.writeValue(v)
	case unquotedTokenType:
		p.b.writeValue(bson.String(tok.v.(string)))
	case int32TokenType:
		p.b.writeValue(bson.Int32(tok.v.(int32)))
	case int64TokenType:
		p.b.writeValue(bson.Int64(tok.v.(int64)))
	case doubleTokenType:
		p.b.writeValue(bson.Double(tok.v.(float64)))
	case boolTokenType:
		p.b.writeValue(bson.Boolean(tok.v.(bool)))
	case nullTokenType:
		p.b.writeValue(bson.Null())
	case regexTokenType:
		r := tok.v.(bson.Regex)
		pattern, err := p.ctx.resolveString(r.Pattern)
		if err != nil {
			return err
		}
		if err := bson.ValidateRegexOptions(r.Options); err != nil {
			return newSyntaxErrorf(tok.p, "%v", err)
		}
		p.b.writeValue(bson.RegexValue(bson.Regex{Pattern: pattern, Options: r.Options}))
	case placeholderTokenType:
		v, err := p.ctx.argumentValue(tok.v.(int))
		if err != nil {
			return err
		}
		p.b.writeValue(v)
	case expressionTokenType:
		v, err := p.ctx.evaluateExpression(tok.v.(string))
		if err != nil {
			return err
		}
		p.b.writeValue(v)
	default:
		return newSyntaxErrorf(tok.p, "unexpected token at value position")
	}

	return nil
}

// resolveStringToken turns quoted string content into a value. Content
// that is exactly one expression marker evaluates and splices natively;
// otherwise every index marker substitutes textually and the result
// stays a string.
func (p *parser) resolveStringToken(s string) (bson.Value, error) {
	if m := expressionContentPattern.FindStringSubmatch(strings.TrimSpace(s)); m != nil {
		return p.ctx.evaluateExpression(m[1])
	}

	out, err := p.ctx.resolveString(s)
	if err != nil {
		return bson.Value{}, err
	}

	return bson.String(out), nil
}

func (p *parser) parseDocument(start int) error {
	p.b.startDocument()

	tok, err := p.next()
	if err != nil {
		return err
	}

	if tok.t != endObjectTokenType {
		for {
			key, err := p.resolveKey(tok)
			if err != nil {
				return err
			}
			p.b.writeName(key)

			sep, err := p.next()
			if err != nil {
				return err
			}
			if sep.t != colonTokenType {
				return newSyntaxErrorf(sep.p, "expected ':' after document key %q", key)
			}

			val, err := p.next()
			if err != nil {
				return err
			}
			if err := p.parseValue(val); err != nil {
				return err
			}

			sep, err = p.next()
			if err != nil {
				return err
			}
			if sep.t == endObjectTokenType {
				break
			}
			if sep.t != commaTokenType {
				return newSyntaxErrorf(sep.p, "expected ',' or '}' in document")
			}

			tok, err = p.next()
			if err != nil {
				return err
			}
		}
	}

	doc := p.b.endDocument()

	v, err := p.convertExtended(doc, start)
	if err != nil {
		return err
	}
	p.b.writeValue(v)

	return nil
}

func (p *parser) parseArray(start int) error {
	p.b.startArray()

	tok, err := p.next()
	if err != nil {
		return err
	}

	if tok.t != endArrayTokenType {
		for {
			if err := p.parseValue(tok); err != nil {
				return err
			}

			sep, err := p.next()
			if err != nil {
				return err
			}
			if sep.t == endArrayTokenType {
				break
			}
			if sep.t != commaTokenType {
				return newSyntaxErrorf(sep.p, "expected ',' or ']' in array")
			}

			tok, err = p.next()
			if err != nil {
				return err
			}
		}
	}

	p.b.writeValue(bson.ArrayValue(p.b.endArray()))

	return nil
}

// resolveKey turns a token at key position into the member name. Index
// and expression markers are allowed but must resolve to a scalar, whose
// textual form becomes the key.
func (p *parser) resolveKey(tok *jsonToken) (string, error) {
	switch tok.t {
	case stringTokenType:
		return p.ctx.resolveString(tok.v.(string))
	case unquotedTokenType:
		return tok.v.(string), nil
	case placeholderTokenType:
		v, err := p.ctx.argumentValue(tok.v.(int))
		if err != nil {
			return "", err
		}
		if v.IsStructural() {
			return "", newSyntaxErrorf(tok.p, "parameter ?%d must resolve to a scalar document key", tok.v.(int))
		}
		return v.StringForm(), nil
	case expressionTokenType:
		v, err := p.ctx.evaluateExpression(tok.v.(string))
		if err != nil {
			return "", err
		}
		if v.IsStructural() {
			return "", newSyntaxErrorf(tok.p, "expression must resolve to a scalar document key")
		}
		return v.StringForm(), nil
	}

	return "", newSyntaxErrorf(tok.p, "expected a document key")
}

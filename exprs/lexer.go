// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package exprs

import (
	"fmt"
	"strings"
)

// TokenType classifies the lexical elements of an expression.
type TokenType int

const (
	TokenString TokenType = iota
	TokenNumber
	TokenIdentifier
	TokenOperator
	TokenLeftParen
	TokenRightParen
	TokenLeftBracket
	TokenRightBracket
	TokenLeftBrace
	TokenRightBrace
	TokenComma
	TokenDot
	TokenColon
	TokenQuestion
	TokenEOF
)

// Token is a lexical element of an expression.
type Token struct {
	Type     TokenType
	Value    string
	Position int
}

// multi-character operators are matched before single-character ones
var operatorLexemes = []string{
	"==", "!=", "<=", ">=", "&&", "||",
	"<", ">", "!", "+", "-", "*", "/", "%",
}

// tokenize scans an expression string into tokens.
func tokenize(input string) ([]Token, error) {
	tokens := make([]Token, 0, 8)
	pos := 0

	for pos < len(input) {
		c := input[pos]

		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			pos++
			continue
		}

		switch c {
		case '(':
			tokens = append(tokens, Token{Type: TokenLeftParen, Value: "(", Position: pos})
			pos++
			continue
		case ')':
			tokens = append(tokens, Token{Type: TokenRightParen, Value: ")", Position: pos})
			pos++
			continue
		case '[':
			tokens = append(tokens, Token{Type: TokenLeftBracket, Value: "[", Position: pos})
			pos++
			continue
		case ']':
			tokens = append(tokens, Token{Type: TokenRightBracket, Value: "]", Position: pos})
			pos++
			continue
		case '{':
			tokens = append(tokens, Token{Type: TokenLeftBrace, Value: "{", Position: pos})
			pos++
			continue
		case '}':
			tokens = append(tokens, Token{Type: TokenRightBrace, Value: "}", Position: pos})
			pos++
			continue
		case ',':
			tokens = append(tokens, Token{Type: TokenComma, Value: ",", Position: pos})
			pos++
			continue
		case '.':
			tokens = append(tokens, Token{Type: TokenDot, Value: ".", Position: pos})
			pos++
			continue
		case ':':
			tokens = append(tokens, Token{Type: TokenColon, Value: ":", Position: pos})
			pos++
			continue
		case '?':
			tokens = append(tokens, Token{Type: TokenQuestion, Value: "?", Position: pos})
			pos++
			continue
		}

		if c == '\'' || c == '"' {
			tok, next, err := lexString(input, pos)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			pos = next
			continue
		}

		if c >= '0' && c <= '9' {
			tok, next := lexNumber(input, pos)
			tokens = append(tokens, tok)
			pos = next
			continue
		}

		if op, ok := matchOperator(input, pos); ok {
			tokens = append(tokens, Token{Type: TokenOperator, Value: op, Position: pos})
			pos += len(op)
			continue
		}

		if isIdentStart(c) {
			start := pos
			for pos < len(input) && isIdentChar(input[pos]) {
				pos++
			}
			tokens = append(tokens, Token{Type: TokenIdentifier, Value: input[start:pos], Position: start})
			continue
		}

		return nil, fmt.Errorf("unexpected character %q at position %d", string(c), pos)
	}

	tokens = append(tokens, Token{Type: TokenEOF, Position: len(input)})
	return tokens, nil
}

func matchOperator(input string, pos int) (string, bool) {
	for _, op := range operatorLexemes {
		if strings.HasPrefix(input[pos:], op) {
			return op, true
		}
	}

	return "", false
}

func lexString(input string, pos int) (Token, int, error) {
	quote := input[pos]
	start := pos
	pos++

	var b strings.Builder
	for pos < len(input) {
		c := input[pos]
		if c == '\\' && pos+1 < len(input) {
			b.WriteByte(input[pos+1])
			pos += 2
			continue
		}
		if c == quote {
			return Token{Type: TokenString, Value: b.String(), Position: start}, pos + 1, nil
		}
		b.WriteByte(c)
		pos++
	}

	return Token{}, 0, fmt.Errorf("unterminated string literal at position %d", start)
}

func lexNumber(input string, pos int) (Token, int) {
	start := pos
	sawDot := false

	for pos < len(input) {
		c := input[pos]
		if c >= '0' && c <= '9' {
			pos++
			continue
		}
		if c == '.' && !sawDot && pos+1 < len(input) && input[pos+1] >= '0' && input[pos+1] <= '9' {
			sawDot = true
			pos++
			continue
		}
		break
	}

	return Token{Type: TokenNumber, Value: input[start:pos], Position: start}, pos
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

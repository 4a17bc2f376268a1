// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package exprs

import (
	"fmt"
	"strconv"
)

// NodeType classifies AST nodes.
type NodeType int

const (
	NodeLiteral NodeType = iota
	NodeArgument
	NodeIdentifier
	NodeProperty
	NodeUnaryOp
	NodeBinaryOp
	NodeTernary
	NodeCall
	NodeList
	NodeMap
)

// Node is a node in the expression AST. Children carries operands in
// evaluation order; for a map node, children alternate key, value.
type Node struct {
	Type     NodeType
	Value    interface{}
	Name     string
	Children []*Node
}

// binaryPrecedence orders binary operators; higher binds tighter.
var binaryPrecedence = map[string]int{
	"||": 10,
	"&&": 20,
	"==": 30, "!=": 30,
	"<": 40, "<=": 40, ">": 40, ">=": 40,
	"+": 50, "-": 50,
	"*": 60, "/": 60, "%": 60,
}

type exprParser struct {
	tokens []Token
	pos    int
}

// parse builds an AST from an expression string.
func parse(input string) (*Node, error) {
	tokens, err := tokenize(input)
	if err != nil {
		return nil, err
	}

	p := &exprParser{tokens: tokens}
	node, err := p.parseTernary()
	if err != nil {
		return nil, err
	}

	if tok := p.peek(); tok.Type != TokenEOF {
		return nil, fmt.Errorf("unexpected token %q at position %d", tok.Value, tok.Position)
	}

	return node, nil
}

func (p *exprParser) peek() Token {
	return p.tokens[p.pos]
}

func (p *exprParser) advance() Token {
	tok := p.tokens[p.pos]
	if tok.Type != TokenEOF {
		p.pos++
	}

	return tok
}

func (p *exprParser) expect(t TokenType, what string) (Token, error) {
	tok := p.advance()
	if tok.Type != t {
		return Token{}, fmt.Errorf("expected %s at position %d, got %q", what, tok.Position, tok.Value)
	}

	return tok, nil
}

// parseTernary handles cond ? then : else, right associative.
func (p *exprParser) parseTernary() (*Node, error) {
	cond, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}

	if p.peek().Type != TokenQuestion {
		return cond, nil
	}
	p.advance()

	thenN, err := p.parseTernary()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(TokenColon, "':'"); err != nil {
		return nil, err
	}

	elseN, err := p.parseTernary()
	if err != nil {
		return nil, err
	}

	return &Node{Type: NodeTernary, Children: []*Node{cond, thenN, elseN}}, nil
}

// parseBinary is a precedence climber over the binary operator table.
func (p *exprParser) parseBinary(minPrec int) (*Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		if tok.Type != TokenOperator {
			return left, nil
		}

		prec, ok := binaryPrecedence[tok.Value]
		if !ok || prec < minPrec {
			return left, nil
		}
		p.advance()

		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}

		left = &Node{Type: NodeBinaryOp, Name: tok.Value, Children: []*Node{left, right}}
	}
}

func (p *exprParser) parseUnary() (*Node, error) {
	tok := p.peek()
	if tok.Type == TokenOperator && (tok.Value == "!" || tok.Value == "-") {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Node{Type: NodeUnaryOp, Name: tok.Value, Children: []*Node{operand}}, nil
	}

	return p.parsePostfix()
}

// parsePostfix handles property access chains after a primary.
func (p *exprParser) parsePostfix() (*Node, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for p.peek().Type == TokenDot {
		p.advance()
		name, err := p.expect(TokenIdentifier, "property name")
		if err != nil {
			return nil, err
		}
		node = &Node{Type: NodeProperty, Name: name.Value, Children: []*Node{node}}
	}

	return node, nil
}

func (p *exprParser) parsePrimary() (*Node, error) {
	tok := p.advance()

	switch tok.Type {
	case TokenString:
		return &Node{Type: NodeLiteral, Value: tok.Value}, nil
	case TokenNumber:
		return numberNode(tok)
	case TokenLeftParen:
		node, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRightParen, "')'"); err != nil {
			return nil, err
		}
		return node, nil
	case TokenLeftBracket:
		// [N] is a positional argument reference
		idx, err := p.expect(TokenNumber, "argument index")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRightBracket, "']'"); err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(idx.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid argument index %q at position %d", idx.Value, idx.Position)
		}
		return &Node{Type: NodeArgument, Value: n}, nil
	case TokenLeftBrace:
		return p.parseInline()
	case TokenIdentifier:
		switch tok.Value {
		case "true":
			return &Node{Type: NodeLiteral, Value: true}, nil
		case "false":
			return &Node{Type: NodeLiteral, Value: false}, nil
		case "null":
			return &Node{Type: NodeLiteral, Value: nil}, nil
		}

		if p.peek().Type == TokenLeftParen {
			p.advance()
			args, err := p.parseCallArgs()
			if err != nil {
				return nil, err
			}
			return &Node{Type: NodeCall, Name: tok.Value, Children: args}, nil
		}

		return &Node{Type: NodeIdentifier, Name: tok.Value}, nil
	}

	return nil, fmt.Errorf("unexpected token %q at position %d", tok.Value, tok.Position)
}

func numberNode(tok Token) (*Node, error) {
	if i, err := strconv.ParseInt(tok.Value, 10, 64); err == nil {
		return &Node{Type: NodeLiteral, Value: i}, nil
	}

	f, err := strconv.ParseFloat(tok.Value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q at position %d", tok.Value, tok.Position)
	}

	return &Node{Type: NodeLiteral, Value: f}, nil
}

func (p *exprParser) parseCallArgs() ([]*Node, error) {
	var args []*Node

	if p.peek().Type == TokenRightParen {
		p.advance()
		return args, nil
	}

	for {
		arg, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		tok := p.advance()
		if tok.Type == TokenRightParen {
			return args, nil
		}
		if tok.Type != TokenComma {
			return nil, fmt.Errorf("expected ',' or ')' at position %d", tok.Position)
		}
	}
}

// parseInline handles SpEL-style inline collections: {a, b} is a list,
// {'k': v} is a map, {} an empty list, {:} an empty map. Keys may be
// string literals or bare identifiers.
func (p *exprParser) parseInline() (*Node, error) {
	if p.peek().Type == TokenRightBrace {
		p.advance()
		return &Node{Type: NodeList}, nil
	}

	if p.peek().Type == TokenColon {
		p.advance()
		if _, err := p.expect(TokenRightBrace, "'}'"); err != nil {
			return nil, err
		}
		return &Node{Type: NodeMap}, nil
	}

	first, err := p.parseTernary()
	if err != nil {
		return nil, err
	}

	if p.peek().Type == TokenColon {
		return p.parseInlineMap(first)
	}

	items := []*Node{first}
	for {
		tok := p.advance()
		if tok.Type == TokenRightBrace {
			return &Node{Type: NodeList, Children: items}, nil
		}
		if tok.Type != TokenComma {
			return nil, fmt.Errorf("expected ',' or '}' at position %d", tok.Position)
		}

		item, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
}

func (p *exprParser) parseInlineMap(firstKey *Node) (*Node, error) {
	children := make([]*Node, 0, 4)
	key := firstKey

	for {
		if _, err := p.expect(TokenColon, "':'"); err != nil {
			return nil, err
		}

		val, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		children = append(children, key, val)

		tok := p.advance()
		if tok.Type == TokenRightBrace {
			return &Node{Type: NodeMap, Children: children}, nil
		}
		if tok.Type != TokenComma {
			return nil, fmt.Errorf("expected ',' or '}' at position %d", tok.Position)
		}

		key, err = p.parseTernary()
		if err != nil {
			return nil, err
		}
	}
}

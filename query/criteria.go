// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package query provides fluent builders for MongoDB query documents:
// field criteria, logical compositions, and aggregation options. The
// builders produce ordered bson documents ready for serialization or
// for comparison against parsed templates.
package query

import (
	"github.com/pkg/errors"

	"github.com/ikmak/mongojson/bson"
)

// Criteria is a fluent builder for a query document. Criteria for
// multiple fields chain through And; the final ToDocument call renders
// the whole chain in order.
type Criteria struct {
	key    string
	isVal  bson.Value
	hasIs  bool
	ops    *bson.Document
	negate bool
	chain  []*Criteria
	err    error
}

// Where starts a criteria chain for the given field key.
func Where(key string) *Criteria {
	c := &Criteria{key: key, ops: bson.NewDocument()}
	c.chain = []*Criteria{c}

	return c
}

// And continues the chain with a new field key.
func (c *Criteria) And(key string) *Criteria {
	n := &Criteria{key: key, ops: bson.NewDocument(), err: c.err}
	n.chain = append(append([]*Criteria{}, c.chain...), n)

	return n
}

func (c *Criteria) value(v interface{}) bson.Value {
	val, err := bson.FromInterface(v)
	if err != nil && c.err == nil {
		c.err = err
	}

	return val
}

// addOp records an operator for the current key, honoring a pending Not.
func (c *Criteria) addOp(op string, v interface{}) *Criteria {
	val := c.value(v)

	if c.negate {
		c.negate = false
		c.ops.Append("$not", bson.DocumentValue(bson.NewDocument(
			bson.Element{Key: op, Value: val},
		)))
		return c
	}

	c.ops.Append(op, val)
	return c
}

// Is matches the field against the value directly.
func (c *Criteria) Is(v interface{}) *Criteria {
	if c.negate {
		c.negate = false
		c.ops.Append("$ne", c.value(v))
		return c
	}

	c.isVal = c.value(v)
	c.hasIs = true
	return c
}

func (c *Criteria) Ne(v interface{}) *Criteria  { return c.addOp("$ne", v) }
func (c *Criteria) Lt(v interface{}) *Criteria  { return c.addOp("$lt", v) }
func (c *Criteria) Lte(v interface{}) *Criteria { return c.addOp("$lte", v) }
func (c *Criteria) Gt(v interface{}) *Criteria  { return c.addOp("$gt", v) }
func (c *Criteria) Gte(v interface{}) *Criteria { return c.addOp("$gte", v) }

// In matches the field against any of the given values.
func (c *Criteria) In(values ...interface{}) *Criteria {
	return c.addOp("$in", values)
}

// Nin matches the field against none of the given values.
func (c *Criteria) Nin(values ...interface{}) *Criteria {
	return c.addOp("$nin", values)
}

// All requires an array field to contain all given values.
func (c *Criteria) All(values ...interface{}) *Criteria {
	return c.addOp("$all", values)
}

// Mod matches value % divisor == remainder.
func (c *Criteria) Mod(divisor, remainder int64) *Criteria {
	return c.addOp("$mod", []interface{}{divisor, remainder})
}

// Size requires an array field of the given length.
func (c *Criteria) Size(size int) *Criteria {
	return c.addOp("$size", size)
}

// Exists matches documents that do (or do not) carry the field.
func (c *Criteria) Exists(v bool) *Criteria {
	return c.addOp("$exists", v)
}

// Type requires the field to hold a value of the given BSON type.
func (c *Criteria) Type(t bson.Type) *Criteria {
	return c.addOp("$type", int32(t))
}

// Not negates the next operator on this field.
func (c *Criteria) Not() *Criteria {
	c.negate = true
	return c
}

// Regex matches the field against a pattern with the given options.
// Unrecognized option characters surface as an error from ToDocument.
func (c *Criteria) Regex(pattern, options string) *Criteria {
	if err := bson.ValidateRegexOptions(options); err != nil && c.err == nil {
		c.err = err
	}

	r := bson.RegexValue(bson.Regex{Pattern: pattern, Options: options})
	if c.negate {
		c.negate = false
		c.ops.Append("$not", r)
		return c
	}

	c.isVal = r
	c.hasIs = true
	return c
}

// ElemMatch requires an array element matching the given criteria.
func (c *Criteria) ElemMatch(sub *Criteria) *Criteria {
	doc, err := sub.ToDocument()
	if err != nil && c.err == nil {
		c.err = err
	}

	return c.addOp("$elemMatch", doc)
}

// AndOperator composes sub-criteria under $and.
func (c *Criteria) AndOperator(criteria ...*Criteria) *Criteria {
	return c.logical("$and", criteria)
}

// OrOperator composes sub-criteria under $or.
func (c *Criteria) OrOperator(criteria ...*Criteria) *Criteria {
	return c.logical("$or", criteria)
}

// NorOperator composes sub-criteria under $nor.
func (c *Criteria) NorOperator(criteria ...*Criteria) *Criteria {
	return c.logical("$nor", criteria)
}

func (c *Criteria) logical(op string, criteria []*Criteria) *Criteria {
	arr := bson.NewArray()
	for _, sub := range criteria {
		doc, err := sub.ToDocument()
		if err != nil && c.err == nil {
			c.err = err
		}
		arr.Append(bson.DocumentValue(doc))
	}

	n := &Criteria{key: op, ops: bson.NewDocument(), err: c.err}
	n.isVal = bson.ArrayValue(arr)
	n.hasIs = true
	n.chain = append(append([]*Criteria{}, c.chain...), n)

	return n
}

// ToDocument renders the whole criteria chain as a query document.
func (c *Criteria) ToDocument() (*bson.Document, error) {
	if c.err != nil {
		return nil, c.err
	}

	doc := bson.NewDocument()
	for _, link := range c.chain {
		if link.key == "" {
			continue
		}

		switch {
		case link.hasIs && link.ops.Len() == 0:
			doc.Set(link.key, link.isVal)
		case link.hasIs:
			return nil, errors.Errorf("criteria for %q mixes Is with operator criteria", link.key)
		default:
			doc.Set(link.key, bson.DocumentValue(link.ops))
		}
	}

	return doc, nil
}

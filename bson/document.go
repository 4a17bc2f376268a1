// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bson

import (
	"errors"
	"sort"
)

// ErrElementNotFound indicates that an Element matching a certain condition does not exist.
var ErrElementNotFound = errors.New("element not found")

// ErrOutOfBounds indicates that an index provided to access something was invalid.
var ErrOutOfBounds = errors.New("out of bounds")

// Element is a single key/value member of a Document.
type Element struct {
	Key   string
	Value Value
}

// Document is a mutable ordered map with string keys. Element insertion
// order is preserved; Set applies last-write-wins semantics.
type Document struct {
	elems []Element
}

// NewDocument creates a Document holding the given elements.
func NewDocument(elems ...Element) *Document {
	doc := &Document{elems: make([]Element, 0, len(elems))}
	for _, e := range elems {
		doc.Append(e.Key, e.Value)
	}

	return doc
}

// D builds a document from alternating key, value pairs. It panics when
// given an odd number of arguments or a non-string key; it exists for
// test and builder ergonomics.
func D(pairs ...interface{}) *Document {
	if len(pairs)%2 != 0 {
		panic("bson.D requires an even number of arguments")
	}

	doc := NewDocument()
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			panic("bson.D requires string keys")
		}

		val, err := FromInterface(pairs[i+1])
		if err != nil {
			panic(err)
		}

		doc.Append(key, val)
	}

	return doc
}

// DocumentFromMap builds a document from a native map. Go maps have no
// iteration order, so keys are sorted for a deterministic result.
func DocumentFromMap(m map[string]interface{}) (*Document, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	doc := NewDocument()
	for _, k := range keys {
		v, err := FromInterface(m[k])
		if err != nil {
			return nil, err
		}
		doc.Append(k, v)
	}

	return doc, nil
}

// Len returns the number of elements in the document. A nil document has
// length zero.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}

	return len(d.elems)
}

// Keys returns the element keys in insertion order.
func (d *Document) Keys() []string {
	ks := make([]string, 0, len(d.elems))
	for _, e := range d.elems {
		ks = append(ks, e.Key)
	}

	return ks
}

// Append adds an element to the end of the document without looking for
// an existing element with the same key.
func (d *Document) Append(key string, val Value) *Document {
	d.elems = append(d.elems, Element{Key: key, Value: val})
	return d
}

// Set replaces the value of the first element with the given key, or
// appends a new element if the key is not present.
func (d *Document) Set(key string, val Value) *Document {
	for i := range d.elems {
		if d.elems[i].Key == key {
			d.elems[i].Value = val
			return d
		}
	}

	return d.Append(key, val)
}

// Lookup returns the value of the first element with the given key.
func (d *Document) Lookup(key string) (Value, error) {
	for _, e := range d.elems {
		if e.Key == key {
			return e.Value, nil
		}
	}

	return Value{}, ErrElementNotFound
}

// LookupOK is Lookup with an ok bool instead of an error.
func (d *Document) LookupOK(key string) (Value, bool) {
	v, err := d.Lookup(key)
	return v, err == nil
}

// Delete removes the first element with the given key and reports whether
// an element was removed.
func (d *Document) Delete(key string) bool {
	for i := range d.elems {
		if d.elems[i].Key == key {
			d.elems = append(d.elems[:i], d.elems[i+1:]...)
			return true
		}
	}

	return false
}

// ElementAt returns the element at the given index.
func (d *Document) ElementAt(index int) (Element, error) {
	if index < 0 || index >= len(d.elems) {
		return Element{}, ErrOutOfBounds
	}

	return d.elems[index], nil
}

// Elements returns the underlying element slice. Callers must not modify
// it while iterating the document.
func (d *Document) Elements() []Element {
	return d.elems
}

// Reset removes all elements, retaining allocated space.
func (d *Document) Reset() {
	d.elems = d.elems[:0]
}

// Equal reports whether two documents hold equal elements in the same
// order. A nil document equals only another nil or empty document.
func (d *Document) Equal(other *Document) bool {
	if d == nil || other == nil {
		return d.Len() == 0 && other.Len() == 0
	}
	if len(d.elems) != len(other.elems) {
		return false
	}

	for i := range d.elems {
		if d.elems[i].Key != other.elems[i].Key {
			return false
		}
		if !d.elems[i].Value.Equal(other.elems[i].Value) {
			return false
		}
	}

	return true
}

// Array is an ordered sequence of Values.
type Array struct {
	values []Value
}

// NewArray creates an Array holding the given values.
func NewArray(values ...Value) *Array {
	return &Array{values: values}
}

// A builds an array from native Go values, panicking on unconvertible
// input. It exists for test and builder ergonomics.
func A(values ...interface{}) *Array {
	arr := NewArray()
	for _, v := range values {
		val, err := FromInterface(v)
		if err != nil {
			panic(err)
		}
		arr.Append(val)
	}

	return arr
}

// Len returns the number of values in the array. A nil array has length
// zero.
func (a *Array) Len() int {
	if a == nil {
		return 0
	}

	return len(a.values)
}

// Append adds values to the end of the array.
func (a *Array) Append(values ...Value) *Array {
	a.values = append(a.values, values...)
	return a
}

// Lookup returns the value at the given index.
func (a *Array) Lookup(index int) (Value, error) {
	if index < 0 || index >= len(a.values) {
		return Value{}, ErrOutOfBounds
	}

	return a.values[index], nil
}

// Values returns the underlying value slice. Callers must not modify it
// while iterating the array.
func (a *Array) Values() []Value {
	return a.values
}

// Equal reports whether two arrays hold equal values in the same order.
func (a *Array) Equal(other *Array) bool {
	if a == nil || other == nil {
		return a.Len() == 0 && other.Len() == 0
	}
	if len(a.values) != len(other.values) {
		return false
	}

	for i := range a.values {
		if !a.values[i].Equal(other.values[i]) {
			return false
		}
	}

	return true
}

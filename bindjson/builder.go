// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bindjson

import (
	"fmt"

	"github.com/ikmak/mongojson/bson"
)

type buildMode byte

const (
	buildTopLevel buildMode = iota
	buildDocument
	buildArray
)

type buildFrame struct {
	mode   buildMode
	doc    *bson.Document
	arr    *bson.Array
	key    string
	hasKey bool
}

// docBuilder assembles the output value tree. The parser is the only
// driver; calls arriving out of grammar order are programming errors and
// panic. One instance serves exactly one parse call.
//
// startDocument and startArray push a frame without attaching it to the
// parent; the matching end call pops the frame and returns the completed
// composite so the parser can apply extended-type conversion before
// writing it into the enclosing frame with writeValue.
type docBuilder struct {
	stack []buildFrame
	root  bson.Value
	done  bool
}

func newDocBuilder() *docBuilder {
	return &docBuilder{stack: make([]buildFrame, 0, 4)}
}

func (b *docBuilder) top() *buildFrame {
	if len(b.stack) == 0 {
		return nil
	}

	return &b.stack[len(b.stack)-1]
}

func (b *docBuilder) startDocument() {
	b.stack = append(b.stack, buildFrame{mode: buildDocument, doc: bson.NewDocument()})
}

func (b *docBuilder) endDocument() *bson.Document {
	f := b.top()
	if f == nil || f.mode != buildDocument {
		panic("bindjson: endDocument without matching startDocument")
	}
	if f.hasKey {
		panic("bindjson: endDocument with a pending element name")
	}

	b.stack = b.stack[:len(b.stack)-1]
	return f.doc
}

func (b *docBuilder) startArray() {
	b.stack = append(b.stack, buildFrame{mode: buildArray, arr: bson.NewArray()})
}

func (b *docBuilder) endArray() *bson.Array {
	f := b.top()
	if f == nil || f.mode != buildArray {
		panic("bindjson: endArray without matching startArray")
	}

	b.stack = b.stack[:len(b.stack)-1]
	return f.arr
}

func (b *docBuilder) writeName(key string) {
	f := b.top()
	if f == nil || f.mode != buildDocument {
		panic("bindjson: writeName outside of a document")
	}
	if f.hasKey {
		panic(fmt.Sprintf("bindjson: writeName(%q) with element name %q already pending", key, f.key))
	}

	f.key = key
	f.hasKey = true
}

func (b *docBuilder) writeValue(v bson.Value) {
	f := b.top()
	if f == nil {
		if b.done {
			panic("bindjson: writeValue after the root value was written")
		}
		b.root = v
		b.done = true
		return
	}

	switch f.mode {
	case buildDocument:
		if !f.hasKey {
			panic("bindjson: writeValue in a document without a pending element name")
		}
		f.doc.Append(f.key, v)
		f.key = ""
		f.hasKey = false
	case buildArray:
		f.arr.Append(v)
	}
}

// build yields the completed root value and releases internal state.
func (b *docBuilder) build() bson.Value {
	if len(b.stack) != 0 {
		panic("bindjson: build with unclosed documents or arrays")
	}
	if !b.done {
		panic("bindjson: build before a root value was written")
	}

	v := b.root
	b.root = bson.Value{}
	b.stack = nil

	return v
}

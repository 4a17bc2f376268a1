// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bson

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strconv"
)

// MarshalExtJSON renders the document as Extended JSON. Non-JSON types
// are written in their canonical $-keyed form, so the output re-parses to
// an equal document.
func (d *Document) MarshalExtJSON() []byte {
	var buf bytes.Buffer
	writeDocument(&buf, d)
	return buf.Bytes()
}

// String implements fmt.Stringer, rendering the document as Extended JSON.
func (d *Document) String() string {
	return string(d.MarshalExtJSON())
}

// MarshalExtJSON renders the array as Extended JSON.
func (a *Array) MarshalExtJSON() []byte {
	var buf bytes.Buffer
	writeArray(&buf, a)
	return buf.Bytes()
}

// String implements fmt.Stringer, rendering the array as Extended JSON.
func (a *Array) String() string {
	return string(a.MarshalExtJSON())
}

// String implements fmt.Stringer, rendering the value as Extended JSON.
func (v Value) String() string {
	var buf bytes.Buffer
	writeValue(&buf, v)
	return buf.String()
}

func writeDocument(buf *bytes.Buffer, d *Document) {
	buf.WriteByte('{')
	for i, e := range d.Elements() {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(buf, e.Key)
		buf.WriteByte(':')
		writeValue(buf, e.Value)
	}
	buf.WriteByte('}')
}

func writeArray(buf *bytes.Buffer, a *Array) {
	buf.WriteByte('[')
	for i, v := range a.Values() {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeValue(buf, v)
	}
	buf.WriteByte(']')
}

func writeValue(buf *bytes.Buffer, v Value) {
	switch v.Type() {
	case TypeEmbeddedDocument:
		writeDocument(buf, v.Document())
	case TypeArray:
		writeArray(buf, v.Array())
	case TypeString:
		writeString(buf, v.StringValue())
	case TypeBoolean:
		buf.WriteString(strconv.FormatBool(v.Boolean()))
	case TypeNull:
		buf.WriteString("null")
	case TypeInt32:
		buf.WriteString(strconv.FormatInt(int64(v.Int32()), 10))
	case TypeInt64:
		fmt.Fprintf(buf, `{"$numberLong":"%d"}`, v.Int64())
	case TypeDouble:
		fmt.Fprintf(buf, `{"$numberDouble":"%s"}`, formatDouble(v.Double()))
	case TypeDecimal128:
		fmt.Fprintf(buf, `{"$numberDecimal":"%s"}`, v.Decimal128().String())
	case TypeDateTime:
		fmt.Fprintf(buf, `{"$date":{"$numberLong":"%d"}}`, v.DateTime())
	case TypeObjectID:
		fmt.Fprintf(buf, `{"$oid":"%s"}`, v.ObjectID().Hex())
	case TypeBinary:
		b := v.Binary()
		fmt.Fprintf(buf, `{"$binary":{"base64":"%s","subType":"%02x"}}`,
			base64.StdEncoding.EncodeToString(b.Data), b.Subtype)
	case TypeRegex:
		r := v.Regex()
		buf.WriteString(`{"$regularExpression":{"pattern":`)
		writeString(buf, r.Pattern)
		buf.WriteString(`,"options":`)
		writeString(buf, r.Options)
		buf.WriteString(`}}`)
	case TypeTimestamp:
		ts := v.Timestamp()
		fmt.Fprintf(buf, `{"$timestamp":{"t":%d,"i":%d}}`, ts.T, ts.I)
	case TypeJavaScript:
		buf.WriteString(`{"$code":`)
		writeString(buf, v.JavaScript())
		buf.WriteByte('}')
	case TypeCodeWithScope:
		c := v.CodeWithScope()
		buf.WriteString(`{"$code":`)
		writeString(buf, c.Code)
		buf.WriteString(`,"$scope":`)
		writeDocument(buf, c.Scope)
		buf.WriteByte('}')
	case TypeSymbol:
		buf.WriteString(`{"$symbol":`)
		writeString(buf, v.Symbol())
		buf.WriteByte('}')
	case TypeMinKey:
		buf.WriteString(`{"$minKey":1}`)
	case TypeMaxKey:
		buf.WriteString(`{"$maxKey":1}`)
	case TypeUndefined:
		buf.WriteString(`{"$undefined":true}`)
	default:
		buf.WriteString("null")
	}
}

func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if c < 0x20 {
				fmt.Fprintf(buf, `\u%04x`, c)
			} else {
				buf.WriteByte(c)
			}
		}
	}
	buf.WriteByte('"')
}

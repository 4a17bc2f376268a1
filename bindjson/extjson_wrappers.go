// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bindjson

import (
	"encoding/base64"
	"math"
	"strconv"
	"strings"

	"github.com/ikmak/mongojson/bson"
)

// convertExtended inspects a freshly parsed document for an extended-type
// construct ($date, $oid, $binary, ...) and converts it to the matching
// scalar value. Placeholder resolution has already happened on the inner
// values. A shape that is not recognized, or that carries the wrong inner
// types, stays a plain document; unmodeled operators must keep working.
// The one exception is a recognized regex shape with invalid option
// characters, which is a terminal error.
func (p *parser) convertExtended(doc *bson.Document, pos int) (bson.Value, error) {
	if doc.Len() == 0 {
		return bson.DocumentValue(doc), nil
	}

	first, _ := doc.ElementAt(0)
	if !strings.HasPrefix(first.Key, "$") {
		return bson.DocumentValue(doc), nil
	}

	switch first.Key {
	case "$oid":
		if doc.Len() == 1 && first.Value.Type() == bson.TypeString {
			oid, err := bson.ParseObjectID(first.Value.StringValue())
			if err == nil {
				return bson.ObjectIDValue(oid), nil
			}
		}
	case "$symbol":
		if doc.Len() == 1 && first.Value.Type() == bson.TypeString {
			return bson.SymbolValue(first.Value.StringValue()), nil
		}
	case "$numberInt":
		if doc.Len() == 1 {
			if v, ok := parseInt32Wrapper(first.Value); ok {
				return v, nil
			}
		}
	case "$numberLong":
		if doc.Len() == 1 {
			if v, ok := parseInt64Wrapper(first.Value); ok {
				return v, nil
			}
		}
	case "$numberDouble":
		if doc.Len() == 1 {
			if v, ok := parseDoubleWrapper(first.Value); ok {
				return v, nil
			}
		}
	case "$numberDecimal":
		if doc.Len() == 1 && first.Value.Type() == bson.TypeString {
			return bson.Decimal128Value(bson.ParseDecimal128(first.Value.StringValue())), nil
		}
	case "$code":
		if doc.Len() == 1 && first.Value.Type() == bson.TypeString {
			return bson.JavaScriptValue(first.Value.StringValue()), nil
		}
		if doc.Len() == 2 && first.Value.Type() == bson.TypeString {
			if scope, ok := doc.LookupOK("$scope"); ok && scope.Type() == bson.TypeEmbeddedDocument {
				return bson.CodeWithScopeValue(bson.CodeWithScope{
					Code:  first.Value.StringValue(),
					Scope: scope.Document(),
				}), nil
			}
		}
	case "$timestamp":
		if doc.Len() == 1 && first.Value.Type() == bson.TypeEmbeddedDocument {
			if v, ok := parseTimestampWrapper(first.Value.Document()); ok {
				return v, nil
			}
		}
	case "$regularExpression":
		if doc.Len() == 1 && first.Value.Type() == bson.TypeEmbeddedDocument {
			inner := first.Value.Document()
			pattern, pok := inner.LookupOK("pattern")
			options, ook := inner.LookupOK("options")
			if inner.Len() == 2 && pok && ook &&
				pattern.Type() == bson.TypeString && options.Type() == bson.TypeString {
				if err := bson.ValidateRegexOptions(options.StringValue()); err != nil {
					return bson.Value{}, newSyntaxErrorf(pos, "%v", err)
				}
				return bson.RegexValue(bson.Regex{
					Pattern: pattern.StringValue(),
					Options: options.StringValue(),
				}), nil
			}
		}
	case "$regex":
		// query-operator shape: { $regex: <pattern> } with optional $options
		if v, ok, err := parseRegexOperator(doc, first.Value, pos); ok || err != nil {
			return v, err
		}
	case "$minKey":
		if doc.Len() == 1 && isWrapperOne(first.Value) {
			return bson.MinKey(), nil
		}
	case "$maxKey":
		if doc.Len() == 1 && isWrapperOne(first.Value) {
			return bson.MaxKey(), nil
		}
	case "$undefined":
		if doc.Len() == 1 && first.Value.Type() == bson.TypeBoolean && first.Value.Boolean() {
			return bson.Undefined(), nil
		}
	case "$binary":
		if v, ok := parseBinaryWrapper(doc, first.Value); ok {
			return v, nil
		}
	case "$date":
		if doc.Len() == 1 {
			if v, ok := parseDateWrapper(first.Value); ok {
				return v, nil
			}
		}
	}

	return bson.DocumentValue(doc), nil
}

func isWrapperOne(v bson.Value) bool {
	switch v.Type() {
	case bson.TypeInt32:
		return v.Int32() == 1
	case bson.TypeInt64:
		return v.Int64() == 1
	}

	return false
}

func parseInt32Wrapper(v bson.Value) (bson.Value, bool) {
	switch v.Type() {
	case bson.TypeInt32:
		return v, true
	case bson.TypeString:
		i, err := strconv.ParseInt(v.StringValue(), 10, 64)
		if err != nil || i < math.MinInt32 || i > math.MaxInt32 {
			return bson.Value{}, false
		}
		return bson.Int32(int32(i)), true
	}

	return bson.Value{}, false
}

func parseInt64Wrapper(v bson.Value) (bson.Value, bool) {
	switch v.Type() {
	case bson.TypeInt32:
		return bson.Int64(int64(v.Int32())), true
	case bson.TypeInt64:
		return v, true
	case bson.TypeString:
		i, err := strconv.ParseInt(v.StringValue(), 10, 64)
		if err != nil {
			return bson.Value{}, false
		}
		return bson.Int64(i), true
	}

	return bson.Value{}, false
}

func parseDoubleWrapper(v bson.Value) (bson.Value, bool) {
	switch v.Type() {
	case bson.TypeInt32:
		return bson.Double(float64(v.Int32())), true
	case bson.TypeInt64:
		return bson.Double(float64(v.Int64())), true
	case bson.TypeDouble:
		return v, true
	case bson.TypeString:
		switch v.StringValue() {
		case "Infinity":
			return bson.Double(math.Inf(1)), true
		case "-Infinity":
			return bson.Double(math.Inf(-1)), true
		case "NaN":
			return bson.Double(math.NaN()), true
		}
		f, err := strconv.ParseFloat(v.StringValue(), 64)
		if err != nil {
			return bson.Value{}, false
		}
		return bson.Double(f), true
	}

	return bson.Value{}, false
}

func parseTimestampWrapper(inner *bson.Document) (bson.Value, bool) {
	t, tok := inner.LookupOK("t")
	i, iok := inner.LookupOK("i")
	if inner.Len() != 2 || !tok || !iok {
		return bson.Value{}, false
	}

	tv, ok1 := wrapperUint32(t)
	iv, ok2 := wrapperUint32(i)
	if !ok1 || !ok2 {
		return bson.Value{}, false
	}

	return bson.TimestampValue(bson.Timestamp{T: tv, I: iv}), true
}

func wrapperUint32(v bson.Value) (uint32, bool) {
	var i int64
	switch v.Type() {
	case bson.TypeInt32:
		i = int64(v.Int32())
	case bson.TypeInt64:
		i = v.Int64()
	default:
		return 0, false
	}

	if i < 0 || i > math.MaxUint32 {
		return 0, false
	}

	return uint32(i), true
}

func parseRegexOperator(doc *bson.Document, pattern bson.Value, pos int) (bson.Value, bool, error) {
	options := ""
	if doc.Len() == 2 {
		o, ok := doc.LookupOK("$options")
		if !ok || o.Type() != bson.TypeString {
			return bson.Value{}, false, nil
		}
		options = o.StringValue()
	} else if doc.Len() != 1 {
		return bson.Value{}, false, nil
	}

	var pat string
	switch pattern.Type() {
	case bson.TypeString:
		pat = pattern.StringValue()
	case bson.TypeRegex:
		pat = pattern.Regex().Pattern
		if options == "" {
			options = pattern.Regex().Options
		}
	default:
		return bson.Value{}, false, nil
	}

	if err := bson.ValidateRegexOptions(options); err != nil {
		return bson.Value{}, false, newSyntaxErrorf(pos, "%v", err)
	}

	return bson.RegexValue(bson.Regex{Pattern: pat, Options: options}), true, nil
}

func parseBinaryWrapper(doc *bson.Document, v bson.Value) (bson.Value, bool) {
	// canonical shape: { $binary: { base64: "...", subType: "hh" } }
	if doc.Len() == 1 && v.Type() == bson.TypeEmbeddedDocument {
		inner := v.Document()
		b64, bok := inner.LookupOK("base64")
		sub, sok := inner.LookupOK("subType")
		if inner.Len() != 2 || !bok || !sok ||
			b64.Type() != bson.TypeString || sub.Type() != bson.TypeString {
			return bson.Value{}, false
		}
		return decodeBinary(b64.StringValue(), sub.StringValue())
	}

	// legacy shape: { $binary: "base64", $type: "hh" }
	if doc.Len() == 2 && v.Type() == bson.TypeString {
		sub, ok := doc.LookupOK("$type")
		if !ok || sub.Type() != bson.TypeString {
			return bson.Value{}, false
		}
		return decodeBinary(v.StringValue(), sub.StringValue())
	}

	return bson.Value{}, false
}

func decodeBinary(b64, subType string) (bson.Value, bool) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return bson.Value{}, false
	}

	sub, err := strconv.ParseUint(subType, 16, 8)
	if err != nil {
		return bson.Value{}, false
	}

	return bson.BinaryValue(bson.Binary{Subtype: byte(sub), Data: data}), true
}

// parseDateWrapper converts the inner value of a $date construct. A
// bound instant is used as-is, numeric inputs are epoch milliseconds,
// string inputs parse as ISO-8601, and the canonical nested
// {$numberLong: "ms"} shape is accepted.
func parseDateWrapper(v bson.Value) (bson.Value, bool) {
	switch v.Type() {
	case bson.TypeDateTime:
		return v, true
	case bson.TypeInt32:
		return bson.DateTime(int64(v.Int32())), true
	case bson.TypeInt64:
		return bson.DateTime(v.Int64()), true
	case bson.TypeDouble:
		return bson.DateTime(int64(v.Double())), true
	case bson.TypeString:
		ms, err := bson.ParseDateTime(v.StringValue())
		if err != nil {
			return bson.Value{}, false
		}
		return bson.DateTime(ms), true
	case bson.TypeEmbeddedDocument:
		inner := v.Document()
		if inner.Len() != 1 {
			return bson.Value{}, false
		}
		long, ok := inner.LookupOK("$numberLong")
		if !ok {
			return bson.Value{}, false
		}
		if lv, lok := parseInt64Wrapper(long); lok {
			return bson.DateTime(lv.Int64()), true
		}
	}

	return bson.Value{}, false
}

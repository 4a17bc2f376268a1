// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bindjson_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ikmak/mongojson/bindjson"
	"github.com/ikmak/mongojson/bson"
)

func parseValue(t *testing.T, template string, args ...interface{}) bson.Value {
	t.Helper()

	v, err := bindjson.ParseValue(template, args...)
	require.NoError(t, err)
	return v
}

func TestExtendedTypeConversion(t *testing.T) {
	oid, err := bson.ParseObjectID("57e193d7a9cc81b4027498b5")
	require.NoError(t, err)

	cases := []struct {
		name     string
		template string
		want     bson.Value
	}{
		{"oid", `{"$oid": "57e193d7a9cc81b4027498b5"}`, bson.ObjectIDValue(oid)},
		{"symbol", `{"$symbol": "sym"}`, bson.SymbolValue("sym")},
		{"int32 canonical", `{"$numberInt": "42"}`, bson.Int32(42)},
		{"int32 relaxed", `{"$numberInt": 42}`, bson.Int32(42)},
		{"int64 canonical", `{"$numberLong": "42"}`, bson.Int64(42)},
		{"int64 relaxed", `{"$numberLong": 42}`, bson.Int64(42)},
		{"double canonical", `{"$numberDouble": "42.5"}`, bson.Double(42.5)},
		{"double relaxed", `{"$numberDouble": 42.5}`, bson.Double(42.5)},
		{"double infinity", `{"$numberDouble": "Infinity"}`, bson.Double(math.Inf(1))},
		{"double negative infinity", `{"$numberDouble": "-Infinity"}`, bson.Double(math.Inf(-1))},
		{"decimal", `{"$numberDecimal": "1234.5"}`, bson.Decimal128Value(bson.ParseDecimal128("1234.5"))},
		{"code", `{"$code": "function() {}"}`, bson.JavaScriptValue("function() {}")},
		{
			"code with scope",
			`{"$code": "function() {}", "$scope": {"a": 1}}`,
			bson.CodeWithScopeValue(bson.CodeWithScope{
				Code:  "function() {}",
				Scope: bson.D("a", bson.Int32(1)),
			}),
		},
		{"timestamp", `{"$timestamp": {"t": 42, "i": 1}}`, bson.TimestampValue(bson.Timestamp{T: 42, I: 1})},
		{
			"regular expression",
			`{"$regularExpression": {"pattern": "foo*", "options": "ix"}}`,
			bson.RegexValue(bson.Regex{Pattern: "foo*", Options: "ix"}),
		},
		{"regex operator", `{"$regex": "^mat", "$options": "i"}`, bson.RegexValue(bson.Regex{Pattern: "^mat", Options: "i"})},
		{"minKey", `{"$minKey": 1}`, bson.MinKey()},
		{"maxKey", `{"$maxKey": 1}`, bson.MaxKey()},
		{"undefined", `{"$undefined": true}`, bson.Undefined()},
		{
			"binary canonical",
			`{"$binary": {"base64": "AQIDBAU=", "subType": "80"}}`,
			bson.BinaryValue(bson.Binary{Subtype: 0x80, Data: []byte{1, 2, 3, 4, 5}}),
		},
		{
			"binary legacy",
			`{"$binary": "AQIDBAU=", "$type": "80"}`,
			bson.BinaryValue(bson.Binary{Subtype: 0x80, Data: []byte{1, 2, 3, 4, 5}}),
		},
		{"date millis", `{"$date": 1565546054692}`, bson.DateTime(1565546054692)},
		{"date canonical", `{"$date": {"$numberLong": "1565546054692"}}`, bson.DateTime(1565546054692)},
		{"date iso", `{"$date": "2019-08-11T17:54:14.692Z"}`, bson.DateTime(1565546054692)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := parseValue(t, tc.template)
			assert.True(t, v.Equal(tc.want), "got %s", v)
		})
	}
}

func TestDoubleNaNConversion(t *testing.T) {
	v := parseValue(t, `{"$numberDouble": "NaN"}`)
	require.Equal(t, bson.TypeDouble, v.Type())
	assert.True(t, math.IsNaN(v.Double()))
}

func TestUnrecognizedExtendedTypeStaysDocument(t *testing.T) {
	cases := []struct {
		name     string
		template string
		want     *bson.Document
	}{
		{"unknown dollar key", `{"$fancy": 1}`, bson.D("$fancy", bson.Int32(1))},
		{"query operator", `{"$exists": true}`, bson.D("$exists", true)},
		{"oid with bad hex", `{"$oid": "nope"}`, bson.D("$oid", "nope")},
		{"oid with extra member", `{"$oid": "57e193d7a9cc81b4027498b5", "x": 1}`,
			bson.D("$oid", "57e193d7a9cc81b4027498b5", "x", bson.Int32(1))},
		{"numberInt overflow", `{"$numberInt": "9999999999"}`, bson.D("$numberInt", "9999999999")},
		{"timestamp missing member", `{"$timestamp": {"t": 42}}`,
			bson.D("$timestamp", bson.DocumentValue(bson.D("t", bson.Int32(42))))},
		{"timestamp negative", `{"$timestamp": {"t": -1, "i": 1}}`,
			bson.D("$timestamp", bson.DocumentValue(bson.D("t", bson.Int32(-1), "i", bson.Int32(1))))},
		{"binary bad base64", `{"$binary": {"base64": "!!", "subType": "00"}}`,
			bson.D("$binary", bson.DocumentValue(bson.D("base64", "!!", "subType", "00")))},
		{"date unparseable", `{"$date": "not a date"}`, bson.D("$date", "not a date")},
		{"minKey wrong inner", `{"$minKey": 2}`, bson.D("$minKey", bson.Int32(2))},
		{"undefined false", `{"$undefined": false}`, bson.D("$undefined", false)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := parseValue(t, tc.template)
			require.Equal(t, bson.TypeEmbeddedDocument, v.Type())
			assert.True(t, v.Document().Equal(tc.want), "got %s", v)
		})
	}
}

func TestDBRefStaysDocument(t *testing.T) {
	v := parseValue(t, `{"$ref": "users", "$id": {"$oid": "57e193d7a9cc81b4027498b5"}, "$db": "app"}`)

	require.Equal(t, bson.TypeEmbeddedDocument, v.Type())
	doc := v.Document()
	assert.Equal(t, []string{"$ref", "$id", "$db"}, doc.Keys())

	id, err := doc.Lookup("$id")
	require.NoError(t, err)
	assert.Equal(t, bson.TypeObjectID, id.Type())
}

func TestInvalidRegexOptionsAreTerminal(t *testing.T) {
	cases := []string{
		`{"a": {"$regularExpression": {"pattern": "foo", "options": "z"}}}`,
		`{"a": {"$regex": "foo", "$options": "z"}}`,
		`{"a": /foo/z}`,
	}

	for _, template := range cases {
		_, err := bindjson.Parse(template)
		require.Error(t, err, template)
		assert.IsType(t, &bindjson.SyntaxError{}, err, template)
	}
}

func TestBoundValuesInsideWrappers(t *testing.T) {
	// a placeholder resolves before the wrapper shape is inspected
	v := parseValue(t, `{"$numberLong": ?0}`, 42)
	assert.True(t, v.Equal(bson.Int64(42)))

	v = parseValue(t, `{"$regex": ?0, "$options": "i"}`, "^mat")
	assert.True(t, v.Equal(bson.RegexValue(bson.Regex{Pattern: "^mat", Options: "i"})))
}

func TestWriterOutputReparses(t *testing.T) {
	oid, err := bson.ParseObjectID("57e193d7a9cc81b4027498b5")
	require.NoError(t, err)

	doc := bson.D(
		"str", "kohlin",
		"i32", bson.Int32(42),
		"i64", bson.Int64(1<<40),
		"dbl", bson.Double(1.5),
		"b", true,
		"n", bson.Null(),
		"when", bson.DateTime(1565546054692),
		"id", bson.ObjectIDValue(oid),
		"bin", bson.BinaryValue(bson.Binary{Subtype: 4, Data: []byte{1, 2}}),
		"re", bson.RegexValue(bson.Regex{Pattern: "^a", Options: "i"}),
		"ts", bson.TimestampValue(bson.Timestamp{T: 42, I: 1}),
		"sym", bson.SymbolValue("sym"),
		"min", bson.MinKey(),
		"max", bson.MaxKey(),
		"sub", bson.DocumentValue(bson.D("a", bson.ArrayValue(bson.A(1, "x")))),
	)

	reparsed, err := bindjson.Parse(string(doc.MarshalExtJSON()))
	require.NoError(t, err)
	assert.True(t, reparsed.Equal(doc), "got %s", reparsed)
}

func TestNestedWrapperConversion(t *testing.T) {
	doc := parseDoc(t, `{"when": {"$date": {"$numberLong": "0"}}, "ids": [{"$numberLong": "7"}]}`)

	want := bson.D(
		"when", bson.DateTime(0),
		"ids", bson.ArrayValue(bson.A(bson.Int64(7))),
	)
	assertDoc(t, want, doc)
}

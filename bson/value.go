// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bson

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Value is a tagged variant over the types of the Extended JSON grammar.
// The zero Value has an invalid type; use the constructor functions.
type Value struct {
	t Type
	v interface{}
}

// Constructors for each value type.

func Double(f float64) Value          { return Value{t: TypeDouble, v: f} }
func String(s string) Value           { return Value{t: TypeString, v: s} }
func DocumentValue(d *Document) Value { return Value{t: TypeEmbeddedDocument, v: d} }
func ArrayValue(a *Array) Value       { return Value{t: TypeArray, v: a} }
func BinaryValue(b Binary) Value      { return Value{t: TypeBinary, v: b} }
func Undefined() Value                { return Value{t: TypeUndefined} }
func ObjectIDValue(oid ObjectID) Value {
	return Value{t: TypeObjectID, v: oid}
}
func Boolean(b bool) Value            { return Value{t: TypeBoolean, v: b} }
func DateTime(ms int64) Value         { return Value{t: TypeDateTime, v: ms} }
func Null() Value                     { return Value{t: TypeNull} }
func RegexValue(r Regex) Value        { return Value{t: TypeRegex, v: r} }
func JavaScriptValue(c string) Value  { return Value{t: TypeJavaScript, v: c} }
func SymbolValue(s string) Value      { return Value{t: TypeSymbol, v: s} }
func CodeWithScopeValue(c CodeWithScope) Value {
	return Value{t: TypeCodeWithScope, v: c}
}
func Int32(i int32) Value             { return Value{t: TypeInt32, v: i} }
func TimestampValue(ts Timestamp) Value {
	return Value{t: TypeTimestamp, v: ts}
}
func Int64(i int64) Value             { return Value{t: TypeInt64, v: i} }
func Decimal128Value(d Decimal128) Value {
	return Value{t: TypeDecimal128, v: d}
}
func MinKey() Value { return Value{t: TypeMinKey} }
func MaxKey() Value { return Value{t: TypeMaxKey} }

// Type returns the value's BSON type.
func (v Value) Type() Type { return v.t }

// IsZero reports whether the value has not been set.
func (v Value) IsZero() bool { return v.t == 0 }

// IsStructural reports whether the value is a document or an array. The
// placeholder resolver consults this at every substitution site to decide
// between splicing a value natively and rendering its textual form.
func (v Value) IsStructural() bool {
	return v.t == TypeEmbeddedDocument || v.t == TypeArray
}

// Accessors. Each panics if the value holds a different type; callers
// switch on Type first.

func (v Value) Double() float64          { return v.v.(float64) }
func (v Value) StringValue() string      { return v.v.(string) }
func (v Value) Document() *Document      { return v.v.(*Document) }
func (v Value) Array() *Array            { return v.v.(*Array) }
func (v Value) Binary() Binary           { return v.v.(Binary) }
func (v Value) ObjectID() ObjectID       { return v.v.(ObjectID) }
func (v Value) Boolean() bool            { return v.v.(bool) }
func (v Value) DateTime() int64          { return v.v.(int64) }
func (v Value) Regex() Regex             { return v.v.(Regex) }
func (v Value) JavaScript() string       { return v.v.(string) }
func (v Value) Symbol() string           { return v.v.(string) }
func (v Value) CodeWithScope() CodeWithScope {
	return v.v.(CodeWithScope)
}
func (v Value) Int32() int32             { return v.v.(int32) }
func (v Value) Timestamp() Timestamp     { return v.v.(Timestamp) }
func (v Value) Int64() int64             { return v.v.(int64) }
func (v Value) Decimal128() Decimal128   { return v.v.(Decimal128) }

// Time returns a datetime value as a UTC time.Time.
func (v Value) Time() time.Time { return TimeFromDateTime(v.DateTime()) }

// StringForm renders the value the way it would be spliced into quoted
// string or regex content: scalars in their natural textual form,
// datetimes as ISO-8601, structural values as Extended JSON.
func (v Value) StringForm() string {
	switch v.t {
	case TypeString:
		return v.StringValue()
	case TypeInt32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case TypeInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case TypeDouble:
		return formatDouble(v.Double())
	case TypeBoolean:
		return strconv.FormatBool(v.Boolean())
	case TypeNull:
		return "null"
	case TypeDateTime:
		return FormatDateTime(v.DateTime())
	case TypeObjectID:
		return v.ObjectID().Hex()
	case TypeSymbol:
		return v.Symbol()
	case TypeJavaScript:
		return v.JavaScript()
	case TypeDecimal128:
		return v.Decimal128().String()
	case TypeRegex:
		r := v.Regex()
		return "/" + r.Pattern + "/" + r.Options
	case TypeBinary:
		return base64.StdEncoding.EncodeToString(v.Binary().Data)
	case TypeUndefined:
		return "undefined"
	case TypeMinKey:
		return "MinKey"
	case TypeMaxKey:
		return "MaxKey"
	}

	return v.String()
}

func formatDouble(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.IsNaN(f):
		return "NaN"
	}

	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Equal reports whether two values hold the same type and contents.
// Documents and arrays compare element-wise in order.
func (v Value) Equal(other Value) bool {
	if v.t != other.t {
		return false
	}

	switch v.t {
	case TypeEmbeddedDocument:
		return v.Document().Equal(other.Document())
	case TypeArray:
		return v.Array().Equal(other.Array())
	case TypeBinary:
		b1, b2 := v.Binary(), other.Binary()
		if b1.Subtype != b2.Subtype || len(b1.Data) != len(b2.Data) {
			return false
		}
		for i := range b1.Data {
			if b1.Data[i] != b2.Data[i] {
				return false
			}
		}
		return true
	case TypeCodeWithScope:
		c1, c2 := v.CodeWithScope(), other.CodeWithScope()
		return c1.Code == c2.Code && c1.Scope.Equal(c2.Scope)
	default:
		return v.v == other.v
	}
}

// FromInterface converts a native Go value into a Value. Bound arguments
// pass through here before substitution. Slices become arrays, documents
// pass through unchanged, and time.Time becomes a datetime.
func FromInterface(arg interface{}) (Value, error) {
	switch t := arg.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case bool:
		return Boolean(t), nil
	case int:
		if t < math.MinInt32 || t > math.MaxInt32 {
			return Int64(int64(t)), nil
		}
		return Int32(int32(t)), nil
	case int8:
		return Int32(int32(t)), nil
	case int16:
		return Int32(int32(t)), nil
	case int32:
		return Int32(t), nil
	case int64:
		return Int64(t), nil
	case uint8:
		return Int32(int32(t)), nil
	case uint16:
		return Int32(int32(t)), nil
	case uint32:
		return Int64(int64(t)), nil
	case uint, uint64:
		u, ok := arg.(uint64)
		if !ok {
			u = uint64(arg.(uint))
		}
		if u > math.MaxInt64 {
			return Value{}, fmt.Errorf("%d overflows int64", u)
		}
		return Int64(int64(u)), nil
	case float32:
		return Double(float64(t)), nil
	case float64:
		return Double(t), nil
	case string:
		return String(t), nil
	case []byte:
		return BinaryValue(Binary{Data: t}), nil
	case time.Time:
		return DateTime(DateTimeFromTime(t)), nil
	case *Document:
		return DocumentValue(t), nil
	case *Array:
		return ArrayValue(t), nil
	case ObjectID:
		return ObjectIDValue(t), nil
	case Binary:
		return BinaryValue(t), nil
	case Regex:
		return RegexValue(t), nil
	case Timestamp:
		return TimestampValue(t), nil
	case Decimal128:
		return Decimal128Value(t), nil
	case JavaScript:
		return JavaScriptValue(string(t)), nil
	case Symbol:
		return SymbolValue(string(t)), nil
	case CodeWithScope:
		return CodeWithScopeValue(t), nil
	case []interface{}:
		arr := NewArray()
		for _, e := range t {
			ev, err := FromInterface(e)
			if err != nil {
				return Value{}, err
			}
			arr.Append(ev)
		}
		return ArrayValue(arr), nil
	case map[string]interface{}:
		doc, err := DocumentFromMap(t)
		if err != nil {
			return Value{}, err
		}
		return DocumentValue(doc), nil
	}

	return Value{}, fmt.Errorf("cannot convert %T into a BSON value", arg)
}

// Interface converts the value back to a native Go representation:
// documents to *Document, arrays to []interface{}, datetimes to
// time.Time, and scalars to their Go primitive.
func (v Value) Interface() interface{} {
	switch v.t {
	case TypeEmbeddedDocument:
		return v.Document()
	case TypeArray:
		out := make([]interface{}, 0, v.Array().Len())
		for _, e := range v.Array().Values() {
			out = append(out, e.Interface())
		}
		return out
	case TypeDateTime:
		return v.Time()
	case TypeNull, TypeUndefined, TypeMinKey, TypeMaxKey:
		return nil
	default:
		return v.v
	}
}

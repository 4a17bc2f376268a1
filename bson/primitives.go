// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bson

import (
	"encoding/hex"
	"fmt"
	"time"
)

// rfc3339Milli is the datetime layout used for Extended JSON $date strings
// and for the textual form of datetime values.
const rfc3339Milli = "2006-01-02T15:04:05.999Z07:00"

// rfc3339MilliPad is used when rendering datetimes; fractional seconds are
// always written with three digits.
const rfc3339MilliPad = "2006-01-02T15:04:05.000Z07:00"

// ObjectID is a 12-byte MongoDB object identifier.
type ObjectID [12]byte

// NilObjectID is the zero value for ObjectID.
var NilObjectID ObjectID

// ParseObjectID decodes a 24-character hex string into an ObjectID.
func ParseObjectID(s string) (ObjectID, error) {
	var oid ObjectID

	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 12 {
		return oid, fmt.Errorf("invalid $oid value string: %s", s)
	}

	copy(oid[:], b)
	return oid, nil
}

func (oid ObjectID) Hex() string {
	return hex.EncodeToString(oid[:])
}

func (oid ObjectID) String() string {
	return fmt.Sprintf("ObjectID(%q)", oid.Hex())
}

// Binary is a byte sequence with a BSON binary subtype.
type Binary struct {
	Subtype byte
	Data    []byte
}

// Regex is a regular expression pattern paired with its option characters.
// The pattern is stored as source text, not a compiled expression.
type Regex struct {
	Pattern string
	Options string
}

// regexOptions maps the option characters recognized in $options strings
// and regex-literal flags. The set matches the options MongoDB accepts.
var regexOptions = map[byte]bool{
	'i': true, // case insensitive
	'm': true, // multiline
	's': true, // dotall
	'x': true, // extended (ignore pattern whitespace)
	'l': true, // locale dependent
	'u': true, // unicode
}

// ValidateRegexOptions returns an error naming the first option character
// that is not a recognized regex option.
func ValidateRegexOptions(options string) error {
	for i := 0; i < len(options); i++ {
		if !regexOptions[options[i]] {
			return fmt.Errorf("unrecognized regex option %q in options string %q", string(options[i]), options)
		}
	}

	return nil
}

// Timestamp is a BSON timestamp: seconds since epoch plus an ordinal.
type Timestamp struct {
	T uint32
	I uint32
}

// Decimal128 holds the decimal string form of a $numberDecimal value. The
// value is kept as text; this package does not do decimal arithmetic.
type Decimal128 struct {
	s string
}

// ParseDecimal128 wraps the string form of a decimal value.
func ParseDecimal128(s string) Decimal128 {
	return Decimal128{s: s}
}

func (d Decimal128) String() string { return d.s }

// JavaScript is a BSON JavaScript code scalar without scope.
type JavaScript string

// Symbol is a BSON symbol scalar.
type Symbol string

// CodeWithScope is JavaScript code paired with a scope document.
type CodeWithScope struct {
	Code  string
	Scope *Document
}

// DateTimeFromTime converts t to epoch milliseconds.
func DateTimeFromTime(t time.Time) int64 {
	return t.Unix()*1000 + int64(t.Nanosecond()/1e6)
}

// TimeFromDateTime converts epoch milliseconds to a UTC time.Time.
func TimeFromDateTime(dt int64) time.Time {
	return time.Unix(dt/1000, dt%1000*1e6).UTC()
}

// FormatDateTime renders epoch milliseconds as an ISO-8601 string with
// millisecond precision in UTC.
func FormatDateTime(dt int64) string {
	return TimeFromDateTime(dt).Format(rfc3339MilliPad)
}

// ParseDateTime parses an ISO-8601 datetime string to epoch milliseconds.
func ParseDateTime(s string) (int64, error) {
	t, err := time.Parse(rfc3339Milli, s)
	if err != nil {
		return 0, fmt.Errorf("invalid $date value string: %s", s)
	}

	return DateTimeFromTime(t), nil
}

// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bson

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// documentComparer lets go-cmp diff documents through their Equal method.
var documentComparer = cmp.Comparer(func(a, b *Document) bool { return a.Equal(b) })

func TestDocumentAppendPreservesOrder(t *testing.T) {
	d := NewDocument()
	d.Append("z", Int32(1))
	d.Append("a", Int32(2))
	d.Append("m", Int32(3))

	assert.Equal(t, []string{"z", "a", "m"}, d.Keys())
}

func TestDocumentAppendAllowsDuplicateKeys(t *testing.T) {
	d := NewDocument()
	d.Append("a", Int32(1))
	d.Append("a", Int32(2))

	require.Equal(t, 2, d.Len())

	// Lookup finds the first occurrence
	v, err := d.Lookup("a")
	require.NoError(t, err)
	assert.Equal(t, int32(1), v.Int32())
}

func TestDocumentSet(t *testing.T) {
	d := D("a", 1, "b", 2)

	d.Set("a", Int32(10))
	d.Set("c", Int32(3))

	want := D("a", 10, "b", 2, "c", 3)
	if diff := cmp.Diff(want, d, documentComparer); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s\n%s", diff, spew.Sdump(d))
	}
}

func TestDocumentLookup(t *testing.T) {
	d := D("a", 1)

	v, err := d.Lookup("a")
	require.NoError(t, err)
	assert.Equal(t, int32(1), v.Int32())

	_, err = d.Lookup("missing")
	assert.Equal(t, ErrElementNotFound, err)

	v, ok := d.LookupOK("a")
	assert.True(t, ok)
	assert.Equal(t, int32(1), v.Int32())

	_, ok = d.LookupOK("missing")
	assert.False(t, ok)
}

func TestDocumentDelete(t *testing.T) {
	d := D("a", 1, "b", 2, "a", 3)

	assert.True(t, d.Delete("a"))
	assert.Equal(t, []string{"b", "a"}, d.Keys())
	assert.False(t, d.Delete("missing"))
}

func TestDocumentElementAt(t *testing.T) {
	d := D("a", 1, "b", 2)

	e, err := d.ElementAt(1)
	require.NoError(t, err)
	assert.Equal(t, "b", e.Key)

	_, err = d.ElementAt(2)
	assert.Equal(t, ErrOutOfBounds, err)

	_, err = d.ElementAt(-1)
	assert.Equal(t, ErrOutOfBounds, err)
}

func TestDocumentEqual(t *testing.T) {
	cases := []struct {
		name string
		a, b *Document
		want bool
	}{
		{"equal", D("a", 1), D("a", 1), true},
		{"different value", D("a", 1), D("a", 2), false},
		{"different key", D("a", 1), D("b", 1), false},
		{"different order", D("a", 1, "b", 2), D("b", 2, "a", 1), false},
		{"different length", D("a", 1), D("a", 1, "b", 2), false},
		{"nil vs empty", nil, NewDocument(), true},
		{"nil vs nil", nil, nil, true},
		{"nil vs populated", nil, D("a", 1), false},
		{"nested equal", D("a", D("b", 1)), D("a", D("b", 1)), true},
		{"nested different", D("a", D("b", 1)), D("a", D("b", 2)), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.a.Equal(tc.b))
		})
	}
}

func TestDocumentFromMapSortsKeys(t *testing.T) {
	d, err := DocumentFromMap(map[string]interface{}{
		"c": 3, "a": 1, "b": 2,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, d.Keys())
}

func TestDocumentReset(t *testing.T) {
	d := D("a", 1, "b", 2)
	d.Reset()

	assert.Equal(t, 0, d.Len())
	assert.True(t, d.Equal(NewDocument()))
}

func TestDHelperPanics(t *testing.T) {
	assert.Panics(t, func() { D("a") })
	assert.Panics(t, func() { D(1, "a") })
	assert.Panics(t, func() { D("a", struct{}{}) })
}

func TestArrayBasics(t *testing.T) {
	a := A(1, "two", true)

	require.Equal(t, 3, a.Len())

	v, err := a.Lookup(1)
	require.NoError(t, err)
	assert.Equal(t, "two", v.StringValue())

	_, err = a.Lookup(3)
	assert.Equal(t, ErrOutOfBounds, err)
}

func TestArrayEqual(t *testing.T) {
	assert.True(t, A(1, 2).Equal(A(1, 2)))
	assert.False(t, A(1, 2).Equal(A(2, 1)))
	assert.False(t, A(1).Equal(A(1, 2)))
	assert.True(t, (*Array)(nil).Equal(NewArray()))
}

// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package query

import (
	"reflect"
	"unicode"

	"github.com/jinzhu/inflection"
)

// CollectionNaming derives a collection name from an entity type name.
type CollectionNaming func(typeName string) string

// Uncapitalized lowercases the first rune of the type name, so
// PersonRecord maps to personRecord.
func Uncapitalized(typeName string) string {
	if typeName == "" {
		return typeName
	}

	r := []rune(typeName)
	r[0] = unicode.ToLower(r[0])

	return string(r)
}

// Pluralized lowercases the first rune and pluralizes the result, so
// Person maps to people.
func Pluralized(typeName string) string {
	return inflection.Plural(Uncapitalized(typeName))
}

// PreferredCollectionName returns the collection name for an entity
// value using the default naming (uncapitalized type name). Pointers
// are dereferenced to their element type.
func PreferredCollectionName(entity interface{}) string {
	return CollectionNameFor(entity, Uncapitalized)
}

// CollectionNameFor returns the collection name for an entity value
// using the given naming strategy.
func CollectionNameFor(entity interface{}, naming CollectionNaming) string {
	t := reflect.TypeOf(entity)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}

	return naming(t.Name())
}

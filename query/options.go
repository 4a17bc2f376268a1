// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package query

import (
	"time"

	"github.com/ikmak/mongojson/bson"
)

// AggregationOptions carries the options of an aggregate command.
// The zero value requests nothing; ToDocument renders only options that
// were explicitly set.
type AggregationOptions struct {
	allowDiskUse *bool
	explain      *bool
	batchSize    *int32
	maxTime      time.Duration
	comment      string
	hint         *bson.Document
}

// NewAggregationOptions creates an empty options set.
func NewAggregationOptions() *AggregationOptions {
	return &AggregationOptions{}
}

// AllowDiskUse permits aggregation stages to write to temporary files.
func (o *AggregationOptions) AllowDiskUse(v bool) *AggregationOptions {
	o.allowDiskUse = &v
	return o
}

// Explain requests the execution plan instead of results.
func (o *AggregationOptions) Explain(v bool) *AggregationOptions {
	o.explain = &v
	return o
}

// CursorBatchSize sets the initial cursor batch size.
func (o *AggregationOptions) CursorBatchSize(n int32) *AggregationOptions {
	o.batchSize = &n
	return o
}

// MaxTime limits server-side execution time.
func (o *AggregationOptions) MaxTime(d time.Duration) *AggregationOptions {
	o.maxTime = d
	return o
}

// Comment attaches a comment to the command for profiling output.
func (o *AggregationOptions) Comment(s string) *AggregationOptions {
	o.comment = s
	return o
}

// Hint names the index the server should use.
func (o *AggregationOptions) Hint(h *bson.Document) *AggregationOptions {
	o.hint = h
	return o
}

// ToDocument renders the set options as a command document fragment.
func (o *AggregationOptions) ToDocument() *bson.Document {
	doc := bson.NewDocument()

	if o.allowDiskUse != nil {
		doc.Append("allowDiskUse", bson.Boolean(*o.allowDiskUse))
	}
	if o.explain != nil {
		doc.Append("explain", bson.Boolean(*o.explain))
	}
	if o.batchSize != nil {
		doc.Append("cursor", bson.DocumentValue(bson.NewDocument(
			bson.Element{Key: "batchSize", Value: bson.Int32(*o.batchSize)},
		)))
	} else {
		doc.Append("cursor", bson.DocumentValue(bson.NewDocument()))
	}
	if o.maxTime > 0 {
		doc.Append("maxTimeMS", bson.Int64(o.maxTime.Milliseconds()))
	}
	if o.comment != "" {
		doc.Append("comment", bson.String(o.comment))
	}
	if o.hint != nil {
		doc.Append("hint", bson.DocumentValue(o.hint))
	}

	return doc
}

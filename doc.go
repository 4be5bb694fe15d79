// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package javabin is a high-performance, streaming decoder for the javabin
// binary format used by Apache Solr.  It converts a javabin value to JSON
// text (or BSON) directly from a buffered input byte stream, without building
// an intermediate object tree: each value is handed to a Sink the moment its
// bytes have been read.
//
// Wire format
//
// A javabin value is a version byte (always 2) followed by a tagged value.
// The top three bits of a tag select a family (string, small int, small
// long, array, ordered map, named list, extern string) with a size or value
// in the low five bits; family zero holds fixed single-byte tags for
// scalars, maps, documents, iterators and the END marker.  Decode only
// accepts a container at the top level.
//
// Extern strings let an encoder send a repeated string once and refer back
// to it by index.  The table lives for exactly one Decode call.
//
// JSON output
//
// JSONWriter separates keys from values with " : " and elements with " , ",
// and ends every top-level object with a newline.  Strings are quoted but not
// escaped, and floating point NaN and infinities are written as NaN,
// Infinity and -Infinity, so output is only strict JSON when the source data
// allows it.  Document list metadata (result count, start, max score) is
// skipped.
//
// Limitations
//
// Input is trusted.  UTF-8 is not validated, a corrupt stream is not
// resynchronized, and nesting depth is only limited if MaxDepth is set.
// A Decoder is not safe for concurrent use; use one per goroutine.
package javabin

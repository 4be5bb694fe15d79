// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package javabin

import (
	"bytes"
	"errors"
	"strconv"

	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// ErrBSONTopLevel is returned by BSONWriter when the top-level value is not
// an object.
var ErrBSONTopLevel = errors.New("javabin: BSON output requires an object at the top level")

// ErrBSONKey is returned by BSONWriter for a key that contains a NUL byte,
// which a BSON element name cannot hold.
var ErrBSONKey = errors.New("javabin: BSON keys cannot contain NUL bytes")

// Precomputed keys for the leading array elements.
var arrayKey [100]string

func init() {
	for i := range arrayKey {
		arrayKey[i] = strconv.Itoa(i)
	}
}

type bsonFrame struct {
	start int32
	array bool
	n     int
}

// BSONWriter is a Sink that appends each decoded top-level object to a
// buffer as a BSON document.  Array elements get the keys "0", "1", ...; a
// null key becomes "null".  Float32 values widen to BSON doubles and dates
// become BSON UTC datetimes.
type BSONWriter struct {
	buf   []byte
	stack []bsonFrame
	key   []byte
}

// NewBSONWriter returns a BSONWriter appending to buf.
func NewBSONWriter(buf []byte) *BSONWriter {
	return &BSONWriter{buf: buf, stack: make([]bsonFrame, 0, 16)}
}

// Bytes returns the buffer with all completed documents appended.
func (w *BSONWriter) Bytes() []byte {
	return w.buf
}

// Reset clears partial state and starts appending to buf.  It must be called
// before reusing w after a failed Decode; the unfinished document is dropped
// with the old buffer contents.
func (w *BSONWriter) Reset(buf []byte) {
	w.buf = buf
	w.stack = w.stack[:0]
	w.key = w.key[:0]
}

// elementKey returns the key for the next element of the innermost container.
func (w *BSONWriter) elementKey() (string, error) {
	if len(w.stack) == 0 {
		return "", ErrBSONTopLevel
	}
	f := &w.stack[len(w.stack)-1]
	if !f.array {
		return string(w.key), nil
	}
	i := f.n
	f.n++
	if i < len(arrayKey) {
		return arrayKey[i], nil
	}
	return strconv.Itoa(i), nil
}

func (w *BSONWriter) BeginObject() error {
	var idx int32
	if len(w.stack) == 0 {
		idx, w.buf = bsoncore.AppendDocumentStart(w.buf)
	} else {
		key, err := w.elementKey()
		if err != nil {
			return err
		}
		idx, w.buf = bsoncore.AppendDocumentElementStart(w.buf, key)
	}
	w.stack = append(w.stack, bsonFrame{start: idx})
	return nil
}

func (w *BSONWriter) EndObject() error {
	f := w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]
	var err error
	w.buf, err = bsoncore.AppendDocumentEnd(w.buf, f.start)
	return err
}

func (w *BSONWriter) BeginArray() error {
	key, err := w.elementKey()
	if err != nil {
		return err
	}
	var idx int32
	idx, w.buf = bsoncore.AppendArrayElementStart(w.buf, key)
	w.stack = append(w.stack, bsonFrame{start: idx, array: true})
	return nil
}

func (w *BSONWriter) EndArray() error {
	f := w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]
	var err error
	w.buf, err = bsoncore.AppendArrayEnd(w.buf, f.start)
	return err
}

func (w *BSONWriter) Key(b []byte) error {
	if bytes.IndexByte(b, 0) >= 0 {
		return ErrBSONKey
	}
	w.key = append(w.key[:0], b...)
	return nil
}

func (w *BSONWriter) NullKey() error {
	w.key = append(w.key[:0], "null"...)
	return nil
}

func (w *BSONWriter) String(b []byte) error {
	key, err := w.elementKey()
	if err != nil {
		return err
	}
	w.buf = bsoncore.AppendStringElement(w.buf, key, string(b))
	return nil
}

func (w *BSONWriter) Null() error {
	key, err := w.elementKey()
	if err != nil {
		return err
	}
	w.buf = bsoncore.AppendNullElement(w.buf, key)
	return nil
}

func (w *BSONWriter) Bool(v bool) error {
	key, err := w.elementKey()
	if err != nil {
		return err
	}
	w.buf = bsoncore.AppendBooleanElement(w.buf, key, v)
	return nil
}

func (w *BSONWriter) Int32(v int32) error {
	key, err := w.elementKey()
	if err != nil {
		return err
	}
	w.buf = bsoncore.AppendInt32Element(w.buf, key, v)
	return nil
}

func (w *BSONWriter) Int64(v int64) error {
	key, err := w.elementKey()
	if err != nil {
		return err
	}
	w.buf = bsoncore.AppendInt64Element(w.buf, key, v)
	return nil
}

func (w *BSONWriter) Float32(v float32) error {
	return w.Float64(float64(v))
}

func (w *BSONWriter) Float64(v float64) error {
	key, err := w.elementKey()
	if err != nil {
		return err
	}
	w.buf = bsoncore.AppendDoubleElement(w.buf, key, v)
	return nil
}

func (w *BSONWriter) Date(millis int64) error {
	key, err := w.elementKey()
	if err != nil {
		return err
	}
	w.buf = bsoncore.AppendDateTimeElement(w.buf, key, millis)
	return nil
}

// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package javabin

import (
	"bytes"
	"fmt"
	"io"
	"math"
)

// maxReadChunk bounds how far the read scratch grows ahead of bytes actually
// received, so a bogus string length fails as truncated input instead of
// forcing one huge allocation.
const maxReadChunk = 1 << 20

// Decoder reads javabin values from a buffered input stream and hands them to
// a Sink as they are decoded.  A Decoder is not safe for concurrent use.
type Decoder struct {
	r        *byteReader
	strs     externStrings
	scratch  []byte
	sink     Sink
	jw       *JSONWriter
	curDepth int
	maxDepth int
}

// NewDecoder returns a decoder reading from r through a buffer of
// DefaultBufferSize bytes.
func NewDecoder(r io.Reader) *Decoder {
	return NewDecoderSize(r, DefaultBufferSize)
}

// NewDecoderSize is NewDecoder with a buffer of the given size.  Sizes below
// 16 bytes are raised to 16.
func NewDecoderSize(r io.Reader, size int) *Decoder {
	return &Decoder{
		r:       newByteReader(r, size),
		scratch: make([]byte, 0, 1024),
	}
}

// MaxDepth limits container nesting.  The default, 0, means no limit beyond
// the call stack.
func (d *Decoder) MaxDepth(n int) {
	d.maxDepth = n
}

// Reset discards all buffered input and state and reads from r instead.  The
// buffer and scratch space are kept.
func (d *Decoder) Reset(r io.Reader) {
	d.r.reset(r)
	d.strs.reset()
	d.curDepth = 0
}

// Decode reads one javabin value, a version byte followed by a top-level
// container, and emits it to s.  It returns io.EOF if the input ends before
// the version byte.  Successive calls decode successive values; the extern
// string table never carries over from one call to the next.
//
// On error s may be left inside an unfinished value.  Decode does not clean
// it up, so a sink that is used again must be reset first.
func (d *Decoder) Decode(s Sink) error {
	d.strs.reset()
	d.curDepth = 0
	d.sink = s
	defer func() { d.sink = nil }()

	version, err := d.r.readByte()
	if err != nil {
		// Before a value is started, EOF is valid.
		if err == io.EOF {
			return err
		}
		return d.readError(err)
	}
	if version != protocolVersion {
		return &DecodeError{
			Kind:   ProtocolVersionMismatch,
			Offset: d.r.offset(),
			Msg:    fmt.Sprintf("expected version %d, got %d; input may not be javabin", protocolVersion, version),
		}
	}

	t, err := d.readTag()
	if err != nil {
		return err
	}
	if !t.isContainer() {
		return d.tagError(MalformedTag, t, "top-level value must be a container")
	}
	return d.convertValue(t)
}

// DecodeJSON decodes one value as JSON text written to w.
func (d *Decoder) DecodeJSON(w io.Writer) error {
	if d.jw == nil {
		d.jw = NewJSONWriter(w)
	} else {
		d.jw.Reset(w)
	}
	return d.Decode(d.jw)
}

func (d *Decoder) convertValue(t tag) error {
	switch t.family() {
	case familyStr:
		b, err := d.readStr(t)
		if err != nil {
			return err
		}
		return d.emit(d.sink.String(b))
	case familySInt:
		v, ext := t.smallValue()
		n := uint32(v)
		if ext {
			x, err := d.r.readVInt()
			if err != nil {
				return d.readError(err)
			}
			n |= x << 4
		}
		return d.emit(d.sink.Int32(int32(n)))
	case familySLong:
		v, ext := t.smallValue()
		n := uint64(v)
		if ext {
			x, err := d.r.readVLong()
			if err != nil {
				return d.readError(err)
			}
			n |= x << 4
		}
		return d.emit(d.sink.Int64(int64(n)))
	case familyArr:
		size, err := d.readSize(t)
		if err != nil {
			return err
		}
		return d.convertArray(size)
	case familyOrderedMap, familyNamedList:
		size, err := d.readSize(t)
		if err != nil {
			return err
		}
		return d.convertObject(size)
	case familyExtern:
		b, err := d.readExternString(t)
		if err != nil {
			return err
		}
		return d.emit(d.sink.String(b))
	}

	switch t {
	case tagNull:
		return d.emit(d.sink.Null())
	case tagBoolTrue:
		return d.emit(d.sink.Bool(true))
	case tagBoolFalse:
		return d.emit(d.sink.Bool(false))
	case tagByte:
		b, err := d.r.readByte()
		if err != nil {
			return d.readError(err)
		}
		return d.emit(d.sink.Int32(int32(int8(b))))
	case tagShort:
		v, err := d.r.readShort()
		if err != nil {
			return d.readError(err)
		}
		return d.emit(d.sink.Int32(int32(v)))
	case tagInt:
		v, err := d.r.readInt()
		if err != nil {
			return d.readError(err)
		}
		return d.emit(d.sink.Int32(v))
	case tagLong:
		v, err := d.r.readLong()
		if err != nil {
			return d.readError(err)
		}
		return d.emit(d.sink.Int64(v))
	case tagFloat:
		v, err := d.r.readFloat()
		if err != nil {
			return d.readError(err)
		}
		return d.emit(d.sink.Float32(v))
	case tagDouble:
		v, err := d.r.readDouble()
		if err != nil {
			return d.readError(err)
		}
		return d.emit(d.sink.Float64(v))
	case tagDate:
		v, err := d.r.readLong()
		if err != nil {
			return d.readError(err)
		}
		return d.emit(d.sink.Date(v))
	case tagMap:
		n, err := d.r.readVInt()
		if err != nil {
			return d.readError(err)
		}
		if n > math.MaxInt32 {
			return d.tagError(MalformedTag, t, "size out of range")
		}
		return d.convertObject(int(n))
	case tagSolrDoc:
		return d.convertSolrDoc()
	case tagSolrDocList:
		return d.convertSolrDocList()
	case tagIterator:
		return d.convertArray(-1)
	case tagMapEntryIter:
		return d.convertObject(-1)
	case tagEnd:
		return d.tagError(MalformedTag, t, "END outside an open-ended container")
	}

	return d.tagError(MalformedTag, t, "unsupported tag")
}

// convertArray emits size elements, or elements up to END if size is -1.
func (d *Decoder) convertArray(size int) error {
	err := d.enter()
	if err != nil {
		return err
	}
	defer func() { d.curDepth-- }()

	err = d.emit(d.sink.BeginArray())
	if err != nil {
		return err
	}
	for i := 0; size < 0 || i < size; i++ {
		t, err := d.readTag()
		if err != nil {
			return err
		}
		if t == tagEnd && size < 0 {
			break
		}
		err = d.convertValue(t)
		if err != nil {
			return err
		}
	}
	return d.emit(d.sink.EndArray())
}

// convertObject emits size key/value pairs, or pairs up to END if size is -1.
func (d *Decoder) convertObject(size int) error {
	err := d.enter()
	if err != nil {
		return err
	}
	defer func() { d.curDepth-- }()

	err = d.emit(d.sink.BeginObject())
	if err != nil {
		return err
	}
	for i := 0; size < 0 || i < size; i++ {
		end, err := d.convertKey(size < 0)
		if err != nil {
			return err
		}
		if end {
			break
		}
		t, err := d.readTag()
		if err != nil {
			return err
		}
		err = d.convertValue(t)
		if err != nil {
			return err
		}
	}
	return d.emit(d.sink.EndObject())
}

// convertKey emits an object key.  It reports end when an open-ended object
// is terminated instead.
func (d *Decoder) convertKey(openEnded bool) (end bool, err error) {
	t, err := d.readTag()
	if err != nil {
		return false, err
	}
	switch t.family() {
	case familyStr:
		b, err := d.readStr(t)
		if err != nil {
			return false, err
		}
		return false, d.emit(d.sink.Key(b))
	case familyExtern:
		b, err := d.readExternString(t)
		if err != nil {
			return false, err
		}
		return false, d.emit(d.sink.Key(b))
	case familyNone:
		switch t {
		case tagNull:
			return false, d.emit(d.sink.NullKey())
		case tagEnd:
			if openEnded {
				return true, nil
			}
		}
	}
	return false, d.tagError(InvalidKeyType, t, "object keys must be strings or null")
}

// convertSolrDoc reads the body tag that follows SOLRDOC; its inline size is
// the field count.
func (d *Decoder) convertSolrDoc() error {
	t, err := d.readTag()
	if err != nil {
		return err
	}
	size, err := d.readSize(t)
	if err != nil {
		return err
	}
	return d.convertObject(size)
}

// convertSolrDocList skips the list bookkeeping values (result count, start
// offset, max score) and emits the document body that follows them.
func (d *Decoder) convertSolrDocList() error {
	t, err := d.readTag()
	if err != nil {
		return err
	}
	n, err := d.readSize(t)
	if err != nil {
		return err
	}

	sink := d.sink
	d.sink = discardSink{}
	for i := 0; i < n; i++ {
		t, err = d.readTag()
		if err == nil {
			err = d.convertValue(t)
		}
		if err != nil {
			d.sink = sink
			return err
		}
	}
	d.sink = sink

	return d.convertSolrDoc()
}

// readExternString resolves an EXTERN_STRING.  Index 0 introduces a new
// string which is added to the table; any other index replays an entry.
func (d *Decoder) readExternString(t tag) ([]byte, error) {
	idx, err := d.readSize(t)
	if err != nil {
		return nil, err
	}
	if idx != 0 {
		b, ok := d.strs.get(idx)
		if !ok {
			return nil, d.tagError(ExternStringIndexOutOfRange, t,
				fmt.Sprintf("index %d, table holds %d", idx, d.strs.len()))
		}
		return b, nil
	}

	st, err := d.readTag()
	if err != nil {
		return nil, err
	}
	if st.family() != familyStr {
		return nil, d.tagError(MalformedTag, st, "expecting string after new extern string marker")
	}
	b, err := d.readStr(st)
	if err != nil {
		return nil, err
	}
	d.strs.add(b)
	return b, nil
}

// readStr reads the UTF-8 payload of a STR tag into the shared scratch.
func (d *Decoder) readStr(t tag) ([]byte, error) {
	n, err := d.readSize(t)
	if err != nil {
		return nil, err
	}
	return d.readBytes(n)
}

// readBytes reads exactly n bytes into the scratch buffer, which only grows.
func (d *Decoder) readBytes(n int) ([]byte, error) {
	buf := d.scratch[:0]
	for len(buf) < n {
		chunk := n - len(buf)
		if chunk > maxReadChunk {
			chunk = maxReadChunk
		}
		if cap(buf)-len(buf) < chunk {
			newCap := 2 * cap(buf)
			if newCap < len(buf)+chunk {
				newCap = len(buf) + chunk
			}
			grown := make([]byte, len(buf), newCap)
			copy(grown, buf)
			buf = grown
			d.scratch = grown[:0]
		}
		err := d.r.readFull(buf[len(buf) : len(buf)+chunk])
		if err != nil {
			return nil, d.readError(err)
		}
		buf = buf[:len(buf)+chunk]
	}
	return buf, nil
}

// readSize returns the inline size of t, extended by a varint when the five
// size bits are all set.  Sizes must fit in an int32 so that they stay
// positive on every platform.
func (d *Decoder) readSize(t tag) (int, error) {
	n := t.inlineSize()
	if n == sizeMask {
		v, err := d.r.readVInt()
		if err != nil {
			return 0, d.readError(err)
		}
		if int64(v) > math.MaxInt32-sizeMask {
			return 0, d.tagError(MalformedTag, t, "size out of range")
		}
		n += int(v)
	}
	return n, nil
}

func (d *Decoder) readTag() (tag, error) {
	b, err := d.r.readByte()
	if err != nil {
		return 0, d.readError(err)
	}
	return tag(b), nil
}

func (d *Decoder) enter() error {
	d.curDepth++
	if d.maxDepth > 0 && d.curDepth > d.maxDepth {
		d.curDepth--
		return &DecodeError{
			Kind:   DepthExceeded,
			Offset: d.r.offset(),
			Msg:    fmt.Sprintf("limit is %d", d.maxDepth),
		}
	}
	return nil
}

// emit wraps a sink error.
func (d *Decoder) emit(err error) error {
	if err == nil {
		return nil
	}
	return &DecodeError{Kind: SinkFailure, Offset: d.r.offset(), Err: err}
}

func (d *Decoder) tagError(kind ErrorKind, t tag, msg string) error {
	return &DecodeError{
		Kind:   kind,
		Offset: d.r.offset(),
		Tag:    byte(t),
		HasTag: true,
		Msg:    msg,
	}
}

// readError is used when we expect to be able to read and fail.  Inside a
// value EOF is always unexpected.  Any other error comes from the source
// itself and is kept as is.
func (d *Decoder) readError(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return &DecodeError{
			Kind:   TruncatedInput,
			Offset: d.r.offset(),
			Err:    io.ErrUnexpectedEOF,
		}
	}
	return &DecodeError{Kind: ReadFailure, Offset: d.r.offset(), Err: err}
}

// ToJSON converts a single javabin value to JSON text appended to out.  The
// final buffer is returned, just like with `append`.  The function returns
// io.EOF if the input is empty.
func ToJSON(in []byte, out []byte) ([]byte, error) {
	buf := bytes.NewBuffer(out)
	err := NewDecoder(bytes.NewReader(in)).DecodeJSON(buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ToBSON converts a single javabin value, which must be an object at the top
// level, to a BSON document appended to out.  It otherwise works like ToJSON.
func ToBSON(in []byte, out []byte) ([]byte, error) {
	w := NewBSONWriter(out)
	err := NewDecoder(bytes.NewReader(in)).Decode(w)
	if err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

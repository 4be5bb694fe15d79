// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package javabin

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
)

// DefaultBufferSize is the cursor capacity used by NewDecoder.
const DefaultBufferSize = 8192

// minBufferSize leaves room to peek the widest fixed-size value.
const minBufferSize = 16

// byteReader is the buffered cursor under the decoder.  Reads are served
// from a fixed, reused buffer that is refilled only when exhausted.  Copies
// at least as long as the buffer go straight to the source, which is what
// bufio.Reader.Read does when its buffer is empty.
type byteReader struct {
	br  *bufio.Reader
	off int64
}

func newByteReader(r io.Reader, size int) *byteReader {
	if size < minBufferSize {
		size = minBufferSize
	}
	return &byteReader{br: bufio.NewReaderSize(r, size)}
}

func (r *byteReader) reset(src io.Reader) {
	r.br.Reset(src)
	r.off = 0
}

// offset returns the number of bytes consumed since the last reset.
func (r *byteReader) offset() int64 { return r.off }

func (r *byteReader) readByte() (byte, error) {
	b, err := r.br.ReadByte()
	if err != nil {
		return 0, err
	}
	r.off++
	return b, nil
}

// peekN returns the next n bytes, refilling as needed.  Any shortfall is
// reported as io.ErrUnexpectedEOF.
func (r *byteReader) peekN(n int) ([]byte, error) {
	buf, err := r.br.Peek(n)
	if len(buf) < n {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return buf, nil
}

func (r *byteReader) discard(n int) {
	// Only called after a successful peekN of at least n bytes.
	_, _ = r.br.Discard(n)
	r.off += int64(n)
}

func (r *byteReader) readShort() (int16, error) {
	buf, err := r.peekN(2)
	if err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(buf)
	r.discard(2)
	return int16(v), nil
}

func (r *byteReader) readInt() (int32, error) {
	buf, err := r.peekN(4)
	if err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(buf)
	r.discard(4)
	return int32(v), nil
}

func (r *byteReader) readLong() (int64, error) {
	buf, err := r.peekN(8)
	if err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(buf)
	r.discard(8)
	return int64(v), nil
}

func (r *byteReader) readFloat() (float32, error) {
	v, err := r.readInt()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(uint32(v)), nil
}

func (r *byteReader) readDouble() (float64, error) {
	v, err := r.readLong()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(uint64(v)), nil
}

// readFull fills dst exactly.  Buffered bytes are copied first; once the
// buffer is drained, reads of at least the buffer size bypass it.
func (r *byteReader) readFull(dst []byte) error {
	n, err := io.ReadFull(r.br, dst)
	r.off += int64(n)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

// readVInt decodes a base-128 little-endian varint into 32 bits.  Bits past
// the target width are dropped.
func (r *byteReader) readVInt() (uint32, error) {
	b, err := r.readByte()
	if err != nil {
		return 0, eofToUnexpected(err)
	}
	v := uint32(b & 0x7f)
	for shift := uint(7); b&0x80 != 0; shift += 7 {
		b, err = r.readByte()
		if err != nil {
			return 0, eofToUnexpected(err)
		}
		v |= uint32(b&0x7f) << shift
	}
	return v, nil
}

// readVLong is readVInt for 64 bits.
func (r *byteReader) readVLong() (uint64, error) {
	b, err := r.readByte()
	if err != nil {
		return 0, eofToUnexpected(err)
	}
	v := uint64(b & 0x7f)
	for shift := uint(7); b&0x80 != 0; shift += 7 {
		b, err = r.readByte()
		if err != nil {
			return 0, eofToUnexpected(err)
		}
		v |= uint64(b&0x7f) << shift
	}
	return v, nil
}

func eofToUnexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

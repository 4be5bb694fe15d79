package javabin

import (
	"encoding/binary"
	"io"
	"math"
	"strconv"
)

var (
	nameSeparator  = []byte(" : ")
	valueSeparator = []byte(" , ")
	quote          = []byte{'"'}
	objectStart    = []byte{'{'}
	objectEnd      = []byte{'}'}
	arrayStart     = []byte{'['}
	arrayEnd       = []byte{']'}
	newline        = []byte{'\n'}
	nullText       = []byte("null")
	trueText       = []byte("true")
	falseText      = []byte("false")
)

type jsonFrame struct {
	object bool
	n      int
}

// JSONWriter is a Sink that writes JSON text to an io.Writer as values
// arrive.  Key/value pairs are separated by " : " and elements by " , ".
// Every completed top-level object is followed by a newline.
//
// Strings are quoted but not escaped: quotes, backslashes and control
// characters inside source strings are written through verbatim.
//
// Nothing is queued between decoding and writing, so a slow writer slows the
// decoder.  Callers wanting fewer write calls should wrap w in a
// bufio.Writer.
type JSONWriter struct {
	w        io.Writer
	stack    []jsonFrame
	afterKey bool
	num      [32]byte

	// UTF-16 output, when order is set.  units and wide only grow.
	order binary.ByteOrder
	units []uint16
	wide  []byte
}

// NewJSONWriter returns a JSONWriter writing UTF-8 text to w.
func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{w: w, stack: make([]jsonFrame, 0, 16)}
}

// UTF16 switches output to UTF-16 code units in the given byte order.  A nil
// order switches back to UTF-8.  No byte-order mark is written.
func (w *JSONWriter) UTF16(order binary.ByteOrder) {
	w.order = order
}

// Reset clears any partial state and directs output to out.  It must be
// called before reusing w after a failed Decode.
func (w *JSONWriter) Reset(out io.Writer) {
	w.w = out
	w.stack = w.stack[:0]
	w.afterKey = false
}

func (w *JSONWriter) BeginObject() error {
	err := w.beforeValue()
	if err != nil {
		return err
	}
	w.stack = append(w.stack, jsonFrame{object: true})
	return w.write(objectStart)
}

func (w *JSONWriter) EndObject() error {
	w.stack = w.stack[:len(w.stack)-1]
	err := w.write(objectEnd)
	if err != nil {
		return err
	}
	if len(w.stack) == 0 {
		return w.write(newline)
	}
	return nil
}

func (w *JSONWriter) BeginArray() error {
	err := w.beforeValue()
	if err != nil {
		return err
	}
	w.stack = append(w.stack, jsonFrame{})
	return w.write(arrayStart)
}

func (w *JSONWriter) EndArray() error {
	w.stack = w.stack[:len(w.stack)-1]
	return w.write(arrayEnd)
}

func (w *JSONWriter) Key(b []byte) error {
	err := w.separate()
	if err != nil {
		return err
	}
	err = w.writeQuoted(b)
	if err != nil {
		return err
	}
	w.afterKey = true
	return w.write(nameSeparator)
}

func (w *JSONWriter) NullKey() error {
	err := w.separate()
	if err != nil {
		return err
	}
	err = w.write(nullText)
	if err != nil {
		return err
	}
	w.afterKey = true
	return w.write(nameSeparator)
}

func (w *JSONWriter) String(b []byte) error {
	err := w.beforeValue()
	if err != nil {
		return err
	}
	return w.writeQuoted(b)
}

func (w *JSONWriter) Null() error {
	return w.literal(nullText)
}

func (w *JSONWriter) Bool(v bool) error {
	if v {
		return w.literal(trueText)
	}
	return w.literal(falseText)
}

func (w *JSONWriter) Int32(v int32) error {
	return w.literal(strconv.AppendInt(w.num[:0], int64(v), 10))
}

func (w *JSONWriter) Int64(v int64) error {
	return w.literal(strconv.AppendInt(w.num[:0], v, 10))
}

func (w *JSONWriter) Float32(v float32) error {
	return w.literal(appendFloat(w.num[:0], float64(v), 32))
}

func (w *JSONWriter) Float64(v float64) error {
	return w.literal(appendFloat(w.num[:0], v, 64))
}

// Date writes the raw millisecond count.
func (w *JSONWriter) Date(millis int64) error {
	return w.literal(strconv.AppendInt(w.num[:0], millis, 10))
}

func (w *JSONWriter) literal(b []byte) error {
	err := w.beforeValue()
	if err != nil {
		return err
	}
	return w.write(b)
}

// beforeValue writes the element separator when needed.  A value directly
// after a key needs none.
func (w *JSONWriter) beforeValue() error {
	if w.afterKey {
		w.afterKey = false
		return nil
	}
	return w.separate()
}

// separate counts an element of the innermost container, writing a
// separator before every element but the first.
func (w *JSONWriter) separate() error {
	if len(w.stack) == 0 {
		return nil
	}
	f := &w.stack[len(w.stack)-1]
	f.n++
	if f.n > 1 {
		return w.write(valueSeparator)
	}
	return nil
}

func (w *JSONWriter) writeQuoted(b []byte) error {
	err := w.write(quote)
	if err != nil {
		return err
	}
	err = w.write(b)
	if err != nil {
		return err
	}
	return w.write(quote)
}

func (w *JSONWriter) write(b []byte) error {
	if w.order == nil {
		_, err := w.w.Write(b)
		return err
	}
	w.units = UTF8ToUTF16(w.units[:0], b)
	if cap(w.wide) < 2*len(w.units) {
		w.wide = make([]byte, 2*len(w.units))
	}
	wide := w.wide[:2*len(w.units)]
	for i, u := range w.units {
		w.order.PutUint16(wide[2*i:], u)
	}
	_, err := w.w.Write(wide)
	return err
}

// appendFloat formats like ES6 number-to-string, using the shortest text
// that round-trips at the given bit size.  Non-finite values use the
// spelling of the Java writers javabin comes from.
func appendFloat(dst []byte, f float64, bits int) []byte {
	switch {
	case math.IsNaN(f):
		return append(dst, "NaN"...)
	case math.IsInf(f, 1):
		return append(dst, "Infinity"...)
	case math.IsInf(f, -1):
		return append(dst, "-Infinity"...)
	}

	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 {
		if bits == 64 && (abs < 1e-6 || abs >= 1e21) ||
			bits == 32 && (float32(abs) < 1e-6 || float32(abs) >= 1e21) {
			format = 'e'
		}
	}
	dst = strconv.AppendFloat(dst, f, format, -1, bits)
	if format == 'e' {
		// Clean up e-09 to e-9.
		n := len(dst)
		if n >= 4 && dst[n-4] == 'e' && dst[n-3] == '-' && dst[n-2] == '0' {
			dst[n-2] = dst[n-1]
			dst = dst[:n-1]
		}
	}
	return dst
}

package javabin

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// encoder writes javabin for tests.  Methods chain; the version byte is
// written by newEncoder.
type encoder struct {
	buf []byte
}

func newEncoder() *encoder {
	return &encoder{buf: []byte{protocolVersion}}
}

// bare returns an encoder without a version byte.
func bare() *encoder {
	return &encoder{}
}

func (e *encoder) bytes() []byte { return e.buf }

func (e *encoder) raw(b ...byte) *encoder {
	e.buf = append(e.buf, b...)
	return e
}

func (e *encoder) vint(v uint64) *encoder {
	for v >= 0x80 {
		e.buf = append(e.buf, byte(v)|0x80)
		v >>= 7
	}
	e.buf = append(e.buf, byte(v))
	return e
}

func familyTag(f family) byte { return byte(f) << 5 }

// sized writes a family tag with n in the low five bits, escaping to a varint
// from 31 up.
func (e *encoder) sized(f family, n int) *encoder {
	if n < sizeMask {
		return e.raw(familyTag(f) | byte(n))
	}
	e.raw(familyTag(f) | sizeMask)
	return e.vint(uint64(n - sizeMask))
}

func (e *encoder) str(s string) *encoder {
	e.sized(familyStr, len(s))
	e.buf = append(e.buf, s...)
	return e
}

// externNew writes a string that joins the extern table.
func (e *encoder) externNew(s string) *encoder {
	return e.sized(familyExtern, 0).str(s)
}

func (e *encoder) externRef(idx int) *encoder {
	return e.sized(familyExtern, idx)
}

// sint writes the SINT form, extended whenever v does not fit in four bits.
func (e *encoder) sint(v int32) *encoder {
	u := uint32(v)
	if u < 0x10 {
		return e.raw(familyTag(familySInt) | byte(u))
	}
	e.raw(familyTag(familySInt) | smallExtend | byte(u&smallMask))
	return e.vint(uint64(u >> 4))
}

func (e *encoder) slong(v int64) *encoder {
	u := uint64(v)
	if u < 0x10 {
		return e.raw(familyTag(familySLong) | byte(u))
	}
	e.raw(familyTag(familySLong) | smallExtend | byte(u&smallMask))
	return e.vint(u >> 4)
}

func (e *encoder) null() *encoder { return e.raw(byte(tagNull)) }

func (e *encoder) boolean(v bool) *encoder {
	if v {
		return e.raw(byte(tagBoolTrue))
	}
	return e.raw(byte(tagBoolFalse))
}

func (e *encoder) int8(v int8) *encoder { return e.raw(byte(tagByte), byte(v)) }

func (e *encoder) short(v int16) *encoder {
	e.raw(byte(tagShort))
	e.buf = binary.BigEndian.AppendUint16(e.buf, uint16(v))
	return e
}

func (e *encoder) int32(v int32) *encoder {
	e.raw(byte(tagInt))
	e.buf = binary.BigEndian.AppendUint32(e.buf, uint32(v))
	return e
}

func (e *encoder) long(v int64) *encoder {
	e.raw(byte(tagLong))
	e.buf = binary.BigEndian.AppendUint64(e.buf, uint64(v))
	return e
}

func (e *encoder) float(v float32) *encoder {
	e.raw(byte(tagFloat))
	e.buf = binary.BigEndian.AppendUint32(e.buf, math.Float32bits(v))
	return e
}

func (e *encoder) double(v float64) *encoder {
	e.raw(byte(tagDouble))
	e.buf = binary.BigEndian.AppendUint64(e.buf, math.Float64bits(v))
	return e
}

func (e *encoder) date(millis int64) *encoder {
	e.raw(byte(tagDate))
	e.buf = binary.BigEndian.AppendUint64(e.buf, uint64(millis))
	return e
}

func (e *encoder) arr(n int) *encoder        { return e.sized(familyArr, n) }
func (e *encoder) orderedMap(n int) *encoder { return e.sized(familyOrderedMap, n) }
func (e *encoder) namedList(n int) *encoder  { return e.sized(familyNamedList, n) }
func (e *encoder) iterator() *encoder        { return e.raw(byte(tagIterator)) }
func (e *encoder) mapEntryIter() *encoder    { return e.raw(byte(tagMapEntryIter)) }
func (e *encoder) end() *encoder             { return e.raw(byte(tagEnd)) }

func (e *encoder) mapTag(n int) *encoder {
	return e.raw(byte(tagMap)).vint(uint64(n))
}

// solrDoc starts a document with n fields.
func (e *encoder) solrDoc(n int) *encoder {
	return e.raw(byte(tagSolrDoc)).orderedMap(n)
}

// solrDocList writes the list header and its bookkeeping values; the caller
// then writes a body tag and its n entries.
func (e *encoder) solrDocList(numFound, start int64, maxScore float32) *encoder {
	return e.raw(byte(tagSolrDocList)).arr(3).slong(numFound).slong(start).float(maxScore)
}

type toJSONTestCase struct {
	label  string
	input  []byte
	output string
	errStr string
}

func testWithToJSON(t *testing.T, cases []toJSONTestCase) {
	t.Helper()

	for _, c := range cases {
		c := c
		t.Run(c.label, func(t *testing.T) {
			t.Parallel()

			buf, err := ToJSON(c.input, make([]byte, 0, 256))
			if c.errStr != "" {
				var got string
				if err != nil {
					got = err.Error()
				}
				if !strings.Contains(got, c.errStr) {
					t.Errorf("expected error with '%s', but got %v", c.errStr, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v\ninput: %s", err, hex.EncodeToString(c.input))
			}
			if string(buf) != c.output {
				t.Fatalf("ToJSON doesn't match expected:\nGot:    %q\nExpect: %q", buf, c.output)
			}
		})
	}
}

// convertWithDriver reads JSON text with the MongoDB driver, keeping key
// order.
func convertWithDriver(text []byte) (bson.D, error) {
	var got bson.Raw
	err := bson.UnmarshalExtJSON(bytes.TrimSpace(text), false, &got)
	if err != nil {
		return nil, err
	}
	return treeFromRaw(got)
}

// treeFromRaw turns a BSON document into nested bson.D and bson.A values.
func treeFromRaw(doc bson.Raw) (bson.D, error) {
	elems, err := doc.Elements()
	if err != nil {
		return nil, err
	}
	d := bson.D{}
	for _, e := range elems {
		v, err := valueFromRaw(e.Value())
		if err != nil {
			return nil, err
		}
		d = append(d, bson.E{Key: e.Key(), Value: v})
	}
	return d, nil
}

func valueFromRaw(v bson.RawValue) (interface{}, error) {
	switch v.Type {
	case bsontype.Null:
		return nil, nil
	case bsontype.Boolean:
		return v.Boolean(), nil
	case bsontype.Int32:
		return v.Int32(), nil
	case bsontype.Int64:
		return v.Int64(), nil
	case bsontype.Double:
		return v.Double(), nil
	case bsontype.String:
		return v.StringValue(), nil
	case bsontype.DateTime:
		return v.DateTime(), nil
	case bsontype.EmbeddedDocument:
		return treeFromRaw(v.Document())
	case bsontype.Array:
		values, err := v.Array().Values()
		if err != nil {
			return nil, err
		}
		a := bson.A{}
		for _, elem := range values {
			x, err := valueFromRaw(elem)
			if err != nil {
				return nil, err
			}
			a = append(a, x)
		}
		return a, nil
	}
	return nil, fmt.Errorf("unexpected BSON type %v", v.Type)
}

// equivalent compares a decoded value with the value that was encoded.
// Numbers compare by value at the width they were encoded with, since JSON
// text does not keep Go types.
func equivalent(expect, got interface{}) error {
	switch e := expect.(type) {
	case nil:
		if got != nil {
			return fmt.Errorf("expected null, got %#v", got)
		}
	case bool, string:
		if e != got {
			return fmt.Errorf("expected %#v, got %#v", e, got)
		}
	case int32:
		if n, ok := asInt64(got); !ok || n != int64(e) {
			return fmt.Errorf("expected %d, got %#v", e, got)
		}
	case int64:
		if n, ok := asInt64(got); !ok || n != e {
			return fmt.Errorf("expected %d, got %#v", e, got)
		}
	case float32:
		if f, ok := asFloat64(got); !ok || float32(f) != e {
			return fmt.Errorf("expected %v, got %#v", e, got)
		}
	case float64:
		if f, ok := asFloat64(got); !ok || f != e {
			return fmt.Errorf("expected %v, got %#v", e, got)
		}
	case bson.A:
		g, ok := got.(bson.A)
		if !ok || len(g) != len(e) {
			return fmt.Errorf("expected array of %d, got %#v", len(e), got)
		}
		for i := range e {
			if err := equivalent(e[i], g[i]); err != nil {
				return fmt.Errorf("[%d]: %v", i, err)
			}
		}
	case bson.D:
		g, ok := got.(bson.D)
		if !ok || len(g) != len(e) {
			return fmt.Errorf("expected object of %d, got %#v", len(e), got)
		}
		for i := range e {
			if e[i].Key != g[i].Key {
				return fmt.Errorf("key %d: expected %q, got %q", i, e[i].Key, g[i].Key)
			}
			if err := equivalent(e[i].Value, g[i].Value); err != nil {
				return fmt.Errorf("%s: %v", e[i].Key, err)
			}
		}
	default:
		return fmt.Errorf("unsupported expected type %T", expect)
	}
	return nil
}

func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

func asFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

package javabin

// Sink receives decoded values as the decoder reads them.  No value tree is
// built: each call happens as soon as its source bytes are resolved.
//
// Byte slices passed to Key and String are only valid during the call.  An
// error returned by any method aborts decoding and is reported as a
// SinkFailure wrapping it.
//
// A failed Decode leaves the sink wherever decoding stopped, possibly with
// open objects and arrays.  JSONWriter and BSONWriter must be Reset before
// they receive another value.
type Sink interface {
	BeginObject() error
	EndObject() error
	BeginArray() error
	EndArray() error

	// Key and NullKey name the next value inside an object.
	Key(b []byte) error
	NullKey() error

	String(b []byte) error
	Null() error
	Bool(v bool) error
	Int32(v int32) error
	Int64(v int64) error
	Float32(v float32) error
	Float64(v float64) error
	// Date receives milliseconds since the Unix epoch.
	Date(millis int64) error
}

// discardSink drops everything.  It is used to skip values that have no JSON
// rendering, such as document list bookkeeping.
type discardSink struct{}

func (discardSink) BeginObject() error    { return nil }
func (discardSink) EndObject() error      { return nil }
func (discardSink) BeginArray() error     { return nil }
func (discardSink) EndArray() error       { return nil }
func (discardSink) Key([]byte) error      { return nil }
func (discardSink) NullKey() error        { return nil }
func (discardSink) String([]byte) error   { return nil }
func (discardSink) Null() error           { return nil }
func (discardSink) Bool(bool) error       { return nil }
func (discardSink) Int32(int32) error     { return nil }
func (discardSink) Int64(int64) error     { return nil }
func (discardSink) Float32(float32) error { return nil }
func (discardSink) Float64(float64) error { return nil }
func (discardSink) Date(int64) error      { return nil }

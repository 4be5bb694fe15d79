package javabin

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a decoding failure.  Every kind is fatal to the
// Decode call that produced it.
type ErrorKind int

// Error kinds reported in DecodeError.
const (
	ProtocolVersionMismatch ErrorKind = iota + 1
	MalformedTag
	InvalidKeyType
	TruncatedInput
	ExternStringIndexOutOfRange
	DepthExceeded
	SinkFailure
	ReadFailure
)

var kindNames = map[ErrorKind]string{
	ProtocolVersionMismatch:     "protocol version mismatch",
	MalformedTag:                "malformed tag",
	InvalidKeyType:              "invalid key type",
	TruncatedInput:              "truncated input",
	ExternStringIndexOutOfRange: "extern string index out of range",
	DepthExceeded:               "maximum depth exceeded",
	SinkFailure:                 "sink failure",
	ReadFailure:                 "read failure",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("error kind %d", int(k))
}

// Sentinels for use with errors.Is.  A *DecodeError matches the sentinel of
// its Kind.
var (
	ErrProtocolVersion   = errors.New("javabin: " + ProtocolVersionMismatch.String())
	ErrMalformedTag      = errors.New("javabin: " + MalformedTag.String())
	ErrInvalidKeyType    = errors.New("javabin: " + InvalidKeyType.String())
	ErrTruncatedInput    = errors.New("javabin: " + TruncatedInput.String())
	ErrExternStringIndex = errors.New("javabin: " + ExternStringIndexOutOfRange.String())
	ErrDepthExceeded     = errors.New("javabin: " + DepthExceeded.String())
	ErrSinkFailure       = errors.New("javabin: " + SinkFailure.String())
	ErrReadFailure       = errors.New("javabin: " + ReadFailure.String())
)

var kindSentinels = map[ErrorKind]error{
	ProtocolVersionMismatch:     ErrProtocolVersion,
	MalformedTag:                ErrMalformedTag,
	InvalidKeyType:              ErrInvalidKeyType,
	TruncatedInput:              ErrTruncatedInput,
	ExternStringIndexOutOfRange: ErrExternStringIndex,
	DepthExceeded:               ErrDepthExceeded,
	SinkFailure:                 ErrSinkFailure,
	ReadFailure:                 ErrReadFailure,
}

// DecodeError records a javabin decoding failure.  Offset is the number of
// source bytes consumed when the failure was detected.  Tag is the offending
// tag byte where one is known.
//
// Running out of input inside a value is TruncatedInput with Err set to
// io.ErrUnexpectedEOF.  Any other error returned by the source is
// ReadFailure with the source's error in Err.
type DecodeError struct {
	Kind   ErrorKind
	Offset int64
	Tag    byte
	HasTag bool
	Msg    string
	Err    error
}

func (e *DecodeError) Error() string {
	s := fmt.Sprintf("javabin: %s at offset %d", e.Kind, e.Offset)
	if e.HasTag {
		s += fmt.Sprintf(" (tag 0x%02x %s)", e.Tag, tag(e.Tag))
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap returns the underlying cause, such as an I/O error.
func (e *DecodeError) Unwrap() error { return e.Err }

// Is matches the sentinel error for the kind of e.
func (e *DecodeError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

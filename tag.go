// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package javabin

import "fmt"

// protocolVersion is the only javabin version byte accepted.
const protocolVersion = 2

// tag is the leading byte of every encoded value.  The top three bits select
// a family; family zero holds the fixed single-byte types.
type tag byte

// Fixed single-byte tags.  Values 13, 16, 18, 19 and 20 are assigned by the
// wire format but carry payloads that have no JSON rendering here.
const (
	tagNull         tag = 0
	tagBoolTrue     tag = 1
	tagBoolFalse    tag = 2
	tagByte         tag = 3
	tagShort        tag = 4
	tagDouble       tag = 5
	tagInt          tag = 6
	tagLong         tag = 7
	tagFloat        tag = 8
	tagDate         tag = 9
	tagMap          tag = 10
	tagSolrDoc      tag = 11
	tagSolrDocList  tag = 12
	tagByteArr      tag = 13
	tagIterator     tag = 14
	tagEnd          tag = 15
	tagSolrInputDoc tag = 16
	tagMapEntryIter tag = 17
	tagEnumField    tag = 18
	tagMapEntry     tag = 19
	tagUUID         tag = 20
)

// family is the value of the top three bits of a tag.
type family byte

const (
	familyNone       family = 0
	familyStr        family = 1
	familySInt       family = 2
	familySLong      family = 3
	familyArr        family = 4
	familyOrderedMap family = 5
	familyNamedList  family = 6
	familyExtern     family = 7
)

const (
	sizeMask    = 0x1f
	smallMask   = 0x0f
	smallExtend = 0x10
)

func (t tag) family() family { return family(t >> 5) }

// inlineSize returns the five low bits.  A result of sizeMask means the size
// continues in a following varint.
func (t tag) inlineSize() int { return int(t & sizeMask) }

// smallValue returns the four inline value bits of a SINT/SLONG tag and
// whether a varint extension follows.
func (t tag) smallValue() (v byte, extended bool) {
	return byte(t & smallMask), t&smallExtend != 0
}

// isContainer reports whether t may start a top-level value.
func (t tag) isContainer() bool {
	switch t.family() {
	case familyArr, familyOrderedMap, familyNamedList:
		return true
	case familyNone:
		switch t {
		case tagMap, tagSolrDoc, tagSolrDocList, tagIterator, tagMapEntryIter:
			return true
		}
	}
	return false
}

var familyNames = [...]string{"", "STR", "SINT", "SLONG", "ARR", "ORDERED_MAP", "NAMED_LST", "EXTERN_STRING"}

var fixedNames = [...]string{
	"NULL", "BOOL_TRUE", "BOOL_FALSE", "BYTE", "SHORT", "DOUBLE", "INT",
	"LONG", "FLOAT", "DATE", "MAP", "SOLRDOC", "SOLRDOCLST", "BYTEARR",
	"ITERATOR", "END", "SOLRINPUTDOC", "MAP_ENTRY_ITER", "ENUM_FIELD_VALUE",
	"MAP_ENTRY", "UUID",
}

func (t tag) String() string {
	if f := t.family(); f != familyNone {
		return familyNames[f]
	}
	if int(t) < len(fixedNames) {
		return fixedNames[t]
	}
	return fmt.Sprintf("tag(%d)", byte(t))
}

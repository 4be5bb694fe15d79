// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package javabin

// UTF8ToUTF16 appends the UTF-16 code units for the UTF-8 text in src to dst
// and returns the extended slice.  Code points above U+FFFF become surrogate
// pairs.
//
// Input is not validated.  Malformed sequences produce unspecified code units
// but never read outside src: a sequence truncated by the end of src is
// completed with zero bits.  All of src is always consumed.
func UTF8ToUTF16(dst []uint16, src []byte) []uint16 {
	n := len(src)
	i := 0
	for i < n {
		b := uint32(src[i])
		i++
		switch {
		case b < 0xc0:
			dst = append(dst, uint16(b))
		case b < 0xe0:
			dst = append(dst, uint16((b&0x1f)<<6|cont(src, i)))
			i++
		case b < 0xf0:
			dst = append(dst, uint16((b&0x0f)<<12|cont(src, i)<<6|cont(src, i+1)))
			i += 2
		default:
			ch := (b&0x07)<<18 | cont(src, i)<<12 | cont(src, i+1)<<6 | cont(src, i+2)
			i += 3
			if ch < 0x10000 {
				dst = append(dst, uint16(ch))
			} else {
				ch -= 0x10000
				dst = append(dst, uint16(0xd800+(ch>>10)), uint16(0xdc00+(ch&0x3ff)))
			}
		}
	}
	return dst
}

// cont returns the payload bits of the continuation byte at src[i], or zero
// past the end of src.
func cont(src []byte, i int) uint32 {
	if i >= len(src) {
		return 0
	}
	return uint32(src[i]) & 0x3f
}

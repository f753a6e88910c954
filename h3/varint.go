// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// QUIC variable-length integer codec. See RFC 9000 section 16.

package h3

import "errors"

// MaxVarint is the largest value the QUIC varint encoding can carry: the
// top 2 bits of the first byte select the length class, leaving 62 bits
// for the value.
const MaxVarint = uint64(1)<<62 - 1

// ErrVarintTooLarge is returned by SizeofVarint and AppendVarint when the
// value does not fit in 62 bits.
var ErrVarintTooLarge = errors.New("h3: varint value too large to encode")

// varintClassLen reports how many bytes the varint occupies given its
// first byte, without looking at the rest of the buffer.
func varintClassLen(first byte) int {
	switch first >> 6 {
	case 0:
		return 1
	case 1:
		return 2
	case 2:
		return 4
	default:
		return 8
	}
}

// DecodeVarint decodes one QUIC varint from the front of buf. ok is false
// if buf holds fewer bytes than the length class indicated by the first
// byte demands; the caller must then treat this as "need more bytes" and
// retry once more of the stream has arrived. DecodeVarint never fails on
// a malformed length class: the class is only 2 bits and every value is
// valid.
func DecodeVarint(buf []byte) (value uint64, n int, ok bool) {
	if len(buf) < 1 {
		return 0, 0, false
	}
	first := buf[0]
	n = varintClassLen(first)
	if len(buf) < n {
		return 0, 0, false
	}
	switch n {
	case 1:
		value = uint64(first & 0x3f)
	case 2:
		value = uint64(first&0x3f)<<8 | uint64(buf[1])
	case 4:
		value = uint64(first&0x3f)<<24 | uint64(buf[1])<<16 | uint64(buf[2])<<8 | uint64(buf[3])
	default: // 8
		value = uint64(first&0x3f)<<56 | uint64(buf[1])<<48 | uint64(buf[2])<<40 | uint64(buf[3])<<32 |
			uint64(buf[4])<<24 | uint64(buf[5])<<16 | uint64(buf[6])<<8 | uint64(buf[7])
	}
	return value, n, true
}

// DecodeVarintLimited is like DecodeVarint but additionally refuses to
// decode beyond remaining bytes of budget. On success, *remaining is
// decremented by the number of bytes consumed.
func DecodeVarintLimited(buf []byte, remaining *uint64) (value uint64, n int, ok bool) {
	if *remaining < 1 || len(buf) < 1 {
		return 0, 0, false
	}
	need := varintClassLen(buf[0])
	if uint64(need) > *remaining {
		return 0, 0, false
	}
	value, n, ok = DecodeVarint(buf)
	if !ok {
		return 0, 0, false
	}
	*remaining -= uint64(n)
	return value, n, true
}

// SizeofVarint reports the number of bytes AppendVarint would use to encode value, picking the minimum length class that fits.
func SizeofVarint(value uint64) (int, error) {
	switch {
	case value <= 0x3f:
		return 1, nil
	case value <= 0x3fff:
		return 2, nil
	case value <= 0x3fffffff:
		return 4, nil
	case value <= MaxVarint:
		return 8, nil
	default:
		return 0, ErrVarintTooLarge
	}
}

// AppendVarint appends the QUIC varint encoding of value to dst, returning
// the extended slice and the number of bytes written. It fails without
// modifying dst if value exceeds MaxVarint.
func AppendVarint(dst []byte, value uint64) ([]byte, int, error) {
	n, err := SizeofVarint(value)
	if err != nil {
		return dst, 0, err
	}
	switch n {
	case 1:
		dst = append(dst, byte(value))
	case 2:
		dst = append(dst, byte(value>>8)|0x40, byte(value))
	case 4:
		dst = append(dst, byte(value>>24)|0x80, byte(value>>16), byte(value>>8), byte(value))
	default: // 8
		dst = append(dst,
			byte(value>>56)|0xc0, byte(value>>48), byte(value>>40), byte(value>>32),
			byte(value>>24), byte(value>>16), byte(value>>8), byte(value))
	}
	return dst, n, nil
}

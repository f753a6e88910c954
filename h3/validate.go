// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Header token and field-value validation, RFC 7230 section 3.2 /
// RFC 7541 style. Hand-rolled byte-class checks, matching the way
// gorox validates request-line and field-value bytes in its HTTP/1
// parser rather than reaching for a regexp.

package h3

// isTokenChar reports whether b is a valid RFC 7230 "tchar".
func isTokenChar(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	}
	switch b {
	case '!', '#', '$', '%', '&', '\'', '*', '+', '-', '.', '^', '_', '`', '|', '~':
		return true
	}
	return false
}

// validHeaderName reports whether name is a legal header field name: a
// non-empty sequence of token characters. HTTP/3 additionally requires
// lowercase, but that is enforced by the QPACK layer upstream of this
// verifier, not re-checked here.
func validHeaderName(name []byte) bool {
	if len(name) == 0 {
		return false
	}
	for _, b := range name {
		if !isTokenChar(b) {
			return false
		}
	}
	return true
}

// validHeaderValue reports whether value is a legal RFC 7230 field-value:
// no CR, LF, or NUL, and otherwise printable (VCHAR, SP, HTAB, or
// obs-text >= 0x80).
func validHeaderValue(value []byte) bool {
	for _, b := range value {
		if b == '\r' || b == '\n' || b == 0x00 {
			return false
		}
		if (b < 0x20 && b != '\t') || b == 0x7f {
			return false
		}
	}
	return true
}

// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Header-decode verifier: turns a QPACK-style streaming callback
// (onHeader/onHeadersComplete/onDecodeError) into a validated
// HttpMessage, or a precise parsingError. Modeled on proxygen's
// HeaderDecodeInfo, which performs the same validation for HTTP/2 and
// HTTP/3 alike.

package h3

import (
	"fmt"
	"strconv"
)

// DecodeError is the upstream QPACK decoder's failure mode, surfaced to
// the verifier via OnDecodeError. The QPACK dynamic-table engine itself
// lives outside this package; this is only the small vocabulary the
// streaming-callback boundary needs.
type DecodeError uint8

const (
	DecodeErrorNone DecodeError = iota
	DecodeErrorHeaderTooLarge
	DecodeErrorTooManyHeaders
	DecodeErrorInvalidIndex
	DecodeErrorInvalidNameIndex
	DecodeErrorInvalidHuffmanEncoding
	DecodeErrorTimeout
)

func (e DecodeError) String() string {
	switch e {
	case DecodeErrorNone:
		return "NONE"
	case DecodeErrorHeaderTooLarge:
		return "HEADER_TOO_LARGE"
	case DecodeErrorTooManyHeaders:
		return "TOO_MANY_HEADERS"
	case DecodeErrorInvalidIndex:
		return "INVALID_INDEX"
	case DecodeErrorInvalidNameIndex:
		return "INVALID_NAME_INDEX"
	case DecodeErrorInvalidHuffmanEncoding:
		return "INVALID_HUFFMAN_ENCODING"
	case DecodeErrorTimeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// pseudoHeaderVerifier enforces single-occurrence and well-formedness on
// the request pseudo-headers, and the request-shape rule (CONNECT vs.
// ordinary request) at finalization.
type pseudoHeaderVerifier struct {
	msg   *HttpMessage
	error string
}

func (v *pseudoHeaderVerifier) setMethod(value []byte) bool {
	if v.msg.Method != nil {
		v.error = "Duplicate method"
		return false
	}
	if len(value) == 0 {
		v.error = "Empty method"
		return false
	}
	v.msg.Method = value
	return true
}
func (v *pseudoHeaderVerifier) setScheme(value []byte) bool {
	if v.msg.Scheme != nil {
		v.error = "Duplicate scheme"
		return false
	}
	if len(value) == 0 {
		v.error = "Empty scheme"
		return false
	}
	v.msg.Scheme = value
	return true
}
func (v *pseudoHeaderVerifier) setAuthority(value []byte) bool {
	if v.msg.Authority != nil {
		v.error = "Duplicate authority"
		return false
	}
	v.msg.Authority = value
	return true
}
func (v *pseudoHeaderVerifier) setPath(value []byte) bool {
	if v.msg.Path != nil {
		v.error = "Duplicate path"
		return false
	}
	if len(value) == 0 {
		v.error = "Empty path"
		return false
	}
	v.msg.Path = value
	return true
}

// setUpgradeProtocol handles :protocol (Extended CONNECT, RFC 8441).
// TODO: this should probably reject :protocol on a non-CONNECT method,
// but proxygen's HeaderDecodeInfo doesn't enforce that either, so this
// leaves the same gap open rather than silently tightening behavior.
func (v *pseudoHeaderVerifier) setUpgradeProtocol(value []byte) bool {
	if v.msg.Protocol != nil {
		v.error = "Duplicate protocol"
		return false
	}
	if len(value) == 0 {
		v.error = "Empty protocol"
		return false
	}
	v.msg.Protocol = value
	return true
}

func isConnectMethod(method []byte) bool { return string(method) == "CONNECT" }

// validate checks request pseudo-header shape once all headers have
// arrived: every request needs :method, and either the CONNECT shape
// (:authority only) or the ordinary shape (:scheme and :path).
func (v *pseudoHeaderVerifier) validate() string {
	if v.msg.Method == nil {
		return "Missing method"
	}
	if isConnectMethod(v.msg.Method) && v.msg.Protocol == nil {
		if v.msg.Authority == nil {
			return "Missing authority for CONNECT"
		}
		if v.msg.Scheme != nil || v.msg.Path != nil {
			return "Illegal scheme or path for CONNECT"
		}
		return ""
	}
	if v.msg.Scheme == nil {
		return "Missing scheme"
	}
	if v.msg.Path == nil {
		return "Missing path"
	}
	return ""
}

// Verifier adapts a QPACK streaming-decode callback surface into a
// validated HttpMessage. One Verifier is used for exactly one HEADERS or
// PUSH_PROMISE header block (and a second one for a trailer section,
// with isRequestTrailers set).
type Verifier struct {
	Msg *HttpMessage

	isRequest         bool
	isRequestTrailers bool

	pseudoHeaderSeen  bool
	regularHeaderSeen bool
	hasStatusField    bool

	contentLength *uint64

	decodeError  DecodeError
	parsingError string

	verifier pseudoHeaderVerifier
}

// NewVerifier creates a Verifier for a header block. isRequestTrailers
// only makes sense when isRequest is true; response trailers are
// recognized structurally instead, by the absence of :status.
func NewVerifier(isRequest bool, isRequestTrailers bool) *Verifier {
	msg := &HttpMessage{IsRequest: isRequest, Trailers: isRequestTrailers}
	v := &Verifier{Msg: msg, isRequest: isRequest, isRequestTrailers: isRequestTrailers}
	v.verifier.msg = msg
	return v
}

// HasStatus reports whether a :status pseudo-header has been seen. Used
// by the caller to distinguish response headers from response trailers,
// mirroring proxygen's HeaderDecodeInfo::hasStatus().
func (v *Verifier) HasStatus() bool { return v.hasStatusField }

// ParsingError returns the non-empty validation failure, if any.
func (v *Verifier) ParsingError() string { return v.parsingError }

// GetDecodeError returns the upstream QPACK failure, if OnDecodeError fired.
func (v *Verifier) GetDecodeError() DecodeError { return v.decodeError }

// OnDecodeError records a fatal upstream QPACK failure. Like a parsing
// error, it is not connection-fatal by itself; the session decides how
// to act on it.
func (v *Verifier) OnDecodeError(err DecodeError) { v.decodeError = err }

// OnHeader processes one decoded (name, value) pair. It returns true to
// keep decoding, false once a fatal validation error has been recorded
// (also retrievable via ParsingError).
func (v *Verifier) OnHeader(name, value []byte) bool {
	// 1. Already failed: ignore further fields, but keep "succeeding" so
	// the QPACK decoder can still finish walking its own state.
	if v.decodeError != DecodeErrorNone || v.parsingError != "" {
		return true
	}

	if len(name) > 0 && name[0] == ':' {
		v.pseudoHeaderSeen = true
		if v.regularHeaderSeen {
			v.parsingError = fmt.Sprintf("Illegal pseudo header name=%s", name)
			return false
		}
		if v.isRequest {
			ok := false
			switch string(name) {
			case ":method":
				ok = v.verifier.setMethod(value)
			case ":scheme":
				ok = v.verifier.setScheme(value)
			case ":authority":
				ok = v.verifier.setAuthority(value)
			case ":path":
				ok = v.verifier.setPath(value)
			case ":protocol":
				ok = v.verifier.setUpgradeProtocol(value)
			default:
				v.parsingError = fmt.Sprintf("Invalid req header name=%s", name)
				return false
			}
			if !ok {
				v.parsingError = v.verifier.error
				return false
			}
		} else {
			if string(name) != ":status" {
				v.parsingError = fmt.Sprintf("Invalid resp header name=%s", name)
				return false
			}
			if v.hasStatusField {
				v.parsingError = "Duplicate status"
				return false
			}
			v.hasStatusField = true
			code, err := strconv.Atoi(string(value))
			if err != nil || code < 100 || code > 999 {
				v.parsingError = fmt.Sprintf("Malformed status code=%s", value)
				return false
			}
			v.Msg.StatusCode = code
			v.Msg.StatusMessage = defaultReasonPhrase(code)
		}
		return true
	}

	v.regularHeaderSeen = true
	code := lookupFieldCode(name)
	if code == FieldConnection {
		v.parsingError = "HTTP/2 Message with Connection header"
		return false
	}
	if code == FieldContentLength {
		cl, err := strconv.ParseUint(string(value), 10, 32)
		if err != nil {
			v.parsingError = fmt.Sprintf("Bad header value: name=%s value=%s", name, value)
			return false
		}
		if v.contentLength != nil && *v.contentLength != cl {
			v.parsingError = "Multiple content-length headers"
			return false
		}
		v.contentLength = &cl
	}
	nameOK := code != FieldOther || validHeaderName(name)
	valueOK := validHeaderValue(value)
	if !nameOK || !valueOK {
		v.parsingError = fmt.Sprintf("Bad header value: name=%s value=%s", name, value)
		return false
	}
	v.Msg.AddField(name, value, code)
	return true
}

// OnHeadersComplete finalizes the message once decodedSize bytes of
// compressed header block have been consumed: merges Cookie crumbs,
// validates request pseudo-header shape, forbids pseudo-headers in
// trailers, and stamps the HTTP version.
func (v *Verifier) OnHeadersComplete(decodedSize int) {
	if v.isRequest && !v.isRequestTrailers {
		v.Msg.mergeCookies()
		if reason := v.verifier.validate(); reason != "" {
			v.parsingError = reason
			return
		}
	}

	isResponseTrailers := !v.isRequest && !v.hasStatusField
	if (v.isRequestTrailers || isResponseTrailers) && v.pseudoHeaderSeen {
		v.parsingError = "Pseudo headers forbidden in trailers."
		return
	}

	v.Msg.Version = "1.1"
	v.Msg.IngressHeaderSize = decodedSize
	if v.contentLength != nil {
		v.Msg.ContentLength = v.contentLength
	}
}

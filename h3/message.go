// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// The HTTP message the header-decode verifier builds, and the small
// recognized-header-name table that drives its fast path. Modeled on
// the `pair` type and the additive-ASCII hash table in gorox's
// hemi/web_codec.go, simplified: this package has no input buffer to
// keep spans into, so a field just owns its name/value bytes, and
// lookup uses a name->code map instead of a hand-tuned perfect hash.

package h3

import "bytes"

// FieldCode identifies a header name the verifier gives special
// treatment to. FieldOther (the zero value) means "look at the name
// bytes directly, nothing special applies".
type FieldCode uint8

const (
	FieldOther FieldCode = iota // must be 0
	FieldConnection
	FieldContentLength
	FieldCookie
	FieldContentType
	FieldHost
	FieldUserAgent
	FieldDate
	FieldServer
	FieldCacheControl
	FieldVia
	FieldTransferEncoding
)

var recognizedFields = map[string]FieldCode{
	"connection":         FieldConnection,
	"content-length":     FieldContentLength,
	"cookie":             FieldCookie,
	"content-type":       FieldContentType,
	"host":               FieldHost,
	"user-agent":         FieldUserAgent,
	"date":               FieldDate,
	"server":             FieldServer,
	"cache-control":      FieldCacheControl,
	"via":                FieldVia,
	"transfer-encoding":  FieldTransferEncoding,
}

func lookupFieldCode(name []byte) FieldCode {
	if code, ok := recognizedFields[string(name)]; ok {
		return code
	}
	return FieldOther
}

// HeaderField is one decoded (name, value) pair, regular or pseudo.
type HeaderField struct {
	Name   []byte
	Value  []byte
	Code   FieldCode
	Pseudo bool
}

// HttpMessage is the HTTP message a Verifier assembles from a stream of
// decoded header fields: either a request (with :method/:scheme/etc),
// a response (with :status), or a trailer section (no pseudo-headers).
type HttpMessage struct {
	IsRequest bool
	Trailers  bool

	Method    []byte
	Scheme    []byte
	Authority []byte
	Path      []byte
	Protocol  []byte // :protocol, Extended CONNECT (RFC 8441)

	StatusCode    int
	StatusMessage string

	Version string // "1.1", stamped by OnHeadersComplete unless it records a validation error

	Fields            []HeaderField
	ContentLength     *uint64
	IngressHeaderSize int
}

// AddField appends a regular (non-pseudo) field to the message.
func (m *HttpMessage) AddField(name, value []byte, code FieldCode) {
	m.Fields = append(m.Fields, HeaderField{Name: name, Value: value, Code: code})
}

// Header returns the first field value matching name (case-sensitive;
// HTTP/3 field names are always lowercase on the wire).
func (m *HttpMessage) Header(name string) ([]byte, bool) {
	for _, f := range m.Fields {
		if bytes.Equal(f.Name, []byte(name)) {
			return f.Value, true
		}
	}
	return nil, false
}

// mergeCookies combines every Cookie field into a single field joined by
// "; ", dropping the originals and appending the merged field at the end.
// Mirrors HeaderDecodeInfo::onHeadersComplete's HTTPHeaders::combine call
// in the original proxygen source.
func (m *HttpMessage) mergeCookies() {
	var combined []byte
	first := -1
	kept := m.Fields[:0:0]
	for i, f := range m.Fields {
		if f.Code != FieldCookie {
			kept = append(kept, f)
			continue
		}
		if first == -1 {
			first = i
		}
		if len(combined) > 0 {
			combined = append(combined, "; "...)
		}
		combined = append(combined, f.Value...)
	}
	if first == -1 {
		return
	}
	kept = append(kept, HeaderField{Name: []byte("cookie"), Value: combined, Code: FieldCookie})
	m.Fields = kept
}

var defaultReasonPhrases = map[int]string{
	100: "Continue", 101: "Switching Protocols",
	200: "OK", 201: "Created", 202: "Accepted", 204: "No Content", 206: "Partial Content",
	301: "Moved Permanently", 302: "Found", 303: "See Other", 304: "Not Modified", 307: "Temporary Redirect", 308: "Permanent Redirect",
	400: "Bad Request", 401: "Unauthorized", 403: "Forbidden", 404: "Not Found", 405: "Method Not Allowed",
	408: "Request Timeout", 409: "Conflict", 410: "Gone", 411: "Length Required", 413: "Content Too Large",
	414: "URI Too Long", 415: "Unsupported Media Type", 426: "Upgrade Required", 429: "Too Many Requests",
	500: "Internal Server Error", 501: "Not Implemented", 502: "Bad Gateway", 503: "Service Unavailable", 504: "Gateway Timeout",
}

// defaultReasonPhrase returns the RFC-assigned reason phrase for code, or
// "" if code is not one of the common statuses this package recognizes.
func defaultReasonPhrase(code int) string { return defaultReasonPhrases[code] }

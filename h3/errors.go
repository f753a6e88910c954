// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// HTTP/3 error codes. Modeled on http2Error in gorox's
// hemi/web_element_http2.go: a small integer type implementing error,
// backed by a name table, rather than ad-hoc error strings.

package h3

import "fmt"

// ErrorCode is an HTTP/3 connection or stream error code, equal to the
// errno carried by an Exception across the callback boundary.
type ErrorCode uint32

const ( // RFC 9114 section 8.1 error codes
	ErrNoError              ErrorCode = 0x0100
	ErrGeneralProtocolError ErrorCode = 0x0101
	ErrInternalError        ErrorCode = 0x0102
	ErrStreamCreationError  ErrorCode = 0x0103
	ErrClosedCriticalStream ErrorCode = 0x0104
	ErrFrameUnexpected      ErrorCode = 0x0105
	ErrFrameError           ErrorCode = 0x0106
	ErrExcessiveLoad        ErrorCode = 0x0107
	ErrIDError              ErrorCode = 0x0108
	ErrSettingsError        ErrorCode = 0x0109
	ErrMissingSettings      ErrorCode = 0x010a
	ErrRequestRejected      ErrorCode = 0x010b
	ErrRequestCancelled     ErrorCode = 0x010c
	ErrRequestIncomplete    ErrorCode = 0x010d
	ErrMessageError         ErrorCode = 0x010e
	ErrConnectError         ErrorCode = 0x010f
	ErrVersionFallback      ErrorCode = 0x0110
)

const ( // per-frame-kind malformed errors, one per defined frame kind
	errMalformedFrameBase ErrorCode = 0x0200
)

// MalformedFrameError returns the frame-kind-specific malformed-frame
// error code for kind, e.g. HTTP_MALFORMED_FRAME_DATA for KindData.
func MalformedFrameError(kind FrameKind) ErrorCode {
	if kind == KindUnknown {
		return ErrFrameError
	}
	return errMalformedFrameBase + ErrorCode(kind.WireType())
}

const ( // frame-not-allowed-on-this-stream errors, from checkFrameAllowed
	ErrWrongStream          ErrorCode = 0x0300 // frame kind is never legal here
	ErrWrongStreamDirection ErrorCode = 0x0301 // frame kind is legal on this role but not this direction
)

var errorCodeNames = map[ErrorCode]string{
	ErrNoError:              "HTTP_NO_ERROR",
	ErrGeneralProtocolError: "HTTP_GENERAL_PROTOCOL_ERROR",
	ErrInternalError:        "HTTP_INTERNAL_ERROR",
	ErrStreamCreationError:  "HTTP_STREAM_CREATION_ERROR",
	ErrClosedCriticalStream: "HTTP_CLOSED_CRITICAL_STREAM",
	ErrFrameUnexpected:      "HTTP_FRAME_UNEXPECTED",
	ErrFrameError:           "HTTP_FRAME_ERROR",
	ErrExcessiveLoad:        "HTTP_EXCESSIVE_LOAD",
	ErrIDError:              "HTTP_ID_ERROR",
	ErrSettingsError:        "HTTP_SETTINGS_ERROR",
	ErrMissingSettings:      "HTTP_MISSING_SETTINGS",
	ErrRequestRejected:      "HTTP_REQUEST_REJECTED",
	ErrRequestCancelled:     "HTTP_REQUEST_CANCELLED",
	ErrRequestIncomplete:    "HTTP_REQUEST_INCOMPLETE",
	ErrMessageError:         "HTTP_MESSAGE_ERROR",
	ErrConnectError:         "HTTP_CONNECT_ERROR",
	ErrVersionFallback:      "HTTP_VERSION_FALLBACK",
	ErrWrongStream:          "HTTP_WRONG_STREAM",
	ErrWrongStreamDirection: "HTTP_WRONG_STREAM_DIRECTION",
}

// String returns the RFC-style error name, or the per-frame-kind
// malformed-frame name synthesized from the encoding in MalformedFrameError.
func (e ErrorCode) String() string {
	if name, ok := errorCodeNames[e]; ok {
		return name
	}
	for k := FrameKind(1); k < numFrameKinds; k++ {
		if errMalformedFrameBase+ErrorCode(k.WireType()) == e {
			return "HTTP_MALFORMED_FRAME_" + k.String()
		}
	}
	return fmt.Sprintf("HTTP_UNKNOWN_ERROR(0x%04x)", uint32(e))
}

// Direction identifies which side of a stream an Exception applies to.
type Direction uint8

const (
	DirectionIngress Direction = iota
	DirectionEgress
	DirectionIngressAndEgress
)

func (d Direction) String() string {
	switch d {
	case DirectionIngress:
		return "INGRESS"
	case DirectionEgress:
		return "EGRESS"
	default:
		return "INGRESS_AND_EGRESS"
	}
}

// Exception is the error type surfaced through onError. It carries the
// direction of the failure and an HTTP/3 error code so a session can
// decide whether to reset a stream or close the connection.
type Exception struct {
	Direction Direction
	Code      ErrorCode
	Kind      FrameKind // KindUnknown if not frame-specific
	Reason    string
}

func (e *Exception) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("h3: %s: %s (%s)", e.Direction, e.Code, e.Reason)
	}
	return fmt.Sprintf("h3: %s: %s", e.Direction, e.Code)
}

func (e *Exception) Errno() ErrorCode { return e.Code }

func newFrameError(kind FrameKind, reason string) *Exception {
	return &Exception{
		Direction: DirectionIngressAndEgress,
		Code:      MalformedFrameError(kind),
		Kind:      kind,
		Reason:    reason,
	}
}

func newStreamError(code ErrorCode, reason string) *Exception {
	return &Exception{Direction: DirectionIngressAndEgress, Code: code, Reason: reason}
}

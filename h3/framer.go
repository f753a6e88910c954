// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Frame serializer: one WriteXxx operation per HTTP/3 frame kind, each
// appending [varint type][varint length][payload] to a caller-owned
// output queue. Grounded on gorox's http2OutFrame encode path in
// hemi/web_http2_suite.go, generalized from HTTP/2's fixed 9-byte frame
// header to HTTP/3's varint-prefixed one, and on HQFramer.cpp's
// writeFrameHeader/writeData/writeHeaders/writePriority/writeSettings/
// writePushPromise/writeGoaway/writeMaxPushId.

package h3

// appendFrameHeader appends [varint typ][varint length] to dst. All
// sizes must be computed before calling this, so a TooLarge failure from
// either varint leaves dst untouched by the caller's rollback (callers
// snapshot len(dst) beforehand and truncate back on error).
func appendFrameHeader(dst []byte, typ FrameType, length uint64) ([]byte, error) {
	var err error
	dst, _, err = AppendVarint(dst, uint64(typ))
	if err != nil {
		return dst, err
	}
	dst, _, err = AppendVarint(dst, length)
	if err != nil {
		return dst, err
	}
	return dst, nil
}

// writeFramed appends a complete frame (header plus raw payload bytes)
// for kind to dst. On error dst is returned unchanged.
func writeFramed(dst []byte, typ FrameType, payload []byte) ([]byte, error) {
	mark := len(dst)
	dst, err := appendFrameHeader(dst, typ, uint64(len(payload)))
	if err != nil {
		return dst[:mark], err
	}
	dst = append(dst, payload...)
	return dst, nil
}

// WriteData appends a framed DATA frame carrying payload. An empty
// payload is rejected: DATA frames of length 0 are malformed per
// HQFramer.cpp's parseData rejects the same case.
func WriteData(dst []byte, payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return dst, newFrameError(KindData, "refusing to write empty DATA frame")
	}
	return writeFramed(dst, frameTypeData, payload)
}

// WriteUnframedData appends raw payload bytes with no frame header at
// all, for HTTP/3's partially-reliable (unframed DATA) mode. There is no
// length prefix; the receiver consumes bytes until the stream ends.
func WriteUnframedData(dst []byte, payload []byte) []byte {
	return append(dst, payload...)
}

// WriteHeaders appends a framed HEADERS frame carrying an already
// QPACK-compressed header block. A zero-length block is legal.
func WriteHeaders(dst []byte, headerBlock []byte) ([]byte, error) {
	return writeFramed(dst, frameTypeHeaders, headerBlock)
}

// WritePriority appends a framed PRIORITY frame for p.
func WritePriority(dst []byte, p PriorityUpdate) ([]byte, error) {
	mark := len(dst)
	var payload []byte
	payload = append(payload, encodePriorityFlags(p))
	var err error
	payload, _, err = AppendVarint(payload, p.PrioritizedElementID)
	if err != nil {
		return dst[:mark], err
	}
	if p.DependencyType != PriorityTreeRoot {
		payload, _, err = AppendVarint(payload, p.ElementDependencyID)
		if err != nil {
			return dst[:mark], err
		}
	}
	payload = append(payload, p.Weight)
	return writeFramed(dst, frameTypePriority, payload)
}

// WriteCancelPush appends a framed CANCEL_PUSH frame for pushID.
func WriteCancelPush(dst []byte, pushID PushID) ([]byte, error) {
	mark := len(dst)
	payload, _, err := AppendVarint(nil, pushID.External().Value())
	if err != nil {
		return dst[:mark], err
	}
	return writeFramed(dst, frameTypeCancelPush, payload)
}

// WriteSettings appends a framed SETTINGS frame carrying pairs, in order.
func WriteSettings(dst []byte, pairs []SettingPair) ([]byte, error) {
	mark := len(dst)
	var payload []byte
	var err error
	for _, p := range pairs {
		payload, _, err = AppendVarint(payload, uint64(p.ID))
		if err != nil {
			return dst[:mark], err
		}
		payload, _, err = AppendVarint(payload, p.Value)
		if err != nil {
			return dst[:mark], err
		}
	}
	return writeFramed(dst, frameTypeSettings, payload)
}

// WritePushPromise appends a framed PUSH_PROMISE frame for pushID,
// carrying an already QPACK-compressed header block.
func WritePushPromise(dst []byte, pushID PushID, headerBlock []byte) ([]byte, error) {
	mark := len(dst)
	payload, _, err := AppendVarint(nil, pushID.External().Value())
	if err != nil {
		return dst[:mark], err
	}
	payload = append(payload, headerBlock...)
	return writeFramed(dst, frameTypePushPromise, payload)
}

// WriteGoaway appends a framed GOAWAY frame carrying id (a stream id or,
// on the server-sent direction, a push id).
func WriteGoaway(dst []byte, id uint64) ([]byte, error) {
	mark := len(dst)
	payload, _, err := AppendVarint(nil, id)
	if err != nil {
		return dst[:mark], err
	}
	return writeFramed(dst, frameTypeGoaway, payload)
}

// WriteMaxPushID appends a framed MAX_PUSH_ID frame for pushID.
func WriteMaxPushID(dst []byte, pushID PushID) ([]byte, error) {
	mark := len(dst)
	payload, _, err := AppendVarint(nil, pushID.External().Value())
	if err != nil {
		return dst[:mark], err
	}
	return writeFramed(dst, frameTypeMaxPushID, payload)
}

// WriteGreaseFrame appends a frame of a greased type with arbitrary
// payload, to exercise a peer's unknown-frame-type tolerance. n selects
// which reserved grease id is used; see GreaseID.
func WriteGreaseFrame(dst []byte, n uint64, payload []byte) ([]byte, error) {
	mark := len(dst)
	id, ok := GreaseID(n)
	if !ok {
		return dst[:mark], ErrVarintTooLarge
	}
	return writeFramed(dst, FrameType(id), payload)
}

// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package h3

// MaxFrameHeaderSize is the largest a [type varint][length varint] pair
// can be: two maximal 8-byte varints.
const MaxFrameHeaderSize = 16

// UnframedDataFrameLen is the sentinel length denoting a DATA frame
// carried in HTTP/3's partially-reliable (webtransport-style) unframed
// mode, where no length prefix precedes the payload and the frame runs
// until the stream itself ends. It exceeds MaxVarint, so it never occurs
// as a decoded length; the Parser enters unframed mode only through
// BeginUnframedData and reports no FrameHeader for it.
const UnframedDataFrameLen = ^uint64(0)

// FrameHeader is a decoded [type][length] pair.
type FrameHeader struct {
	Type   FrameType
	Length uint64
}

// Kind is a convenience accessor equivalent to h.Type.Kind().
func (h FrameHeader) Kind() FrameKind { return h.Type.Kind() }

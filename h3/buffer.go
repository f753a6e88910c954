// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Pooled, reference-counted DATA chunk buffers. Modeled directly on
// http3InBuffer / http2Buffer in gorox's hemi/web_http3_mixins.go and
// hemi/web_http2_suite.go: a sync.Pool of fixed-size arrays plus an
// atomic refcount, so a chunk handed to a consumer can outlive the
// input slice onIngress was called with.

package h3

import (
	"sync"
	"sync/atomic"
)

const dataChunkCap = 16 * 1024 // _16K, matches gorox's pooled buffer size

type dataBuffer struct {
	buf [dataChunkCap]byte
	ref atomic.Int32
}

var poolDataBuffer sync.Pool

func getDataBuffer() *dataBuffer {
	if x := poolDataBuffer.Get(); x != nil {
		return x.(*dataBuffer)
	}
	return new(dataBuffer)
}
func putDataBuffer(b *dataBuffer) { poolDataBuffer.Put(b) }

func (b *dataBuffer) incRef() { b.ref.Add(1) }
func (b *dataBuffer) decRef() {
	if b.ref.Add(-1) == 0 {
		putDataBuffer(b)
	}
}

// DataChunk is one piece of a streamed DATA frame payload. The backing
// storage is reference-counted: call Release when done with it. A chunk
// obtained from the parser starts with a reference count of 1, owned by
// the caller of OnData; call Retain before handing it to a second
// consumer that will also call Release.
type DataChunk struct {
	buf  *dataBuffer
	from int
	edge int
}

// Bytes returns the chunk's payload. The returned slice is only valid
// until Release drops the last reference.
func (c DataChunk) Bytes() []byte { return c.buf.buf[c.from:c.edge] }

// Len returns the number of payload bytes in the chunk.
func (c DataChunk) Len() int { return c.edge - c.from }

// Retain increments the chunk's reference count.
func (c DataChunk) Retain() { c.buf.incRef() }

// Release decrements the chunk's reference count, returning the backing
// buffer to the pool once the last reference is dropped.
func (c DataChunk) Release() { c.buf.decRef() }

// newDataChunk copies src into a freshly obtained pooled buffer and
// returns a chunk with a reference count of 1. src must be no larger
// than dataChunkCap; the parser only ever asks for chunks up to that size.
func newDataChunk(src []byte) DataChunk {
	b := getDataBuffer()
	b.incRef()
	n := copy(b.buf[:], src)
	return DataChunk{buf: b, from: 0, edge: n}
}

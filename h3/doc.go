// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Package h3 implements the HTTP/3 frame codec: a QUIC varint codec, a
// frame serializer, a resumable streaming frame parser, and a
// header-decode verifier that turns a QPACK-style streaming callback
// into a validated HTTP message. QUIC transport, the QPACK dynamic
// table, TLS, and everything above the framing layer are external
// collaborators. See RFC 9114 and RFC 9204.
package h3

import (
	"fmt"
	"os"
	"sync/atomic"
)

var _debugLevel atomic.Int32

// DebugLevel returns the current package debug level. Frame tracing in
// the parser is gated on it, mirroring how gorox gates its own
// wire-level Printf tracing.
func DebugLevel() int32 { return _debugLevel.Load() }

// SetDebugLevel sets the package debug level. Tracing is enabled at
// level 2 and above; lower levels disable it.
func SetDebugLevel(level int32) { _debugLevel.Store(level) }

func tracef(format string, args ...any) {
	if DebugLevel() >= 2 {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Small stateless utilities supplementing the base frame/header model,
// grounded on behavior original_source/proxygen implements inline at
// call sites rather than as named functions of their own.

package h3

import "bytes"

// IsGoawayIDIncreasing reports whether nextID is a legal successor to
// prevID in a sequence of GOAWAY frames sent by the same peer. RFC 9114
// section 5.2 requires a GOAWAY's id to never decrease; a peer that
// sends a lower id than one already announced has violated the
// connection shutdown handshake.
func IsGoawayIDIncreasing(prevID, nextID uint64) bool {
	return nextID >= prevID
}

// SplitCookieCrumbs splits a single Cookie header's value on "; ", the
// inverse of HttpMessage.mergeCookies' join, so a caller that needs the
// individual crumbs back (e.g. to forward them unmerged to a backend)
// does not have to duplicate QPACK's own cookie-crumb semantics.
func SplitCookieCrumbs(value []byte) [][]byte {
	if len(value) == 0 {
		return nil
	}
	return bytes.Split(value, []byte("; "))
}

// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package h3

import "testing"

func TestVarintRoundTrip(t *testing.T) {
	cases := []uint64{
		0, 1, 37, 0x3f, 0x40, 0x3fff, 0x4000, 0x3fffffff, 0x40000000,
		MaxVarint, MaxVarint - 1, 151288809941952652, 494878333, 1073741824,
	}
	for _, value := range cases {
		dst, n, err := AppendVarint(nil, value)
		if err != nil {
			t.Fatalf("AppendVarint(%d): unexpected error: %v", value, err)
		}
		if n != len(dst) {
			t.Fatalf("AppendVarint(%d): n=%d but len(dst)=%d", value, n, len(dst))
		}
		got, decN, ok := DecodeVarint(dst)
		if !ok {
			t.Fatalf("DecodeVarint(%x): not ok", dst)
		}
		if got != value || decN != n {
			t.Fatalf("round trip mismatch: value=%d got=%d n=%d decN=%d", value, got, n, decN)
		}
	}
}

func TestVarintWireExamples(t *testing.T) {
	// RFC 9000 section A.1 worked examples.
	cases := []struct {
		wire  []byte
		value uint64
	}{
		{[]byte{0xc2, 0x19, 0x7c, 0x5e, 0xff, 0x14, 0xe8, 0x8c}, 151288809941952652},
		{[]byte{0x9d, 0x7f, 0x3e, 0x7d}, 494878333},
		{[]byte{0x7b, 0xbd}, 15293},
		{[]byte{0x25}, 37},
		{[]byte{0x40, 0x25}, 37},
	}
	for _, c := range cases {
		value, n, ok := DecodeVarint(c.wire)
		if !ok || n != len(c.wire) || value != c.value {
			t.Errorf("DecodeVarint(%x) = %d, %d, %v; want %d, %d, true", c.wire, value, n, ok, c.value, len(c.wire))
		}
	}
}

func TestDecodeVarintShortBuffer(t *testing.T) {
	// First byte announces 8-byte class, but only 3 bytes are present.
	_, _, ok := DecodeVarint([]byte{0xc0, 0x01, 0x02})
	if ok {
		t.Fatal("DecodeVarint: expected ok=false on truncated input")
	}
	_, _, ok = DecodeVarint(nil)
	if ok {
		t.Fatal("DecodeVarint: expected ok=false on empty input")
	}
}

func TestDecodeVarintLimited(t *testing.T) {
	dst, _, _ := AppendVarint(nil, 0x3fffffff)
	remaining := uint64(3) // too few for the 4-byte class
	if _, _, ok := DecodeVarintLimited(dst, &remaining); ok {
		t.Fatal("DecodeVarintLimited: expected ok=false when budget is short")
	}
	remaining = 10
	value, n, ok := DecodeVarintLimited(dst, &remaining)
	if !ok || value != 0x3fffffff || n != 4 || remaining != 6 {
		t.Fatalf("DecodeVarintLimited = %d, %d, %v, remaining=%d; want 0x3fffffff, 4, true, 6", value, n, ok, remaining)
	}
}

func TestSizeofVarintTooLarge(t *testing.T) {
	if _, err := SizeofVarint(MaxVarint + 1); err != ErrVarintTooLarge {
		t.Fatalf("SizeofVarint(MaxVarint+1): got err=%v, want ErrVarintTooLarge", err)
	}
	if dst, _, err := AppendVarint([]byte("x"), MaxVarint+1); err != ErrVarintTooLarge || string(dst) != "x" {
		t.Fatalf("AppendVarint(MaxVarint+1): got dst=%q err=%v, want unmodified dst and ErrVarintTooLarge", dst, err)
	}
}

func TestGreaseID(t *testing.T) {
	id0, ok := GreaseID(0)
	if !ok || id0 != 0x21 {
		t.Fatalf("GreaseID(0) = %d, %v; want 0x21, true", id0, ok)
	}
	id1, ok := GreaseID(1)
	if !ok || id1 != 0x21+0x1f {
		t.Fatalf("GreaseID(1) = %d, %v; want 0x40, true", id1, ok)
	}
	if !IsGreaseID(id0) || !IsGreaseID(id1) {
		t.Fatal("IsGreaseID: expected true for ids produced by GreaseID")
	}
	if IsGreaseID(0x01) || IsGreaseID(0x22) {
		t.Fatal("IsGreaseID: expected false for non-grease ids")
	}
	if _, ok := GreaseID(KMaxGreaseIDIndex + 1); ok {
		t.Fatal("GreaseID: expected false beyond KMaxGreaseIDIndex")
	}
}

func TestPushIDMaskNeverCrossesTheWire(t *testing.T) {
	external := ExternalPushID(42)
	internal := external.InternalPushID()
	if !internal.IsInternal() {
		t.Fatal("InternalPushID: expected IsInternal() true")
	}
	if internal.External() != external {
		t.Fatalf("External() = %d, want %d", internal.External(), external)
	}
	if internal.External().Value() != 42 {
		t.Fatalf("Value() = %d, want 42", internal.External().Value())
	}
}

// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package h3

import (
	"bytes"
	"testing"
)

type recordedPushPromise struct {
	id    PushID
	block []byte
}

// recordingVisitor implements Visitor by appending every event it sees,
// for assertion in table-driven tests.
type recordingVisitor struct {
	headers       [][]byte
	dataChunks    [][]byte
	dataFrameEnds int
	priorities    []PriorityUpdate
	cancelPushes  []PushID
	settings      [][]SettingPair
	pushPromises  []recordedPushPromise
	goaways       []uint64
	maxPushIDs    []PushID
	unknownFrames []FrameHeader
	frameHeaders  []FrameHeader
	errors        []*Exception
}

func newRecordingVisitor() *recordingVisitor { return &recordingVisitor{} }

func (v *recordingVisitor) OnFrameHeader(h FrameHeader) { v.frameHeaders = append(v.frameHeaders, h) }
func (v *recordingVisitor) OnData(chunk DataChunk) {
	v.dataChunks = append(v.dataChunks, append([]byte(nil), chunk.Bytes()...))
	chunk.Release()
}
func (v *recordingVisitor) OnDataFrameEnd() { v.dataFrameEnds++ }
func (v *recordingVisitor) OnHeaders(block []byte) {
	v.headers = append(v.headers, append([]byte(nil), block...))
}
func (v *recordingVisitor) OnPriority(p PriorityUpdate)   { v.priorities = append(v.priorities, p) }
func (v *recordingVisitor) OnCancelPush(id PushID)        { v.cancelPushes = append(v.cancelPushes, id) }
func (v *recordingVisitor) OnSettings(pairs []SettingPair) {
	cp := append([]SettingPair(nil), pairs...)
	v.settings = append(v.settings, cp)
}
func (v *recordingVisitor) OnPushPromise(id PushID, block []byte) {
	v.pushPromises = append(v.pushPromises, recordedPushPromise{id, append([]byte(nil), block...)})
}
func (v *recordingVisitor) OnGoaway(id uint64)     { v.goaways = append(v.goaways, id) }
func (v *recordingVisitor) OnMaxPushID(id PushID)  { v.maxPushIDs = append(v.maxPushIDs, id) }
func (v *recordingVisitor) OnUnknownFrame(typ FrameType, length uint64) {
	v.unknownFrames = append(v.unknownFrames, FrameHeader{Type: typ, Length: length})
}
func (v *recordingVisitor) OnError(err *Exception) { v.errors = append(v.errors, err) }

func TestParserFragmentedDataFrame(t *testing.T) {
	full, err := WriteData(nil, bytes.Repeat([]byte("x"), 40))
	if err != nil {
		t.Fatal(err)
	}
	v := newRecordingVisitor()
	p := NewParser(RoleRequestStream, v)

	var got []byte
	var pending []byte
	// Feed the frame one byte at a time, mimicking a caller that retains
	// whatever OnIngress does not consume and resupplies it next call.
	for i := 0; i < len(full); i++ {
		pending = append(pending, full[i])
		n := p.OnIngress(pending)
		pending = pending[n:]
	}
	if len(pending) != 0 {
		t.Fatalf("leftover unconsumed bytes: %d", len(pending))
	}
	for _, c := range v.dataChunks {
		got = append(got, c...)
	}
	if !bytes.Equal(got, bytes.Repeat([]byte("x"), 40)) {
		t.Fatalf("reassembled DATA payload = %q, want 40 x's", got)
	}
	if v.dataFrameEnds != 1 {
		t.Fatalf("dataFrameEnds = %d, want 1", v.dataFrameEnds)
	}
	if len(v.errors) != 0 {
		t.Fatalf("unexpected errors: %v", v.errors)
	}
}

func TestParserCallerRetainsUnconsumedTail(t *testing.T) {
	// Two HEADERS frames back to back, delivered as: all of frame 1 plus
	// frame 2's header and the first byte of its payload, then the rest.
	f1, _ := WriteHeaders(nil, []byte("block-one"))
	f2, _ := WriteHeaders(nil, []byte("block-two"))
	whole := append(append([]byte{}, f1...), f2...)

	v := newRecordingVisitor()
	p := NewParser(RoleRequestStream, v)

	split := len(f1) + 3 // frame 2's type and length varints plus one payload byte, which stays unconsumed
	n1 := p.OnIngress(whole[:split])
	leftover := whole[:split][n1:]
	rest := append(append([]byte{}, leftover...), whole[split:]...)
	n2 := p.OnIngress(rest)
	if n2 != len(rest) {
		t.Fatalf("second OnIngress consumed %d of %d", n2, len(rest))
	}
	if len(v.headers) != 2 || string(v.headers[0]) != "block-one" || string(v.headers[1]) != "block-two" {
		t.Fatalf("headers = %q", v.headers)
	}
}

func TestParserUnknownFrameTypeIsSkipped(t *testing.T) {
	grease, _ := WriteGreaseFrame(nil, 5, []byte("opaque"))
	headers, _ := WriteHeaders(nil, []byte("after-grease"))
	buf := append(grease, headers...)

	v := newRecordingVisitor()
	p := NewParser(RoleRequestStream, v)
	n := p.OnIngress(buf)
	if n != len(buf) {
		t.Fatalf("consumed %d of %d", n, len(buf))
	}
	if len(v.errors) != 0 {
		t.Fatalf("unknown frame type must not error: %v", v.errors)
	}
	if len(v.headers) != 1 || string(v.headers[0]) != "after-grease" {
		t.Fatalf("headers after grease = %q", v.headers)
	}
}

func TestParserMalformedPriorityReservedBits(t *testing.T) {
	payload := []byte{0x07, 0x04, 0x10} // flags with all 3 reserved bits set
	var buf []byte
	buf, _, _ = AppendVarint(buf, uint64(frameTypePriority))
	buf, _, _ = AppendVarint(buf, uint64(len(payload)))
	buf = append(buf, payload...)

	v := newRecordingVisitor()
	p := NewParser(RoleRequestStream, v)
	p.OnIngress(buf)
	if len(v.errors) != 1 {
		t.Fatalf("expected one error, got %d: %v", len(v.errors), v.errors)
	}
	if v.errors[0].Code != MalformedFrameError(KindPriority) {
		t.Fatalf("error code = %v, want %v", v.errors[0].Code, MalformedFrameError(KindPriority))
	}
}

func TestParserDataFrameLengthZeroIsMalformed(t *testing.T) {
	var buf []byte
	buf, _, _ = AppendVarint(buf, uint64(frameTypeData))
	buf, _, _ = AppendVarint(buf, 0)

	v := newRecordingVisitor()
	p := NewParser(RoleRequestStream, v)
	p.OnIngress(buf)
	if len(v.errors) != 1 {
		t.Fatalf("expected one error for zero-length DATA, got %d", len(v.errors))
	}
	if v.errors[0].Code != MalformedFrameError(KindData) {
		t.Fatalf("error code = %v, want %v", v.errors[0].Code, MalformedFrameError(KindData))
	}
}

func TestParserSettingsNotAllowedOnRequestStream(t *testing.T) {
	dst, _ := WriteSettings(nil, []SettingPair{{ID: SettingMaxHeaderListSize, Value: 1}})
	v := newRecordingVisitor()
	p := NewParser(RoleRequestStream, v)
	p.OnIngress(dst)
	if len(v.errors) != 1 || v.errors[0].Code != ErrWrongStream {
		t.Fatalf("errors = %v, want one ErrWrongStream", v.errors)
	}
}

func TestParserDataNotAllowedOnControlStream(t *testing.T) {
	dst, _ := WriteData(nil, []byte("no"))
	v := newRecordingVisitor()
	p := NewParser(RoleControlStream, v)
	p.OnIngress(dst)
	if len(v.errors) != 1 || v.errors[0].Code != ErrWrongStreamDirection {
		t.Fatalf("errors = %v, want one ErrWrongStreamDirection", v.errors)
	}
}

func TestParserUnframedData(t *testing.T) {
	v := newRecordingVisitor()
	p := NewParser(RoleRequestStream, v)
	p.BeginUnframedData()

	n := p.OnIngress([]byte("raw unframed bytes, no header at all"))
	if n != len("raw unframed bytes, no header at all") {
		t.Fatalf("consumed %d, want all of it", n)
	}
	p.EndUnframedData()
	if v.dataFrameEnds != 1 {
		t.Fatalf("dataFrameEnds = %d, want 1", v.dataFrameEnds)
	}
	var got []byte
	for _, c := range v.dataChunks {
		got = append(got, c...)
	}
	if string(got) != "raw unframed bytes, no header at all" {
		t.Fatalf("reassembled unframed payload = %q", got)
	}
}

func TestParserPausedConsumesNothing(t *testing.T) {
	dst, _ := WriteHeaders(nil, []byte("x"))
	v := newRecordingVisitor()
	p := NewParser(RoleRequestStream, v)
	p.SetParserPaused(true)
	if n := p.OnIngress(dst); n != 0 {
		t.Fatalf("OnIngress while paused consumed %d, want 0", n)
	}
	p.SetParserPaused(false)
	if n := p.OnIngress(dst); n != len(dst) {
		t.Fatalf("OnIngress after resume consumed %d, want %d", n, len(dst))
	}
}

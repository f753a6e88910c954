// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Resumable streaming frame parser. Grounded directly on proxygen's
// HQFramedCodec (see
// _examples/original_source/proxygen/lib/http/codec/HQFramedCodec.cpp):
// OnIngress holds no buffer of its own between calls. frameState_,
// curHeader_ and pendingDataFrameBytes_ there correspond to state,
// curType/curLength and pendingDataBytes here; whatever OnIngress does
// not consume, the caller must retain and resupply — prepended to
// whatever new bytes have since arrived — on the next call.

package h3

// StreamRole identifies which kind of unidirectional or bidirectional
// stream a Parser is attached to, which in turn determines which frame
// kinds checkFrameAllowed lets through. One Parser serves exactly one
// stream for its whole lifetime.
type StreamRole uint8

const (
	RoleRequestStream StreamRole = iota
	RoleControlStream
	RolePushStream
)

func (r StreamRole) String() string {
	switch r {
	case RoleControlStream:
		return "CONTROL"
	case RolePushStream:
		return "PUSH"
	default:
		return "REQUEST"
	}
}

// checkFrameAllowed reports the stream error, if any, for seeing kind on
// a stream with the given role. Grounded on RFC 9114 section 7.2's
// per-frame-kind stream restrictions, as enforced in HQFramer.cpp's
// checkFrameAllowedOnEgressStream/checkFrameAllowedOnIngressStream.
func checkFrameAllowed(role StreamRole, kind FrameKind) *Exception {
	switch role {
	case RoleControlStream:
		switch kind {
		case KindSettings, KindGoaway, KindMaxPushID, KindCancelPush:
			return nil
		case KindData, KindHeaders, KindPushPromise, KindPriority:
			return newStreamError(ErrWrongStreamDirection, kind.String()+" not allowed on control stream")
		default:
			return nil // unknown types are always tolerated, per grease/forward-compat rules
		}
	case RolePushStream:
		switch kind {
		case KindData, KindHeaders, KindPriority:
			return nil
		case KindPushPromise:
			return newStreamError(ErrWrongStreamDirection, kind.String()+" not allowed on push stream")
		case KindSettings, KindGoaway, KindMaxPushID, KindCancelPush:
			return newStreamError(ErrWrongStream, kind.String()+" never allowed on a push stream")
		default:
			return nil
		}
	default: // RoleRequestStream
		switch kind {
		case KindData, KindHeaders, KindPriority, KindPushPromise:
			return nil
		case KindSettings, KindGoaway, KindMaxPushID, KindCancelPush:
			return newStreamError(ErrWrongStream, kind.String()+" never allowed on a request stream")
		default:
			return nil
		}
	}
}

// Visitor receives the events a Parser produces while walking a stream's
// bytes. Implementations should treat every callback as possibly firing
// partway through a larger logical unit (a DATA frame's payload arrives
// as a sequence of OnData calls, not one).
type Visitor interface {
	OnFrameHeader(h FrameHeader)
	OnData(chunk DataChunk)
	OnDataFrameEnd()
	OnHeaders(headerBlock []byte)
	OnPriority(p PriorityUpdate)
	OnCancelPush(pushID PushID)
	OnSettings(pairs []SettingPair)
	OnPushPromise(pushID PushID, headerBlock []byte)
	OnGoaway(id uint64)
	OnMaxPushID(pushID PushID)
	OnUnknownFrame(typ FrameType, length uint64)
	OnError(err *Exception)
}

type frameState uint8

const (
	stateHeaderType frameState = iota
	stateHeaderLength
	statePayload
	statePayloadStreaming   // DATA, framed: pendingDataBytes counts down to 0
	statePayloadPRStreaming // unframed DATA: runs until OnStreamReset/EndUnframedData
	stateDiscard            // unknown frame type: skip length bytes, no parsing
	stateTerminal           // a connection error occurred; further bytes are ignored
)

// Parser is a resumable HTTP/3 frame parser for a single QUIC stream.
// It holds no byte buffer: OnIngress returns how many leading bytes of
// buf it consumed, and it is the caller's responsibility to retain and
// represent any unconsumed suffix on the next call.
type Parser struct {
	role     StreamRole
	visitor  Visitor
	paused   bool
	settings bool // SettingsFrameSeen: a SETTINGS frame has been fully parsed

	state     frameState
	curType   FrameType
	curLength uint64

	pendingDataBytes    uint64
	pendingDiscardBytes uint64
}

// NewParser creates a Parser for one stream of the given role, reporting
// events to visitor.
func NewParser(role StreamRole, visitor Visitor) *Parser {
	return &Parser{role: role, visitor: visitor}
}

// SetParserPaused pauses or resumes parsing. While paused, OnIngress
// consumes nothing and returns 0 immediately; this gives a caller a way
// to apply backpressure, e.g. while a QPACK header block is being
// decoded asynchronously.
func (p *Parser) SetParserPaused(paused bool) { p.paused = paused }

// SettingsFrameSeen reports whether a SETTINGS frame has been fully
// parsed on this stream yet. Supplements the base spec: a control-stream
// session can use this to enforce "SETTINGS must be the first frame".
func (p *Parser) SettingsFrameSeen() bool { return p.settings }

// OnStreamReset tells the parser its stream was reset and no further
// bytes will arrive. streamID is not used by the parser; the error the
// visitor receives does not carry it. The parser moves to a terminal state.
func (p *Parser) OnStreamReset(streamID uint64) {
	p.state = stateTerminal
	p.visitor.OnError(&Exception{
		Direction: DirectionIngress,
		Code:      ErrRequestCancelled,
		Reason:    "stream reset",
	})
}

// BeginUnframedData switches the parser directly into unframed
// (partially-reliable) DATA mode: every subsequent byte on the stream,
// with no frame header at all, is payload. Used for WebTransport-style
// streams.
func (p *Parser) BeginUnframedData() {
	p.state = statePayloadPRStreaming
}

// EndUnframedData exits unframed DATA mode, signaling that the stream's
// remaining bytes (if any) resume ordinary framing.
func (p *Parser) EndUnframedData() {
	if p.state == statePayloadPRStreaming {
		p.visitor.OnDataFrameEnd()
		p.state = stateHeaderType
	}
}

// fail reports a connection error to the visitor and halts the parser.
func (p *Parser) fail(err *Exception) {
	p.state = stateTerminal
	p.visitor.OnError(err)
}

// OnIngress feeds newly arrived bytes to the parser. It returns how many
// leading bytes of buf were consumed; the caller must retain buf[n:] and
// prepend it to whatever arrives next.
func (p *Parser) OnIngress(buf []byte) (consumed int) {
	if p.paused {
		return 0
	}
	pos := 0
	for pos < len(buf) {
		switch p.state {
		case stateTerminal:
			return pos

		case stateHeaderType:
			val, n, ok := DecodeVarint(buf[pos:])
			if !ok {
				return pos
			}
			p.curType = FrameType(val)
			pos += n
			p.state = stateHeaderLength

		case stateHeaderLength:
			val, n, ok := DecodeVarint(buf[pos:])
			if !ok {
				return pos
			}
			p.curLength = val
			pos += n

			kind := p.curType.Kind()
			tracef("h3: frame header type=%s length=%d role=%s\n", kind, p.curLength, p.role)
			p.visitor.OnFrameHeader(FrameHeader{Type: p.curType, Length: p.curLength})

			if exc := checkFrameAllowed(p.role, kind); exc != nil {
				p.fail(exc)
				return pos
			}

			switch kind {
			case KindUnknown:
				p.visitor.OnUnknownFrame(p.curType, p.curLength)
				p.pendingDiscardBytes = p.curLength
				p.state = stateDiscard
			case KindData:
				if p.curLength == 0 {
					p.fail(newFrameError(KindData, "DATA frame length is 0"))
					return pos
				}
				p.pendingDataBytes = p.curLength
				p.state = statePayloadStreaming
			default:
				p.state = statePayload
			}

		case statePayload:
			if uint64(len(buf)-pos) < p.curLength {
				return pos
			}
			payload := buf[pos : pos+int(p.curLength)]
			pos += int(p.curLength)
			if exc := p.parsePayload(p.curType.Kind(), payload); exc != nil {
				p.fail(exc)
				return pos
			}
			p.state = stateHeaderType

		case statePayloadStreaming:
			avail := len(buf) - pos
			take := avail
			if uint64(take) > p.pendingDataBytes {
				take = int(p.pendingDataBytes)
			}
			if take > dataChunkCap {
				take = dataChunkCap
			}
			if take == 0 {
				return pos
			}
			chunk := newDataChunk(buf[pos : pos+take])
			p.visitor.OnData(chunk)
			pos += take
			p.pendingDataBytes -= uint64(take)
			if p.pendingDataBytes == 0 {
				p.visitor.OnDataFrameEnd()
				p.state = stateHeaderType
			}

		case statePayloadPRStreaming:
			avail := len(buf) - pos
			take := avail
			if take > dataChunkCap {
				take = dataChunkCap
			}
			if take == 0 {
				return pos
			}
			chunk := newDataChunk(buf[pos : pos+take])
			p.visitor.OnData(chunk)
			pos += take

		case stateDiscard:
			avail := uint64(len(buf) - pos)
			take := avail
			if take > p.pendingDiscardBytes {
				take = p.pendingDiscardBytes
			}
			pos += int(take)
			p.pendingDiscardBytes -= take
			if p.pendingDiscardBytes == 0 {
				p.state = stateHeaderType
			} else {
				return pos
			}
		}
	}
	return pos
}

// parsePayload decodes a fully-buffered, non-DATA frame payload and
// fires the matching Visitor callback. Grounded on HQFramer.cpp's
// parsePriority/parseCancelPush/parseSettings/parsePushPromise/
// parseGoaway/parseMaxPushId.
func (p *Parser) parsePayload(kind FrameKind, payload []byte) *Exception {
	switch kind {
	case KindHeaders:
		p.visitor.OnHeaders(payload)
		return nil

	case KindPriority:
		return p.parsePriority(payload)

	case KindCancelPush:
		id, n, ok := DecodeVarint(payload)
		if !ok || n != len(payload) {
			return newFrameError(KindCancelPush, "malformed CANCEL_PUSH payload")
		}
		p.visitor.OnCancelPush(ExternalPushID(id).InternalPushID())
		return nil

	case KindSettings:
		pairs, exc := parseSettingsPayload(payload)
		if exc != nil {
			return exc
		}
		p.settings = true
		p.visitor.OnSettings(pairs)
		return nil

	case KindPushPromise:
		id, n, ok := DecodeVarint(payload)
		if !ok {
			return newFrameError(KindPushPromise, "malformed PUSH_PROMISE payload")
		}
		p.visitor.OnPushPromise(ExternalPushID(id).InternalPushID(), payload[n:])
		return nil

	case KindGoaway:
		id, n, ok := DecodeVarint(payload)
		if !ok || n != len(payload) {
			return newFrameError(KindGoaway, "malformed GOAWAY payload")
		}
		p.visitor.OnGoaway(id)
		return nil

	case KindMaxPushID:
		id, n, ok := DecodeVarint(payload)
		if !ok || n != len(payload) {
			return newFrameError(KindMaxPushID, "malformed MAX_PUSH_ID payload")
		}
		p.visitor.OnMaxPushID(ExternalPushID(id).InternalPushID())
		return nil

	default:
		return nil
	}
}

func (p *Parser) parsePriority(payload []byte) *Exception {
	if len(payload) < 2 {
		return newFrameError(KindPriority, "PRIORITY payload too short")
	}
	prioritizedType, dependencyType, exclusive, ok := decodePriorityFlags(payload[0])
	if !ok {
		return newFrameError(KindPriority, "PRIORITY reserved flag bits set")
	}
	if prioritizedType == PriorityTreeRoot {
		return newFrameError(KindPriority, "PRIORITY must not prioritize the tree root")
	}
	rest := payload[1:]
	prioritizedID, n, ok := DecodeVarint(rest)
	if !ok {
		return newFrameError(KindPriority, "PRIORITY missing prioritized element id")
	}
	rest = rest[n:]

	var dependencyID uint64
	if dependencyType != PriorityTreeRoot {
		dependencyID, n, ok = DecodeVarint(rest)
		if !ok {
			return newFrameError(KindPriority, "PRIORITY missing element dependency id")
		}
		rest = rest[n:]
	}
	if len(rest) != 1 {
		return newFrameError(KindPriority, "PRIORITY payload has wrong trailing length")
	}
	p.visitor.OnPriority(PriorityUpdate{
		PrioritizedType:      prioritizedType,
		DependencyType:       dependencyType,
		Exclusive:            exclusive,
		PrioritizedElementID: prioritizedID,
		ElementDependencyID:  dependencyID,
		Weight:               rest[0],
	})
	return nil
}

// parseSettingsPayload decodes a sequence of (id, value) varint pairs.
// Pairs with an unknown setting id are fully decoded, so the frame
// boundary stays correct, and then dropped from the returned list.
func parseSettingsPayload(payload []byte) ([]SettingPair, *Exception) {
	var pairs []SettingPair
	for len(payload) > 0 {
		id, n, ok := DecodeVarint(payload)
		if !ok {
			return nil, newFrameError(KindSettings, "truncated SETTINGS identifier")
		}
		payload = payload[n:]
		value, n, ok := DecodeVarint(payload)
		if !ok {
			return nil, newFrameError(KindSettings, "truncated SETTINGS value")
		}
		payload = payload[n:]
		switch SettingID(id) {
		case SettingHeaderTableSize, SettingNumPlaceholders, SettingMaxHeaderListSize, SettingQPACKBlockedStreams:
			pairs = append(pairs, SettingPair{ID: SettingID(id), Value: value})
		}
	}
	return pairs, nil
}

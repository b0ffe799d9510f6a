// Package network carries agent hook events to the stage over framed TCP streams
package network

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/s2"
	"github.com/lixenwraith/vi-office/agent"
)

// MessageType identifies the meaning of a frame
type MessageType uint8

const (
	MsgHeartbeat MessageType = 0x01
	MsgAck       MessageType = 0x04
	MsgEvent     MessageType = 0x12 // one JSON hook event
	MsgReject    MessageType = 0x13 // UTF-8 reason an event was refused
)

func (t MessageType) String() string {
	switch t {
	case MsgHeartbeat:
		return "heartbeat"
	case MsgAck:
		return "ack"
	case MsgEvent:
		return "event"
	case MsgReject:
		return "reject"
	default:
		return fmt.Sprintf("0x%02x", uint8(t))
	}
}

// HeaderSize is the fixed frame prefix: [Type:1][Flags:1][Seq:4][Len:4]
const HeaderSize = 10

// MaxPayload bounds one frame payload, compressed or not
const MaxPayload = 1 << 20

// compressMin is the smallest event payload worth compressing
const compressMin = 512

const (
	FlagNone       uint8 = 0x00
	FlagNeedAck    uint8 = 0x01 // sender waits for ack or reject
	FlagCompressed uint8 = 0x02 // payload is s2 block encoded
)

var (
	ErrPayloadTooLarge = errors.New("network: payload too large")
	ErrBadEvent        = errors.New("network: bad event")
)

// Message is one frame
type Message struct {
	Type    MessageType
	Flags   uint8
	Seq     uint32
	Payload []byte
}

// Encode writes the header and payload
func (m *Message) Encode(w io.Writer) error {
	if len(m.Payload) > MaxPayload {
		return fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(m.Payload))
	}
	var header [HeaderSize]byte
	header[0] = byte(m.Type)
	header[1] = m.Flags
	binary.BigEndian.PutUint32(header[2:6], m.Seq)
	binary.BigEndian.PutUint32(header[6:10], uint32(len(m.Payload)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	if len(m.Payload) > 0 {
		if _, err := w.Write(m.Payload); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads one frame, refusing payloads over MaxPayload before allocating
func Decode(r io.Reader) (*Message, error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(header[6:10])
	if n > MaxPayload {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, n)
	}
	m := &Message{
		Type:  MessageType(header[0]),
		Flags: header[1],
		Seq:   binary.BigEndian.Uint32(header[2:6]),
	}
	if n > 0 {
		m.Payload = make([]byte, n)
		if _, err := io.ReadFull(r, m.Payload); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// NeedAck reports whether the sender waits for a reply
func (m *Message) NeedAck() bool {
	return m.Flags&FlagNeedAck != 0
}

// EventMessage encodes ev, compressing large payloads
func EventMessage(ev agent.Event, needAck bool) (*Message, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("network: encode event: %w", err)
	}
	m := &Message{Type: MsgEvent, Payload: payload}
	if len(payload) >= compressMin {
		m.Payload = s2.Encode(nil, payload)
		m.Flags |= FlagCompressed
	}
	if needAck {
		m.Flags |= FlagNeedAck
	}
	return m, nil
}

// Event decodes an event frame payload
func (m *Message) Event() (agent.Event, error) {
	var ev agent.Event
	if m.Type != MsgEvent {
		return ev, fmt.Errorf("%w: frame type %s", ErrBadEvent, m.Type)
	}
	payload := m.Payload
	if m.Flags&FlagCompressed != 0 {
		size, err := s2.DecodedLen(payload)
		if err != nil {
			return ev, fmt.Errorf("%w: %v", ErrBadEvent, err)
		}
		if size > MaxPayload {
			return ev, fmt.Errorf("%w: %d bytes decoded", ErrPayloadTooLarge, size)
		}
		if payload, err = s2.Decode(nil, payload); err != nil {
			return ev, fmt.Errorf("%w: %v", ErrBadEvent, err)
		}
	}
	if err := json.Unmarshal(payload, &ev); err != nil {
		return ev, fmt.Errorf("%w: %v", ErrBadEvent, err)
	}
	if ev.Type == "" {
		return ev, fmt.Errorf("%w: missing type", ErrBadEvent)
	}
	return ev, nil
}

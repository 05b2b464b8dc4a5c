// Package wire defines the fixed 32-byte radio frame: a big-endian uint16
// sequence number followed by a 30-byte constant-bitrate Opus payload.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"

	"faraday-voice/internal/audio/config"
)

const (
	SeqSize     = config.SeqSize
	PayloadSize = config.PayloadSize
	FrameSize   = config.WireFrameSize
)

var (
	// ErrShortFrame is returned for a transport unit that is not exactly FrameSize bytes.
	ErrShortFrame = errors.New("short wire frame")
	// ErrPayloadTooLarge is returned when a payload does not fit the frame.
	ErrPayloadTooLarge = errors.New("payload exceeds wire frame")
)

// Frame is one decoded wire frame. Payload bytes past the codec output are zero.
type Frame struct {
	Seq     uint16
	Payload [PayloadSize]byte
}

// NewFrame copies payload into a frame, zero-filling the remainder.
func NewFrame(seq uint16, payload []byte) (Frame, error) {
	f := Frame{Seq: seq}
	if len(payload) > PayloadSize {
		return f, fmt.Errorf("%w: %d > %d bytes", ErrPayloadTooLarge, len(payload), PayloadSize)
	}
	copy(f.Payload[:], payload)
	return f, nil
}

// Put writes the frame into buf, which must be at least FrameSize bytes.
func (f *Frame) Put(buf []byte) {
	_ = buf[FrameSize-1]
	binary.BigEndian.PutUint16(buf[0:SeqSize], f.Seq)
	copy(buf[SeqSize:FrameSize], f.Payload[:])
}

func (f *Frame) MarshalBinary() ([]byte, error) {
	buf := make([]byte, FrameSize)
	f.Put(buf)
	return buf, nil
}

func (f *Frame) UnmarshalBinary(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Parse decodes exactly FrameSize bytes. Anything else is a short transport unit.
func Parse(data []byte) (Frame, error) {
	var f Frame
	if len(data) != FrameSize {
		return f, fmt.Errorf("%w: expected %d bytes, got %d", ErrShortFrame, FrameSize, len(data))
	}
	f.Seq = binary.BigEndian.Uint16(data[0:SeqSize])
	copy(f.Payload[:], data[SeqSize:])
	return f, nil
}

// PayloadLen is the payload length without the trailing zero fill. A codec
// packet that itself ends in zero bytes is reported shorter than it was.
func (f *Frame) PayloadLen() int {
	n := PayloadSize
	for n > 0 && f.Payload[n-1] == 0 {
		n--
	}
	return n
}

func (f *Frame) String() string {
	return fmt.Sprintf("Frame{Seq:%d, PayloadLen:%d}", f.Seq, f.PayloadLen())
}

// SeqGap returns the signed modular distance from prev to cur.
// 1 means in order, >1 means cur-prev-1 frames are missing,
// <=0 means a duplicate or a reordered (late) frame.
func SeqGap(prev, cur uint16) int {
	return int(int16(cur - prev))
}

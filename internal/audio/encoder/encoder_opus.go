package encoder

import (
	"errors"
	"fmt"

	"faraday-voice/internal/audio/convert"

	"layeh.com/gopus"
)

var (
	ErrInvalidFrameSize = errors.New("invalid opus frame size for given sampleRate")
	ErrConfigNotApplied = errors.New("opus encoder setting not applied")
)

// OpusEncoder encodes with libopus through gopus, which exposes OPUS_SET_VBR.
type OpusEncoder struct {
	enc        *gopus.Encoder
	sampleRate int
	channels   int
	frameSize  int // samples per channel per packet
}

// NewOpusEncoder creates a VoIP-mode opus encoder.
func NewOpusEncoder(sampleRate, channels, frameSize int) (*OpusEncoder, error) {
	if !convert.IsFrameSizeValid(sampleRate, frameSize) {
		return nil, ErrInvalidFrameSize
	}
	enc, err := gopus.NewEncoder(sampleRate, channels, gopus.Voip)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus encoder: %w", err)
	}
	return &OpusEncoder{
		enc:        enc,
		sampleRate: sampleRate,
		channels:   channels,
		frameSize:  frameSize,
	}, nil
}

// Configure sets the target bitrate and switches variable bitrate on or off.
// Both settings are read back from libopus; a value that did not stick is an
// error. With vbr off every packet has the same size.
func (e *OpusEncoder) Configure(bitrate int, vbr bool) error {
	e.enc.SetBitrate(bitrate)
	if got := e.enc.Bitrate(); got != bitrate {
		return fmt.Errorf("%w: bitrate %d, encoder reports %d", ErrConfigNotApplied, bitrate, got)
	}
	e.enc.SetVbr(vbr)
	if got := e.enc.Vbr(); got != vbr {
		return fmt.Errorf("%w: vbr=%t, encoder reports vbr=%t", ErrConfigNotApplied, vbr, got)
	}
	return nil
}

// Encode compresses exactly one frame of interleaved samples into out.
// len(out) is the largest packet libopus may produce.
func (e *OpusEncoder) Encode(pcm []int16, out []byte) (int, error) {
	if len(pcm) != e.frameSize*e.channels {
		return 0, fmt.Errorf("%w: got %d samples, want %d", ErrInvalidFrameSize, len(pcm), e.frameSize*e.channels)
	}
	packet, err := e.enc.Encode(pcm, e.frameSize, len(out))
	if err != nil {
		return 0, err
	}
	return copy(out, packet), nil
}

func (e *OpusEncoder) FrameSize() int {
	return e.frameSize
}

// VBR reports whether libopus currently runs in variable bitrate mode.
func (e *OpusEncoder) VBR() bool {
	return e.enc.Vbr()
}

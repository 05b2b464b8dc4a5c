package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"faraday-voice/internal/audio/config"
	"faraday-voice/internal/audio/convert"
	"faraday-voice/internal/audio/encoder"
	"faraday-voice/internal/wire"
)

// Encoder reads PCM frames from src and emits one wire frame per frame to dst.
type Encoder struct {
	src   io.Reader
	dst   wire.FrameWriter
	codec encoder.Encoder
	opts  options

	seq     uint16
	state   State
	pcm     []byte
	samples []int16
	payload []byte
}

func NewEncoder(src io.Reader, dst wire.FrameWriter, codec encoder.Encoder, opts ...Option) (*Encoder, error) {
	if codec == nil {
		return nil, ErrEncoderNil
	}
	return &Encoder{
		src:     src,
		dst:     dst,
		codec:   codec,
		opts:    newOptions(opts),
		seq:     config.FirstSeq,
		state:   StateInit,
		pcm:     make([]byte, config.FrameBytes),
		samples: make([]int16, config.FrameSamples),
		payload: make([]byte, config.PayloadSize),
	}, nil
}

// Run encodes until the PCM source ends, a fatal error occurs or ctx is done.
// End of input, including a trailing partial frame, returns nil.
func (p *Encoder) Run(ctx context.Context) error {
	if p.state != StateInit {
		return fmt.Errorf("encoder pipeline already %s", p.state)
	}
	p.state = StateRunning
	defer func() {
		p.opts.log.Debug().Str("state", p.state.String()).Uint16("next_seq", p.seq).Msg("Encoder pipeline stopped")
	}()

	for {
		if err := ctx.Err(); err != nil {
			p.state = StateTerminatedError
			return err
		}
		if err := p.Step(); err != nil {
			if errors.Is(err, io.EOF) {
				p.state = StateTerminatedEOF
				return nil
			}
			p.state = StateTerminatedError
			return err
		}
	}
}

// Step processes one 20 ms epoch. It returns io.EOF when the source is exhausted.
func (p *Encoder) Step() error {
	n, err := io.ReadFull(p.src, p.pcm)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			p.opts.metrics.ShortUnits.Inc()
			p.opts.log.Warn().
				Int("bytes", n).
				Int("want", config.FrameBytes).
				Msg("Short read on input sample, dropping partial frame")
			return io.EOF
		}
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return fmt.Errorf("failed to read pcm: %w", err)
	}
	convert.ReadInt16s(p.samples, p.pcm)

	clear(p.payload)
	opusLen, err := p.codec.Encode(p.samples, p.payload)
	if err != nil {
		p.opts.metrics.CodecErrors.WithLabelValues("encode").Inc()
		return fmt.Errorf("%w: encode seq %d: %w", ErrCodec, p.seq, err)
	}
	if opusLen < 0 || opusLen > config.PayloadSize {
		p.opts.metrics.CodecErrors.WithLabelValues("encode").Inc()
		return fmt.Errorf("%w: encode seq %d returned %d bytes", ErrCodec, p.seq, opusLen)
	}

	frame, err := wire.NewFrame(p.seq, p.payload[:opusLen])
	if err != nil {
		return err
	}
	if err := p.dst.WriteFrame(frame); err != nil {
		return fmt.Errorf("failed to write frame %d: %w", p.seq, err)
	}

	p.opts.log.Debug().Uint16("seq", p.seq).Int("opus_len", opusLen).Msg("frame")
	p.opts.metrics.FramesEncoded.Inc()
	p.seq++
	return nil
}

// Seq is the sequence number the next frame will carry.
func (p *Encoder) Seq() uint16 {
	return p.seq
}

func (p *Encoder) State() State {
	return p.state
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"faraday-voice/internal/audio/config"
	"faraday-voice/internal/audio/convert"
	"faraday-voice/internal/audio/decoder"
	"faraday-voice/internal/wire"
)

// ResyncWindow bounds how far behind the in-order cursor a frame may be and
// still count as late. Anything further back is taken as a sender restart.
const ResyncWindow = 64

// SeqObservation compares one received sequence number with local state.
type SeqObservation struct {
	Expected uint16 // local counter, one per processed frame
	Received uint16
	Gap      int  // signed distance from the last in-order frame, 1 when nothing is missing
	Resync   bool // cursor re-anchored on Received
}

func (o SeqObservation) Mismatch() bool {
	return o.Expected != o.Received
}

// Discrepancy reports anything worth a diagnostic: a counter mismatch, or a
// frame that is not the direct successor of the last in-order one.
func (o SeqObservation) Discrepancy() bool {
	return o.Mismatch() || o.Gap != 1 || o.Resync
}

// Missing is the number of frames skipped by a forward gap.
func (o SeqObservation) Missing() int {
	if o.Gap > 1 {
		return o.Gap - 1
	}
	return 0
}

// Decoder reads wire frames from src and writes one PCM frame per wire frame to dst.
type Decoder struct {
	src   wire.FrameReader
	dst   io.Writer
	codec decoder.Decoder
	opts  options

	expected uint16
	last     uint16
	seen     bool
	state    State
	pcm      []int16
	out      []byte
}

func NewDecoder(src wire.FrameReader, dst io.Writer, codec decoder.Decoder, opts ...Option) (*Decoder, error) {
	if codec == nil {
		return nil, ErrDecoderNil
	}
	return &Decoder{
		src:      src,
		dst:      dst,
		codec:    codec,
		opts:     newOptions(opts),
		expected: config.FirstSeq,
		last:     config.FirstSeq - 1,
		state:    StateInit,
		pcm:      make([]int16, config.FrameSamples),
		out:      make([]byte, config.FrameBytes),
	}, nil
}

// Run decodes until the wire source ends, a fatal error occurs or ctx is done.
// A clean end between frames returns nil; a partial frame returns wire.ErrShortFrame.
func (p *Decoder) Run(ctx context.Context) error {
	if p.state != StateInit {
		return fmt.Errorf("decoder pipeline already %s", p.state)
	}
	p.state = StateRunning
	defer func() {
		p.opts.log.Debug().Str("state", p.state.String()).Uint16("seq_mine", p.expected).Msg("Decoder pipeline stopped")
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

// Step processes one wire frame. It returns io.EOF when the source is exhausted.
func (p *Decoder) Step() error {
	frame, err := p.src.ReadFrame()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		if errors.Is(err, wire.ErrShortFrame) {
			p.opts.metrics.ShortUnits.Inc()
		}
		return fmt.Errorf("failed to read frame: %w", err)
	}

	obs := p.observe(frame.Seq)
	p.opts.log.Debug().Uint16("seq_mine", obs.Expected).Uint16("seq_theirs", obs.Received).Msg("frame")
	if obs.Discrepancy() {
		p.report(obs)
	}
	if missing := obs.Missing(); missing > 0 && p.seen {
		p.opts.metrics.FramesLost.Add(float64(missing))
		if err := p.conceal(obs); err != nil {
			return err
		}
	}
	p.seen = true

	n, err := p.codec.Decode(frame.Payload[:], p.pcm)
	if err != nil {
		p.opts.metrics.CodecErrors.WithLabelValues("decode").Inc()
		return fmt.Errorf("%w: decode seq %d: %w", ErrCodec, frame.Seq, err)
	}
	if n != config.FrameSamples {
		p.opts.metrics.CodecErrors.WithLabelValues("decode").Inc()
		return fmt.Errorf("%w: %w: decoded %d samples, want %d", ErrCodec, ErrFrameLength, n, config.FrameSamples)
	}
	if err := p.writePCM(); err != nil {
		return err
	}

	p.opts.metrics.FramesDecoded.Inc()
	p.expected++
	return nil
}

// observe records frame order. Late and duplicate frames do not move the
// in-order cursor, so they cannot fake a gap for the frames after them. The
// first frame anchors the cursor; later, a frame more than ResyncWindow
// behind re-anchors it.
func (p *Decoder) observe(seq uint16) SeqObservation {
	obs := SeqObservation{
		Expected: p.expected,
		Received: seq,
		Gap:      wire.SeqGap(p.last, seq),
	}
	switch {
	case obs.Gap > 0 || !p.seen:
		p.last = seq
	case obs.Gap < -ResyncWindow:
		obs.Resync = true
		p.last = seq
	}
	return obs
}

func (p *Decoder) report(obs SeqObservation) {
	p.opts.metrics.SeqDiscrepancies.Inc()

	if !p.seen {
		p.opts.log.Info().
			Uint16("seq_mine", obs.Expected).
			Uint16("seq_theirs", obs.Received).
			Msg("Stream starts mid-sequence")
		return
	}

	// An in-order frame after an earlier loss still mismatches the local
	// counter; keep that at debug so only new gaps are loud.
	ev := p.opts.log.Warn()
	if obs.Gap == 1 {
		ev = p.opts.log.Debug()
	}
	ev = ev.Uint16("seq_mine", obs.Expected).
		Uint16("seq_theirs", obs.Received).
		Int("gap", obs.Gap)
	switch {
	case obs.Resync:
		ev.Msg("Sequence reset, resynchronizing")
	case obs.Gap > 1:
		ev.Int("missing", obs.Missing()).Msg("Sequence gap, frames lost")
	case obs.Gap <= 0:
		ev.Msg("Late or duplicate frame")
	default:
		ev.Msg("Sequence mismatch")
	}
}

// conceal is where loss handling plugs in. Under LossPolicyNone nothing is
// synthesized. Gaps before the first received frame are never filled.
func (p *Decoder) conceal(obs SeqObservation) error {
	if p.opts.policy == config.LossPolicyNone {
		return nil
	}

	missing := obs.Missing()
	if missing > p.opts.maxConceal {
		p.opts.log.Warn().
			Int("missing", missing).
			Int("max", p.opts.maxConceal).
			Msg("Gap exceeds concealment limit")
		missing = p.opts.maxConceal
	}

	for n := 0; n < missing; n++ {
		switch p.opts.policy {
		case config.LossPolicyPLC:
			if err := p.codec.DecodePLC(p.pcm); err != nil {
				p.opts.metrics.CodecErrors.WithLabelValues("plc").Inc()
				return fmt.Errorf("%w: conceal before seq %d: %w", ErrCodec, obs.Received, err)
			}
		case config.LossPolicySilence:
			clear(p.pcm)
		}
		if err := p.writePCM(); err != nil {
			return err
		}
		p.opts.metrics.FramesConcealed.Inc()
	}
	return nil
}

func (p *Decoder) writePCM() error {
	convert.PutInt16s(p.out, p.pcm)
	n, err := p.dst.Write(p.out)
	if err != nil {
		return fmt.Errorf("failed to write pcm: %w", err)
	}
	if n != len(p.out) {
		return fmt.Errorf("failed to write pcm: %w", io.ErrShortWrite)
	}
	return nil
}

// Expected is the sequence number the decoder expects next.
func (p *Decoder) Expected() uint16 {
	return p.expected
}

func (p *Decoder) State() State {
	return p.state
}

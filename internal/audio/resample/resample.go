// Package resample adapts PCM streams at a device rate to the 16 kHz codec rate.
// Samples are signed 16-bit little endian mono on both sides.
package resample

import (
	"errors"
	"fmt"
	"io"

	"faraday-voice/internal/audio/config"
	"faraday-voice/internal/audio/convert"

	"github.com/dh1tw/gosamplerate"
)

const bufferLen = 8192

var ErrSameRate = errors.New("input and output rates are equal")

type converter struct {
	src   gosamplerate.Src
	ratio float64
	chunk int // max input samples per Process call
}

func newConverter(inRate, outRate int) (*converter, error) {
	if inRate <= 0 || outRate <= 0 {
		return nil, fmt.Errorf("invalid rates %d -> %d", inRate, outRate)
	}
	if inRate == outRate {
		return nil, ErrSameRate
	}
	src, err := gosamplerate.New(gosamplerate.SRC_SINC_FASTEST, config.Channels, bufferLen)
	if err != nil {
		return nil, fmt.Errorf("failed to create sample rate converter: %w", err)
	}
	ratio := float64(outRate) / float64(inRate)
	chunk := bufferLen / 2
	if ratio > 1 {
		chunk = int(float64(chunk) / ratio)
	}
	return &converter{src: src, ratio: ratio, chunk: chunk}, nil
}

func (c *converter) process(in []float32, last bool) ([]float32, error) {
	var out []float32
	for len(in) > c.chunk {
		res, err := c.src.Process(in[:c.chunk], c.ratio, false)
		if err != nil {
			return nil, err
		}
		out = append(out, res...)
		in = in[c.chunk:]
	}
	res, err := c.src.Process(in, c.ratio, last)
	if err != nil {
		return nil, err
	}
	return append(out, res...), nil
}

func (c *converter) close() error {
	return gosamplerate.Delete(c.src)
}

// Reader resamples PCM read from r to the codec rate.
type Reader struct {
	r       io.Reader
	conv    *converter
	in      []byte
	carry   []byte // odd trailing byte of the previous read
	pending []byte
	eof     bool
}

// NewReader returns a Reader converting inRate PCM from r to config.SampleRate.
func NewReader(r io.Reader, inRate int) (*Reader, error) {
	conv, err := newConverter(inRate, config.SampleRate)
	if err != nil {
		return nil, err
	}
	return &Reader{
		r:    r,
		conv: conv,
		in:   make([]byte, conv.chunk*2),
	}, nil
}

func (r *Reader) Read(p []byte) (int, error) {
	for len(r.pending) == 0 {
		if r.eof {
			return 0, io.EOF
		}
		if err := r.fill(); err != nil {
			return 0, err
		}
	}
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

func (r *Reader) fill() error {
	n, err := r.r.Read(r.in)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	last := errors.Is(err, io.EOF)

	data := append(r.carry, r.in[:n]...)
	whole := len(data) &^ 1
	r.carry = append([]byte(nil), data[whole:]...)

	out, perr := r.conv.process(convert.Int16ToFloat32(convert.BytesToInt16(data[:whole])), last)
	if perr != nil {
		return fmt.Errorf("failed to resample: %w", perr)
	}
	r.pending = convert.Int16ToBytes(convert.Float32ToInt16(out))
	if last {
		r.eof = true
	}
	return nil
}

func (r *Reader) Close() error {
	return r.conv.close()
}

// Writer resamples codec-rate PCM written to it and forwards it to w at outRate.
// Close flushes the converter and must be called once the stream ends.
type Writer struct {
	w     io.Writer
	conv  *converter
	carry []byte
}

func NewWriter(w io.Writer, outRate int) (*Writer, error) {
	conv, err := newConverter(config.SampleRate, outRate)
	if err != nil {
		return nil, err
	}
	return &Writer{w: w, conv: conv}, nil
}

func (w *Writer) Write(p []byte) (int, error) {
	data := append(w.carry, p...)
	whole := len(data) &^ 1
	w.carry = append([]byte(nil), data[whole:]...)
	if err := w.emit(data[:whole], false); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *Writer) Close() error {
	err := w.emit(nil, true)
	return errors.Join(err, w.conv.close())
}

func (w *Writer) emit(data []byte, last bool) error {
	out, err := w.conv.process(convert.Int16ToFloat32(convert.BytesToInt16(data)), last)
	if err != nil {
		return fmt.Errorf("failed to resample: %w", err)
	}
	if len(out) == 0 {
		return nil
	}
	_, err = w.w.Write(convert.Int16ToBytes(convert.Float32ToInt16(out)))
	return err
}

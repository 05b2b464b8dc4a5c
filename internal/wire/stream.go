package wire

import (
	"errors"
	"fmt"
	"io"
)

// FrameReader yields whole wire frames. io.EOF marks a clean end between frames.
type FrameReader interface {
	ReadFrame() (Frame, error)
}

// FrameWriter emits one wire frame per call.
type FrameWriter interface {
	WriteFrame(Frame) error
}

// Reader reads fixed-size frames from a byte stream.
type Reader struct {
	r   io.Reader
	buf [FrameSize]byte
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// ReadFrame blocks until FrameSize bytes are available. It returns io.EOF when
// the stream ends on a frame boundary and ErrShortFrame when it ends inside one.
func (r *Reader) ReadFrame() (Frame, error) {
	n, err := io.ReadFull(r.r, r.buf[:])
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrShortFrame, FrameSize, n)
		}
		return Frame{}, err
	}
	return Parse(r.buf[:])
}

// Writer emits each frame as a single Write of FrameSize bytes.
type Writer struct {
	w   io.Writer
	buf [FrameSize]byte
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) WriteFrame(f Frame) error {
	f.Put(w.buf[:])
	n, err := w.w.Write(w.buf[:])
	if err != nil {
		return err
	}
	if n != FrameSize {
		return io.ErrShortWrite
	}
	return nil
}

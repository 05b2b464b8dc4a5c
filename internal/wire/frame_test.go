package wire

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFramePutLayout(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, PayloadSize)
	f, err := NewFrame(0x1234, payload)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	b, _ := f.MarshalBinary()

	if len(b) != 32 {
		t.Fatalf("frame length = %d, want 32", len(b))
	}
	if b[0] != 0x12 || b[1] != 0x34 {
		t.Errorf("sequence bytes = %#x %#x, want big endian 0x12 0x34", b[0], b[1])
	}
	if !bytes.Equal(b[2:], payload) {
		t.Errorf("payload region mismatch")
	}
}

func TestNewFrameZeroFills(t *testing.T) {
	f, err := NewFrame(1, []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	want := make([]byte, PayloadSize)
	copy(want, []byte{1, 2, 3})
	if diff := cmp.Diff(want, f.Payload[:]); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestNewFrameTooLarge(t *testing.T) {
	_, err := NewFrame(1, make([]byte, PayloadSize+1))
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantSeq uint16
		wantErr error
	}{
		{
			name:    "valid frame",
			data:    append([]byte{0xff, 0xfe}, make([]byte, PayloadSize)...),
			wantSeq: 65534,
		},
		{
			name:    "empty",
			data:    []byte{},
			wantErr: ErrShortFrame,
		},
		{
			name:    "header only",
			data:    []byte{0x00, 0x01},
			wantErr: ErrShortFrame,
		},
		{
			name:    "oversized",
			data:    make([]byte, FrameSize+1),
			wantErr: ErrShortFrame,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse(tt.data)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if f.Seq != tt.wantSeq {
				t.Errorf("seq = %d, want %d", f.Seq, tt.wantSeq)
			}
		})
	}
}

func TestSeqGap(t *testing.T) {
	tests := []struct {
		prev, cur uint16
		want      int
	}{
		{1, 2, 1},
		{5, 7, 2},
		{7, 5, -2},
		{9, 9, 0},
		{65535, 0, 1},
		{65534, 1, 3},
		{0, 65535, -1},
	}
	for _, tt := range tests {
		if got := SeqGap(tt.prev, tt.cur); got != tt.want {
			t.Errorf("SeqGap(%d, %d) = %d, want %d", tt.prev, tt.cur, got, tt.want)
		}
	}
}

func TestReaderStream(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	for seq := uint16(1); seq <= 3; seq++ {
		if err := w.WriteFrame(Frame{Seq: seq}); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}
	if buf.Len() != 3*FrameSize {
		t.Fatalf("stream length = %d, want %d", buf.Len(), 3*FrameSize)
	}

	r := NewReader(&buf)
	for want := uint16(1); want <= 3; want++ {
		f, err := r.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame: %v", err)
		}
		if f.Seq != want {
			t.Errorf("seq = %d, want %d", f.Seq, want)
		}
	}
	if _, err := r.ReadFrame(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF at frame boundary, got %v", err)
	}
}

func TestReaderPartialFrame(t *testing.T) {
	r := NewReader(bytes.NewReader(make([]byte, FrameSize+5)))
	if _, err := r.ReadFrame(); err != nil {
		t.Fatalf("first frame: %v", err)
	}
	if _, err := r.ReadFrame(); !errors.Is(err, ErrShortFrame) {
		t.Fatalf("expected ErrShortFrame, got %v", err)
	}
}

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) { return len(p) - 1, nil }

func TestWriterShortWrite(t *testing.T) {
	err := NewWriter(shortWriter{}).WriteFrame(Frame{Seq: 1})
	if !errors.Is(err, io.ErrShortWrite) {
		t.Fatalf("expected io.ErrShortWrite, got %v", err)
	}
}

func TestFrameString(t *testing.T) {
	tests := []struct {
		payload []byte
		want    string
	}{
		{payload: nil, want: "Frame{Seq:7, PayloadLen:0}"},
		{payload: []byte{1, 2, 3}, want: "Frame{Seq:7, PayloadLen:3}"},
		{payload: bytes.Repeat([]byte{0xFF}, PayloadSize), want: "Frame{Seq:7, PayloadLen:30}"},
	}
	for _, tt := range tests {
		f, err := NewFrame(7, tt.payload)
		if err != nil {
			t.Fatalf("NewFrame: %v", err)
		}
		if got := f.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

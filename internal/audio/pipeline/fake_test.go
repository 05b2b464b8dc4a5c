package pipeline

import (
	"bytes"
	"testing"

	"faraday-voice/internal/audio/config"
	"faraday-voice/internal/metrics"
	"faraday-voice/internal/wire"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// fakeEncoder fills the payload with the call number and reports outLen bytes.
type fakeEncoder struct {
	calls   int
	outLen  int
	failAt  int // 1-based call that fails, 0 never
	failErr error
	samples [][]int16
}

func (e *fakeEncoder) Encode(pcm []int16, out []byte) (int, error) {
	e.calls++
	if e.failAt == e.calls {
		return 0, e.failErr
	}
	e.samples = append(e.samples, append([]int16(nil), pcm...))
	n := e.outLen
	if n == 0 {
		n = len(out)
	}
	for i := 0; i < n && i < len(out); i++ {
		out[i] = byte(e.calls)
	}
	return n, nil
}

// fakeDecoder writes the first payload byte into every sample; PLC frames are -1.
type fakeDecoder struct {
	payloadLens []int
	plcCalls    int
	samples     int
	failAt      int
	failErr     error
}

func (d *fakeDecoder) Decode(payload []byte, pcm []int16) (int, error) {
	d.payloadLens = append(d.payloadLens, len(payload))
	if d.failAt == len(d.payloadLens) {
		return 0, d.failErr
	}
	for i := range pcm {
		pcm[i] = int16(payload[0])
	}
	if d.samples != 0 {
		return d.samples, nil
	}
	return len(pcm), nil
}

func (d *fakeDecoder) DecodePLC(pcm []int16) error {
	d.plcCalls++
	for i := range pcm {
		pcm[i] = -1
	}
	return nil
}

type frameRecorder struct {
	frames []wire.Frame
}

func (r *frameRecorder) WriteFrame(f wire.Frame) error {
	r.frames = append(r.frames, f)
	return nil
}

func (r *frameRecorder) seqs() []uint16 {
	out := make([]uint16, len(r.frames))
	for i, f := range r.frames {
		out[i] = f.Seq
	}
	return out
}

// wireStream encodes frames whose payload starts with the low byte of seq.
func wireStream(t *testing.T, seqs ...uint16) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	for _, seq := range seqs {
		f, err := wire.NewFrame(seq, []byte{byte(seq)})
		if err != nil {
			t.Fatalf("NewFrame: %v", err)
		}
		if err := w.WriteFrame(f); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}
	return &buf
}

func pcmFrames(n int) []byte {
	return make([]byte, n*config.FrameBytes)
}

type testEnv struct {
	logs    *bytes.Buffer
	metrics *metrics.Metrics
}

func newTestEnv() *testEnv {
	return &testEnv{
		logs:    &bytes.Buffer{},
		metrics: metrics.New(prometheus.NewRegistry()),
	}
}

func (e *testEnv) options(extra ...Option) []Option {
	return append([]Option{
		WithLogger(zerolog.New(e.logs).Level(zerolog.DebugLevel)),
		WithMetrics(e.metrics),
	}, extra...)
}

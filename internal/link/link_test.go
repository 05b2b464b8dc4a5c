package link

import (
	"errors"
	"io"
	"net"
	"testing"

	"faraday-voice/internal/wire"

	"github.com/google/go-cmp/cmp"
	manet "github.com/multiformats/go-multiaddr/net"
)

func listenLoopback(t *testing.T) *Receiver {
	t.Helper()
	addr, err := ParseAddr("/ip4/127.0.0.1/udp/0")
	if err != nil {
		t.Fatalf("ParseAddr: %v", err)
	}
	r, err := Listen(addr)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestParseAddr(t *testing.T) {
	tests := []struct {
		addr    string
		wantErr bool
		notUDP  bool
	}{
		{addr: "/ip4/127.0.0.1/udp/7300"},
		{addr: "/ip6/::1/udp/7300"},
		{addr: "/ip4/127.0.0.1/tcp/7300", wantErr: true, notUDP: true},
		{addr: "127.0.0.1:7300", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			_, err := ParseAddr(tt.addr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAddr() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.notUDP && !errors.Is(err, ErrNotUDP) {
				t.Errorf("expected ErrNotUDP, got %v", err)
			}
		})
	}
}

func TestSendReceive(t *testing.T) {
	r := listenLoopback(t)
	local, err := r.LocalMultiaddr()
	if err != nil {
		t.Fatalf("LocalMultiaddr: %v", err)
	}
	s, err := Dial(local)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer s.Close()

	var want []wire.Frame
	for seq := uint16(1); seq <= 3; seq++ {
		f, _ := wire.NewFrame(seq, []byte{0xAB, byte(seq)})
		want = append(want, f)
		if err := s.WriteFrame(f); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}

	var got []wire.Frame
	for range want {
		f, err := r.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame: %v", err)
		}
		got = append(got, f)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
}

func TestReceiveWrongSizeDatagram(t *testing.T) {
	r := listenLoopback(t)
	local, _ := r.LocalMultiaddr()
	udp, err := manet.ToNetAddr(local)
	if err != nil {
		t.Fatalf("ToNetAddr: %v", err)
	}
	conn, err := net.Dial("udp", udp.String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	for _, size := range []int{10, wire.FrameSize + 8} {
		if _, err := conn.Write(make([]byte, size)); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if _, err := r.ReadFrame(); !errors.Is(err, wire.ErrShortFrame) {
			t.Errorf("%d byte datagram: expected ErrShortFrame, got %v", size, err)
		}
	}
}

func TestReceiverCloseEndsStream(t *testing.T) {
	r := listenLoopback(t)
	done := make(chan error, 1)
	go func() {
		_, err := r.ReadFrame()
		done <- err
	}()
	r.Close()
	if err := <-done; !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF after close, got %v", err)
	}
}

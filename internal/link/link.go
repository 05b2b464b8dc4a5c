// Package link carries wire frames over a UDP hop addressed by a multiaddr,
// one datagram per frame.
package link

import (
	"errors"
	"fmt"
	"io"
	"net"

	"faraday-voice/internal/wire"

	"github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
)

var ErrNotUDP = errors.New("link address must be a udp multiaddr")

// ParseAddr parses s and checks that it names a UDP endpoint.
func ParseAddr(s string) (multiaddr.Multiaddr, error) {
	addr, err := multiaddr.NewMultiaddr(s)
	if err != nil {
		return nil, fmt.Errorf("invalid link address %q: %w", s, err)
	}
	if _, err := addr.ValueForProtocol(multiaddr.P_UDP); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotUDP, addr)
	}
	return addr, nil
}

// Sender writes frames to a connected UDP socket.
type Sender struct {
	conn manet.Conn
	*wire.Writer
}

func Dial(addr multiaddr.Multiaddr) (*Sender, error) {
	conn, err := manet.Dial(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	return &Sender{conn: conn, Writer: wire.NewWriter(conn)}, nil
}

func (s *Sender) RemoteMultiaddr() multiaddr.Multiaddr {
	return s.conn.RemoteMultiaddr()
}

func (s *Sender) Close() error {
	return s.conn.Close()
}

// Receiver reads one frame per datagram. A datagram of any other size is a
// short transport unit. Closing the receiver ends the stream with io.EOF.
type Receiver struct {
	conn net.PacketConn
	buf  [wire.FrameSize + 1]byte
}

func Listen(addr multiaddr.Multiaddr) (*Receiver, error) {
	conn, err := manet.ListenPacket(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return &Receiver{conn: conn}, nil
}

func (r *Receiver) ReadFrame() (wire.Frame, error) {
	n, _, err := r.conn.ReadFrom(r.buf[:])
	if err != nil {
		if errors.Is(err, net.ErrClosed) {
			return wire.Frame{}, io.EOF
		}
		return wire.Frame{}, err
	}
	if n != wire.FrameSize {
		return wire.Frame{}, fmt.Errorf("%w: datagram of %d bytes, want %d", wire.ErrShortFrame, n, wire.FrameSize)
	}
	return wire.Parse(r.buf[:n])
}

// LocalMultiaddr reports the bound address, useful when listening on port 0.
func (r *Receiver) LocalMultiaddr() (multiaddr.Multiaddr, error) {
	return manet.FromNetAddr(r.conn.LocalAddr())
}

func (r *Receiver) Close() error {
	return r.conn.Close()
}

package probe

import (
	"context"
	"net"
	"time"
)

// TCP treats a completed handshake as reachable; no data is exchanged.
type TCP struct {
	target string
	addr   *net.TCPAddr
	dialer net.Dialer
}

func NewTCP(ctx context.Context, hostport string, timeout time.Duration) (*TCP, error) {
	addr, err := ResolveHostPort(ctx, hostport)
	if err != nil {
		return nil, err
	}
	return &TCP{
		target: hostport,
		addr:   addr,
		dialer: net.Dialer{Timeout: timeout},
	}, nil
}

func (p *TCP) Name() string       { return "TCP" }
func (p *TCP) Target() string     { return p.target }
func (p *TCP) Addr() *net.TCPAddr { return p.addr }

func (p *TCP) Exec(ctx context.Context) error {
	conn, err := p.dialer.DialContext(ctx, "tcp", p.addr.String())
	if err != nil {
		return ioError("connect", err)
	}
	tc := conn.(*net.TCPConn)
	defer tc.Close()

	// read side first: once our FIN is acknowledged the socket may
	// already be closed and SHUT_RD would report ENOTCONN
	if err := tc.CloseRead(); err != nil {
		return ioError("shutdown", err)
	}
	if err := tc.CloseWrite(); err != nil {
		return ioError("shutdown", err)
	}
	return nil
}

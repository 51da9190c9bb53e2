package probe

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

const (
	ipv4HeaderLen = 20
	echoHeaderLen = 8
)

// ICMP sends one Echo Request per Exec over a raw socket that lives only
// for that call. The sequence counter belongs to this instance and keeps
// counting across calls, wrapping at 16 bits.
type ICMP struct {
	host    string
	ip      net.IP
	v6      bool
	timeout time.Duration
	id      uint16
	seq     atomic.Uint32
}

func NewICMP(ctx context.Context, host string, timeout time.Duration) (*ICMP, error) {
	ip, err := ResolveHost(ctx, host)
	if err != nil {
		return nil, err
	}
	p := &ICMP{
		host:    host,
		timeout: timeout,
		id:      uint16(os.Getpid()),
	}
	if ip4 := ip.To4(); ip4 != nil {
		p.ip = ip4
	} else {
		p.ip = ip.To16()
		p.v6 = true
	}
	return p, nil
}

func (p *ICMP) Name() string   { return "ICMP" }
func (p *ICMP) Target() string { return p.host }
func (p *ICMP) Addr() net.IP   { return p.ip }

func (p *ICMP) nextSeq() uint16 {
	return uint16(p.seq.Add(1))
}

func (p *ICMP) Exec(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return ioError("ping", err)
	}
	pkt := buildEcho(p.v6, p.id, p.nextSeq())
	reply, err := p.roundTrip(pkt)
	if err != nil {
		return err
	}
	return validateReply(p.v6, pkt, reply)
}

// buildEcho returns an 8-byte Echo Request header. The ICMPv6 checksum is
// left zero; the kernel fills it in for raw ICMPv6 sockets.
func buildEcho(v6 bool, id, seq uint16) []byte {
	b := make([]byte, echoHeaderLen)
	if v6 {
		b[0] = byte(ipv6.ICMPTypeEchoRequest)
	} else {
		b[0] = byte(ipv4.ICMPTypeEcho)
	}
	binary.BigEndian.PutUint16(b[4:6], id)
	binary.BigEndian.PutUint16(b[6:8], seq)
	if !v6 {
		binary.BigEndian.PutUint16(b[2:4], Checksum(b))
	}
	return b
}

// validateReply checks length and the identifier+sequence field. IPv4 raw
// sockets deliver the IP header too; IPv6 raw sockets do not.
func validateReply(v6 bool, sent, reply []byte) error {
	family, off := "ICMPv4", ipv4HeaderLen
	if v6 {
		family, off = "ICMPv6", 0
	}
	if want := off + echoHeaderLen; len(reply) != want {
		return &ReplyError{
			Reason:   fmt.Sprintf("%s reply length expect %d bytes but %d bytes", family, want, len(reply)),
			Sent:     sent,
			Received: reply,
		}
	}
	if !bytes.Equal(reply[off+4:off+8], sent[4:8]) {
		return &ReplyError{
			Reason:   family + " reply identifier/sequence mismatch",
			Sent:     sent,
			Received: reply,
		}
	}
	return nil
}

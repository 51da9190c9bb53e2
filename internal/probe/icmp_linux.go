//go:build linux

package probe

import (
	"errors"
	"os"
	"time"

	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
	"golang.org/x/sys/unix"
)

func (p *ICMP) roundTrip(pkt []byte) ([]byte, error) {
	var (
		family, proto int
		local, remote unix.Sockaddr
	)
	if p.v6 {
		family, proto = unix.AF_INET6, ipv6.ICMPTypeEchoRequest.Protocol()
		local = &unix.SockaddrInet6{}
		remote = &unix.SockaddrInet6{Addr: [16]byte(p.ip.To16())}
	} else {
		family, proto = unix.AF_INET, ipv4.ICMPTypeEcho.Protocol()
		local = &unix.SockaddrInet4{}
		remote = &unix.SockaddrInet4{Addr: [4]byte(p.ip.To4())}
	}

	fd, err := unix.Socket(family, unix.SOCK_RAW|unix.SOCK_CLOEXEC, proto)
	if err != nil {
		return nil, ioError("socket", os.NewSyscallError("socket", err))
	}
	defer unix.Close(fd)

	if err := setTimeouts(fd, p.timeout); err != nil {
		return nil, ioError("setsockopt", err)
	}
	if err := unix.Bind(fd, local); err != nil {
		return nil, ioError("bind", os.NewSyscallError("bind", err))
	}

	deadline := time.Now().Add(p.timeout)
	for {
		err = unix.Sendto(fd, pkt, 0, remote)
		if !errors.Is(err, unix.EINTR) {
			break
		}
	}
	if err != nil {
		return nil, ioError("send", os.NewSyscallError("sendto", err))
	}

	buf := make([]byte, 1024)
	for {
		n, _, err := unix.Recvfrom(fd, buf, 0)
		if err == nil {
			return buf[:n], nil
		}
		if !errors.Is(err, unix.EINTR) {
			return nil, ioError("receive", os.NewSyscallError("recvfrom", err))
		}
		// SO_RCVTIMEO restarts from zero after a signal, so shrink it.
		left := time.Until(deadline)
		if left < time.Millisecond {
			return nil, ioError("receive", os.NewSyscallError("recvfrom", unix.EAGAIN))
		}
		if err := setTimeouts(fd, left); err != nil {
			return nil, ioError("setsockopt", err)
		}
	}
}

func setTimeouts(fd int, d time.Duration) error {
	tv := unix.NsecToTimeval(d.Nanoseconds())
	if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		return os.NewSyscallError("setsockopt", err)
	}
	if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_SNDTIMEO, &tv); err != nil {
		return os.NewSyscallError("setsockopt", err)
	}
	return nil
}

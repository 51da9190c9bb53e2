//go:build !linux

package probe

import "errors"

func (p *ICMP) roundTrip(pkt []byte) ([]byte, error) {
	return nil, ioError("socket", errors.ErrUnsupported)
}

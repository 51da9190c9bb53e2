package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

var resolveTimeout = 3 * time.Second

// ResolveHost turns a host name or IP literal into one address. Literals
// win; otherwise the OS resolver is asked and an IPv4 answer is preferred.
func ResolveHost(ctx context.Context, host string) (net.IP, error) {
	host = strings.TrimSpace(host)
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	if host == "" || strings.Contains(host, "://") {
		return nil, resolveError(host, errors.New("invalid host"))
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip, nil
	}

	ctx, cancel := context.WithTimeout(ctx, resolveTimeout)
	defer cancel()
	ips, err := net.DefaultResolver.LookupIP(ctx, "ip", host)
	if err != nil {
		var de *net.DNSError
		if errors.As(err, &de) && de.IsNotFound {
			return nil, resolveError(host, fmt.Errorf("NXDOMAIN: %w", err))
		}
		return nil, resolveError(host, err)
	}
	if len(ips) == 0 {
		return nil, resolveError(host, errors.New("no A or AAAA record"))
	}
	for _, ip := range ips {
		if ip.To4() != nil {
			return ip, nil
		}
	}
	return ips[0], nil
}

// ResolveHostPort parses "host:port" (IPv6 literals bracketed).
func ResolveHostPort(ctx context.Context, hostport string) (*net.TCPAddr, error) {
	host, portStr, err := net.SplitHostPort(strings.TrimSpace(hostport))
	if err != nil {
		return nil, resolveError(hostport, err)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil || port == 0 {
		return nil, resolveError(hostport, fmt.Errorf("invalid port %q", portStr))
	}
	ip, err := ResolveHost(ctx, host)
	if err != nil {
		return nil, err
	}
	return &net.TCPAddr{IP: ip, Port: int(port)}, nil
}

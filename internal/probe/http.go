package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTP issues "<method>:<url>" requests; only a 2xx status counts as up.
type HTTP struct {
	urn     string
	method  string
	url     string
	timeout time.Duration
	Client  *http.Client
}

func NewHTTP(urn string, timeout time.Duration) (*HTTP, error) {
	method, target, err := ParseURN(urn)
	if err != nil {
		return nil, err
	}
	return &HTTP{
		urn:     urn,
		method:  method,
		url:     target,
		timeout: timeout,
		Client:  &http.Client{Timeout: timeout},
	}, nil
}

// ParseURN splits "GET:http://host/path" into method and URL. A bare
// http(s) URL is accepted and defaults to GET.
func ParseURN(urn string) (method, target string, err error) {
	urn = strings.TrimSpace(urn)
	lower := strings.ToLower(urn)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		method, target = http.MethodGet, urn
	} else {
		m, rest, ok := strings.Cut(urn, ":")
		if !ok || m == "" {
			return "", "", resolveError(urn, errors.New("expected <method>:<url>"))
		}
		method, target = strings.ToUpper(m), rest
	}
	if !validMethod(method) {
		return "", "", resolveError(urn, fmt.Errorf("invalid method %q", method))
	}
	u, err := url.ParseRequestURI(target)
	if err != nil {
		return "", "", resolveError(urn, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", "", resolveError(urn, fmt.Errorf("unsupported url %q", target))
	}
	return method, target, nil
}

func validMethod(m string) bool {
	if m == "" {
		return false
	}
	for _, r := range m {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func (p *HTTP) Name() string   { return "HTTP" }
func (p *HTTP) Target() string { return p.urn }
func (p *HTTP) Method() string { return p.method }
func (p *HTTP) URL() string    { return p.url }

func (p *HTTP) Exec(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, p.method, p.url, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequest, err)
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequest, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode/100 != 2 {
		return &ReplyError{
			Reason:     "HTTP request failed with status: " + resp.Status,
			StatusCode: resp.StatusCode,
		}
	}
	return nil
}

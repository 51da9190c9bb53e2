package probe

import (
	"errors"
	"fmt"
)

var (
	ErrResolution   = errors.New("resolution error")
	ErrIO           = errors.New("io error")
	ErrInvalidReply = errors.New("invalid reply")
	ErrRequest      = errors.New("request error")
)

// ReplyError reports a response that arrived but failed validation.
// ICMP fills Sent/Received; HTTP fills StatusCode.
type ReplyError struct {
	Reason     string
	Sent       []byte
	Received   []byte
	StatusCode int
}

func (e *ReplyError) Error() string {
	if e.Sent != nil || e.Received != nil {
		return fmt.Sprintf("invalid reply: %s (sent=% x received=% x)", e.Reason, e.Sent, e.Received)
	}
	return "invalid reply: " + e.Reason
}

func (e *ReplyError) Is(target error) bool { return target == ErrInvalidReply }

func ioError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}

func resolveError(target string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrResolution, target, err)
}

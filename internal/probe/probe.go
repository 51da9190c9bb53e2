package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/hamed0406/pong/internal/domain"
)

// Probe performs exactly one reachability check against one target.
// Exec returns nil on success; failures are typed (see errors.go).
type Probe interface {
	Name() string
	Target() string
	Exec(ctx context.Context) error
}

// New builds the probe matching the task type. Resolution happens here,
// once; a failure is returned wrapped in ErrResolution and is not retried.
func New(ctx context.Context, task domain.Task, timeout time.Duration) (Probe, error) {
	switch task.Type {
	case domain.TaskICMP:
		return NewICMP(ctx, task.Target, timeout)
	case domain.TaskTCP:
		return NewTCP(ctx, task.Target, timeout)
	case domain.TaskHTTP:
		return NewHTTP(task.Target, timeout)
	default:
		return nil, fmt.Errorf("%w: unsupported task type %q for %s", ErrResolution, task.Type, task.Target)
	}
}

package repo

import "github.com/hamed0406/pong/internal/domain"

// Ports between the scheduler, the status store and the exporter.

type StatusWriter interface {
	// Update reports whether the stored entry was replaced.
	Update(r domain.ProbeResult) bool
}

type StatusReader interface {
	Snapshot() map[domain.StatusKey]domain.TargetStatus
	Get(key domain.StatusKey) (domain.TargetStatus, bool)
}

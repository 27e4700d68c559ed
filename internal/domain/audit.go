package domain

import "time"

// Audit action names, one per significant orchestrator transition.
const (
	AuditActionRouteResolved = "video.route_resolved"
	AuditActionJobSubmitted  = "video.job_submitted"
	AuditActionJobCompleted  = "video.job_completed"
	AuditActionJobFailed     = "video.job_failed"
)

// AuditEntry is an immutable, append-only record of an orchestrator decision
// or transition. The orchestrator only ever writes these.
type AuditEntry struct {
	ID        string
	Actor     string
	Action    string
	Metadata  map[string]any
	CreatedAt time.Time
}

package analysis

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrRecordNotFound is returned when an audit record does not exist.
var ErrRecordNotFound = errors.New("analysis: audit record not found")

// AuditReader is the retrieval side of the audit store, used by the
// lookup endpoint.
type AuditReader interface {
	GetRequest(ctx context.Context, id uuid.UUID) (*AuditRecord, error)
	GetLogs(ctx context.Context, requestID uuid.UUID) ([]WorkflowLogEntry, error)
}

// AuditStore combines persistence and retrieval.
type AuditStore interface {
	AuditRepository
	AuditReader
}

// Package dao provides data access objects for use in the sequitur HTTP
// server. Unlike the grammar engine itself, persistence here is limited to
// the audit trail of session-affecting events -- grammars are never
// persisted, only the fact and shape of what happened to them.
package dao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrConstraintViolation = errors.New("a uniqueness constraint was violated")
	ErrNotFound            = errors.New("the requested resource was not found")
	ErrDecodingFailure     = errors.New("field could not be decoded from DB storage format to model format")
)

// Store holds all the repositories available to the server.
type Store interface {
	Audit() AuditRepository
	Close() error
}

// Action names the kind of session-affecting event an audit Record
// describes.
type Action string

const (
	ActionSessionCreated    Action = "created"
	ActionTerminalsAppended Action = "terminals_appended"
	ActionSessionClosed     Action = "closed"
)

// Detail carries the sizing information recorded alongside an audit event.
// It deliberately holds counts only, never terminal or rule content, so that
// the audit trail cannot become a backdoor grammar store.
type Detail struct {
	TerminalCount int
	RuleCount     int
}

// Record is a single entry in the server's audit trail.
type Record struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Action    Action
	Detail    Detail
	Occurred  time.Time
}

// AuditRepository persists and retrieves audit Records.
type AuditRepository interface {
	Create(ctx context.Context, rec Record) (Record, error)

	// GetAll retrieves the most recent Records, newest first. If limit is
	// non-positive, all Records are retrieved.
	GetAll(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

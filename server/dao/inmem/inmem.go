// Package inmem provides an in-memory implementation of dao.Store, backed by
// plain Go maps and slices guarded by mutexes rather than a real database.
package inmem

import (
	"github.com/dekarrin/sequitur/server/dao"
)

type store struct {
	audit *AuditRepository
}

// NewDatastore returns a dao.Store that keeps its audit trail only in process
// memory. All data is lost when the process exits.
func NewDatastore() dao.Store {
	return &store{
		audit: NewAuditRepository(),
	}
}

func (s *store) Audit() dao.AuditRepository {
	return s.audit
}

func (s *store) Close() error {
	return s.audit.Close()
}

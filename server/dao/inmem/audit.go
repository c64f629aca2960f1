package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/dekarrin/sequitur/server/dao"
	"github.com/google/uuid"
)

// AuditRepository is an in-memory, mutex-guarded dao.AuditRepository. It is
// suitable for development and for servers that don't need the audit trail
// to survive a restart.
type AuditRepository struct {
	mu      sync.Mutex
	records []dao.Record
}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

func (r *AuditRepository) Create(ctx context.Context, rec dao.Record) (dao.Record, error) {
	newID, err := uuid.NewRandom()
	if err != nil {
		return dao.Record{}, err
	}
	rec.ID = newID
	if rec.Occurred.IsZero() {
		rec.Occurred = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return rec, nil
}

func (r *AuditRepository) GetAll(ctx context.Context, limit int) ([]dao.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]dao.Record, len(r.records))
	for i := range r.records {
		// newest first
		all[i] = r.records[len(r.records)-1-i]
	}

	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *AuditRepository) Close() error {
	return nil
}

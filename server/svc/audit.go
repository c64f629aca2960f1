package svc

import (
	"context"

	"github.com/dekarrin/sequitur/server/dao"
	"github.com/dekarrin/sequitur/server/serr"
)

// ListAudit retrieves the most recent audit records, newest first. If limit
// is non-positive, all records are retrieved.
func (svc *Service) ListAudit(ctx context.Context, limit int) ([]dao.Record, error) {
	recs, err := svc.DB.Audit().GetAll(ctx, limit)
	if err != nil {
		return nil, serr.WrapDB("list audit records", err)
	}
	return recs, nil
}

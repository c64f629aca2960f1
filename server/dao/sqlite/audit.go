package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dekarrin/rezi"
	"github.com/dekarrin/sequitur/server/dao"
	"github.com/google/uuid"
)

// AuditDB is a sqlite-backed dao.AuditRepository. Detail is stored as a
// rezi-encoded BLOB rather than individual columns; it is small, fixed-shape,
// and has no query needs of its own, so there is nothing to gain from
// normalizing it into columns.
type AuditDB struct {
	db *sql.DB
}

func (repo *AuditDB) init() error {
	_, err := repo.db.Exec(`CREATE TABLE IF NOT EXISTS audit_records (
		id TEXT NOT NULL PRIMARY KEY,
		session_id TEXT NOT NULL,
		action TEXT NOT NULL,
		detail BLOB NOT NULL,
		occurred INTEGER NOT NULL
	);`)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (repo *AuditDB) Create(ctx context.Context, rec dao.Record) (dao.Record, error) {
	newID, err := uuid.NewRandom()
	if err != nil {
		return dao.Record{}, fmt.Errorf("could not generate ID: %w", err)
	}
	rec.ID = newID
	if rec.Occurred.IsZero() {
		rec.Occurred = time.Now()
	}

	detailBytes, err := rezi.Enc(rec.Detail)
	if err != nil {
		return dao.Record{}, fmt.Errorf("encode detail: %w", err)
	}

	_, err = repo.db.ExecContext(ctx,
		`INSERT INTO audit_records (id, session_id, action, detail, occurred) VALUES (?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.SessionID.String(), string(rec.Action), detailBytes, rec.Occurred.Unix(),
	)
	if err != nil {
		return dao.Record{}, wrapDBError(err)
	}

	return rec, nil
}

func (repo *AuditDB) GetAll(ctx context.Context, limit int) ([]dao.Record, error) {
	query := `SELECT id, session_id, action, detail, occurred FROM audit_records ORDER BY occurred DESC, rowid DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.Record
	for rows.Next() {
		var rec dao.Record
		var id, sessionID, action string
		var detailBytes []byte
		var occurred int64

		if err := rows.Scan(&id, &sessionID, &action, &detailBytes, &occurred); err != nil {
			return nil, wrapDBError(err)
		}

		rec.ID, err = uuid.Parse(id)
		if err != nil {
			return all, fmt.Errorf("stored UUID %q is invalid", id)
		}
		rec.SessionID, err = uuid.Parse(sessionID)
		if err != nil {
			return all, fmt.Errorf("stored session UUID %q is invalid", sessionID)
		}
		rec.Action = dao.Action(action)
		rec.Occurred = time.Unix(occurred, 0)

		if _, err := rezi.Dec(detailBytes, &rec.Detail); err != nil {
			return all, fmt.Errorf("%w: decode detail: %s", dao.ErrDecodingFailure, err.Error())
		}

		all = append(all, rec)
	}

	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}

	return all, nil
}

func (repo *AuditDB) Close() error {
	return nil
}

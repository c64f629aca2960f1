// Package svc has the service that backs the sequitur HTTP API, decoupled
// from the API layer that exposes it. It holds the live table of grammar
// sessions and the operator credentials, and makes calls to persistence to
// record the audit trail.
package svc

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dekarrin/sequitur/internal/grammar"
	"github.com/dekarrin/sequitur/server/dao"
	"github.com/dekarrin/sequitur/server/serr"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Service is a service for interacting with and modifying the sequitur
// server backend. It performs the actions requested by the API layer and
// makes calls to persistence to preserve the audit trail.
//
// The zero-value of Service is not ready to be used; create one with New.
type Service struct {
	// DB is the persistence store of the service, used for the audit trail
	// only -- grammars themselves never reach it.
	DB dao.Store

	operatorUsername     string
	operatorPasswordHash []byte
	limits               grammar.Limits

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
}

// session is one live grammar.Engine and its bookkeeping. Engine.Append and
// grammar reads are serialized per-session by mu, so concurrent requests
// against different sessions never block one another.
type session struct {
	mu            sync.Mutex
	id            uuid.UUID
	engine        *grammar.Engine[rune]
	terminalCount int
	created       time.Time
}

// New creates a Service ready to authenticate the given operator and manage
// sessions bounded by limits, persisting its audit trail to db.
func New(db dao.Store, operatorUsername, operatorPasswordHash string, limits grammar.Limits) *Service {
	return &Service{
		DB:                   db,
		operatorUsername:     operatorUsername,
		operatorPasswordHash: []byte(operatorPasswordHash),
		limits:               limits,
		sessions:             make(map[uuid.UUID]*session),
	}
}

// Login verifies the given username and password against the server's
// single configured operator account.
//
// The returned error, if non-nil, will match serr.ErrBadCredentials via
// errors.Is if the credentials are simply wrong.
func (svc *Service) Login(ctx context.Context, username, password string) error {
	if username != svc.operatorUsername {
		return serr.ErrBadCredentials
	}

	err := bcrypt.CompareHashAndPassword(svc.operatorPasswordHash, []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return serr.ErrBadCredentials
		}
		return serr.New("verify operator password", err)
	}

	return nil
}

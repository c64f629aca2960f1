package svc

import (
	"context"
	"errors"
	"time"

	"github.com/dekarrin/sequitur/internal/grammar"
	"github.com/dekarrin/sequitur/server/dao"
	"github.com/dekarrin/sequitur/server/serr"
	"github.com/google/uuid"
)

// SessionInfo is the read-only view of a session returned to API callers.
type SessionInfo struct {
	ID            uuid.UUID
	TerminalCount int
	RuleCount     int
	Created       time.Time
}

func (s *session) info() SessionInfo {
	return SessionInfo{
		ID:            s.id,
		TerminalCount: s.terminalCount,
		RuleCount:     s.engine.RuleCount(),
		Created:       s.created,
	}
}

// CreateSession starts a new, empty grammar-induction session and records
// its creation in the audit trail.
func (svc *Service) CreateSession(ctx context.Context) (SessionInfo, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return SessionInfo{}, serr.New("generate session ID", err)
	}

	sesh := &session{
		id:      id,
		engine:  grammar.NewEngineWithLimits[rune](svc.limits),
		created: time.Now(),
	}

	svc.mu.Lock()
	svc.sessions[id] = sesh
	svc.mu.Unlock()

	if _, err := svc.DB.Audit().Create(ctx, dao.Record{
		SessionID: id,
		Action:    dao.ActionSessionCreated,
	}); err != nil {
		return SessionInfo{}, serr.WrapDB("record session creation", err)
	}

	return sesh.info(), nil
}

// GetSession retrieves the current metadata for a session.
//
// The returned error, if non-nil, matches serr.ErrNotFound via errors.Is if
// no session with that ID is live.
func (svc *Service) GetSession(ctx context.Context, id uuid.UUID) (SessionInfo, error) {
	sesh, err := svc.lookup(id)
	if err != nil {
		return SessionInfo{}, err
	}

	sesh.mu.Lock()
	defer sesh.mu.Unlock()
	return sesh.info(), nil
}

// AppendTerminals feeds each rune of text into the session's grammar in
// order and records the event (with the resulting counts, not the text
// itself) in the audit trail.
func (svc *Service) AppendTerminals(ctx context.Context, id uuid.UUID, text string) (SessionInfo, error) {
	sesh, err := svc.lookup(id)
	if err != nil {
		return SessionInfo{}, err
	}

	sesh.mu.Lock()
	defer sesh.mu.Unlock()

	for _, r := range text {
		if err := sesh.engine.Append(r); err != nil {
			var exhausted *grammar.ResourceExhaustion
			if errors.As(err, &exhausted) {
				return SessionInfo{}, serr.New(exhausted.Error(), serr.ErrBadArgument)
			}
			return SessionInfo{}, serr.New("append terminal", err)
		}
		sesh.terminalCount++
	}

	info := sesh.info()

	if _, err := svc.DB.Audit().Create(ctx, dao.Record{
		SessionID: id,
		Action:    dao.ActionTerminalsAppended,
		Detail: dao.Detail{
			TerminalCount: info.TerminalCount,
			RuleCount:     info.RuleCount,
		},
	}); err != nil {
		return SessionInfo{}, serr.WrapDB("record terminal append", err)
	}

	return info, nil
}

// GrammarSnapshot returns a JSON-friendly export of the session's current
// grammar.
func (svc *Service) GrammarSnapshot(ctx context.Context, id uuid.UUID) (grammar.GrammarSnapshot, error) {
	sesh, err := svc.lookup(id)
	if err != nil {
		return grammar.GrammarSnapshot{}, err
	}

	sesh.mu.Lock()
	defer sesh.mu.Unlock()
	return sesh.engine.Snapshot(), nil
}

// CloseSession discards a session and records its closure in the audit
// trail. The session's Engine is simply dropped for garbage collection;
// there is no persisted grammar state to clean up.
func (svc *Service) CloseSession(ctx context.Context, id uuid.UUID) (SessionInfo, error) {
	sesh, err := svc.lookup(id)
	if err != nil {
		return SessionInfo{}, err
	}

	sesh.mu.Lock()
	info := sesh.info()
	sesh.mu.Unlock()

	svc.mu.Lock()
	delete(svc.sessions, id)
	svc.mu.Unlock()

	if _, err := svc.DB.Audit().Create(ctx, dao.Record{
		SessionID: id,
		Action:    dao.ActionSessionClosed,
		Detail: dao.Detail{
			TerminalCount: info.TerminalCount,
			RuleCount:     info.RuleCount,
		},
	}); err != nil {
		return SessionInfo{}, serr.WrapDB("record session closure", err)
	}

	return info, nil
}

func (svc *Service) lookup(id uuid.UUID) (*session, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	sesh, ok := svc.sessions[id]
	if !ok {
		return nil, serr.ErrNotFound
	}
	return sesh, nil
}

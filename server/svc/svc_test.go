package svc

import (
	"context"
	"errors"
	"testing"

	"github.com/dekarrin/sequitur/internal/grammar"
	"github.com/dekarrin/sequitur/server/dao/inmem"
	"github.com/dekarrin/sequitur/server/serr"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	passHash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.DefaultCost)
	require.NoError(t, err)
	return New(inmem.NewDatastore(), "operator", string(passHash), grammar.Limits{})
}

func TestLogin_CorrectCredentials(t *testing.T) {
	svc := newTestService(t)
	err := svc.Login(context.Background(), "operator", "correct-horse")
	assert.NoError(t, err)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := newTestService(t)
	err := svc.Login(context.Background(), "operator", "wrong")
	assert.ErrorIs(t, err, serr.ErrBadCredentials)
}

func TestLogin_WrongUsername(t *testing.T) {
	svc := newTestService(t)
	err := svc.Login(context.Background(), "not-the-operator", "correct-horse")
	assert.ErrorIs(t, err, serr.ErrBadCredentials)
}

func TestCreateSession_RecordsAudit(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	info, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, info.RuleCount)
	assert.Equal(t, 0, info.TerminalCount)

	recs, err := svc.ListAudit(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, info.ID, recs[0].SessionID)
	assert.Equal(t, "created", string(recs[0].Action))
}

func TestGetSession_NotFound(t *testing.T) {
	svc := newTestService(t)
	id, err := uuid.NewRandom()
	require.NoError(t, err)

	_, err = svc.GetSession(context.Background(), id)
	assert.ErrorIs(t, err, serr.ErrNotFound)
}

func TestAppendTerminals_GrowsGrammarAndAudits(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	info, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	info, err = svc.AppendTerminals(ctx, info.ID, "abcabc")
	require.NoError(t, err)
	assert.Equal(t, 6, info.TerminalCount)

	snap, err := svc.GrammarSnapshot(ctx, info.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, snap.Rules)

	recs, err := svc.ListAudit(ctx, 0)
	require.NoError(t, err)
	var sawAppend bool
	for _, r := range recs {
		if string(r.Action) == "terminals_appended" {
			sawAppend = true
			assert.Equal(t, 6, r.Detail.TerminalCount)
		}
	}
	assert.True(t, sawAppend, "expected a terminals_appended audit record")
}

func TestAppendTerminals_ExceedsRuleLimit(t *testing.T) {
	svc := New(inmem.NewDatastore(), "operator", mustHash(t, "x"), grammar.Limits{MaxRules: 1})
	ctx := context.Background()

	info, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	_, err = svc.AppendTerminals(ctx, info.ID, "abcabcdefdef")
	require.Error(t, err)
	assert.ErrorIs(t, err, serr.ErrBadArgument)
}

func TestCloseSession_RemovesFromTable(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	info, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	_, err = svc.CloseSession(ctx, info.ID)
	require.NoError(t, err)

	_, err = svc.GetSession(ctx, info.ID)
	assert.True(t, errors.Is(err, serr.ErrNotFound))
}

func mustHash(t *testing.T, pass string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
	require.NoError(t, err)
	return string(h)
}

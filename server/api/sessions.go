package api

import (
	"errors"
	"net/http"

	"github.com/dekarrin/sequitur/server/result"
	"github.com/dekarrin/sequitur/server/serr"
	"github.com/dekarrin/sequitur/server/svc"
)

// SessionModel is the representation of a svc.SessionInfo sent to clients.
type SessionModel struct {
	ID            string `json:"id"`
	TerminalCount int    `json:"terminal_count"`
	RuleCount     int    `json:"rule_count"`
	Created       string `json:"created"`
}

func sessionModel(info svc.SessionInfo) SessionModel {
	return SessionModel{
		ID:            info.ID.String(),
		TerminalCount: info.TerminalCount,
		RuleCount:     info.RuleCount,
		Created:       info.Created.Format(timeFormat),
	}
}

const timeFormat = "2006-01-02T15:04:05Z07:00"

// AppendTerminalsRequest is the body of a terminal-append request.
type AppendTerminalsRequest struct {
	Terminals string `json:"terminals"`
}

// HTTPCreateSession returns a HandlerFunc that starts a new grammar session.
func (api API) HTTPCreateSession() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epCreateSession)
}

func (api API) epCreateSession(req *http.Request) result.Result {
	info, err := api.Backend.CreateSession(req.Context())
	if err != nil {
		return result.InternalServerError("create session: " + err.Error())
	}
	return result.Created(sessionModel(info), "session '%s' created", info.ID)
}

// HTTPGetSession returns a HandlerFunc that retrieves a session's metadata.
func (api API) HTTPGetSession() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epGetSession)
}

func (api API) epGetSession(req *http.Request) result.Result {
	id := requireSessionIDParam(req)

	info, err := api.Backend.GetSession(req.Context(), id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError("get session: " + err.Error())
	}
	return result.OK(sessionModel(info), "session '%s' retrieved", id)
}

// HTTPAppendTerminals returns a HandlerFunc that feeds terminals into a
// session's grammar.
func (api API) HTTPAppendTerminals() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epAppendTerminals)
}

func (api API) epAppendTerminals(req *http.Request) result.Result {
	id := requireSessionIDParam(req)

	var body AppendTerminalsRequest
	if err := parseJSON(req, &body); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}
	if body.Terminals == "" {
		return result.BadRequest("terminals: property is empty or missing from request", "empty terminals")
	}

	info, err := api.Backend.AppendTerminals(req.Context(), id, body.Terminals)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		if errors.Is(err, serr.ErrBadArgument) {
			return result.BadRequest(err.Error(), err.Error())
		}
		return result.InternalServerError("append terminals: " + err.Error())
	}
	return result.OK(sessionModel(info), "appended %d terminal(s) to session '%s'", len(body.Terminals), id)
}

// HTTPGetGrammar returns a HandlerFunc that exports a session's current
// grammar.
func (api API) HTTPGetGrammar() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epGetGrammar)
}

func (api API) epGetGrammar(req *http.Request) result.Result {
	id := requireSessionIDParam(req)

	snap, err := api.Backend.GrammarSnapshot(req.Context(), id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError("get grammar: " + err.Error())
	}
	return result.OK(snap, "grammar for session '%s' retrieved", id)
}

// HTTPDeleteSession returns a HandlerFunc that discards a session.
func (api API) HTTPDeleteSession() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epDeleteSession)
}

func (api API) epDeleteSession(req *http.Request) result.Result {
	id := requireSessionIDParam(req)

	info, err := api.Backend.CloseSession(req.Context(), id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError("close session: " + err.Error())
	}
	return result.NoContent("session '%s' closed (%d terminals, %d rules)", info.ID, info.TerminalCount, info.RuleCount)
}

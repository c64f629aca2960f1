package api

import (
	"net/http"
	"strconv"

	"github.com/dekarrin/sequitur/server/result"
)

// AuditRecordModel is the JSON representation of one audit trail entry.
type AuditRecordModel struct {
	ID            string `json:"id"`
	SessionID     string `json:"session_id"`
	Action        string `json:"action"`
	TerminalCount int    `json:"terminal_count"`
	RuleCount     int    `json:"rule_count"`
	Occurred      string `json:"occurred"`
}

// HTTPGetAudit returns a HandlerFunc that lists recent audit records.
func (api API) HTTPGetAudit() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epGetAudit)
}

func (api API) epGetAudit(req *http.Request) result.Result {
	limit := 0
	if limitStr := req.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			return result.BadRequest("limit: must be an integer", "bad limit %q: %s", limitStr, err.Error())
		}
		limit = parsed
	}

	recs, err := api.Backend.ListAudit(req.Context(), limit)
	if err != nil {
		return result.InternalServerError("list audit records: " + err.Error())
	}

	models := make([]AuditRecordModel, len(recs))
	for i, r := range recs {
		models[i] = AuditRecordModel{
			ID:            r.ID.String(),
			SessionID:     r.SessionID.String(),
			Action:        string(r.Action),
			TerminalCount: r.Detail.TerminalCount,
			RuleCount:     r.Detail.RuleCount,
			Occurred:      r.Occurred.Format(timeFormat),
		}
	}

	return result.OK(models, "listed %d audit record(s)", len(models))
}

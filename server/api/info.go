package api

import (
	"net/http"

	"github.com/dekarrin/sequitur/internal/version"
	"github.com/dekarrin/sequitur/server/middle"
	"github.com/dekarrin/sequitur/server/result"
)

// InfoModel reports version information about the running server.
type InfoModel struct {
	Version struct {
		Server   string `json:"server"`
		Sequitur string `json:"sequitur"`
	} `json:"version"`
}

// HTTPGetInfo returns a HandlerFunc that retrieves information on the API
// and server.
//
// The handler has requirements for the request context it receives, and if
// the requirements are not met it may return an HTTP-500. The context must
// contain a value denoting whether the client making the request is
// logged-in.
func (api API) HTTPGetInfo() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epGetInfo)
}

func (api API) epGetInfo(req *http.Request) result.Result {
	loggedIn, _ := req.Context().Value(middle.AuthLoggedIn).(bool)

	var resp InfoModel
	resp.Version.Server = version.ServerCurrent
	resp.Version.Sequitur = version.Current

	who := "unauthed client"
	if loggedIn {
		who = "operator"
	}
	return result.OK(resp, "%s got API info", who)
}

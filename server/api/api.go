// Package api provides HTTP API endpoints for the sequitur server.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dekarrin/sequitur/server/result"
	"github.com/dekarrin/sequitur/server/serr"
	"github.com/dekarrin/sequitur/server/svc"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	// PathPrefix is the prefix of all paths in the API. Routers should mount
	// a sub-router that routes all requests to the API at this path.
	PathPrefix = "/api/v1"
)

// API holds parameters for endpoints needed to run and a service layer that
// will perform most of the actual logic. To use API, create one and then
// assign the result of its HTTP* methods as handlers to a router or some
// other kind of server mux.
type API struct {
	// Backend is the service that the API calls to perform the requested
	// actions.
	Backend *svc.Service

	// UnauthDelay is the amount of time that a request will pause before
	// responding with an HTTP-403, HTTP-401, or HTTP-500, to deprioritize
	// such requests from processing and I/O.
	UnauthDelay time.Duration

	// Secret is the secret used to sign JWT tokens.
	Secret []byte
}

// requireSessionIDParam gets the session ID being referenced in the URI and
// returns it. It panics if the key is not there or is not parsable; callers
// reach it only from routes chi has already matched a {id} segment for.
func requireSessionIDParam(r *http.Request) uuid.UUID {
	valStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(valStr)
	if err != nil {
		panic(err.Error())
	}
	return id
}

// v must be a pointer to a type. Returns an error such that
// errors.Is(err, serr.ErrBodyUnmarshal) is true if the problem is decoding
// the JSON itself.
func parseJSON(req *http.Request, v interface{}) error {
	contentType := req.Header.Get("Content-Type")
	if strings.ToLower(contentType) != "application/json" {
		return fmt.Errorf("request content-type is not application/json")
	}

	bodyData, err := io.ReadAll(req.Body)
	if err != nil {
		return fmt.Errorf("could not read request body: %w", err)
	}
	defer func() {
		req.Body.Close()
		req.Body = io.NopCloser(bytes.NewBuffer(bodyData))
	}()

	if err := json.Unmarshal(bodyData, v); err != nil {
		return serr.New("malformed JSON in request", err, serr.ErrBodyUnmarshal)
	}

	return nil
}

type endpointFunc func(req *http.Request) result.Result

func httpEndpoint(unauthDelay time.Duration, ep endpointFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		defer panicTo500(w, req)

		r := ep(req)

		if r.Status == http.StatusUnauthorized || r.Status == http.StatusForbidden || r.Status == http.StatusInternalServerError {
			// either the request was improperly authenticated or tried to
			// access a forbidden resource; force the wait time before
			// responding in both cases.
			time.Sleep(unauthDelay)
		}

		r.WriteResponse(w)
		r.Log(req)
	}
}

func panicTo500(w http.ResponseWriter, req *http.Request) {
	if panicErr := recover(); panicErr != nil {
		r := result.InternalServerError("panic: %v", panicErr)
		r.WriteResponse(w)
		r.Log(req)
	}
}

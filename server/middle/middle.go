// Package middle contains middleware for use with the sequitur server.
package middle

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/dekarrin/sequitur/server/result"
	"github.com/dekarrin/sequitur/server/token"
)

type mwFunc http.HandlerFunc

func (sf mwFunc) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	sf(w, req)
}

// Middleware is a function that takes a handler and returns a new handler which
// wraps the given one and provides some additional functionality.
type Middleware func(next http.Handler) http.Handler

// AuthKey is a key in the context of a request populated by an AuthHandler.
type AuthKey int64

// AuthLoggedIn is the context key holding whether the request bears a valid
// operator token.
const AuthLoggedIn AuthKey = iota

// AuthHandler is middleware that accepts a request, extracts the bearer
// token used for authentication, and validates it. There is only one
// identity in this server -- the operator -- so, unlike a per-user auth
// handler, there is no lookup beyond validating the token's signature and
// expiry.
//
// AuthLoggedIn is added to the request context before the request is passed
// to the next step in the chain; it is false whenever logging in is
// optional and no valid token was presented.
type AuthHandler struct {
	secret        []byte
	required      bool
	unauthedDelay time.Duration
	next          http.Handler
}

func (ah *AuthHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var loggedIn bool

	tok, err := token.Get(req)
	if err == nil {
		err = token.Validate(tok, ah.secret)
	}

	if err != nil {
		if ah.required {
			r := result.Unauthorized("", err.Error())
			time.Sleep(ah.unauthedDelay)
			r.WriteResponse(w)
			r.Log(req)
			return
		}
	} else {
		loggedIn = true
	}

	ctx := context.WithValue(req.Context(), AuthLoggedIn, loggedIn)
	ah.next.ServeHTTP(w, req.WithContext(ctx))
}

// RequireAuth returns Middleware that rejects any request without a valid
// operator bearer token with an HTTP-401.
func RequireAuth(secret []byte, unauthDelay time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return &AuthHandler{secret: secret, unauthedDelay: unauthDelay, required: true, next: next}
	}
}

// OptionalAuth returns Middleware that validates an operator bearer token if
// one is present, but allows the request through either way. Handlers can
// consult AuthLoggedIn to see whether the token was valid.
func OptionalAuth(secret []byte, unauthDelay time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return &AuthHandler{secret: secret, unauthedDelay: unauthDelay, required: false, next: next}
	}
}

// DontPanic returns a Middleware that performs a panic check as it exits. If
// the function is panicking, it will write out an HTTP response with a generic
// message to the client and add it to the log.
func DontPanic() Middleware {
	return func(next http.Handler) http.Handler {
		return mwFunc(func(w http.ResponseWriter, r *http.Request) {
			defer panicTo500(w, r)
			next.ServeHTTP(w, r)
		})
	}
}

func panicTo500(w http.ResponseWriter, req *http.Request) (panicVal interface{}) {
	if panicErr := recover(); panicErr != nil {
		r := result.TextErr(
			http.StatusInternalServerError,
			"An internal server error occurred",
			fmt.Sprintf("panic: %v\nSTACK TRACE: %s", panicErr, string(debug.Stack())),
		)
		r.WriteResponse(w)
		r.Log(req)
		return true
	}
	return false
}

package http

import (
	"errors"
	"net/http"

	"github.com/devoptimist/builder/internal/api/service"
	"github.com/devoptimist/builder/internal/api/store"
	"github.com/devoptimist/builder/pkg/httpx"
)

// errorMapping binds one error class to its HTTP rendering. The table below
// is the single place where domain errors turn into status codes; handlers
// never pick codes themselves.
type errorMapping struct {
	matches func(error) bool
	status  int
	body    ErrorResponse
}

var errorTable = []errorMapping{
	{
		matches: func(err error) bool { return errors.Is(err, service.ErrUnauthorized) },
		status:  http.StatusUnauthorized,
		body: ErrorResponse{
			Error:       "invalid_token",
			Description: "The access token is unknown or has been revoked.",
		},
	},
	{
		matches: func(err error) bool { return errors.Is(err, store.ErrNotFound) },
		status:  http.StatusNotFound,
		body: ErrorResponse{
			Error:       "not_found",
			Description: "The requested resource does not exist.",
		},
	},
	{
		// A duplicate token value means the generator produced a collision.
		// That is a server fault, not a client one.
		matches: func(err error) bool { return errors.Is(err, store.ErrAlreadyExists) },
		status:  http.StatusInternalServerError,
		body: ErrorResponse{
			Error:       "server_error",
			Description: "Token could not be issued. Please retry.",
		},
	},
	{
		matches: func(err error) bool {
			var infra *service.InfrastructureError
			return errors.As(err, &infra)
		},
		status: http.StatusServiceUnavailable,
		body: ErrorResponse{
			Error:       "temporarily_unavailable",
			Description: "A backing service is unreachable. Please retry.",
		},
	},
}

// writeError renders err through the mapping table. Unmatched errors fall
// back to a generic 500 so no internal detail leaks to the client.
func writeError(w http.ResponseWriter, err error) {
	for _, m := range errorTable {
		if m.matches(err) {
			if m.status == http.StatusUnauthorized {
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
			}
			httpx.WriteJSON(w, m.status, m.body)
			return
		}
	}

	httpx.WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error: "server_error",
	})
}

func writeInvalidRequest(w http.ResponseWriter, description string) {
	httpx.WriteJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:       "invalid_request",
		Description: description,
	})
}

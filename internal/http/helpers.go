package http

import (
	"errors"
	"net/http"
	"strings"

	"bookkeeper/internal/backup"
	"bookkeeper/internal/core"
	"bookkeeper/internal/hierarchy"
	applog "bookkeeper/internal/log"
	"bookkeeper/internal/session"
)

// sanitizeInput removes control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// errorResponse maps domain errors to HTTP responses.
func errorResponse(err error) *JSONResponseBuilder {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		return UnprocessableEntityError(verr.Field, verr.Err.Error())
	case errors.Is(err, session.ErrAuthentication):
		return UnauthorizedError("invalid username or password")
	case errors.Is(err, core.ErrNotFound):
		return NotFoundError(err.Error())
	case errors.Is(err, backup.ErrNoBackups):
		return NotFoundError(err.Error())
	case errors.Is(err, core.ErrCorruptDocument):
		return BadRequestError(err.Error())
	case errors.Is(err, hierarchy.ErrUnknownKind):
		return BadRequestError(err.Error())
	case errors.Is(err, ErrInvalidMonth):
		return BadRequestError(err.Error())
	default:
		return InternalServerError("internal error")
	}
}

// writeError logs server-side failures and writes the mapped response.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	resp := errorResponse(err)
	if resp.statusCode >= 500 {
		applog.FromContext(r.Context()).LogError(r.Context(), "Request failed", err, op)
	}
	resp.Write(w)
}

package restserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/chrissnell/wellmrc/internal/hydro"
	"github.com/chrissnell/wellmrc/internal/session"
	"github.com/chrissnell/wellmrc/internal/store"
)

// StatusClientClosedRequest is the nginx convention for a request abandoned
// by the client before the server answered.
const StatusClientClosedRequest = 499

var errNoStore = errors.New("no fit result store is configured")

// requestError is a malformed or inconsistent request body
type requestError struct {
	err error
}

func (e *requestError) Error() string {
	return e.err.Error()
}

func (e *requestError) Unwrap() error {
	return e.err
}

func badRequestf(format string, args ...any) error {
	return &requestError{err: fmt.Errorf(format, args...)}
}

// classify maps an error to an HTTP status and a short kind for the body
func classify(err error) (int, string) {
	var re *requestError
	switch {
	case errors.As(err, &re):
		return http.StatusBadRequest, "request"
	case hydro.IsInputError(err):
		return http.StatusBadRequest, "input"
	case hydro.IsConvergenceError(err):
		return http.StatusUnprocessableEntity, "convergence"
	case hydro.IsCancelled(err), errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, session.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, errNoStore):
		return http.StatusServiceUnavailable, "no_store"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// writeError logs err and sends it to the client with its mapped status
func (h *Handlers) writeError(w http.ResponseWriter, req *http.Request, err error) {
	status, kind := classify(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		h.logger.Errorw("request failed", "path", req.URL.Path, "error", err)
	} else {
		h.logger.Debugw("request rejected", "path", req.URL.Path, "status", status, "error", err)
	}
	if werr := h.formatter.WriteError(w, req, status, kind, err); werr != nil {
		h.logger.Errorf("error writing error response: %v", werr)
	}
}

package handlers

import (
	"net/http"
	"sync/atomic"

	apperrors "github.com/nemy/nemy/internal/errors"
)

// ErrorResponder writes err as an HTTP error response.
type ErrorResponder func(http.ResponseWriter, *http.Request, error)

var errorResponder atomic.Pointer[ErrorResponder]

// SetHTTPErrorResponder routes handler errors through responder, normally the
// server's central handler. Nil restores the envelope writer.
func SetHTTPErrorResponder(responder func(http.ResponseWriter, *http.Request, error)) {
	if responder == nil {
		errorResponder.Store(nil)
		return
	}
	r := ErrorResponder(responder)
	errorResponder.Store(&r)
}

// ResetHTTPErrorResponder restores the envelope writer.
func ResetHTTPErrorResponder() {
	SetHTTPErrorResponder(nil)
}

func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	if responder := errorResponder.Load(); responder != nil {
		(*responder)(w, r, err)
		return
	}
	apperrors.RespondWithError(w, r, err)
}

package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/nemy/nemy/internal/errors"
)

func TestErrorResponderOverrideAndReset(t *testing.T) {
	t.Cleanup(ResetHTTPErrorResponder)

	var seen error
	SetHTTPErrorResponder(func(w http.ResponseWriter, r *http.Request, err error) {
		seen = err
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	respondWithError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("boom"))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.EqualError(t, seen, "boom")

	ResetHTTPErrorResponder()
	rec = httptest.NewRecorder()
	respondWithError(rec, httptest.NewRequest(http.MethodGet, "/", nil), apperrors.NewNotFoundError("missing"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error", New(ErrInvalidInput, http.StatusUnprocessableEntity, "bad"), http.StatusUnprocessableEntity},
		{"wrapped not found", fmt.Errorf("section s1: %w", ErrNotFound), http.StatusNotFound},
		{"invalid input", ErrInvalidInput, http.StatusBadRequest},
		{"corpus unavailable", fmt.Errorf("reload: %w", ErrCorpusUnavailable), http.StatusServiceUnavailable},
		{"timeout", ErrTimeout, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatusCode(tt.err))
		})
	}
}

func TestAppError_UnwrapAndMessage(t *testing.T) {
	err := fmt.Errorf("parsing limit: %w", Invalidf("limit must be at most %d", 500))

	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "limit must be at most 500", Message(err))
	assert.Equal(t, http.StatusBadRequest, HTTPStatusCode(err))
	assert.Equal(t, "Service Unavailable", Message(ErrCorpusUnavailable))
}

func TestNew_DerivesStatusFromSentinel(t *testing.T) {
	err := New(ErrCacheUnavailable, 0, "")
	assert.Equal(t, http.StatusServiceUnavailable, err.StatusCode)
	assert.Equal(t, "cache unavailable", err.Error())
	assert.Equal(t, "Service Unavailable", Message(err))

	nf := NotFoundf("section %q not found", "us-5")
	assert.Equal(t, `not found: section "us-5" not found`, nf.Error())
	assert.Equal(t, http.StatusNotFound, HTTPStatusCode(nf))
}

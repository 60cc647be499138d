package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainErrorCodes(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{NewValidationError("bad", nil), "VALIDATION_FAILED", http.StatusBadRequest},
		{NewNotFound("ticket", nil), "NOT_FOUND", http.StatusNotFound},
		{NewUnauthorized("who"), "UNAUTHORIZED", http.StatusUnauthorized},
		{NewForbidden("no"), "FORBIDDEN", http.StatusForbidden},
		{NewConflict("taken", nil), "CONFLICT", http.StatusConflict},
		{NewInternalError(errors.New("boom")), "INTERNAL_ERROR", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		var domainErr *DomainError
		require.ErrorAs(t, tc.err, &domainErr)
		assert.Equal(t, tc.code, domainErr.Code)
		assert.Equal(t, tc.status, domainErr.HTTPStatus)
	}
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("loading ticket: %w", NewNotFound("ticket", nil))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsConflict(wrapped))
	assert.False(t, IsForbidden(wrapped))
}

func TestToDomainErrorWrapsUnknown(t *testing.T) {
	plain := errors.New("connection reset")
	domainErr := ToDomainError(plain)
	assert.Equal(t, "INTERNAL_ERROR", domainErr.Code)
	assert.ErrorIs(t, domainErr, plain)

	original := NewForbidden("nope")
	var de *DomainError
	require.ErrorAs(t, original, &de)
	assert.Same(t, de, ToDomainError(original))
	assert.Nil(t, ToDomainError(nil))
}

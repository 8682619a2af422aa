package main

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"conecta-core-integrations-layer/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestStatusForError(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest,
		statusForError(domain.NewValidationError("to", "recipient is required")))
	assert.Equal(t, http.StatusServiceUnavailable,
		statusForError(&domain.ConfigurationError{Platform: "omie", Missing: []string{"appSecret"}}))
	assert.Equal(t, http.StatusBadGateway,
		statusForError(domain.NewUpstreamError("bling", "find_product", "invalid_token", nil)))
	assert.Equal(t, http.StatusInternalServerError,
		statusForError(errors.New("mongo unavailable")))

	// Wrapped errors still map by their taxonomy.
	assert.Equal(t, http.StatusBadRequest,
		statusForError(fmt.Errorf("configure: %w", domain.NewValidationError("platform", "unknown platform"))))
}

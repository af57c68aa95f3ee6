package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeMissingSector, http.StatusBadRequest},
		{CodeInvalidSector, http.StatusBadRequest},
		{CodeInvalidDateRange, http.StatusBadRequest},
		{CodeInvalidDates, http.StatusBadRequest},
		{CodeInvalidOperation, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeDatabase, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.Status())
		})
	}
}

func TestAsThroughWrapping(t *testing.T) {
	base := New(CodeNotFound, "No detail data for sector.")
	wrapped := fmt.Errorf("detail: %w", base)

	got, ok := As(wrapped)
	assert.True(t, ok)
	assert.Same(t, base, got)
	assert.True(t, IsCode(wrapped, CodeNotFound))
	assert.False(t, IsCode(wrapped, CodeDatabase))
	assert.True(t, errors.Is(wrapped, New(CodeNotFound, "")))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("login failed")
	err := Wrap(CodeDatabase, "Database error.", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Database error.: login failed", err.Error())
	assert.Equal(t, http.StatusInternalServerError, err.Status())
}
